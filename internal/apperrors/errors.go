package apperrors

import "net/http"

type ErrorCode string

// error codes returned in the "error" field of the backend envelope
const (
	ErrCodeAuthenticationFailure ErrorCode = "authentication_error"
	ErrCodeCSRFMismatch          ErrorCode = "csrf_mismatch"
	ErrCodeForbidden             ErrorCode = "forbidden"
	ErrCodeInternalError         ErrorCode = "internal_error"
	ErrCodeInvalidRequest        ErrorCode = "invalid_request"
	ErrCodeMalformedBody         ErrorCode = "malformed_body"
	ErrCodeRateLimitExceeded     ErrorCode = "rate_limit_exceeded"
	ErrCodeRequestTooLarge       ErrorCode = "request_too_large"
	ErrCodeResourceAlreadyExists ErrorCode = "resource_already_exists"
	ErrCodeResourceNotFound      ErrorCode = "resource_not_found"
	ErrCodeTokenInvalid          ErrorCode = "token_invalid"
	ErrCodeValidationFailed      ErrorCode = "validation_failed"
	ErrCodeBackendUnavailable    ErrorCode = "backend_unavailable"
)

// Kind classifies a failed API call for the UI layer.
type Kind string

const (
	KindNetwork      Kind = "network"
	KindValidation   Kind = "validation"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindNotFound     Kind = "not_found"
	KindRateLimited  Kind = "rate_limited"
	KindServer       Kind = "server"
	KindUnknown      Kind = "unknown"
)

// KindForStatus maps an http status code to an error kind. Status 0 means no response was received.
func KindForStatus(status int) Kind {
	switch {
	case status == 0:
		return KindNetwork
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return KindValidation
	case status == http.StatusUnauthorized:
		return KindUnauthorized
	case status == http.StatusForbidden:
		return KindForbidden
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusTooManyRequests:
		return KindRateLimited
	case status >= 500:
		return KindServer
	default:
		return KindUnknown
	}
}

// UserMessage returns the copy shown to the end user for an error kind.
// Validation, not found and unknown errors prefer the message supplied by the server.
func UserMessage(kind Kind, serverMessage string) string {
	switch kind {
	case KindNetwork:
		return "Unable to connect. Please check your internet connection and try again."
	case KindValidation:
		if serverMessage != "" {
			return serverMessage
		}
		return "Invalid request. Please check your input and try again."
	case KindUnauthorized:
		return "Your session has ended. Please log in again."
	case KindForbidden:
		return "You don't have permission to perform this action."
	case KindNotFound:
		if serverMessage != "" {
			return serverMessage
		}
		return "The requested item could not be found."
	case KindRateLimited:
		return "Too many requests. Please try again in a few moments."
	case KindServer:
		return "Server error. Please try again later."
	default:
		if serverMessage != "" {
			return serverMessage
		}
		return "An error occurred. Please try again."
	}
}
