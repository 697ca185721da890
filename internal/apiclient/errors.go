package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/pondok-digital/portal/internal/apperrors"
)

// HTTPError is returned by Send when the backend answers with a non-2xx status.
// Error() is the technical message for logs, UserError() the copy for the end user.
type HTTPError struct {
	StatusCode int
	Message    string              // server-provided message
	Detail     string              // server-provided error detail when it is a plain string
	Errors     map[string][]string // field errors, when the server supplied them
	RequestID  string
	Method     string
	Path       string
	Body       []byte
}

func (e *HTTPError) Error() string {
	msg := fmt.Sprintf("%s %s: backend status %d", e.Method, e.Path, e.StatusCode)
	if e.Message != "" {
		msg += " - " + e.Message
	}
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

func (e *HTTPError) Kind() apperrors.Kind {
	return apperrors.KindForStatus(e.StatusCode)
}

// UserError returns the user-friendly message
func (e *HTTPError) UserError() string {
	return apperrors.UserMessage(e.Kind(), e.Message)
}

// FieldErrors flattens the field errors as "field: message" lines in field order
func (e *HTTPError) FieldErrors() []string {
	fields := make([]string, 0, len(e.Errors))
	for f := range e.Errors {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	var lines []string
	for _, f := range fields {
		for _, m := range e.Errors[f] {
			lines = append(lines, f+": "+m)
		}
	}
	return lines
}

func newHTTPError(req *Request, res *Response) *HTTPError {
	httpErr := &HTTPError{
		StatusCode: res.StatusCode,
		RequestID:  res.RequestID,
		Method:     req.Method,
		Path:       req.Path,
		Body:       res.Body,
	}

	var envelope struct {
		RequestID string          `json:"request_id"`
		Message   string          `json:"message"`
		Error     json.RawMessage `json:"error"`
		Errors    json.RawMessage `json:"errors"`
	}
	if err := json.Unmarshal(res.Body, &envelope); err != nil {
		return httpErr
	}
	httpErr.Message = envelope.Message
	if httpErr.RequestID == "" {
		httpErr.RequestID = envelope.RequestID
	}

	for _, raw := range []json.RawMessage{envelope.Error, envelope.Errors} {
		if len(raw) == 0 || string(raw) == "null" {
			continue
		}
		var detail string
		if json.Unmarshal(raw, &detail) == nil {
			httpErr.Detail = detail
			continue
		}
		if fields := decodeFieldErrors(raw); len(fields) > 0 {
			httpErr.Errors = fields
		}
	}
	return httpErr
}

// decodeFieldErrors accepts {"field": "msg"} and {"field": ["msg", ...]}
func decodeFieldErrors(raw json.RawMessage) map[string][]string {
	var generic map[string]json.RawMessage
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil
	}
	fields := make(map[string][]string, len(generic))
	for field, v := range generic {
		var one string
		if json.Unmarshal(v, &one) == nil {
			fields[field] = []string{one}
			continue
		}
		var many []string
		if json.Unmarshal(v, &many) == nil {
			fields[field] = many
		}
	}
	return fields
}

// ConnectionError is returned when no response was received (status 0).
// The transport error is available through errors.Unwrap.
type ConnectionError struct {
	Method string
	Path   string
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s %s: network error: %v", e.Method, e.Path, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

func (e *ConnectionError) Kind() apperrors.Kind {
	return apperrors.KindNetwork
}

func (e *ConnectionError) UserError() string {
	return apperrors.UserMessage(apperrors.KindNetwork, "")
}

// StatusCode returns the backend status carried by err, or 0 when err is not an *HTTPError
func StatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}

// UserMessage returns end-user copy for any error returned by the client or the services built on it
func UserMessage(err error) string {
	var userErr interface{ UserError() string }
	if errors.As(err, &userErr) {
		return userErr.UserError()
	}
	return apperrors.UserMessage(apperrors.KindUnknown, "")
}

