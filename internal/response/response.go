// Package response writes the backend envelope: {request_id, status, message, data, error}.
package response

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/pondok-digital/portal/internal/apperrors"
	"github.com/pondok-digital/portal/internal/logger"
)

type Envelope struct {
	RequestID string `json:"request_id,omitempty"`
	Status    bool   `json:"status"`
	Message   string `json:"message"`
	Data      any    `json:"data,omitzero"`
	Error     any    `json:"error,omitzero"`
}

type PaginationMeta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}

type PaginatedData struct {
	Items any            `json:"items"`
	Meta  PaginationMeta `json:"meta"`
}

func RespondWithData(w http.ResponseWriter, r *http.Request, status int, message string, data any) {
	RespondWithJSON(w, status, Envelope{
		RequestID: middleware.GetReqID(r.Context()),
		Status:    true,
		Message:   message,
		Data:      data,
	})
}

func RespondWithPage(w http.ResponseWriter, r *http.Request, message string, items any, meta PaginationMeta) {
	RespondWithData(w, r, http.StatusOK, message, PaginatedData{Items: items, Meta: meta})
}

// RespondWithError logs the details of the error and writes an error envelope carrying the error code
func RespondWithError(w http.ResponseWriter, r *http.Request, statusCode int, errorCode apperrors.ErrorCode, message string) {
	respondWithError(w, r, statusCode, errorCode, message, errorCode)
}

// RespondWithFieldErrors writes a 400 envelope whose error maps each invalid field to a message
func RespondWithFieldErrors(w http.ResponseWriter, r *http.Request, message string, fields map[string]string) {
	respondWithError(w, r, http.StatusBadRequest, apperrors.ErrCodeValidationFailed, message, fields)
}

func respondWithError(w http.ResponseWriter, r *http.Request, statusCode int, errorCode apperrors.ErrorCode, message string, detail any) {
	reqLogger := logger.ContextRequestLogger(r.Context())
	requestID := middleware.GetReqID(r.Context())

	level := slog.LevelInfo
	switch {
	case statusCode >= 500:
		level = slog.LevelError
	case statusCode >= 400:
		level = slog.LevelWarn
	}
	reqLogger.Log(r.Context(), level, "Request failed",
		slog.Int("status", statusCode),
		slog.String("error_code", string(errorCode)),
		slog.String("error_message", message),
	)

	RespondWithJSON(w, statusCode, Envelope{
		RequestID: requestID,
		Status:    false,
		Message:   message,
		Error:     detail,
	})
}

func RespondWithJSON(w http.ResponseWriter, status int, payload any) {
	if status == http.StatusNoContent {
		w.WriteHeader(status)
		return
	}

	dat, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"status":false,"message":"Internal Server Error","error":"internal_error"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(dat)
}
