// Package handlers implements the endpoints of the development backend (portal-mockapi).
//
// Responses use the backend envelope written by the response package and requests are
// validated with the same rules the services apply before sending them.
package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/pondok-digital/portal/internal/apperrors"
	"github.com/pondok-digital/portal/internal/context"
	"github.com/pondok-digital/portal/internal/helpers"
	"github.com/pondok-digital/portal/internal/logger"
	"github.com/pondok-digital/portal/internal/response"
	"github.com/pondok-digital/portal/internal/store"
	"github.com/pondok-digital/portal/internal/validation"
)

const maxPageSize = 100

// decodeValid decodes the request body into v and validates it.
// It writes the error response and returns false when the body is unusable.
func decodeValid(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := helpers.DecodeJSON(r, v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			response.RespondWithError(w, r, http.StatusRequestEntityTooLarge, apperrors.ErrCodeRequestTooLarge, "Request body too large")
			return false
		}
		response.RespondWithError(w, r, http.StatusBadRequest, apperrors.ErrCodeMalformedBody, err.Error())
		return false
	}

	if err := validation.Struct(v); err != nil {
		var verr *validation.Error
		if errors.As(err, &verr) {
			response.RespondWithFieldErrors(w, r, "Validation failed", verr.Fields)
			return false
		}
		response.RespondWithError(w, r, http.StatusInternalServerError, apperrors.ErrCodeInternalError, err.Error())
		return false
	}
	return true
}

// pathID reads the {id} url parameter, writing a 400 when it is not a positive integer
func pathID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, err := helpers.IDParam(r, "id")
	if err != nil {
		respondInvalid(w, r, err.Error())
		return 0, false
	}
	return id, true
}

// respondWithStoreError maps store errors to http responses
func respondWithStoreError(w http.ResponseWriter, r *http.Request, err error, entity string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		response.RespondWithError(w, r, http.StatusNotFound, apperrors.ErrCodeResourceNotFound, fmt.Sprintf("%s not found", entity))
	case errors.Is(err, store.ErrConflict):
		response.RespondWithError(w, r, http.StatusConflict, apperrors.ErrCodeResourceAlreadyExists, fmt.Sprintf("%s already exists", entity))
	default:
		response.RespondWithError(w, r, http.StatusInternalServerError, apperrors.ErrCodeInternalError, err.Error())
	}
}

// pageParams reads page and limit, clamping them to sensible values
func pageParams(r *http.Request, defaultLimit int) (int, int) {
	page := helpers.IntQuery(r, "page", 1)
	limit := helpers.IntQuery(r, "limit", defaultLimit)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > maxPageSize {
		limit = defaultLimit
	}
	return page, limit
}

func paginate[T any](rows []T, page, limit int) ([]T, response.PaginationMeta) {
	items, totalPages := store.Page(rows, page, limit)
	return items, response.PaginationMeta{
		Page:       page,
		Limit:      limit,
		TotalItems: len(rows),
		TotalPages: totalPages,
	}
}

// audit records an action by the authenticated admin in the activity log
func audit(s *store.Store, r *http.Request, action, entityType string, entityID uint) {
	p, ok := context.PrincipalFrom(r.Context())
	if !ok {
		return
	}

	var id *uint
	if entityID != 0 {
		id = &entityID
	}
	s.Record(store.Activity{
		UserID:     p.UserID,
		Action:     action,
		EntityType: entityType,
		EntityID:   id,
		IPAddress:  r.RemoteAddr,
		UserAgent:  r.UserAgent(),
	})

	logger.ContextWithLogAttrs(r.Context(),
		slog.String("audit_action", action),
		slog.String("entity_type", entityType),
	)
}

func respondInvalid(w http.ResponseWriter, r *http.Request, msg string) {
	response.RespondWithError(w, r, http.StatusBadRequest, apperrors.ErrCodeInvalidRequest, msg)
}
