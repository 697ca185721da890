package handlers

import (
	"errors"
	"net/http"

	"github.com/pondok-digital/portal/internal/response"
	"github.com/pondok-digital/portal/internal/store"
)

// Collection serves CRUD endpoints for a simple named resource (categories, tags, videos, achievements, galleries).
// In is the validated request payload used to create and update rows of T.
type Collection[T any, In any] struct {
	store  *store.Store
	table  *store.Table[T]
	entity string

	// build creates the row for a new id
	build func(id uint, in In) (T, error)
	// apply updates an existing row
	apply func(row *T, in In) error
	// conflicts reports a uniqueness clash with an existing row, nil when rows are never unique
	conflicts func(existing, row T) bool
}

func (c *Collection[T, In]) ListHandler(w http.ResponseWriter, r *http.Request) {
	response.RespondWithData(w, r, http.StatusOK, c.entity+" list retrieved", c.table.List())
}

func (c *Collection[T, In]) GetHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	row, err := c.table.Get(id)
	if err != nil {
		respondWithStoreError(w, r, err, c.entity)
		return
	}
	response.RespondWithData(w, r, http.StatusOK, c.entity+" retrieved", row)
}

func (c *Collection[T, In]) CreateHandler(w http.ResponseWriter, r *http.Request) {
	var req In
	if !decodeValid(w, r, &req) {
		return
	}

	var newID uint
	row, err := c.table.Insert(func(id uint) (T, error) {
		newID = id
		return c.build(id, req)
	}, c.conflicts)
	if err != nil {
		c.respondWithError(w, r, err)
		return
	}

	audit(c.store, r, "CREATE", c.entity, newID)
	response.RespondWithData(w, r, http.StatusCreated, c.entity+" created", row)
}

func (c *Collection[T, In]) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req In
	if !decodeValid(w, r, &req) {
		return
	}

	row, err := c.table.Update(id, func(row *T) error {
		return c.apply(row, req)
	})
	if err != nil {
		c.respondWithError(w, r, err)
		return
	}

	audit(c.store, r, "UPDATE", c.entity, id)
	response.RespondWithData(w, r, http.StatusOK, c.entity+" updated", row)
}

func (c *Collection[T, In]) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := c.table.Delete(id); err != nil {
		respondWithStoreError(w, r, err, c.entity)
		return
	}

	audit(c.store, r, "DELETE", c.entity, id)
	response.RespondWithData(w, r, http.StatusOK, c.entity+" deleted", nil)
}

func (c *Collection[T, In]) respondWithError(w http.ResponseWriter, r *http.Request, err error) {
	var invalid *invalidInputError
	if errors.As(err, &invalid) {
		response.RespondWithFieldErrors(w, r, "Validation failed", map[string]string{invalid.field: invalid.msg})
		return
	}
	respondWithStoreError(w, r, err, c.entity)
}

// invalidInputError is returned by build or apply when a valid payload cannot be stored
type invalidInputError struct {
	field string
	msg   string
}

func (e *invalidInputError) Error() string {
	return e.field + ": " + e.msg
}
