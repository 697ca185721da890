package services

import (
	"context"
	"net/http"

	"github.com/pondok-digital/portal/internal/apiclient"
	"github.com/pondok-digital/portal/internal/schemas"
)

// Resource is the CRUD surface shared by the simple named collections
// (categories, tags, videos, achievements, galleries). T is the resource and In the payload
// used to create or update it.
type Resource[T any, In any] struct {
	client *apiclient.Client
	path   string
}

func NewResource[T any, In any](client *apiclient.Client, path string) *Resource[T, In] {
	return &Resource[T, In]{client: client, path: path}
}

func (r *Resource[T, In]) Path() string {
	return r.path
}

func (r *Resource[T, In]) List(ctx context.Context) ([]T, error) {
	var items []T
	if err := get(ctx, r.client, r.path, nil, schemas.NamedResourceList, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *Resource[T, In]) Get(ctx context.Context, id uint) (*T, error) {
	var item T
	if err := get(ctx, r.client, idPath(r.path, id), nil, schemas.NamedResource, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *Resource[T, In]) Create(ctx context.Context, in In) (*T, error) {
	var item T
	if err := send(ctx, r.client, http.MethodPost, r.path, nil, in, schemas.NamedResource, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *Resource[T, In]) Update(ctx context.Context, id uint, in In) error {
	return send(ctx, r.client, http.MethodPut, idPath(r.path, id), nil, in, "", nil)
}

func (r *Resource[T, In]) Delete(ctx context.Context, id uint) error {
	return send(ctx, r.client, http.MethodDelete, idPath(r.path, id), nil, nil, "", nil)
}
