// Package resource binds the admin API collections to typed Go calls.
package resource

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/therealutkarshpriyadarshi/backoffice/internal/request"
	"github.com/therealutkarshpriyadarshi/backoffice/pkg/models"
)

// Resource is a REST collection of T rooted at a path ending in "/"
type Resource[T any] struct {
	client *request.Client
	path   string
}

// New binds T to the collection at path
func New[T any](client *request.Client, path string) *Resource[T] {
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	return &Resource[T]{client: client, path: path}
}

// Path returns the collection path
func (r *Resource[T]) Path() string {
	return r.path
}

// List fetches one page; it has the shape of a table fetch function
func (r *Resource[T]) List(ctx context.Context, params models.PageParams) (*models.PaginatedResponse[T], error) {
	var page models.PaginatedResponse[T]
	if err := r.client.Get(ctx, r.path, params.Values(), &page); err != nil {
		return nil, err
	}
	if page.Results == nil {
		page.Results = []T{}
	}
	return &page, nil
}

// Get fetches one entity
func (r *Resource[T]) Get(ctx context.Context, id int64) (*T, error) {
	var out T
	if err := r.client.Get(ctx, r.item(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Create posts body to the collection
func (r *Resource[T]) Create(ctx context.Context, body any) (*T, error) {
	var out T
	if err := r.client.Post(ctx, r.path, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update replaces an entity with PUT
func (r *Resource[T]) Update(ctx context.Context, id int64, body any) (*T, error) {
	var out T
	if err := r.client.Put(ctx, r.item(id), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Patch partially updates an entity
func (r *Resource[T]) Patch(ctx context.Context, id int64, body any) (*T, error) {
	var out T
	if err := r.client.Patch(ctx, r.item(id), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes an entity; it has the shape of a table delete function
func (r *Resource[T]) Delete(ctx context.Context, id int64) error {
	return r.client.Delete(ctx, r.item(id))
}

// Action posts body to the detail route /{id}/{action}/
func (r *Resource[T]) Action(ctx context.Context, id int64, action string, body any) (*T, error) {
	var out T
	if err := r.client.Post(ctx, fmt.Sprintf("%s%s/", r.item(id), action), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Upload sends body and files as multipart to the collection (id == 0, POST) or to an entity (PATCH)
func (r *Resource[T]) Upload(ctx context.Context, id int64, body any, files []request.File) (*T, error) {
	req := &request.Request{Method: http.MethodPost, Path: r.path, Body: body, Files: files}
	if id != 0 {
		req.Method = http.MethodPatch
		req.Path = r.item(id)
	}

	var out T
	if err := r.client.Do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Resource[T]) item(id int64) string {
	return fmt.Sprintf("%s%d/", r.path, id)
}
