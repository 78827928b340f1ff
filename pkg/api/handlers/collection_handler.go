package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/therealutkarshpriyadarshi/backoffice/internal/devstore"
	"github.com/therealutkarshpriyadarshi/backoffice/pkg/api/dto"
	"github.com/therealutkarshpriyadarshi/backoffice/pkg/api/middleware"
	"github.com/therealutkarshpriyadarshi/backoffice/pkg/models"
)

// CollectionStore persists the records of one collection
type CollectionStore interface {
	List(ctx context.Context, q devstore.Query) (devstore.Page, error)
	Get(ctx context.Context, id int64) (devstore.Record, error)
	Create(ctx context.Context, rec devstore.Record) (devstore.Record, error)
	Update(ctx context.Context, id int64, rec devstore.Record) (devstore.Record, error)
	Patch(ctx context.Context, id int64, fields devstore.Record) (devstore.Record, error)
	Delete(ctx context.Context, id int64) error
}

// reservedParams are list query parameters that are not field filters
var reservedParams = map[string]bool{"page": true, "page_size": true, "search": true, "ordering": true}

// CollectionHandler serves CRUD endpoints for one entity type
type CollectionHandler struct {
	store    CollectionStore
	decode   func(body []byte) (devstore.Record, error)
	textOnly map[string]bool
	actions  map[string]devstore.Action
	media    string
}

// NewCollectionHandler creates a handler validating request bodies as T
func NewCollectionHandler[T any](store CollectionStore, media string) *CollectionHandler {
	return &CollectionHandler{
		store:    store,
		decode:   decodeAs[T],
		textOnly: textFields[T](),
		actions:  make(map[string]devstore.Action),
		media:    media,
	}
}

// WithAction registers a POST /:id/<name>/ workflow action
func (h *CollectionHandler) WithAction(name string, action devstore.Action) *CollectionHandler {
	h.actions[name] = action
	return h
}

// Register mounts the collection routes on g
func (h *CollectionHandler) Register(g *gin.RouterGroup) {
	g.GET("/", h.List)
	g.POST("/", h.Create)
	g.GET("/:id/", h.Get)
	g.PUT("/:id/", h.Update)
	g.PATCH("/:id/", h.Patch)
	g.DELETE("/:id/", h.Delete)
	g.POST("/:id/:action/", h.Action)
}

func decodeAs[T any](body []byte) (devstore.Record, error) {
	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, err
	}
	if err := middleware.ValidateRequest(&v); err != nil {
		return nil, err
	}
	return devstore.ToRecord(v)
}

// textFields returns the JSON names of the string-typed fields of T
func textFields[T any]() map[string]bool {
	out := make(map[string]bool)
	t := reflect.TypeOf((*T)(nil)).Elem()
	if t.Kind() != reflect.Struct {
		return out
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		ft := f.Type
		if ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			continue
		}
		if ft.Kind() == reflect.String || ft == reflect.TypeOf(time.Time{}) {
			out[name] = true
		}
	}
	return out
}

// List handles GET /
// @Summary List records
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Page size" default(10)
// @Param search query string false "Search term"
// @Success 200 {object} dto.ListResponse
// @Failure 404 {object} dto.ErrorResponse
func (h *CollectionHandler) List(c *gin.Context) {
	var params dto.ListQueryParams
	if !middleware.BindQuery(c, &params) {
		return
	}
	if params.Page == 0 {
		params.Page = 1
	}
	if params.PageSize == 0 {
		params.PageSize = models.DefaultPageSize
	}

	filters := make(map[string]string)
	for key, values := range c.Request.URL.Query() {
		if reservedParams[key] || len(values) == 0 || values[0] == "" {
			continue
		}
		filters[key] = values[0]
	}

	page, err := h.store.List(c.Request.Context(), devstore.Query{
		Page:     params.Page,
		PageSize: params.PageSize,
		Search:   params.Search,
		Filters:  filters,
	})
	if err != nil {
		if errors.Is(err, devstore.ErrInvalidPage) {
			middleware.AbortWithError(c, http.StatusNotFound, "not_found", "Invalid page.")
			return
		}
		middleware.AbortWithError(c, http.StatusInternalServerError, "list_failed", err.Error())
		return
	}

	c.JSON(http.StatusOK, dto.NewListResponse(requestURL(c), page, params.PageSize))
}

// Get handles GET /:id/
// @Summary Get a record
// @Produce json
// @Success 200 {object} devstore.Record
// @Failure 404 {object} dto.ErrorResponse
func (h *CollectionHandler) Get(c *gin.Context) {
	id, ok := h.id(c)
	if !ok {
		return
	}

	rec, err := h.store.Get(c.Request.Context(), id)
	if err != nil {
		h.abort(c, err)
		return
	}

	c.JSON(http.StatusOK, rec)
}

// Create handles POST /
// @Summary Create a record
// @Accept json,mpfd
// @Produce json
// @Success 201 {object} devstore.Record
// @Failure 400 {object} dto.ErrorResponse
func (h *CollectionHandler) Create(c *gin.Context) {
	rec, ok := h.readBody(c, true)
	if !ok {
		return
	}
	delete(rec, "id")

	created, err := h.store.Create(c.Request.Context(), rec)
	if err != nil {
		h.abort(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

// Update handles PUT /:id/
// @Summary Replace a record
// @Accept json
// @Produce json
// @Success 200 {object} devstore.Record
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
func (h *CollectionHandler) Update(c *gin.Context) {
	id, ok := h.id(c)
	if !ok {
		return
	}
	rec, ok := h.readBody(c, true)
	if !ok {
		return
	}

	updated, err := h.store.Update(c.Request.Context(), id, rec)
	if err != nil {
		h.abort(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// Patch handles PATCH /:id/
// @Summary Update some fields of a record
// @Accept json,mpfd
// @Produce json
// @Success 200 {object} devstore.Record
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
func (h *CollectionHandler) Patch(c *gin.Context) {
	id, ok := h.id(c)
	if !ok {
		return
	}
	fields, ok := h.readBody(c, false)
	if !ok {
		return
	}

	patched, err := h.store.Patch(c.Request.Context(), id, fields)
	if err != nil {
		h.abort(c, err)
		return
	}

	c.JSON(http.StatusOK, patched)
}

// Delete handles DELETE /:id/
// @Summary Delete a record
// @Success 204
// @Failure 404 {object} dto.ErrorResponse
func (h *CollectionHandler) Delete(c *gin.Context) {
	id, ok := h.id(c)
	if !ok {
		return
	}

	if err := h.store.Delete(c.Request.Context(), id); err != nil {
		h.abort(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Action handles POST /:id/:action/
// @Summary Run a workflow action on a record
// @Accept json
// @Produce json
// @Success 200 {object} devstore.Record
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
func (h *CollectionHandler) Action(c *gin.Context) {
	action, exists := h.actions[c.Param("action")]
	if !exists {
		middleware.AbortWithError(c, http.StatusNotFound, "not_found", "Not found.")
		return
	}
	id, ok := h.id(c)
	if !ok {
		return
	}

	body := map[string]any{}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
			middleware.AbortWithError(c, http.StatusBadRequest, "parse_error", "JSON parse error - "+err.Error())
			return
		}
	}

	ctx := c.Request.Context()
	rec, err := h.store.Get(ctx, id)
	if err != nil {
		h.abort(c, err)
		return
	}

	fields, err := action(rec, body)
	if err != nil {
		h.abort(c, err)
		return
	}

	patched, err := h.store.Patch(ctx, id, fields)
	if err != nil {
		h.abort(c, err)
		return
	}

	c.JSON(http.StatusOK, patched)
}

func (h *CollectionHandler) id(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		middleware.AbortWithError(c, http.StatusNotFound, "not_found", "Not found.")
		return 0, false
	}
	return id, true
}

// readBody decodes a JSON or multipart body; full bodies are validated as the entity type
func (h *CollectionHandler) readBody(c *gin.Context, full bool) (devstore.Record, bool) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		return h.readMultipart(c)
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		middleware.AbortWithError(c, http.StatusBadRequest, "parse_error", err.Error())
		return nil, false
	}

	if !full {
		var fields devstore.Record
		if err := json.Unmarshal(body, &fields); err != nil {
			middleware.AbortWithError(c, http.StatusBadRequest, "parse_error", "JSON parse error - "+err.Error())
			return nil, false
		}
		return fields, true
	}

	rec, err := h.decode(body)
	if err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
			middleware.AbortWithError(c, http.StatusBadRequest, "parse_error", "JSON parse error - "+err.Error())
			return nil, false
		}
		middleware.AbortWithFieldErrors(c, "Request validation failed", middleware.ValidationErrorResponse(err))
		return nil, false
	}
	return rec, true
}

// readMultipart keeps scalar fields as strings and stores uploaded files as media URLs
func (h *CollectionHandler) readMultipart(c *gin.Context) (devstore.Record, bool) {
	form, err := c.MultipartForm()
	if err != nil {
		middleware.AbortWithError(c, http.StatusBadRequest, "parse_error", "Multipart form parse error - "+err.Error())
		return nil, false
	}

	rec := devstore.Record{}
	for key, values := range form.Value {
		if len(values) == 0 {
			continue
		}
		rec[key] = h.formValue(key, values[0])
	}
	for field, files := range form.File {
		if len(files) == 0 {
			continue
		}
		rec[field] = path.Join(h.media, field, path.Base(files[0].Filename))
	}
	return rec, true
}

// formValue keeps text fields as sent and reads the rest as JSON literals
func (h *CollectionHandler) formValue(key, value string) any {
	if h.textOnly[key] {
		return value
	}
	var v any
	if err := json.Unmarshal([]byte(value), &v); err != nil {
		return value
	}
	return v
}

func (h *CollectionHandler) abort(c *gin.Context, err error) {
	switch {
	case errors.Is(err, devstore.ErrNotFound):
		middleware.AbortWithError(c, http.StatusNotFound, "not_found", "Not found.")
	case errors.Is(err, devstore.ErrInvalidTransition):
		middleware.AbortWithError(c, http.StatusBadRequest, "invalid_transition", err.Error())
	default:
		middleware.AbortWithError(c, http.StatusInternalServerError, "server_error", fmt.Sprintf("Unexpected error: %v", err))
	}
}

func requestURL(c *gin.Context) *url.URL {
	u := *c.Request.URL
	u.Host = c.Request.Host
	u.Scheme = "http"
	if c.Request.TLS != nil {
		u.Scheme = "https"
	}
	return &u
}
