package models

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"time"
)

const (
	// DefaultPageSize is the page size used when a caller does not choose one
	DefaultPageSize = 10

	// MaxPageSize is the largest page size the remote API accepts
	MaxPageSize = 100
)

// PageSizeOptions are the page sizes offered by list views
var PageSizeOptions = []int{10, 20, 50, 100}

// ErrPageOverflow is returned when a page holds more results than its page size
var ErrPageOverflow = errors.New("page contains more results than page_size")

// PageParams represents one list query against a collection endpoint
type PageParams struct {
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
	Filters  map[string]string `json:"-"`
}

// NewPageParams builds page params, falling back to page 1 and the default page size
func NewPageParams(page, pageSize int, filters Filters) PageParams {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	return PageParams{
		Page:     page,
		PageSize: pageSize,
		Filters:  filters.Clean(),
	}
}

// Values encodes the params as a URL query
func (p PageParams) Values() url.Values {
	v := url.Values{}
	for key, value := range p.Filters {
		v.Set(key, value)
	}
	v.Set("page", strconv.Itoa(p.Page))
	v.Set("page_size", strconv.Itoa(p.PageSize))
	return v
}

// Offset returns the index of the first item on the page
func (p PageParams) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.PageSize
}

// PaginatedResponse is the list envelope returned by collection endpoints
type PaginatedResponse[T any] struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// Validate checks the envelope against the page size it was requested with
func (r *PaginatedResponse[T]) Validate(pageSize int) error {
	if r.Count < 0 {
		return fmt.Errorf("negative count %d", r.Count)
	}
	if pageSize > 0 && len(r.Results) > pageSize {
		return fmt.Errorf("%w: got %d, page_size %d", ErrPageOverflow, len(r.Results), pageSize)
	}
	return nil
}

// TotalPages returns the number of pages for the given page size
func (r *PaginatedResponse[T]) TotalPages(pageSize int) int {
	return TotalPages(r.Count, pageSize)
}

// TotalPages computes ceil(count / pageSize)
func TotalPages(count int64, pageSize int) int {
	if pageSize < 1 || count <= 0 {
		return 0
	}
	pages := int(count) / pageSize
	if int(count)%pageSize > 0 {
		pages++
	}
	return pages
}

// Filters holds ad-hoc list filters keyed by query parameter name
type Filters map[string]any

// Clean drops nil, nil pointers and empty strings and formats the remaining scalars
func (f Filters) Clean() map[string]string {
	out := make(map[string]string, len(f))
	for key, value := range f {
		s, ok := formatFilter(value)
		if !ok {
			continue
		}
		out[key] = s
	}
	return out
}

// Keys returns the filter names in sorted order
func (f Filters) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Copy returns a shallow copy of the filters
func (f Filters) Copy() Filters {
	out := make(Filters, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

func formatFilter(value any) (string, bool) {
	if value == nil {
		return "", false
	}

	rv := reflect.ValueOf(value)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return "", false
		}
		rv = rv.Elem()
	}
	value = rv.Interface()

	switch v := value.(type) {
	case string:
		if v == "" {
			return "", false
		}
		return v, true
	case time.Time:
		if v.IsZero() {
			return "", false
		}
		return v.Format(time.RFC3339), true
	case bool:
		return strconv.FormatBool(v), true
	case fmt.Stringer:
		s := v.String()
		return s, s != ""
	default:
		return fmt.Sprint(v), true
	}
}
