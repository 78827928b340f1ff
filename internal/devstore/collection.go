// Package devstore is the in-memory backing store of the development API server.
package devstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

var (
	// ErrNotFound is returned when no record has the requested id
	ErrNotFound = errors.New("record not found")

	// ErrInvalidPage is returned for a page beyond the last one
	ErrInvalidPage = errors.New("invalid page")
)

// Record is one stored object, shaped as its JSON representation
type Record map[string]any

// ID returns the record id, or 0 when it has none
func (r Record) ID() int64 {
	switch v := r["id"].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}

// Clone returns a shallow copy of the record
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Query selects one page of a collection
type Query struct {
	Page     int
	PageSize int
	Search   string
	// Filters are matched by equality against the formatted field value
	Filters map[string]string
}

// Page is one page of records plus the total match count
type Page struct {
	Count   int64
	Page    int
	Results []Record
}

// Collection is a thread-safe set of records with auto-increment ids
type Collection struct {
	name         string
	searchFields []string

	mu      sync.RWMutex
	nextID  int64
	records map[int64]Record
	now     func() time.Time
}

// NewCollection creates an empty collection searching the given fields
func NewCollection(name string, searchFields ...string) *Collection {
	return &Collection{
		name:         name,
		searchFields: searchFields,
		nextID:       1,
		records:      make(map[int64]Record),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Name returns the collection name
func (c *Collection) Name() string {
	return c.name
}

// Len returns the number of stored records
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

// List returns the matching records, newest first
func (c *Collection) List(_ context.Context, q Query) (Page, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		return Page{}, fmt.Errorf("page size must be positive, got %d", q.PageSize)
	}

	c.mu.RLock()
	matched := make([]Record, 0, len(c.records))
	for _, rec := range c.records {
		if c.matches(rec, q) {
			matched = append(matched, rec.Clone())
		}
	}
	c.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool { return matched[i].ID() > matched[j].ID() })

	offset := (q.Page - 1) * q.PageSize
	if q.Page > 1 && offset >= len(matched) {
		return Page{}, ErrInvalidPage
	}
	end := offset + q.PageSize
	if end > len(matched) {
		end = len(matched)
	}

	return Page{Count: int64(len(matched)), Page: q.Page, Results: matched[offset:end]}, nil
}

func (c *Collection) matches(rec Record, q Query) bool {
	for field, want := range q.Filters {
		if format(rec[field]) != want {
			return false
		}
	}
	if q.Search == "" {
		return true
	}
	needle := strings.ToLower(q.Search)
	for _, field := range c.searchFields {
		if strings.Contains(strings.ToLower(format(rec[field])), needle) {
			return true
		}
	}
	return false
}

// Get returns a copy of the record with id
func (c *Collection) Get(_ context.Context, id int64) (Record, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rec, ok := c.records[id]
	if !ok {
		return nil, fmt.Errorf("%s %d: %w", c.name, id, ErrNotFound)
	}
	return rec.Clone(), nil
}

// Create stores rec under a new id and stamps its timestamps
func (c *Collection) Create(_ context.Context, rec Record) (Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stored := rec.Clone()
	id := c.nextID
	c.nextID++
	now := c.now()
	stored["id"] = id
	stored["created_at"] = now
	stored["updated_at"] = now

	c.records[id] = stored
	return stored.Clone(), nil
}

// Update replaces the record with id, keeping its id and created_at
func (c *Collection) Update(_ context.Context, id int64, rec Record) (Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	old, ok := c.records[id]
	if !ok {
		return nil, fmt.Errorf("%s %d: %w", c.name, id, ErrNotFound)
	}

	stored := rec.Clone()
	stored["id"] = id
	stored["created_at"] = old["created_at"]
	stored["updated_at"] = c.now()

	c.records[id] = stored
	return stored.Clone(), nil
}

// Patch merges fields into the record with id
func (c *Collection) Patch(_ context.Context, id int64, fields Record) (Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	old, ok := c.records[id]
	if !ok {
		return nil, fmt.Errorf("%s %d: %w", c.name, id, ErrNotFound)
	}

	stored := old.Clone()
	for k, v := range fields {
		if k == "id" || k == "created_at" {
			continue
		}
		stored[k] = v
	}
	stored["updated_at"] = c.now()

	c.records[id] = stored
	return stored.Clone(), nil
}

// Delete removes the record with id
func (c *Collection) Delete(_ context.Context, id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.records[id]; !ok {
		return fmt.Errorf("%s %d: %w", c.name, id, ErrNotFound)
	}
	delete(c.records, id)
	return nil
}

// format renders a field value the way it appears in a query string
func format(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprint(x)
	}
}
