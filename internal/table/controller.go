// Package table holds the paginated list controller shared by every admin list view.
package table

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/therealutkarshpriyadarshi/backoffice/internal/notify"
	"github.com/therealutkarshpriyadarshi/backoffice/pkg/models"
)

// User-facing messages
const (
	MsgFetchFailed   = "Failed to fetch data"
	MsgDeleteSuccess = "Deleted successfully"
	MsgDeleteFailed  = "Delete failed"
)

var (
	// ErrStale is returned by a load that was superseded by a newer one before it resolved
	ErrStale = errors.New("superseded by a newer load")

	// ErrDeleteUnsupported is returned by HandleDelete when no delete function was configured
	ErrDeleteUnsupported = errors.New("table has no delete function")

	// ErrNotStarted is returned by Refresh before the first load
	ErrNotStarted = errors.New("table has not been started")
)

// FetchFunc loads one page of a collection
type FetchFunc[T any] func(ctx context.Context, params models.PageParams) (*models.PaginatedResponse[T], error)

// DeleteFunc removes one entity by id
type DeleteFunc func(ctx context.Context, id int64) error

// Pagination is the paging position of the data currently shown
type Pagination struct {
	Current  int   `json:"current"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total"`
}

// TotalPages returns the page count for Total and PageSize
func (p Pagination) TotalPages() int {
	return models.TotalPages(p.Total, p.PageSize)
}

// TableState is a snapshot of a controller
type TableState[T any] struct {
	Data       []T
	Loading    bool
	Pagination Pagination
	Filters    models.Filters
	State      State
	Err        error
	Generation uint64
}

type options struct {
	name      string
	pageSize  int
	filters   models.Filters
	del       DeleteFunc
	onSuccess func()
	notifier  notify.Notifier
	publisher EventPublisher
	logger    logrus.FieldLogger
}

// Option configures a Controller
type Option func(*options)

// WithName labels the controller in events and logs
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithPageSize sets the initial page size
func WithPageSize(n int) Option {
	return func(o *options) { o.pageSize = n }
}

// WithFilters sets the filters used by the first load
func WithFilters(f models.Filters) Option {
	return func(o *options) { o.filters = f.Copy() }
}

// WithDelete enables HandleDelete
func WithDelete(fn DeleteFunc) Option {
	return func(o *options) { o.del = fn }
}

// WithOnSuccess sets a callback run after every successful delete
func WithOnSuccess(fn func()) Option {
	return func(o *options) { o.onSuccess = fn }
}

// WithNotifier sets the user notification channel
func WithNotifier(n notify.Notifier) Option {
	return func(o *options) { o.notifier = n }
}

// WithPublisher sets the receiver of state transition events
func WithPublisher(p EventPublisher) Option {
	return func(o *options) { o.publisher = p }
}

// WithLogger sets the logger
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) { o.logger = l }
}

// Controller owns the data, loading flag, pagination and filters of one list.
// Every load is tagged with a generation; only the latest issued load may
// change the state, older ones resolve with ErrStale.
type Controller[T any] struct {
	fetch   FetchFunc[T]
	opts    options
	machine *StateMachine

	mu          sync.Mutex
	state       TableState[T]
	last        models.PageParams
	lastFilters models.Filters
	started     bool
}

// New creates a controller without loading anything
func New[T any](fetch FetchFunc[T], opts ...Option) *Controller[T] {
	o := options{
		pageSize:  models.DefaultPageSize,
		notifier:  notify.Nop{},
		publisher: NopPublisher{},
		logger:    logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.pageSize < 1 {
		o.pageSize = models.DefaultPageSize
	}
	if o.filters == nil {
		o.filters = models.Filters{}
	}

	return &Controller[T]{
		fetch:   fetch,
		opts:    o,
		machine: NewStateMachine(),
		state: TableState[T]{
			Data:       []T{},
			Pagination: Pagination{Current: 1, PageSize: o.pageSize},
			Filters:    o.filters,
			State:      StateIdle,
		},
	}
}

// Open creates a controller and loads its first page
func Open[T any](ctx context.Context, fetch FetchFunc[T], opts ...Option) (*Controller[T], error) {
	c := New(fetch, opts...)
	return c, c.Start(ctx)
}

// Start loads page 1 with the initial page size and filters
func (c *Controller[T]) Start(ctx context.Context) error {
	c.mu.Lock()
	pageSize := c.opts.pageSize
	filters := c.state.Filters
	c.mu.Unlock()

	return c.load(ctx, 1, pageSize, filters)
}

// SetFilters replaces the active filters and loads page 1
func (c *Controller[T]) SetFilters(ctx context.Context, filters models.Filters) error {
	f := filters.Copy()

	c.mu.Lock()
	c.state.Filters = f
	pageSize := c.currentPageSize()
	c.mu.Unlock()

	return c.load(ctx, 1, pageSize, f)
}

// OnPageChange loads page with pageSize. A page size change always goes back to page 1.
func (c *Controller[T]) OnPageChange(ctx context.Context, page, pageSize int) error {
	c.mu.Lock()
	current := c.currentPageSize()
	filters := c.state.Filters
	c.mu.Unlock()

	if pageSize < 1 {
		pageSize = current
	}
	if pageSize != current {
		page = 1
	}
	return c.load(ctx, page, pageSize, filters)
}

// Refresh repeats the last issued load
func (c *Controller[T]) Refresh(ctx context.Context) error {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return ErrNotStarted
	}
	last := c.last
	filters := c.lastFilters
	c.mu.Unlock()

	return c.load(ctx, last.Page, last.PageSize, filters)
}

// HandleDelete deletes id and refreshes the table once. A nil result means the
// delete succeeded; refresh failures are reported through the table state.
func (c *Controller[T]) HandleDelete(ctx context.Context, id int64) error {
	if c.opts.del == nil {
		return ErrDeleteUnsupported
	}

	if err := c.opts.del(ctx, id); err != nil {
		c.opts.notifier.Error(ctx, MsgDeleteFailed)
		return fmt.Errorf("delete %d: %w", id, err)
	}
	c.opts.notifier.Success(ctx, MsgDeleteSuccess)

	if err := c.Refresh(ctx); err != nil && !errors.Is(err, ErrStale) {
		c.opts.logger.WithError(err).WithField("table", c.opts.name).Debug("Refresh after delete failed")
	}
	if c.opts.onSuccess != nil {
		c.opts.onSuccess()
	}
	return nil
}

// Snapshot returns a copy of the current state
func (c *Controller[T]) Snapshot() TableState[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.state
	s.Data = append([]T(nil), c.state.Data...)
	s.Filters = c.state.Filters.Copy()
	return s
}

// Name returns the label given with WithName
func (c *Controller[T]) Name() string {
	return c.opts.name
}

// currentPageSize is the page size of the last page shown; a failed load leaves
// it unchanged. Must be called with mu held.
func (c *Controller[T]) currentPageSize() int {
	return c.state.Pagination.PageSize
}

func (c *Controller[T]) load(ctx context.Context, page, pageSize int, filters models.Filters) error {
	params := models.NewPageParams(page, pageSize, filters)

	c.mu.Lock()
	from := c.state.State
	if err := c.machine.ValidateTransition(from, StateLoading); err != nil {
		c.mu.Unlock()
		return err
	}
	c.state.Generation++
	gen := c.state.Generation
	c.state.State = StateLoading
	c.state.Loading = true
	c.last = params
	c.lastFilters = filters.Copy()
	c.started = true
	c.mu.Unlock()

	c.publish(gen, from, StateLoading, nil)

	resp, err := c.fetch(ctx, params)
	if err == nil {
		if resp == nil {
			err = errors.New("fetch returned no page")
		} else {
			err = resp.Validate(params.PageSize)
		}
	}

	c.mu.Lock()
	if gen != c.state.Generation {
		c.mu.Unlock()
		return ErrStale
	}

	if err != nil {
		c.state.State = StateError
		c.state.Loading = false
		c.state.Err = err
		c.mu.Unlock()

		c.publish(gen, StateLoading, StateError, err)
		c.opts.notifier.Error(ctx, MsgFetchFailed)
		return fmt.Errorf("fetch page %d: %w", params.Page, err)
	}

	data := resp.Results
	if data == nil {
		data = []T{}
	}
	c.state.Data = data
	c.state.Pagination = Pagination{Current: params.Page, PageSize: params.PageSize, Total: resp.Count}
	c.state.State = StateReady
	c.state.Loading = false
	c.state.Err = nil
	c.mu.Unlock()

	c.publish(gen, StateLoading, StateReady, nil)
	return nil
}

func (c *Controller[T]) publish(gen uint64, from, to State, err error) {
	event := TransitionEvent{
		Table:      c.opts.name,
		Generation: gen,
		From:       from,
		To:         to,
		Err:        err,
		At:         time.Now().UTC(),
	}
	if perr := c.opts.publisher.Publish(event); perr != nil {
		c.opts.logger.WithError(perr).WithField("table", c.opts.name).Warn("Failed to publish table event")
	}
}
