package table

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/therealutkarshpriyadarshi/backoffice/internal/logging"
	"github.com/therealutkarshpriyadarshi/backoffice/internal/notify"
	"github.com/therealutkarshpriyadarshi/backoffice/pkg/models"
)

type row struct {
	ID   int64
	Name string
}

// fakeAPI serves a fixed collection of total rows and records every request
type fakeAPI struct {
	mu       sync.Mutex
	total    int
	fail     error
	requests []models.PageParams
}

func (f *fakeAPI) fetch(_ context.Context, p models.PageParams) (*models.PaginatedResponse[row], error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, p)
	if f.fail != nil {
		return nil, f.fail
	}

	resp := &models.PaginatedResponse[row]{Count: int64(f.total), Results: []row{}}
	for i := p.Offset(); i < f.total && i < p.Offset()+p.PageSize; i++ {
		resp.Results = append(resp.Results, row{ID: int64(i + 1)})
	}
	return resp, nil
}

func (f *fakeAPI) setFail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = err
}

func (f *fakeAPI) last() models.PageParams {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func (f *fakeAPI) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func quiet() Option {
	return WithLogger(logging.Discard())
}

func TestOpen_LoadsFirstPageWithDefaultSize(t *testing.T) {
	api := &fakeAPI{total: 25}

	c, err := Open(context.Background(), api.fetch, quiet())
	require.NoError(t, err)

	p := api.last()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, models.DefaultPageSize, p.PageSize)

	s := c.Snapshot()
	assert.Len(t, s.Data, 10)
	assert.False(t, s.Loading)
	assert.Equal(t, StateReady, s.State)
	assert.Equal(t, Pagination{Current: 1, PageSize: 10, Total: 25}, s.Pagination)
	assert.Equal(t, 3, s.Pagination.TotalPages())
}

func TestNew_IsIdleUntilStarted(t *testing.T) {
	api := &fakeAPI{total: 5}
	c := New(api.fetch, WithPageSize(20), quiet())

	assert.Equal(t, StateIdle, c.Snapshot().State)
	assert.Zero(t, api.count())
	assert.ErrorIs(t, c.Refresh(context.Background()), ErrNotStarted)

	require.NoError(t, c.Start(context.Background()))
	assert.Equal(t, 20, api.last().PageSize)
}

func TestOnPageChange_SizeChangeResetsToFirstPage(t *testing.T) {
	api := &fakeAPI{total: 25}
	c, err := Open(context.Background(), api.fetch, quiet())
	require.NoError(t, err)

	require.NoError(t, c.OnPageChange(context.Background(), 2, 10))
	assert.Equal(t, 2, c.Snapshot().Pagination.Current)

	require.NoError(t, c.OnPageChange(context.Background(), 2, 20))

	p := api.last()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 20, p.PageSize)
	assert.Equal(t, Pagination{Current: 1, PageSize: 20, Total: 25}, c.Snapshot().Pagination)
}

func TestOnPageChange_KeepsFiltersAndClampsPage(t *testing.T) {
	api := &fakeAPI{total: 25}
	c, err := Open(context.Background(), api.fetch, WithFilters(models.Filters{"status": "active"}), quiet())
	require.NoError(t, err)

	require.NoError(t, c.OnPageChange(context.Background(), 0, 10))

	p := api.last()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, "active", p.Filters["status"])
}

func TestSetFilters_ReplacesAndResetsPage(t *testing.T) {
	api := &fakeAPI{total: 25}
	c, err := Open(context.Background(), api.fetch, quiet())
	require.NoError(t, err)
	require.NoError(t, c.OnPageChange(context.Background(), 3, 10))

	require.NoError(t, c.SetFilters(context.Background(), models.Filters{"a": 1, "search": ""}))
	p := api.last()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, map[string]string{"a": "1"}, p.Filters)

	require.NoError(t, c.SetFilters(context.Background(), models.Filters{}))
	p = api.last()
	assert.NotContains(t, p.Filters, "a")
	assert.Empty(t, c.Snapshot().Filters)
}

func TestRefresh_RepeatsLastRequest(t *testing.T) {
	api := &fakeAPI{total: 60}
	c, err := Open(context.Background(), api.fetch, quiet())
	require.NoError(t, err)
	require.NoError(t, c.SetFilters(context.Background(), models.Filters{"level": "ERROR"}))
	require.NoError(t, c.OnPageChange(context.Background(), 2, 10))

	before := api.last()
	require.NoError(t, c.Refresh(context.Background()))
	assert.Equal(t, before, api.last())
}

func TestFetchFailure_KeepsDataAndReports(t *testing.T) {
	api := &fakeAPI{total: 25}
	notes := &notify.Recorder{}
	c, err := Open(context.Background(), api.fetch, WithNotifier(notes), quiet())
	require.NoError(t, err)
	before := c.Snapshot()

	boom := errors.New("boom")
	api.setFail(boom)
	err = c.OnPageChange(context.Background(), 2, 10)
	assert.ErrorIs(t, err, boom)

	s := c.Snapshot()
	assert.False(t, s.Loading)
	assert.Equal(t, StateError, s.State)
	assert.ErrorIs(t, s.Err, boom)
	assert.Equal(t, before.Data, s.Data)
	assert.Equal(t, before.Pagination, s.Pagination)
	assert.Equal(t, []string{MsgFetchFailed}, notes.Messages(notify.LevelError))

	// recovery goes back through loading
	api.setFail(nil)
	require.NoError(t, c.Refresh(context.Background()))
	s = c.Snapshot()
	assert.Equal(t, StateReady, s.State)
	assert.Nil(t, s.Err)
	assert.Equal(t, 2, s.Pagination.Current)
}

func TestOnPageChange_FailedResizeKeepsStoredPageSize(t *testing.T) {
	api := &fakeAPI{total: 25}
	c, err := Open(context.Background(), api.fetch, quiet())
	require.NoError(t, err)
	require.NoError(t, c.OnPageChange(context.Background(), 2, 10))

	api.setFail(errors.New("boom"))
	assert.Error(t, c.OnPageChange(context.Background(), 2, 20))
	assert.Equal(t, Pagination{Current: 2, PageSize: 10, Total: 25}, c.Snapshot().Pagination)

	// the shown page size is still 10, so asking for 20 again is a resize
	api.setFail(nil)
	require.NoError(t, c.OnPageChange(context.Background(), 3, 20))

	p := api.last()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 20, p.PageSize)
	assert.Equal(t, Pagination{Current: 1, PageSize: 20, Total: 25}, c.Snapshot().Pagination)
}

func TestRefresh_RepeatsFiltersOfFailedLoad(t *testing.T) {
	api := &fakeAPI{total: 30}
	c, err := Open(context.Background(), api.fetch, quiet())
	require.NoError(t, err)

	api.setFail(errors.New("boom"))
	assert.Error(t, c.SetFilters(context.Background(), models.Filters{"level": "ERROR", "module": ""}))
	issued := api.last()

	api.setFail(nil)
	require.NoError(t, c.Refresh(context.Background()))
	p := api.last()
	assert.Equal(t, issued, p)
	assert.Equal(t, map[string]string{"level": "ERROR"}, p.Filters)
}

func TestFetch_RejectsOverflowingPage(t *testing.T) {
	fetch := func(_ context.Context, p models.PageParams) (*models.PaginatedResponse[row], error) {
		return &models.PaginatedResponse[row]{Count: 100, Results: make([]row, p.PageSize+1)}, nil
	}
	notes := &notify.Recorder{}

	c, err := Open(context.Background(), fetch, WithNotifier(notes), quiet())

	assert.ErrorIs(t, err, models.ErrPageOverflow)
	assert.Empty(t, c.Snapshot().Data)
	assert.Equal(t, []string{MsgFetchFailed}, notes.Messages(notify.LevelError))
}

func TestLoading_TrueWhileFetchInFlight(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	fetch := func(_ context.Context, p models.PageParams) (*models.PaginatedResponse[row], error) {
		close(entered)
		<-release
		return &models.PaginatedResponse[row]{}, nil
	}
	c := New(fetch, quiet())

	done := make(chan error)
	go func() { done <- c.Start(context.Background()) }()

	<-entered
	s := c.Snapshot()
	assert.True(t, s.Loading)
	assert.Equal(t, StateLoading, s.State)

	close(release)
	require.NoError(t, <-done)
	assert.False(t, c.Snapshot().Loading)
}

func TestStaleResponseIsDiscarded(t *testing.T) {
	type call struct {
		params models.PageParams
		reply  chan *models.PaginatedResponse[row]
	}
	calls := make(chan call)
	fetch := func(ctx context.Context, p models.PageParams) (*models.PaginatedResponse[row], error) {
		c := call{params: p, reply: make(chan *models.PaginatedResponse[row])}
		calls <- c
		return <-c.reply, nil
	}
	notes := &notify.Recorder{}
	c := New(fetch, WithNotifier(notes), quiet())

	first := make(chan error)
	go func() { first <- c.OnPageChange(context.Background(), 1, 10) }()
	older := <-calls

	second := make(chan error)
	go func() { second <- c.OnPageChange(context.Background(), 2, 10) }()
	newer := <-calls

	// newer resolves first, then the older response arrives late
	newer.reply <- &models.PaginatedResponse[row]{Count: 25, Results: []row{{ID: 11}}}
	require.NoError(t, <-second)

	older.reply <- &models.PaginatedResponse[row]{Count: 25, Results: []row{{ID: 1}}}
	assert.ErrorIs(t, <-first, ErrStale)

	s := c.Snapshot()
	assert.Equal(t, []row{{ID: 11}}, s.Data)
	assert.Equal(t, 2, s.Pagination.Current)
	assert.False(t, s.Loading)
	assert.Empty(t, notes.All())
}

func TestStaleLoadKeepsLoadingUntilLatestResolves(t *testing.T) {
	replies := make(chan chan struct{}, 2)
	fetch := func(ctx context.Context, p models.PageParams) (*models.PaginatedResponse[row], error) {
		ch := make(chan struct{})
		replies <- ch
		<-ch
		return &models.PaginatedResponse[row]{Count: 1, Results: []row{{ID: int64(p.Page)}}}, nil
	}
	c := New(fetch, quiet())

	first := make(chan error)
	go func() { first <- c.OnPageChange(context.Background(), 1, 10) }()
	older := <-replies
	second := make(chan error)
	go func() { second <- c.OnPageChange(context.Background(), 2, 10) }()
	newer := <-replies

	close(older)
	assert.ErrorIs(t, <-first, ErrStale)
	assert.True(t, c.Snapshot().Loading)

	close(newer)
	require.NoError(t, <-second)
	assert.False(t, c.Snapshot().Loading)
}

func TestHandleDelete_SuccessRefreshesOnce(t *testing.T) {
	api := &fakeAPI{total: 25}
	notes := &notify.Recorder{}
	var deleted []int64
	successCalls := 0

	c, err := Open(context.Background(), api.fetch,
		WithDelete(func(_ context.Context, id int64) error {
			deleted = append(deleted, id)
			return nil
		}),
		WithOnSuccess(func() { successCalls++ }),
		WithNotifier(notes),
		quiet(),
	)
	require.NoError(t, err)
	require.NoError(t, c.OnPageChange(context.Background(), 2, 10))
	before := api.count()

	require.NoError(t, c.HandleDelete(context.Background(), 12))

	assert.Equal(t, []int64{12}, deleted)
	assert.Equal(t, before+1, api.count())
	assert.Equal(t, 2, api.last().Page)
	assert.Equal(t, 1, successCalls)
	assert.Equal(t, []string{MsgDeleteSuccess}, notes.Messages(notify.LevelSuccess))
}

func TestHandleDelete_FailureNeverRefreshes(t *testing.T) {
	api := &fakeAPI{total: 25}
	notes := &notify.Recorder{}
	successCalls := 0
	boom := errors.New("boom")

	c, err := Open(context.Background(), api.fetch,
		WithDelete(func(context.Context, int64) error { return boom }),
		WithOnSuccess(func() { successCalls++ }),
		WithNotifier(notes),
		quiet(),
	)
	require.NoError(t, err)
	before := api.count()

	err = c.HandleDelete(context.Background(), 3)

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, before, api.count())
	assert.Zero(t, successCalls)
	assert.Equal(t, []string{MsgDeleteFailed}, notes.Messages(notify.LevelError))
	assert.Empty(t, notes.Messages(notify.LevelSuccess))
}

func TestHandleDelete_Unsupported(t *testing.T) {
	api := &fakeAPI{total: 1}
	c, err := Open(context.Background(), api.fetch, quiet())
	require.NoError(t, err)

	assert.ErrorIs(t, c.HandleDelete(context.Background(), 1), ErrDeleteUnsupported)
}

func TestSnapshot_IsACopy(t *testing.T) {
	api := &fakeAPI{total: 3}
	c, err := Open(context.Background(), api.fetch, WithFilters(models.Filters{"a": "1"}), quiet())
	require.NoError(t, err)

	s := c.Snapshot()
	s.Data[0].Name = "mutated"
	s.Filters["b"] = "2"

	again := c.Snapshot()
	assert.Empty(t, again.Data[0].Name)
	assert.NotContains(t, again.Filters, "b")
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []TransitionEvent
}

func (p *recordingPublisher) Publish(e TransitionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func TestPublisher_ReceivesTransitions(t *testing.T) {
	api := &fakeAPI{total: 3}
	pub := &recordingPublisher{}

	c, err := Open(context.Background(), api.fetch, WithName("jobs"), WithPublisher(pub), quiet())
	require.NoError(t, err)
	api.setFail(errors.New("down"))
	_ = c.Refresh(context.Background())

	require.Len(t, pub.events, 4)
	assert.Equal(t, "jobs", pub.events[0].Table)
	assert.Equal(t, [2]State{StateIdle, StateLoading}, [2]State{pub.events[0].From, pub.events[0].To})
	assert.Equal(t, [2]State{StateLoading, StateReady}, [2]State{pub.events[1].From, pub.events[1].To})
	assert.Equal(t, [2]State{StateReady, StateLoading}, [2]State{pub.events[2].From, pub.events[2].To})
	assert.Equal(t, StateError, pub.events[3].To)
	assert.Error(t, pub.events[3].Err)
	assert.Equal(t, uint64(2), pub.events[3].Generation)
}

func TestConcurrentOperations(t *testing.T) {
	api := &fakeAPI{total: 200}
	c, err := Open(context.Background(), api.fetch, quiet())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 1; i <= 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var err error
			switch i % 3 {
			case 0:
				err = c.OnPageChange(context.Background(), i, 10)
			case 1:
				err = c.Refresh(context.Background())
			default:
				err = c.SetFilters(context.Background(), models.Filters{"n": i})
			}
			if err != nil && !errors.Is(err, ErrStale) {
				t.Errorf("operation %d: %v", i, err)
			}
			_ = c.Snapshot()
		}(i)
	}
	wg.Wait()

	s := c.Snapshot()
	assert.False(t, s.Loading)
	assert.Equal(t, StateReady, s.State)
}
