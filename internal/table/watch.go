package table

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Refresher is anything a Watcher can refresh on a schedule; *Controller[T] implements it
type Refresher interface {
	Name() string
	Refresh(ctx context.Context) error
}

// Watcher refreshes registered tables on cron schedules
type Watcher struct {
	cron    *cron.Cron
	ctx     context.Context
	cancel  context.CancelFunc
	logger  logrus.FieldLogger
	entries map[string]cron.EntryID
	mu      sync.RWMutex
}

// NewWatcher creates a stopped watcher. Overlapping runs of one entry are skipped.
func NewWatcher(logger logrus.FieldLogger) *Watcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		cron: cron.New(cron.WithChain(
			cron.Recover(cron.DefaultLogger),
			cron.SkipIfStillRunning(cron.DefaultLogger),
		)),
		ctx:     ctx,
		cancel:  cancel,
		logger:  logger,
		entries: make(map[string]cron.EntryID),
	}
}

// Watch schedules r.Refresh. schedule is a standard cron expression or a
// descriptor such as "@every 30s".
func (w *Watcher) Watch(schedule string, r Refresher) error {
	name := r.Name()
	if name == "" {
		return errors.New("watched table needs a name")
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, exists := w.entries[name]; exists {
		return fmt.Errorf("table %s is already watched", name)
	}

	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("invalid schedule %s: %w", schedule, err)
	}

	id, err := w.cron.AddFunc(schedule, func() {
		err := r.Refresh(w.ctx)
		if err != nil && !errors.Is(err, ErrStale) && !errors.Is(err, context.Canceled) {
			w.logger.WithError(err).WithField("table", name).Warn("Scheduled refresh failed")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	w.entries[name] = id
	return nil
}

// Unwatch removes the schedule of the named table
func (w *Watcher) Unwatch(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if id, exists := w.entries[name]; exists {
		w.cron.Remove(id)
		delete(w.entries, name)
	}
}

// Watched returns the names of the scheduled tables
func (w *Watcher) Watched() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	names := make([]string, 0, len(w.entries))
	for name := range w.entries {
		names = append(names, name)
	}
	return names
}

// Next returns the next scheduled refresh of the named table
func (w *Watcher) Next(name string) (time.Time, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	id, exists := w.entries[name]
	if !exists {
		return time.Time{}, fmt.Errorf("table %s is not watched", name)
	}
	return w.cron.Entry(id).Next, nil
}

// Start begins running schedules in the background
func (w *Watcher) Start() {
	w.cron.Start()
}

// Stop cancels in-flight refreshes and waits for running jobs to return
func (w *Watcher) Stop() {
	w.cancel()
	<-w.cron.Stop().Done()
}
