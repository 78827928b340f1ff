package devstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/therealutkarshpriyadarshi/backoffice/pkg/models"
)

func fill(t *testing.T, c *Collection, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		status := "active"
		if i%2 == 0 {
			status = "closed"
		}
		_, err := c.Create(context.Background(), Record{"title": fmt.Sprintf("Job %02d", i), "status": status, "headcount": float64(i)})
		require.NoError(t, err)
	}
}

func TestCollection_ListPaginates(t *testing.T) {
	c := NewCollection("jobs", "title")
	fill(t, c, 25)
	ctx := context.Background()

	page, err := c.List(ctx, Query{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(25), page.Count)
	assert.Len(t, page.Results, 10)
	assert.Equal(t, int64(25), page.Results[0].ID(), "newest first")

	page, err = c.List(ctx, Query{Page: 3, PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, page.Results, 5)

	_, err = c.List(ctx, Query{Page: 4, PageSize: 10})
	assert.ErrorIs(t, err, ErrInvalidPage)

	_, err = c.List(ctx, Query{Page: 1, PageSize: 0})
	assert.Error(t, err)
}

func TestCollection_EmptyFirstPage(t *testing.T) {
	c := NewCollection("jobs")
	page, err := c.List(context.Background(), Query{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Zero(t, page.Count)
	assert.Empty(t, page.Results)
}

func TestCollection_FiltersAndSearch(t *testing.T) {
	c := NewCollection("jobs", "title")
	fill(t, c, 10)
	ctx := context.Background()

	page, err := c.List(ctx, Query{Page: 1, PageSize: 100, Filters: map[string]string{"status": "closed"}})
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.Count)

	page, err = c.List(ctx, Query{Page: 1, PageSize: 100, Filters: map[string]string{"headcount": "3"}})
	require.NoError(t, err)
	require.Len(t, page.Results, 1)
	assert.Equal(t, "Job 03", page.Results[0]["title"])

	page, err = c.List(ctx, Query{Page: 1, PageSize: 100, Search: "job 1"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Count)
}

func TestCollection_CRUD(t *testing.T) {
	c := NewCollection("news")
	ctx := context.Background()

	created, err := c.Create(ctx, Record{"title": "Hello", "id": float64(99)})
	require.NoError(t, err)
	id := created.ID()
	assert.Equal(t, int64(1), id)
	assert.NotNil(t, created["created_at"])

	got, err := c.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Hello", got["title"])

	got["title"] = "mutated"
	again, _ := c.Get(ctx, id)
	assert.Equal(t, "Hello", again["title"], "Get returns a copy")

	patched, err := c.Patch(ctx, id, Record{"summary": "s", "id": float64(7)})
	require.NoError(t, err)
	assert.Equal(t, "Hello", patched["title"])
	assert.Equal(t, "s", patched["summary"])
	assert.Equal(t, id, patched.ID())

	updated, err := c.Update(ctx, id, Record{"title": "Replaced"})
	require.NoError(t, err)
	assert.Equal(t, "Replaced", updated["title"])
	assert.NotContains(t, updated, "summary")
	assert.Equal(t, created["created_at"], updated["created_at"])

	require.NoError(t, c.Delete(ctx, id))
	_, err = c.Get(ctx, id)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.ErrorIs(t, c.Delete(ctx, id), ErrNotFound)
	_, err = c.Patch(ctx, id, Record{})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = c.Update(ctx, id, Record{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCollection_ConcurrentCreate(t *testing.T) {
	c := NewCollection("logs")
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.Create(context.Background(), Record{"message": "x"})
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, c.Len())
}

func TestAccounts(t *testing.T) {
	a := NewAccounts()
	ctx := context.Background()

	user, err := a.Add("Admin", "secret", true)
	require.NoError(t, err)
	assert.True(t, user.IsSuperuser)

	_, err = a.Add("admin", "other", false)
	assert.Error(t, err, "usernames are case-insensitive")

	got, err := a.Authenticate(ctx, "admin", "secret")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.NotNil(t, got.LastLogin)

	_, err = a.Authenticate(ctx, "admin", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = a.Authenticate(ctx, "nobody", "secret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = a.Lookup(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_Seed(t *testing.T) {
	s := New()
	require.NoError(t, s.Seed(context.Background(), "admin", "admin123"))

	for _, name := range s.Names() {
		assert.NotZero(t, s.Collection(name).Len(), name)
	}
	assert.Nil(t, s.Collection("missing"))

	_, err := s.Insert(context.Background(), "missing", models.NewsItem{})
	assert.Error(t, err)
}

func TestReportWorkflow(t *testing.T) {
	rec := Record{"status": "draft"}

	patch, err := SubmitReport(rec, nil)
	require.NoError(t, err)
	assert.Equal(t, "pending", patch["status"])

	_, err = PublishReport(rec, nil)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	rec["status"] = "pending"
	_, err = ReviewReport(rec, map[string]any{"status": "published"})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	patch, err = ReviewReport(rec, map[string]any{"status": "approved"})
	require.NoError(t, err)
	assert.Equal(t, "approved", patch["status"])

	rec["status"] = "approved"
	patch, err = PublishReport(rec, nil)
	require.NoError(t, err)
	assert.Equal(t, true, patch["is_public"])

	rec["status"] = "published"
	patch, err = UnpublishReport(rec, nil)
	require.NoError(t, err)
	assert.Equal(t, "approved", patch["status"])
}

func TestReviewResume(t *testing.T) {
	patch, err := ReviewResume(Record{"status": "pending"}, map[string]any{"status": "approved", "review_notes": "good"})
	require.NoError(t, err)
	assert.Equal(t, "approved", patch["status"])
	assert.Equal(t, "good", patch["review_notes"])
	assert.NotNil(t, patch["reviewed_at"])

	_, err = ReviewResume(Record{}, map[string]any{"status": "hired"})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}
