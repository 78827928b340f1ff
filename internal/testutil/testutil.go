// Package testutil holds fixtures shared by the integration tests.
package testutil

import (
	"context"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/therealutkarshpriyadarshi/backoffice/internal/devstore"
	"github.com/therealutkarshpriyadarshi/backoffice/internal/logging"
	"github.com/therealutkarshpriyadarshi/backoffice/pkg/api"
	"github.com/therealutkarshpriyadarshi/backoffice/pkg/api/middleware"
	"github.com/therealutkarshpriyadarshi/backoffice/pkg/models"
)

// Credentials of the account seeded by NewDevServer
const (
	AdminUser     = "admin"
	AdminPassword = "admin123"
)

// JWTConfig returns a token configuration for tests
func JWTConfig() *middleware.JWTConfig {
	return middleware.NewJWTConfig("test-secret-0123456789", time.Minute, time.Hour)
}

// NewDevServer starts a seeded development API and closes it when the test ends
func NewDevServer(t *testing.T) (*httptest.Server, *devstore.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := devstore.New()
	if err := store.Seed(context.Background(), AdminUser, AdminPassword); err != nil {
		t.Fatalf("failed to seed store: %v", err)
	}

	srv := api.NewServer(store, api.Config{JWT: JWTConfig(), Logger: logging.Discard()})
	server := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		server.Close()
		_ = srv.Shutdown(context.Background())
	})
	return server, store
}

// CreateTestJobs builds n job positions with alternating statuses
func CreateTestJobs(n int) []models.JobPosition {
	jobs := make([]models.JobPosition, n)
	for i := range jobs {
		status := models.JobStatusActive
		if i%2 == 1 {
			status = models.JobStatusClosed
		}
		jobs[i] = models.JobPosition{
			Title:      fmt.Sprintf("Test Job %02d", i+1),
			Department: "Testing",
			Location:   "Remote",
			Headcount:  1,
			Status:     status,
		}
	}
	return jobs
}

// CreateTestLogs builds n log entries a second apart
func CreateTestLogs(n int) []models.LogEntry {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	logs := make([]models.LogEntry, n)
	for i := range logs {
		logs[i] = models.LogEntry{
			LogType:   "app",
			Level:     "INFO",
			Message:   fmt.Sprintf("tick %d", i+1),
			Module:    "test",
			Timestamp: start.Add(time.Duration(i) * time.Second),
		}
	}
	return logs
}

// Insert stores every item in the named collection
func Insert[T any](t *testing.T, store *devstore.Store, collection string, items []T) {
	t.Helper()
	for _, item := range items {
		if _, err := store.Insert(context.Background(), collection, item); err != nil {
			t.Fatalf("failed to insert into %s: %v", collection, err)
		}
	}
}
