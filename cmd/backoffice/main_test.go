package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/therealutkarshpriyadarshi/backoffice/internal/testutil"
)

func setupCLI(t *testing.T) {
	t.Helper()
	server, _ := testutil.NewDevServer(t)

	t.Setenv("BACKOFFICE_CONFIG", "")
	t.Setenv("BACKOFFICE_API_URL", server.URL)
	t.Setenv("BACKOFFICE_SESSION_STORE", "file")
	t.Setenv("BACKOFFICE_SESSION_FILE", filepath.Join(t.TempDir(), "session.yaml"))
	t.Setenv("LOG_LEVEL", "error")
}

func runCLI(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_Usage(t *testing.T) {
	code, _, stderr := runCLI()
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr, "Usage: backoffice")

	code, stdout, _ := runCLI("version")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, stdout, version)
}

func TestRun_Session(t *testing.T) {
	setupCLI(t)

	code, stdout, _ := runCLI("whoami")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "Not logged in")

	code, _, stderr := runCLI("login", "-u", "admin", "-p", "wrong")
	assert.Equal(t, exitError, code)
	assert.Contains(t, stderr, "Invalid username or password")

	code, stdout, _ = runCLI("login", "-u", "admin", "-p", "admin123")
	require.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "Logged in as admin")

	code, stdout, _ = runCLI("whoami")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "admin (superuser)")

	code, stdout, _ = runCLI("logout")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "Logged out")

	code, _, stderr = runCLI("list", "jobs")
	assert.Equal(t, exitSession, code)
	assert.Contains(t, stderr, "backoffice login")
}

func TestRun_ListAndDelete(t *testing.T) {
	setupCLI(t)
	code, _, _ := runCLI("login", "-u", "admin", "-p", "admin123")
	require.Equal(t, exitOK, code)

	code, stdout, _ := runCLI("list", "jobs")
	require.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "Quant Researcher")
	assert.Contains(t, stdout, "Backend Engineer")
	assert.Contains(t, stdout, "page 1/1")

	code, stdout, _ = runCLI("list", "jobs", "-filter", "status=draft")
	require.Equal(t, exitOK, code)
	assert.NotContains(t, stdout, "Quant Researcher")
	assert.Contains(t, stdout, "Backend Engineer")

	code, stdout, _ = runCLI("list", "resumes", "-search", "anna")
	require.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "Anna Berg")
	assert.NotContains(t, stdout, "Li Wei")

	code, stdout, _ = runCLI("delete", "jobs", "1")
	require.Equal(t, exitOK, code)
	lines := strings.Split(stdout, "\n")
	assert.NotContains(t, stdout, "Quant Researcher", "table is refreshed after delete: %v", lines)

	code, _, _ = runCLI("delete", "jobs", "1")
	assert.Equal(t, exitError, code)
}

func TestRun_BadArguments(t *testing.T) {
	setupCLI(t)

	tests := []struct {
		name string
		args []string
	}{
		{"unknown command", []string{"frobnicate"}},
		{"list without entity", []string{"list"}},
		{"unknown entity", []string{"list", "invoices"}},
		{"delete without id", []string{"delete", "jobs"}},
		{"delete bad id", []string{"delete", "jobs", "x"}},
		{"bad filter", []string{"list", "jobs", "-filter", "status"}},
		{"login without password", []string{"login", "-u", "admin"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("BACKOFFICE_PASSWORD", "")
			code, _, _ := runCLI(tt.args...)
			assert.Equal(t, exitUsage, code)
		})
	}
}
