package table

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type job struct {
	Title     string
	Status    string
	CreatedAt *time.Time
}

func jobColumns() []Column[job] {
	return []Column[job]{
		TextColumn[job]{Title: "Title", Value: func(j job) string { return j.Title }, MaxWidth: 12},
		TagColumn[job]{
			Title: "Status",
			Value: func(j job) string { return j.Status },
			Tags: map[string]Tag{
				"active": {Label: "Active", Color: "green"},
				"closed": {Label: "Closed", Color: "red"},
			},
		},
		DateColumn[job]{Title: "Created", Value: func(j job) *time.Time { return j.CreatedAt }, Layout: "2006-01-02"},
		ActionColumn[job]{
			Actions: []string{"edit", "delete"},
			Allowed: func(j job, action string) bool { return action != "delete" || j.Status != "active" },
		},
	}
}

func TestColumns_Cells(t *testing.T) {
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.Local)
	cols := jobColumns()
	j := job{Title: "Quant Researcher (Senior)", Status: "active", CreatedAt: &created}

	assert.Equal(t, "Quant Resea…", cols[0].Cell(j))
	assert.Equal(t, "Active", cols[1].Cell(j))
	assert.Equal(t, "green", cols[1].(TagColumn[job]).Color(j))
	assert.Equal(t, "2024-05-01", cols[2].Cell(j))
	assert.Equal(t, "edit", cols[3].Cell(j))
	assert.Equal(t, "Actions", cols[3].Header())

	other := job{Title: "Ops", Status: "paused"}
	assert.Equal(t, "paused", cols[1].Cell(other))
	assert.Equal(t, "", cols[1].(TagColumn[job]).Color(other))
	assert.Equal(t, "-", cols[2].Cell(other))
	assert.Equal(t, "edit | delete", cols[3].Cell(other))
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	rows := []job{
		{Title: "Analyst", Status: "closed"},
		{Title: "Line\tbreak\nhere", Status: "active"},
	}

	require.NoError(t, Render(&buf, jobColumns(), rows))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "TITLE"))
	assert.Contains(t, lines[1], "Closed")
	assert.Contains(t, lines[2], "Line break …")
}

func TestRenderState_Footer(t *testing.T) {
	var buf bytes.Buffer
	s := TableState[job]{
		Data:       []job{{Title: "A", Status: "active"}},
		Pagination: Pagination{Current: 2, PageSize: 10, Total: 25},
	}

	require.NoError(t, RenderState(&buf, jobColumns(), s))
	assert.Contains(t, buf.String(), "page 2/3")
	assert.Contains(t, buf.String(), "25 total")
}
