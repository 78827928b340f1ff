package table

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"
)

// Column is one column of a rendered table. The set of kinds is closed:
// TextColumn, TagColumn, DateColumn and ActionColumn.
type Column[T any] interface {
	Header() string
	Cell(row T) string
	column()
}

// TextColumn shows a plain value
type TextColumn[T any] struct {
	Title string
	Value func(row T) string
	// MaxWidth truncates longer values; 0 keeps them whole
	MaxWidth int
}

func (c TextColumn[T]) Header() string { return c.Title }

func (c TextColumn[T]) Cell(row T) string {
	return truncate(c.Value(row), c.MaxWidth)
}

func (TextColumn[T]) column() {}

// Tag is the display of one enumerated value
type Tag struct {
	Label string
	Color string
}

// TagColumn maps an enumerated value to a label and colour
type TagColumn[T any] struct {
	Title string
	Value func(row T) string
	Tags  map[string]Tag
}

func (c TagColumn[T]) Header() string { return c.Title }

// Cell returns the tag label, or the raw value when it has no tag
func (c TagColumn[T]) Cell(row T) string {
	v := c.Value(row)
	if tag, ok := c.Tags[v]; ok {
		return tag.Label
	}
	return v
}

// Color returns the colour of the row's tag, or "" when it has none
func (c TagColumn[T]) Color(row T) string {
	return c.Tags[c.Value(row)].Color
}

func (TagColumn[T]) column() {}

// DateColumn formats a timestamp; nil renders as "-"
type DateColumn[T any] struct {
	Title  string
	Value  func(row T) *time.Time
	Layout string
}

// DefaultDateLayout is used when a DateColumn has no layout
const DefaultDateLayout = "2006-01-02 15:04"

func (c DateColumn[T]) Header() string { return c.Title }

func (c DateColumn[T]) Cell(row T) string {
	t := c.Value(row)
	if t == nil || t.IsZero() {
		return "-"
	}
	layout := c.Layout
	if layout == "" {
		layout = DefaultDateLayout
	}
	return t.Local().Format(layout)
}

func (DateColumn[T]) column() {}

// ActionColumn lists the actions available on a row
type ActionColumn[T any] struct {
	Title   string
	Actions []string
	// Allowed filters actions per row; nil allows all
	Allowed func(row T, action string) bool
}

func (c ActionColumn[T]) Header() string {
	if c.Title == "" {
		return "Actions"
	}
	return c.Title
}

func (c ActionColumn[T]) Cell(row T) string {
	var actions []string
	for _, a := range c.Actions {
		if c.Allowed == nil || c.Allowed(row, a) {
			actions = append(actions, a)
		}
	}
	return strings.Join(actions, " | ")
}

func (ActionColumn[T]) column() {}

// Render writes rows as an aligned text table followed by a paging footer
func Render[T any](w io.Writer, cols []Column[T], rows []T) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	headers := make([]string, len(cols))
	for i, col := range cols {
		headers[i] = strings.ToUpper(col.Header())
	}
	if _, err := fmt.Fprintln(tw, strings.Join(headers, "\t")); err != nil {
		return err
	}

	cells := make([]string, len(cols))
	for _, row := range rows {
		for i, col := range cols {
			cells[i] = sanitize(col.Cell(row))
		}
		if _, err := fmt.Fprintln(tw, strings.Join(cells, "\t")); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// RenderState renders the rows of a snapshot and its pagination footer
func RenderState[T any](w io.Writer, cols []Column[T], s TableState[T]) error {
	if err := Render(w, cols, s.Data); err != nil {
		return err
	}
	p := s.Pagination
	_, err := fmt.Fprintf(w, "\npage %d/%d  ·  %d per page  ·  %d total\n",
		p.Current, max(p.TotalPages(), 1), p.PageSize, p.Total)
	return err
}

func truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}

func sanitize(s string) string {
	return strings.NewReplacer("\t", " ", "\n", " ", "\r", " ").Replace(s)
}
