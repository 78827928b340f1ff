package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/therealutkarshpriyadarshi/backoffice/internal/notify"
	"github.com/therealutkarshpriyadarshi/backoffice/internal/resource"
	"github.com/therealutkarshpriyadarshi/backoffice/internal/table"
	"github.com/therealutkarshpriyadarshi/backoffice/pkg/models"
)

// tableView is a table controller bound to its columns
type tableView interface {
	table.Refresher
	Start(ctx context.Context) error
	OnPageChange(ctx context.Context, page, pageSize int) error
	HandleDelete(ctx context.Context, id int64) error
	Render(w io.Writer) error
}

type boundView[T any] struct {
	*table.Controller[T]
	cols []table.Column[T]
}

func (v boundView[T]) Render(w io.Writer) error {
	return table.RenderState(w, v.cols, v.Snapshot())
}

type viewOptions struct {
	pageSize int
	filters  models.Filters
	notifier notify.Notifier
	logger   logrus.FieldLogger
}

type viewFactory func(api *resource.API, opts viewOptions) tableView

func bind[T any](name string, res *resource.Resource[T], cols []table.Column[T], opts viewOptions) tableView {
	ctrl := table.New(res.List,
		table.WithName(name),
		table.WithPageSize(opts.pageSize),
		table.WithFilters(opts.filters),
		table.WithDelete(res.Delete),
		table.WithNotifier(opts.notifier),
		table.WithPublisher(table.LogPublisher{Logger: opts.logger}),
		table.WithLogger(opts.logger),
	)
	return boundView[T]{Controller: ctrl, cols: cols}
}

var views = map[string]viewFactory{
	"users": func(api *resource.API, o viewOptions) tableView {
		return bind("users", api.Users, userColumns, o)
	},
	"jobs": func(api *resource.API, o viewOptions) tableView {
		return bind("jobs", api.Jobs, jobColumns, o)
	},
	"resumes": func(api *resource.API, o viewOptions) tableView {
		return bind("resumes", api.Resumes.Resource, resumeColumns, o)
	},
	"reports": func(api *resource.API, o viewOptions) tableView {
		return bind("reports", api.Reports.Resource, reportColumns, o)
	},
	"news": func(api *resource.API, o viewOptions) tableView {
		return bind("news", api.News, newsColumns, o)
	},
	"products": func(api *resource.API, o viewOptions) tableView {
		return bind("products", api.Products, productColumns, o)
	},
	"logs": func(api *resource.API, o viewOptions) tableView {
		return bind("logs", api.Logs, logColumns, o)
	},
}

func entityNames() []string {
	names := make([]string, 0, len(views))
	for name := range views {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func id(v int64) string { return strconv.FormatInt(v, 10) }

func ptr(t time.Time) *time.Time { return &t }

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

var userColumns = []table.Column[models.User]{
	table.TextColumn[models.User]{Title: "ID", Value: func(u models.User) string { return id(u.ID) }},
	table.TextColumn[models.User]{Title: "Username", Value: func(u models.User) string { return u.Username }},
	table.TextColumn[models.User]{Title: "Email", Value: func(u models.User) string { return u.Email }, MaxWidth: 32},
	table.TagColumn[models.User]{Title: "Role", Value: func(u models.User) string {
		switch {
		case u.IsSuperuser:
			return "superuser"
		case u.IsStaff:
			return "staff"
		}
		return "user"
	}, Tags: map[string]table.Tag{
		"superuser": {Label: "Superuser", Color: "red"},
		"staff":     {Label: "Staff", Color: "blue"},
		"user":      {Label: "User", Color: "default"},
	}},
	table.TextColumn[models.User]{Title: "Active", Value: func(u models.User) string { return yesNo(u.IsActive) }},
	table.DateColumn[models.User]{Title: "Last login", Value: func(u models.User) *time.Time { return u.LastLogin }},
	table.ActionColumn[models.User]{Actions: []string{"edit", "delete"}, Allowed: func(u models.User, action string) bool {
		return action != "delete" || !u.IsSuperuser
	}},
}

var jobStatusTags = map[string]table.Tag{
	string(models.JobStatusDraft):  {Label: "Draft", Color: "default"},
	string(models.JobStatusActive): {Label: "Active", Color: "green"},
	string(models.JobStatusPaused): {Label: "Paused", Color: "orange"},
	string(models.JobStatusClosed): {Label: "Closed", Color: "red"},
}

var jobColumns = []table.Column[models.JobPosition]{
	table.TextColumn[models.JobPosition]{Title: "ID", Value: func(j models.JobPosition) string { return id(j.ID) }},
	table.TextColumn[models.JobPosition]{Title: "Title", Value: func(j models.JobPosition) string { return j.Title }, MaxWidth: 40},
	table.TextColumn[models.JobPosition]{Title: "Department", Value: func(j models.JobPosition) string { return j.Department }},
	table.TextColumn[models.JobPosition]{Title: "Location", Value: func(j models.JobPosition) string { return j.Location }},
	table.TextColumn[models.JobPosition]{Title: "Headcount", Value: func(j models.JobPosition) string { return strconv.Itoa(j.Headcount) }},
	table.TagColumn[models.JobPosition]{Title: "Status", Value: func(j models.JobPosition) string { return string(j.Status) }, Tags: jobStatusTags},
	table.DateColumn[models.JobPosition]{Title: "Updated", Value: func(j models.JobPosition) *time.Time { return ptr(j.UpdatedAt) }},
	table.ActionColumn[models.JobPosition]{Actions: []string{"edit", "delete"}},
}

var resumeColumns = []table.Column[models.Resume]{
	table.TextColumn[models.Resume]{Title: "ID", Value: func(r models.Resume) string { return id(r.ID) }},
	table.TextColumn[models.Resume]{Title: "Name", Value: func(r models.Resume) string { return r.Name }},
	table.TextColumn[models.Resume]{Title: "Email", Value: func(r models.Resume) string { return r.Email }, MaxWidth: 32},
	table.TextColumn[models.Resume]{Title: "Category", Value: func(r models.Resume) string { return r.JobCategory }},
	table.TagColumn[models.Resume]{Title: "Status", Value: func(r models.Resume) string { return string(r.Status) }, Tags: map[string]table.Tag{
		string(models.ResumeStatusPending):   {Label: "Pending", Color: "default"},
		string(models.ResumeStatusReviewing): {Label: "Reviewing", Color: "blue"},
		string(models.ResumeStatusApproved):  {Label: "Approved", Color: "green"},
		string(models.ResumeStatusRejected):  {Label: "Rejected", Color: "red"},
	}},
	table.DateColumn[models.Resume]{Title: "Submitted", Value: func(r models.Resume) *time.Time { return ptr(r.CreatedAt) }},
	table.ActionColumn[models.Resume]{Actions: []string{"view", "review", "delete"}, Allowed: func(r models.Resume, action string) bool {
		return action != "review" || r.Status == models.ResumeStatusPending || r.Status == models.ResumeStatusReviewing
	}},
}

var reportColumns = []table.Column[models.ResearchReport]{
	table.TextColumn[models.ResearchReport]{Title: "ID", Value: func(r models.ResearchReport) string { return id(r.ID) }},
	table.TextColumn[models.ResearchReport]{Title: "Title", Value: func(r models.ResearchReport) string { return r.Title }, MaxWidth: 40},
	table.TextColumn[models.ResearchReport]{Title: "Strategy", Value: func(r models.ResearchReport) string { return r.StrategyName }},
	table.TextColumn[models.ResearchReport]{Title: "Annual return", Value: func(r models.ResearchReport) string {
		if r.AnnualReturn == nil {
			return "-"
		}
		return fmt.Sprintf("%.2f%%", *r.AnnualReturn*100)
	}},
	table.TagColumn[models.ResearchReport]{Title: "Status", Value: func(r models.ResearchReport) string { return string(r.Status) }, Tags: map[string]table.Tag{
		string(models.ReportStatusDraft):     {Label: "Draft", Color: "default"},
		string(models.ReportStatusPending):   {Label: "Pending review", Color: "orange"},
		string(models.ReportStatusApproved):  {Label: "Approved", Color: "blue"},
		string(models.ReportStatusRejected):  {Label: "Rejected", Color: "red"},
		string(models.ReportStatusPublished): {Label: "Published", Color: "green"},
	}},
	table.DateColumn[models.ResearchReport]{Title: "Published", Value: func(r models.ResearchReport) *time.Time { return r.PublishedAt }},
	table.ActionColumn[models.ResearchReport]{Actions: []string{"edit", "submit", "publish", "unpublish", "delete"}, Allowed: func(r models.ResearchReport, action string) bool {
		switch action {
		case "submit":
			return r.Status == models.ReportStatusDraft || r.Status == models.ReportStatusRejected
		case "publish":
			return r.Status == models.ReportStatusApproved
		case "unpublish":
			return r.Status == models.ReportStatusPublished
		}
		return true
	}},
}

var newsColumns = []table.Column[models.NewsItem]{
	table.TextColumn[models.NewsItem]{Title: "ID", Value: func(n models.NewsItem) string { return id(n.ID) }},
	table.TextColumn[models.NewsItem]{Title: "Title", Value: func(n models.NewsItem) string { return n.Title }, MaxWidth: 48},
	table.TextColumn[models.NewsItem]{Title: "Category", Value: func(n models.NewsItem) string { return n.Category }},
	table.TagColumn[models.NewsItem]{Title: "State", Value: func(n models.NewsItem) string { return yesNo(n.IsPublished) }, Tags: map[string]table.Tag{
		"yes": {Label: "Published", Color: "green"},
		"no":  {Label: "Hidden", Color: "default"},
	}},
	table.DateColumn[models.NewsItem]{Title: "Published", Value: func(n models.NewsItem) *time.Time { return n.PublishedAt }, Layout: "2006-01-02"},
	table.ActionColumn[models.NewsItem]{Actions: []string{"edit", "delete"}},
}

var productColumns = []table.Column[models.Product]{
	table.TextColumn[models.Product]{Title: "ID", Value: func(p models.Product) string { return id(p.ID) }},
	table.TextColumn[models.Product]{Title: "Name", Value: func(p models.Product) string { return p.Name }},
	table.TextColumn[models.Product]{Title: "Category", Value: func(p models.Product) string { return p.Category }},
	table.TextColumn[models.Product]{Title: "Description", Value: func(p models.Product) string { return p.Description }, MaxWidth: 40},
	table.TextColumn[models.Product]{Title: "Active", Value: func(p models.Product) string { return yesNo(p.IsActive) }},
	table.ActionColumn[models.Product]{Actions: []string{"edit", "delete"}},
}

var logColumns = []table.Column[models.LogEntry]{
	table.DateColumn[models.LogEntry]{Title: "Time", Value: func(l models.LogEntry) *time.Time { return ptr(l.Timestamp) }, Layout: "2006-01-02 15:04:05"},
	table.TagColumn[models.LogEntry]{Title: "Level", Value: func(l models.LogEntry) string { return l.Level }, Tags: map[string]table.Tag{
		"DEBUG":   {Label: "DEBUG", Color: "default"},
		"INFO":    {Label: "INFO", Color: "blue"},
		"WARNING": {Label: "WARN", Color: "orange"},
		"ERROR":   {Label: "ERROR", Color: "red"},
	}},
	table.TextColumn[models.LogEntry]{Title: "Module", Value: func(l models.LogEntry) string { return l.Module }},
	table.TextColumn[models.LogEntry]{Title: "Message", Value: func(l models.LogEntry) string { return l.Message }, MaxWidth: 80},
}
