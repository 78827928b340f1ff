package resource

import (
	"context"

	"github.com/therealutkarshpriyadarshi/backoffice/internal/request"
	"github.com/therealutkarshpriyadarshi/backoffice/pkg/models"
)

// Collection paths of the admin API
const (
	UsersPath    = "/api/admin/users/"
	JobsPath     = "/admin/jobs/"
	ResumesPath  = "/admin/resumes/"
	ReportsPath  = "/api/reports/reports/"
	NewsPath     = "/api/admin/news/"
	ProductsPath = "/api/admin/products/"
	LogsPath     = "/api/admin/logs/"
)

// API groups every binding over one client
type API struct {
	Auth     *Auth
	Users    *Resource[models.User]
	Jobs     *Resource[models.JobPosition]
	Resumes  *Resumes
	Reports  *Reports
	News     *Resource[models.NewsItem]
	Products *Resource[models.Product]
	Logs     *Resource[models.LogEntry]
}

// NewAPI creates all bindings
func NewAPI(client *request.Client) *API {
	return &API{
		Auth:     NewAuth(client),
		Users:    New[models.User](client, UsersPath),
		Jobs:     New[models.JobPosition](client, JobsPath),
		Resumes:  &Resumes{Resource: New[models.Resume](client, ResumesPath)},
		Reports:  &Reports{Resource: New[models.ResearchReport](client, ReportsPath)},
		News:     New[models.NewsItem](client, NewsPath),
		Products: New[models.Product](client, ProductsPath),
		Logs:     New[models.LogEntry](client, LogsPath),
	}
}

// Resumes adds the review workflow to the resume collection
type Resumes struct {
	*Resource[models.Resume]
}

// Review sets the review status and notes of a resume
func (r *Resumes) Review(ctx context.Context, id int64, review models.ReviewRequest) (*models.Resume, error) {
	return r.Action(ctx, id, "review", review)
}

// Reports adds the publication workflow and file uploads to the report collection
type Reports struct {
	*Resource[models.ResearchReport]
}

// Save creates (ID == 0) or patches a report. Attached files switch the call to
// multipart; without files the stored file URLs are left out of the body.
func (r *Reports) Save(ctx context.Context, report models.ResearchReport, files ...request.File) (*models.ResearchReport, error) {
	report.EquityCurveImage = ""
	report.Attachment = ""

	if len(files) > 0 {
		return r.Upload(ctx, report.ID, report, files)
	}
	if report.ID == 0 {
		return r.Create(ctx, report)
	}
	return r.Patch(ctx, report.ID, report)
}

// Submit moves a draft to pending review
func (r *Reports) Submit(ctx context.Context, id int64) (*models.ResearchReport, error) {
	return r.Action(ctx, id, "submit", nil)
}

// Review approves or rejects a pending report
func (r *Reports) Review(ctx context.Context, id int64, review models.ReviewRequest) (*models.ResearchReport, error) {
	return r.Action(ctx, id, "review", review)
}

// Publish makes an approved report public
func (r *Reports) Publish(ctx context.Context, id int64) (*models.ResearchReport, error) {
	return r.Action(ctx, id, "publish", nil)
}

// Unpublish withdraws a published report
func (r *Reports) Unpublish(ctx context.Context, id int64) (*models.ResearchReport, error) {
	return r.Action(ctx, id, "unpublish", nil)
}
