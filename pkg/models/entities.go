package models

import "time"

// User represents a back-office account
type User struct {
	ID          int64        `json:"id"`
	Username    string       `json:"username" validate:"required,min=3,max=150"`
	Email       string       `json:"email,omitempty" validate:"omitempty,email"`
	FirstName   string       `json:"first_name,omitempty"`
	LastName    string       `json:"last_name,omitempty"`
	FullName    string       `json:"full_name,omitempty"`
	AvatarURL   string       `json:"avatar_url,omitempty"`
	IsStaff     bool         `json:"is_staff"`
	IsSuperuser bool         `json:"is_superuser"`
	IsActive    bool         `json:"is_active"`
	DateJoined  time.Time    `json:"date_joined"`
	LastLogin   *time.Time   `json:"last_login,omitempty"`
	Profile     *UserProfile `json:"profile,omitempty"`
}

// UserProfile holds optional contact and preference data for a user
type UserProfile struct {
	Phone              string `json:"phone,omitempty"`
	Department         string `json:"department,omitempty"`
	Position           string `json:"position,omitempty"`
	EmployeeID         string `json:"employee_id,omitempty"`
	City               string `json:"city,omitempty"`
	Language           string `json:"language,omitempty"`
	Theme              string `json:"theme,omitempty"`
	EmailNotifications bool   `json:"email_notifications"`
	LoginCount         int    `json:"login_count"`
}

// LoginRequest carries credentials for the login endpoint
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is returned by the login endpoint
type LoginResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
	User    User   `json:"user"`
}

// RefreshRequest asks for a new access token
type RefreshRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}

// RefreshResponse carries a rotated token pair; Refresh may be empty
type RefreshResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

// JobStatus is the publication state of a job position
type JobStatus string

const (
	JobStatusDraft  JobStatus = "draft"
	JobStatusActive JobStatus = "active"
	JobStatusPaused JobStatus = "paused"
	JobStatusClosed JobStatus = "closed"
)

// JobPosition represents an open or closed vacancy
type JobPosition struct {
	ID                int64     `json:"id"`
	Title             string    `json:"title" validate:"required"`
	Department        string    `json:"department"`
	JobCategory       string    `json:"job_category"`
	Location          string    `json:"location"`
	SalaryMin         string    `json:"salary_min,omitempty"`
	SalaryMax         string    `json:"salary_max,omitempty"`
	Description       string    `json:"description"`
	Requirements      string    `json:"requirements"`
	EducationRequired string    `json:"education_required,omitempty"`
	Headcount         int       `json:"headcount"`
	Status            JobStatus `json:"status" validate:"omitempty,oneof=draft active paused closed"`
	SortOrder         int       `json:"sort_order"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// ResumeStatus is the review state of a resume
type ResumeStatus string

const (
	ResumeStatusPending   ResumeStatus = "pending"
	ResumeStatusReviewing ResumeStatus = "reviewing"
	ResumeStatusApproved  ResumeStatus = "approved"
	ResumeStatusRejected  ResumeStatus = "rejected"
)

// Resume represents an application submitted through the public site
type Resume struct {
	ID            int64        `json:"id"`
	Name          string       `json:"name" validate:"required"`
	Phone         string       `json:"phone"`
	Email         string       `json:"email" validate:"omitempty,email"`
	JobCategory   string       `json:"job_category"`
	Education     string       `json:"education"`
	School        string       `json:"school,omitempty"`
	Major         string       `json:"major,omitempty"`
	ResumeFileURL string       `json:"resume_file_url,omitempty"`
	Status        ResumeStatus `json:"status" validate:"omitempty,oneof=pending reviewing approved rejected"`
	ReviewNotes   string       `json:"review_notes,omitempty"`
	ReviewedAt    *time.Time   `json:"reviewed_at,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// ReviewRequest is the body of review actions on resumes and reports
type ReviewRequest struct {
	Status      string `json:"status" validate:"required"`
	ReviewNotes string `json:"review_notes,omitempty"`
}

// ReportStatus is the workflow state of a research report
type ReportStatus string

const (
	ReportStatusDraft     ReportStatus = "draft"
	ReportStatusPending   ReportStatus = "pending"
	ReportStatusApproved  ReportStatus = "approved"
	ReportStatusRejected  ReportStatus = "rejected"
	ReportStatusPublished ReportStatus = "published"
)

// ResearchReport represents a strategy backtest write-up
type ResearchReport struct {
	ID               int64          `json:"id"`
	Title            string         `json:"title" validate:"required"`
	Summary          string         `json:"summary"`
	Content          string         `json:"content"`
	StrategyName     string         `json:"strategy_name"`
	StrategyType     string         `json:"strategy_type"`
	Market           string         `json:"market"`
	AnnualReturn     *float64       `json:"annual_return,omitempty"`
	MaxDrawdown      *float64       `json:"max_drawdown,omitempty"`
	SharpeRatio      *float64       `json:"sharpe_ratio,omitempty"`
	TotalTrades      int            `json:"total_trades"`
	StrategyParams   map[string]any `json:"strategy_params,omitempty"`
	EquityCurveImage string         `json:"equity_curve_image,omitempty"`
	Attachment       string         `json:"attachment,omitempty"`
	Tags             string         `json:"tags"`
	Status           ReportStatus   `json:"status" validate:"omitempty,oneof=draft pending approved rejected published"`
	IsPublic         bool           `json:"is_public"`
	IsTop            bool           `json:"is_top"`
	ViewCount        int            `json:"view_count"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	PublishedAt      *time.Time     `json:"published_at,omitempty"`
}

// NewsItem represents a company news article
type NewsItem struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title" validate:"required"`
	Summary     string     `json:"summary"`
	Content     string     `json:"content"`
	Category    string     `json:"category"`
	IsPublished bool       `json:"is_published"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Product represents an item in the product catalogue
type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name" validate:"required"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url,omitempty"`
	SortOrder   int       `json:"sort_order"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// LogEntry is one line of the server log viewer
type LogEntry struct {
	ID        int64     `json:"id"`
	LogType   string    `json:"log_type"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	Module    string    `json:"module,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Entity is implemented by every resource that lives behind a CRUD collection
type Entity interface {
	GetID() int64
	SetID(id int64)
}

func (u *User) GetID() int64             { return u.ID }
func (u *User) SetID(id int64)           { u.ID = id }
func (j *JobPosition) GetID() int64      { return j.ID }
func (j *JobPosition) SetID(id int64)    { j.ID = id }
func (r *Resume) GetID() int64           { return r.ID }
func (r *Resume) SetID(id int64)         { r.ID = id }
func (r *ResearchReport) GetID() int64   { return r.ID }
func (r *ResearchReport) SetID(id int64) { r.ID = id }
func (n *NewsItem) GetID() int64         { return n.ID }
func (n *NewsItem) SetID(id int64)       { n.ID = id }
func (p *Product) GetID() int64          { return p.ID }
func (p *Product) SetID(id int64)        { p.ID = id }
func (l *LogEntry) GetID() int64         { return l.ID }
func (l *LogEntry) SetID(id int64)       { l.ID = id }
