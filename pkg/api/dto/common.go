package dto

import (
	"net/url"
	"strconv"

	"github.com/therealutkarshpriyadarshi/backoffice/internal/devstore"
	"github.com/therealutkarshpriyadarshi/backoffice/pkg/models"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Detail string `json:"detail"`
	Code   string `json:"code,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status      string         `json:"status"`
	Version     string         `json:"version"`
	Collections map[string]int `json:"collections"`
}

// ListQueryParams represents common list query parameters
type ListQueryParams struct {
	Page     int    `form:"page" validate:"omitempty,min=1"`
	PageSize int    `form:"page_size" validate:"omitempty,min=1,max=100"`
	Search   string `form:"search"`
}

// ListResponse is the paginated envelope of collection endpoints
type ListResponse = models.PaginatedResponse[devstore.Record]

// NewListResponse builds the envelope for page, linking neighbours relative to u
func NewListResponse(u *url.URL, page devstore.Page, pageSize int) ListResponse {
	resp := ListResponse{
		Count:   page.Count,
		Results: page.Results,
	}
	if resp.Results == nil {
		resp.Results = []devstore.Record{}
	}

	if page.Page < models.TotalPages(page.Count, pageSize) {
		resp.Next = pageLink(u, page.Page+1)
	}
	if page.Page > 1 {
		resp.Previous = pageLink(u, page.Page-1)
	}
	return resp
}

func pageLink(u *url.URL, page int) *string {
	link := *u
	q := link.Query()
	if page == 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(page))
	}
	link.RawQuery = q.Encode()
	s := link.String()
	return &s
}
