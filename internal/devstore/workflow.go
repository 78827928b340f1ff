package devstore

import (
	"errors"
	"fmt"
	"time"

	"github.com/therealutkarshpriyadarshi/backoffice/pkg/models"
)

// ErrInvalidTransition is returned when a workflow action does not apply to the record's status
var ErrInvalidTransition = errors.New("invalid status transition")

// Action computes the fields a workflow action patches into rec
type Action func(rec Record, body map[string]any) (Record, error)

// ReviewResume sets the review outcome of a resume
func ReviewResume(rec Record, body map[string]any) (Record, error) {
	status, _ := body["status"].(string)
	switch models.ResumeStatus(status) {
	case models.ResumeStatusReviewing, models.ResumeStatusApproved, models.ResumeStatusRejected:
	default:
		return nil, fmt.Errorf("%w: cannot review resume to %q", ErrInvalidTransition, status)
	}
	notes, _ := body["review_notes"].(string)
	return Record{
		"status":       status,
		"review_notes": notes,
		"reviewed_at":  time.Now().UTC(),
	}, nil
}

// SubmitReport moves a draft or rejected report to pending review
func SubmitReport(rec Record, _ map[string]any) (Record, error) {
	if err := requireStatus(rec, models.ReportStatusDraft, models.ReportStatusRejected); err != nil {
		return nil, err
	}
	return Record{"status": string(models.ReportStatusPending)}, nil
}

// ReviewReport approves or rejects a pending report
func ReviewReport(rec Record, body map[string]any) (Record, error) {
	if err := requireStatus(rec, models.ReportStatusPending); err != nil {
		return nil, err
	}
	status, _ := body["status"].(string)
	switch models.ReportStatus(status) {
	case models.ReportStatusApproved, models.ReportStatusRejected:
	default:
		return nil, fmt.Errorf("%w: cannot review report to %q", ErrInvalidTransition, status)
	}
	return Record{"status": status}, nil
}

// PublishReport makes an approved report public
func PublishReport(rec Record, _ map[string]any) (Record, error) {
	if err := requireStatus(rec, models.ReportStatusApproved); err != nil {
		return nil, err
	}
	return Record{
		"status":       string(models.ReportStatusPublished),
		"is_public":    true,
		"published_at": time.Now().UTC(),
	}, nil
}

// UnpublishReport withdraws a published report
func UnpublishReport(rec Record, _ map[string]any) (Record, error) {
	if err := requireStatus(rec, models.ReportStatusPublished); err != nil {
		return nil, err
	}
	return Record{
		"status":    string(models.ReportStatusApproved),
		"is_public": false,
	}, nil
}

func requireStatus(rec Record, allowed ...models.ReportStatus) error {
	current, _ := rec["status"].(string)
	for _, s := range allowed {
		if current == string(s) {
			return nil
		}
	}
	return fmt.Errorf("%w: report is %q", ErrInvalidTransition, current)
}
