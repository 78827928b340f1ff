package devstore

import (
	"context"
	"fmt"
	"time"

	"github.com/therealutkarshpriyadarshi/backoffice/pkg/models"
)

// Seed adds the admin account and a few records to every collection
func (s *Store) Seed(ctx context.Context, adminUser, adminPassword string) error {
	admin, err := s.Accounts.Add(adminUser, adminPassword, true)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	ret := func(f float64) *float64 { return &f }

	items := []struct {
		collection string
		value      any
	}{
		{Users, admin},
		{Users, models.User{Username: "operator", Email: "operator@example.com", FullName: "Operator", IsStaff: true, IsActive: true, DateJoined: now}},
		{Jobs, models.JobPosition{Title: "Quant Researcher", Department: "Research", JobCategory: "research", Location: "Shanghai", Headcount: 2, Status: models.JobStatusActive}},
		{Jobs, models.JobPosition{Title: "Backend Engineer", Department: "Engineering", JobCategory: "engineering", Location: "Remote", Headcount: 1, Status: models.JobStatusDraft}},
		{Resumes, models.Resume{Name: "Li Wei", Email: "li.wei@example.com", Phone: "13800000000", JobCategory: "research", Education: "master", School: "Fudan", Status: models.ResumeStatusPending}},
		{Resumes, models.Resume{Name: "Anna Berg", Email: "anna@example.com", JobCategory: "engineering", Education: "bachelor", Status: models.ResumeStatusReviewing}},
		{Reports, models.ResearchReport{Title: "Momentum on CSI 300", StrategyName: "momentum-20d", StrategyType: "trend", Market: "CN", AnnualReturn: ret(0.182), MaxDrawdown: ret(-0.121), SharpeRatio: ret(1.4), TotalTrades: 312, Tags: "momentum,equity", Status: models.ReportStatusDraft}},
		{Reports, models.ResearchReport{Title: "Pairs trading on banks", StrategyName: "pairs-banks", StrategyType: "arbitrage", Market: "CN", AnnualReturn: ret(0.094), TotalTrades: 1280, Tags: "pairs", Status: models.ReportStatusPublished, IsPublic: true, PublishedAt: &now}},
		{News, models.NewsItem{Title: "Quarterly update", Summary: "Results for the quarter", Category: "company", IsPublished: true, PublishedAt: &now}},
		{Products, models.Product{Name: "Alpha Fund", Category: "fund", Description: "Market neutral strategy", IsActive: true}},
		{Logs, models.LogEntry{LogType: "app", Level: "INFO", Message: "development server started", Module: "devserver", Timestamp: now}},
	}

	for _, item := range items {
		if _, err := s.Insert(ctx, item.collection, item.value); err != nil {
			return fmt.Errorf("failed to seed %s: %w", item.collection, err)
		}
	}
	return nil
}
