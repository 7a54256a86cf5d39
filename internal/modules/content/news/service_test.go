package news

import (
	"errors"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/ecosphere/core/internal/database"
	"github.com/ecosphere/core/internal/models"
	"github.com/ecosphere/core/internal/pkg/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func createReport(t *testing.T, svc *Service, title string) *models.NewsReportModel {
	t.Helper()
	r := &models.NewsReportModel{
		Title:        title,
		Description:  "illegal dumping near the river",
		ReporterID:   "reporter-1",
		ReporterName: "Reporter",
	}
	if err := svc.Create(r); err != nil {
		t.Fatalf("create report: %v", err)
	}
	return r
}

func TestServiceCreateStartsPending(t *testing.T) {
	svc := NewService(setupTestDB(t))
	r := createReport(t, svc, "River cleanup")

	if r.Status != models.NewsPending {
		t.Errorf("expected pending status, got %q", r.Status)
	}
	if r.ApprovedAt != nil || r.RejectedAt != nil {
		t.Errorf("new report must not carry decision timestamps")
	}
}

func TestServiceApprove(t *testing.T) {
	svc := NewService(setupTestDB(t))
	r := createReport(t, svc, "River cleanup")

	updated, err := svc.Approve(r.ID, "mod-1")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if updated.Status != models.NewsApproved {
		t.Errorf("expected approved, got %q", updated.Status)
	}
	if updated.ApprovedAt == nil {
		t.Errorf("approved_at should be set")
	}
	if updated.ApprovedBy != "mod-1" {
		t.Errorf("approved_by = %q, want mod-1", updated.ApprovedBy)
	}
	if updated.RejectedAt != nil || updated.RejectedBy != "" {
		t.Errorf("rejection fields must stay empty on approve")
	}
}

func TestServiceApproveAfterRejectClearsRejection(t *testing.T) {
	svc := NewService(setupTestDB(t))
	r := createReport(t, svc, "River cleanup")

	if _, err := svc.Reject(r.ID, "mod-1", "duplicate"); err != nil {
		t.Fatalf("reject: %v", err)
	}
	updated, err := svc.Approve(r.ID, "mod-2")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}

	if updated.Status != models.NewsApproved {
		t.Errorf("expected approved, got %q", updated.Status)
	}
	if updated.RejectedAt != nil || updated.RejectedBy != "" {
		t.Errorf("rejection fields must be cleared by approve, got %v / %q", updated.RejectedAt, updated.RejectedBy)
	}
	if updated.AuditReason != "" {
		t.Errorf("audit reason must be cleared by approve, got %q", updated.AuditReason)
	}
	if updated.ApprovedAt == nil || updated.ApprovedBy != "mod-2" {
		t.Errorf("approval fields not set: %v / %q", updated.ApprovedAt, updated.ApprovedBy)
	}
}

func TestServiceRejectAfterApproveClearsApproval(t *testing.T) {
	svc := NewService(setupTestDB(t))
	r := createReport(t, svc, "River cleanup")

	if _, err := svc.Approve(r.ID, "mod-1"); err != nil {
		t.Fatalf("approve: %v", err)
	}
	updated, err := svc.Reject(r.ID, "mod-2", "not verifiable")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}

	if updated.Status != models.NewsRejected {
		t.Errorf("expected rejected, got %q", updated.Status)
	}
	if updated.ApprovedAt != nil || updated.ApprovedBy != "" {
		t.Errorf("approval fields must be cleared by reject")
	}
	if updated.RejectedAt == nil || updated.RejectedBy != "mod-2" {
		t.Errorf("rejection fields not set: %v / %q", updated.RejectedAt, updated.RejectedBy)
	}
	if updated.AuditReason != "not verifiable" {
		t.Errorf("audit reason = %q, want %q", updated.AuditReason, "not verifiable")
	}
}

func TestServiceRevertClearsAllDecisionFields(t *testing.T) {
	svc := NewService(setupTestDB(t))
	r := createReport(t, svc, "River cleanup")

	if _, err := svc.Reject(r.ID, "mod-1", "spam"); err != nil {
		t.Fatalf("reject: %v", err)
	}
	updated, err := svc.Revert(r.ID)
	if err != nil {
		t.Fatalf("revert: %v", err)
	}

	if updated.Status != models.NewsPending {
		t.Errorf("expected pending, got %q", updated.Status)
	}
	if updated.ApprovedAt != nil || updated.ApprovedBy != "" ||
		updated.RejectedAt != nil || updated.RejectedBy != "" ||
		updated.AuditReason != "" {
		t.Errorf("revert must clear every decision field: %+v", updated)
	}
}

func TestServiceTransitionUnknownID(t *testing.T) {
	svc := NewService(setupTestDB(t))

	if _, err := svc.Approve("no-such-id", "mod-1"); !errors.Is(err, errReportNotFound) {
		t.Errorf("expected errReportNotFound, got %v", err)
	}
}

func TestServiceListFiltersByStatus(t *testing.T) {
	svc := NewService(setupTestDB(t))
	a := createReport(t, svc, "first")
	b := createReport(t, svc, "second")
	createReport(t, svc, "third")

	if _, err := svc.Approve(a.ID, "mod-1"); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := svc.Reject(b.ID, "mod-1", ""); err != nil {
		t.Fatalf("reject: %v", err)
	}

	approved := models.NewsApproved
	items, pag, err := svc.List(pagination.Query{Page: 1, Size: 10}, &approved)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 || items[0].ID != a.ID {
		t.Errorf("approved filter returned wrong rows: %d", len(items))
	}
	if pag.Total != 1 {
		t.Errorf("pagination total = %d, want 1", pag.Total)
	}

	counts := svc.StatusCount()
	if counts["pending"] != 1 || counts["approved"] != 1 || counts["rejected"] != 1 {
		t.Errorf("status counts wrong: %v", counts)
	}
}

func TestServiceListByReporter(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	createReport(t, svc, "mine")

	other := &models.NewsReportModel{Title: "other", ReporterID: "reporter-2"}
	if err := svc.Create(other); err != nil {
		t.Fatalf("create: %v", err)
	}

	items, _, err := svc.ListByReporter("reporter-1", pagination.Query{Page: 1, Size: 10})
	if err != nil {
		t.Fatalf("list by reporter: %v", err)
	}
	if len(items) != 1 || items[0].ReporterID != "reporter-1" {
		t.Errorf("expected only the caller's reports, got %d", len(items))
	}
}
