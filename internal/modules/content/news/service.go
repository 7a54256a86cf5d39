package news

import (
	"errors"
	"time"

	"github.com/ecosphere/core/internal/models"
	"github.com/ecosphere/core/internal/pkg/pagination"
	"github.com/ecosphere/core/internal/pkg/response"
	"gorm.io/gorm"
)

type Service struct{ db *gorm.DB }

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

// List returns reports for moderators, optionally filtered by status. The
// sort column follows the filter so decision queues read in decision order.
func (s *Service) List(q pagination.Query, status *models.NewsStatus) ([]models.NewsReportModel, response.Pagination, error) {
	tx := s.db.Model(&models.NewsReportModel{})
	if status != nil {
		tx = tx.Where("status = ?", *status)
		switch *status {
		case models.NewsApproved:
			tx = tx.Order("approved_at DESC")
		case models.NewsRejected:
			tx = tx.Order("rejected_at DESC")
		default:
			tx = tx.Order("created_at DESC")
		}
	} else {
		tx = tx.Order("created_at DESC")
	}

	var items []models.NewsReportModel
	pag, err := pagination.Paginate(tx, q, &items)
	return items, pag, err
}

// ListByReporter returns the caller's own reports, newest first.
func (s *Service) ListByReporter(reporterID string, q pagination.Query) ([]models.NewsReportModel, response.Pagination, error) {
	tx := s.db.Model(&models.NewsReportModel{}).
		Where("reporter_id = ?", reporterID).
		Order("created_at DESC")
	var items []models.NewsReportModel
	pag, err := pagination.Paginate(tx, q, &items)
	return items, pag, err
}

// ListApproved returns the public feed of approved reports.
func (s *Service) ListApproved(q pagination.Query) ([]models.NewsReportModel, response.Pagination, error) {
	status := models.NewsApproved
	return s.List(q, &status)
}

func (s *Service) GetByID(id string) (*models.NewsReportModel, error) {
	var r models.NewsReportModel
	if err := s.db.First(&r, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &r, nil
}

// Create persists a new report in pending state.
func (s *Service) Create(r *models.NewsReportModel) error {
	r.Status = models.NewsPending
	r.ApprovedAt, r.ApprovedBy = nil, ""
	r.RejectedAt, r.RejectedBy = nil, ""
	return s.db.Create(r).Error
}

// SetImage records where the report's image was stored.
func (s *Service) SetImage(id, imageURL, imageKey string) error {
	return s.db.Model(&models.NewsReportModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"image_url": imageURL,
			"image_key": imageKey,
		}).Error
}

// Approve marks the report approved. The rejection fields are cleared in the
// same UPDATE so the record never carries both decisions.
func (s *Service) Approve(id, moderatorID string) (*models.NewsReportModel, error) {
	now := time.Now()
	return s.transition(id, map[string]interface{}{
		"status":       models.NewsApproved,
		"approved_at":  &now,
		"approved_by":  moderatorID,
		"rejected_at":  nil,
		"rejected_by":  "",
		"audit_reason": "",
	})
}

// Reject marks the report rejected and clears any earlier approval.
func (s *Service) Reject(id, moderatorID, reason string) (*models.NewsReportModel, error) {
	now := time.Now()
	return s.transition(id, map[string]interface{}{
		"status":       models.NewsRejected,
		"rejected_at":  &now,
		"rejected_by":  moderatorID,
		"approved_at":  nil,
		"approved_by":  "",
		"audit_reason": reason,
	})
}

// Revert returns the report to pending and clears both decision pairs.
func (s *Service) Revert(id string) (*models.NewsReportModel, error) {
	return s.transition(id, map[string]interface{}{
		"status":       models.NewsPending,
		"approved_at":  nil,
		"approved_by":  "",
		"rejected_at":  nil,
		"rejected_by":  "",
		"audit_reason": "",
	})
}

func (s *Service) transition(id string, updates map[string]interface{}) (*models.NewsReportModel, error) {
	res := s.db.Model(&models.NewsReportModel{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, errReportNotFound
	}
	return s.GetByID(id)
}

// ReporterMail resolves the submitting user's mail address, empty when the
// account has none on file.
func (s *Service) ReporterMail(reporterID string) string {
	var user models.UserModel
	if err := s.db.Select("mail").First(&user, "id = ?", reporterID).Error; err != nil {
		return ""
	}
	return user.Mail
}

// UserDisplayName resolves the name shown alongside a report.
func (s *Service) UserDisplayName(userID string) string {
	var user models.UserModel
	if err := s.db.Select("name", "username").First(&user, "id = ?", userID).Error; err != nil {
		return ""
	}
	if user.Name != "" {
		return user.Name
	}
	return user.Username
}

// StatusCount returns the number of reports per moderation state.
func (s *Service) StatusCount() map[string]int64 {
	out := map[string]int64{}
	for _, status := range []models.NewsStatus{models.NewsPending, models.NewsApproved, models.NewsRejected} {
		var count int64
		s.db.Model(&models.NewsReportModel{}).Where("status = ?", status).Count(&count)
		out[string(status)] = count
	}
	return out
}
