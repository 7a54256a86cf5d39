package waste

import (
	"gorm.io/gorm"

	"github.com/ecosphere/core/internal/models"
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// SaveScan records a classification in the user's scan history.
func (s *Service) SaveScan(userID, imageURL, imageKey string, result *Classification) (*models.WasteScanModel, error) {
	scan := models.WasteScanModel{
		UserID:     userID,
		ImageURL:   imageURL,
		ImageKey:   imageKey,
		Label:      result.Label,
		Confidence: result.Confidence,
	}
	if err := s.db.Create(&scan).Error; err != nil {
		return nil, err
	}
	return &scan, nil
}

// ListScans returns the user's scan history, newest first.
func (s *Service) ListScans(userID string) ([]models.WasteScanModel, error) {
	var scans []models.WasteScanModel
	err := s.db.
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&scans).Error
	return scans, err
}
