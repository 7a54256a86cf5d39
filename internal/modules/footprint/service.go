package footprint

import (
	"encoding/json"

	"gorm.io/gorm"

	"github.com/ecosphere/core/internal/models"
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// SaveSnapshot persists a completed estimator run for the user.
func (s *Service) SaveSnapshot(userID string, survey Survey, result Result) (*models.FootprintSnapshotModel, error) {
	surveyJSON, err := json.Marshal(survey)
	if err != nil {
		return nil, err
	}
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}

	snapshot := models.FootprintSnapshotModel{
		UserID: userID,
		Total:  result.Breakdown.Total,
		Survey: string(surveyJSON),
		Result: string(resultJSON),
	}
	if err := s.db.Create(&snapshot).Error; err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// ListSnapshots returns the user's saved runs, newest first.
func (s *Service) ListSnapshots(userID string) ([]models.FootprintSnapshotModel, error) {
	var snapshots []models.FootprintSnapshotModel
	err := s.db.
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&snapshots).Error
	return snapshots, err
}
