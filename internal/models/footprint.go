package models

// FootprintSnapshotModel persists one saved estimator run for a user.
// Survey and Result hold the request/response JSON verbatim so the
// estimator can evolve without schema migrations.
type FootprintSnapshotModel struct {
	Base
	UserID string  `json:"user_id" gorm:"index;not null"`
	Total  float64 `json:"total"`
	Survey string  `json:"survey"  gorm:"type:longtext"`
	Result string  `json:"result"  gorm:"type:longtext"`
}

func (FootprintSnapshotModel) TableName() string { return "footprint_snapshots" }
