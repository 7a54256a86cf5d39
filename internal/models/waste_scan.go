package models

// WasteScanModel stores one waste-image classification result.
type WasteScanModel struct {
	Base
	UserID     string  `json:"user_id"    gorm:"index;not null"`
	ImageURL   string  `json:"image_url"`
	ImageKey   string  `json:"-"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"` // 0..1 for the reported label
}

func (WasteScanModel) TableName() string { return "waste_scans" }
