package models

import "time"

// NewsStatus represents the moderation state of a news report.
type NewsStatus string

const (
	NewsPending  NewsStatus = "pending"
	NewsApproved NewsStatus = "approved"
	NewsRejected NewsStatus = "rejected"
)

// NewsReportModel stores a user-submitted news report subject to moderation.
// Exactly one of ApprovedAt/RejectedAt is set while the report is in the
// matching state; both are null while pending.
type NewsReportModel struct {
	Base
	Title        string     `json:"title"        gorm:"not null"`
	Description  string     `json:"description"  gorm:"type:text"`
	Location     string     `json:"location"`
	TargetDate   *time.Time `json:"target_date"`
	ImageURL     string     `json:"image_url"`
	ImageKey     string     `json:"-"`
	ReporterID   string     `json:"reporter_id"  gorm:"index;not null"`
	ReporterName string     `json:"reporter_name"`
	Status       NewsStatus `json:"status"       gorm:"index;default:'pending'"`
	ApprovedAt   *time.Time `json:"approved_at"`
	ApprovedBy   string     `json:"approved_by"`
	RejectedAt   *time.Time `json:"rejected_at"`
	RejectedBy   string     `json:"rejected_by"`
	AuditReason  string     `json:"audit_reason"`
}

func (NewsReportModel) TableName() string { return "news_reports" }
