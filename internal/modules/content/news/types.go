package news

import (
	"errors"
	"time"

	"github.com/ecosphere/core/internal/models"
)

// CreateReportDTO is bound from the multipart submission form. The image part
// is read separately from the request.
type CreateReportDTO struct {
	Title       string `form:"title"       binding:"required"`
	Description string `form:"description" binding:"required"`
	Location    string `form:"location"`
	TargetDate  string `form:"target_date"`
}

// DecisionDTO carries the optional moderator note on reject.
type DecisionDTO struct {
	Reason string `json:"reason"`
}

type reportResponse struct {
	ID           string             `json:"id"`
	Title        string             `json:"title"`
	Description  string             `json:"description"`
	Location     string             `json:"location,omitempty"`
	TargetDate   *time.Time         `json:"target_date,omitempty"`
	ImageURL     string             `json:"image_url,omitempty"`
	ReporterID   string             `json:"reporter_id"`
	ReporterName string             `json:"reporter_name"`
	Status       models.NewsStatus  `json:"status"`
	ApprovedAt   *time.Time         `json:"approved_at,omitempty"`
	ApprovedBy   string             `json:"approved_by,omitempty"`
	RejectedAt   *time.Time         `json:"rejected_at,omitempty"`
	RejectedBy   string             `json:"rejected_by,omitempty"`
	AuditReason  string             `json:"audit_reason,omitempty"`
	Created      time.Time          `json:"created"`
	Modified     time.Time          `json:"modified"`
}

var errReportNotFound = errors.New("news report not found")

func toResponse(r *models.NewsReportModel) reportResponse {
	return reportResponse{
		ID:           r.ID,
		Title:        r.Title,
		Description:  r.Description,
		Location:     r.Location,
		TargetDate:   r.TargetDate,
		ImageURL:     r.ImageURL,
		ReporterID:   r.ReporterID,
		ReporterName: r.ReporterName,
		Status:       r.Status,
		ApprovedAt:   r.ApprovedAt,
		ApprovedBy:   r.ApprovedBy,
		RejectedAt:   r.RejectedAt,
		RejectedBy:   r.RejectedBy,
		AuditReason:  r.AuditReason,
		Created:      r.CreatedAt,
		Modified:     r.UpdatedAt,
	}
}

// FeedArticle is one entry of the aggregated external feed.
type FeedArticle struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	Source      string `json:"source,omitempty"`
	PublishedAt string `json:"published_at,omitempty"`
}
