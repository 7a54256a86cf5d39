package news

import (
	"errors"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ecosphere/core/internal/middleware"
	"github.com/ecosphere/core/internal/models"
	"github.com/ecosphere/core/internal/modules/gateway/gateway"
	filestore "github.com/ecosphere/core/internal/modules/storage/file"
	appconfigs "github.com/ecosphere/core/internal/modules/system/core/configs"
	pkgmail "github.com/ecosphere/core/internal/pkg/mail"
	"github.com/ecosphere/core/internal/pkg/pagination"
	"github.com/ecosphere/core/internal/pkg/response"
)

// eventDispatcher delivers domain events to registered outbound webhooks.
type eventDispatcher interface {
	Dispatch(event string, payload interface{})
}

type Handler struct {
	svc        *Service
	cfgSvc     *appconfigs.Service
	storage    *filestore.Service
	aggregator *Aggregator
	hub        *gateway.Hub
	webhooks   eventDispatcher
}

func NewHandler(svc *Service, cfgSvc *appconfigs.Service, storage *filestore.Service, aggregator *Aggregator, hub *gateway.Hub) *Handler {
	return &Handler{svc: svc, cfgSvc: cfgSvc, storage: storage, aggregator: aggregator, hub: hub}
}

// SetWebhooks wires an optional webhook dispatcher for report lifecycle events.
func (h *Handler) SetWebhooks(d eventDispatcher) { h.webhooks = d }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW, moderatorMW gin.HandlerFunc) {
	g := rg.Group("/news")

	g.GET("/feed", h.feed)
	g.GET("/reports/approved", h.listApproved)

	a := g.Group("", authMW)
	a.POST("/reports", h.create)
	a.GET("/reports/mine", h.mine)

	m := g.Group("", moderatorMW)
	m.GET("/reports", h.list)
	m.GET("/reports/state", h.statusCount)
	m.GET("/reports/:id", h.get)
	m.PATCH("/reports/:id/approve", h.approve)
	m.PATCH("/reports/:id/reject", h.reject)
	m.PATCH("/reports/:id/revert", h.revert)
}

// POST /news/reports — multipart submission, lands in pending.
func (h *Handler) create(c *gin.Context) {
	var dto CreateReportDTO
	if err := c.ShouldBind(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	var targetDate *time.Time
	if raw := strings.TrimSpace(dto.TargetDate); raw != "" {
		parsed, err := parseTargetDate(raw)
		if err != nil {
			response.BadRequest(c, "target_date must be YYYY-MM-DD")
			return
		}
		targetDate = &parsed
	}

	reporterID := middleware.CurrentUserID(c)
	report := models.NewsReportModel{
		Title:        strings.TrimSpace(dto.Title),
		Description:  strings.TrimSpace(dto.Description),
		Location:     strings.TrimSpace(dto.Location),
		TargetDate:   targetDate,
		ReporterID:   reporterID,
		ReporterName: h.svc.UserDisplayName(reporterID),
	}
	if err := h.svc.Create(&report); err != nil {
		response.InternalError(c, err)
		return
	}

	if fileHeader, err := c.FormFile("image"); err == nil && fileHeader != nil {
		src, err := fileHeader.Open()
		if err != nil {
			response.InternalError(c, err)
			return
		}
		payload, readErr := io.ReadAll(src)
		src.Close()
		if readErr != nil {
			response.InternalError(c, readErr)
			return
		}

		key := filestore.NamespaceNewsImages + "/" + report.ID + "_" + sanitizeFilename(fileHeader.Filename)
		stored, err := h.storage.Store(c.Request.Context(), key, payload, fileHeader.Header.Get("Content-Type"))
		if err != nil {
			response.InternalError(c, err)
			return
		}
		if err := h.svc.SetImage(report.ID, stored.URL, stored.Key); err != nil {
			response.InternalError(c, err)
			return
		}
		report.ImageURL, report.ImageKey = stored.URL, stored.Key
	}

	if h.hub != nil {
		h.hub.BroadcastAdmin(gateway.EventNewsCreated, toResponse(&report))
	}
	if h.webhooks != nil {
		h.webhooks.Dispatch(gateway.EventNewsCreated, toResponse(&report))
	}
	response.Created(c, toResponse(&report))
}

// GET /news/reports?status=pending|approved|rejected
func (h *Handler) list(c *gin.Context) {
	q := pagination.FromContext(c)

	var statusFilter *models.NewsStatus
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status := models.NewsStatus(strings.ToLower(raw))
		switch status {
		case models.NewsPending, models.NewsApproved, models.NewsRejected:
			statusFilter = &status
		default:
			response.BadRequest(c, "status must be pending, approved or rejected")
			return
		}
	}

	items, pag, err := h.svc.List(q, statusFilter)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paged(c, toResponses(items), pag)
}

// GET /news/reports/mine
func (h *Handler) mine(c *gin.Context) {
	q := pagination.FromContext(c)
	items, pag, err := h.svc.ListByReporter(middleware.CurrentUserID(c), q)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paged(c, toResponses(items), pag)
}

// GET /news/reports/approved — the public list.
func (h *Handler) listApproved(c *gin.Context) {
	q := pagination.FromContext(c)
	items, pag, err := h.svc.ListApproved(q)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paged(c, toResponses(items), pag)
}

// GET /news/reports/state — count per status.
func (h *Handler) statusCount(c *gin.Context) {
	response.OK(c, h.svc.StatusCount())
}

func (h *Handler) get(c *gin.Context) {
	report, err := h.svc.GetByID(c.Param("id"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if report == nil {
		response.NotFound(c)
		return
	}
	response.OK(c, toResponse(report))
}

func (h *Handler) approve(c *gin.Context) {
	report, err := h.svc.Approve(c.Param("id"), middleware.CurrentUserID(c))
	h.finishDecision(c, report, err, "")
}

func (h *Handler) reject(c *gin.Context) {
	var dto DecisionDTO
	_ = c.ShouldBindJSON(&dto)
	report, err := h.svc.Reject(c.Param("id"), middleware.CurrentUserID(c), strings.TrimSpace(dto.Reason))
	h.finishDecision(c, report, err, dto.Reason)
}

func (h *Handler) revert(c *gin.Context) {
	report, err := h.svc.Revert(c.Param("id"))
	h.finishDecision(c, report, err, "")
}

func (h *Handler) finishDecision(c *gin.Context, report *models.NewsReportModel, err error, reason string) {
	if err != nil {
		if errors.Is(err, errReportNotFound) {
			response.NotFound(c)
			return
		}
		response.InternalError(c, err)
		return
	}

	if h.hub != nil {
		h.hub.BroadcastPublic(gateway.EventNewsUpdated, gin.H{
			"id":     report.ID,
			"status": report.Status,
		})
	}
	if h.webhooks != nil {
		h.webhooks.Dispatch(gateway.EventNewsUpdated, toResponse(report))
	}
	go h.sendDecisionNotification(report, reason)

	response.OK(c, toResponse(report))
}

// sendDecisionNotification mails the reporter about the moderation outcome.
func (h *Handler) sendDecisionNotification(report *models.NewsReportModel, reason string) {
	if h.cfgSvc == nil {
		return
	}
	cfg, err := h.cfgSvc.Get()
	if err != nil || cfg == nil || !cfg.MailOptions.Enable {
		return
	}
	to := h.svc.ReporterMail(report.ReporterID)
	if to == "" {
		return
	}

	detailURL := ""
	if base := strings.TrimSpace(cfg.URL.WebURL); base != "" {
		detailURL = strings.TrimSuffix(base, "/") + "/news"
	}

	sender := pkgmail.New(pkgmail.BuildMailConfig(cfg))
	_ = sender.SendModerationDecision(to, pkgmail.ModerationDecisionData{
		Title:       report.Title,
		Description: report.Description,
		Decision:    string(report.Status),
		Reason:      reason,
		DetailURL:   detailURL,
		SiteName:    cfg.Site.Title,
	})
}

func toResponses(items []models.NewsReportModel) []reportResponse {
	out := make([]reportResponse, len(items))
	for i := range items {
		out[i] = toResponse(&items[i])
	}
	return out
}

func parseTargetDate(raw string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}

func sanitizeFilename(raw string) string {
	name := filepath.Base(strings.TrimSpace(raw))
	if name == "" || name == "." {
		return "upload"
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	out := strings.Trim(b.String(), "-.")
	if out == "" {
		return "upload"
	}
	return out
}
