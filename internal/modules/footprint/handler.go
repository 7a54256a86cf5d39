package footprint

import (
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ecosphere/core/internal/middleware"
	"github.com/ecosphere/core/internal/models"
	"github.com/ecosphere/core/internal/pkg/response"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	rg.POST("/footprint/calculate", h.calculate)

	snapshots := rg.Group("/footprint/snapshots", authMW)
	{
		snapshots.POST("", h.createSnapshot)
		snapshots.GET("", h.listSnapshots)
	}
}

type snapshotResponse struct {
	ID      string          `json:"id"`
	Total   float64         `json:"total"`
	Survey  json.RawMessage `json:"survey"`
	Result  json.RawMessage `json:"result"`
	Created time.Time       `json:"created"`
}

// calculate runs the estimator without persisting anything. Open to
// anonymous visitors.
func (h *Handler) calculate(c *gin.Context) {
	var survey Survey
	if err := c.ShouldBindJSON(&survey); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	response.OK(c, Calculate(survey))
}

// createSnapshot runs the estimator and saves the run under the caller's
// account.
func (h *Handler) createSnapshot(c *gin.Context) {
	var survey Survey
	if err := c.ShouldBindJSON(&survey); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result := Calculate(survey)
	snapshot, err := h.svc.SaveSnapshot(middleware.CurrentUserID(c), survey, result)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Created(c, toSnapshotResponse(snapshot))
}

func (h *Handler) listSnapshots(c *gin.Context) {
	snapshots, err := h.svc.ListSnapshots(middleware.CurrentUserID(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	out := make([]snapshotResponse, 0, len(snapshots))
	for i := range snapshots {
		out = append(out, toSnapshotResponse(&snapshots[i]))
	}
	response.OK(c, out)
}

func toSnapshotResponse(m *models.FootprintSnapshotModel) snapshotResponse {
	return snapshotResponse{
		ID:      m.ID,
		Total:   m.Total,
		Survey:  json.RawMessage(m.Survey),
		Result:  json.RawMessage(m.Result),
		Created: m.CreatedAt,
	}
}
