package option

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/ecosphere/core/internal/models"
	"github.com/ecosphere/core/internal/pkg/response"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Handler struct{ db *gorm.DB }

func NewHandler(db *gorm.DB) *Handler { return &Handler{db: db} }

// The "configs" row is owned by the configs service and is managed through
// /configs instead.
const reservedKey = "configs"

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/options", authMW)
	g.GET("", h.list)
	g.GET("/:key", h.get)
	g.PATCH("/:key", h.patch)
	g.DELETE("/:key", h.delete)
}

func (h *Handler) list(c *gin.Context) {
	var items []models.OptionModel
	if err := h.db.Find(&items).Error; err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, items)
}

func (h *Handler) get(c *gin.Context) {
	key := c.Param("key")
	var opt models.OptionModel
	if err := h.db.Where("name = ?", key).First(&opt).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFoundMsg(c, "option not found")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OK(c, opt)
}

type patchDTO struct {
	Value string `json:"value" binding:"required"`
}

func (h *Handler) patch(c *gin.Context) {
	key := c.Param("key")
	if key == reservedKey {
		response.BadRequest(c, "configs is managed through /configs")
		return
	}
	var dto patchDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	opt := models.OptionModel{Name: key, Value: dto.Value}
	if err := h.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&opt).Error; err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, opt)
}

func (h *Handler) delete(c *gin.Context) {
	key := c.Param("key")
	if key == reservedKey {
		response.BadRequest(c, "configs is managed through /configs")
		return
	}
	if err := h.db.Where("name = ?", key).Delete(&models.OptionModel{}).Error; err != nil {
		response.InternalError(c, err)
		return
	}
	response.NoContent(c)
}
