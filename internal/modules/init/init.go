package init_

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ecosphere/core/internal/config"
	appconfigs "github.com/ecosphere/core/internal/modules/system/core/configs"
	"github.com/ecosphere/core/internal/pkg/response"
)

// Handler handles setup wizard endpoints.
type Handler struct {
	db     *gorm.DB
	cfgSvc *appconfigs.Service
}

func NewHandler(db *gorm.DB, cfgSvc *appconfigs.Service) *Handler {
	return &Handler{db: db, cfgSvc: cfgSvc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/init")

	g.GET("", h.checkInit)
	g.GET("/configs/default", h.defaultConfigs)
	g.PATCH("/configs/:key", h.patchConfigKey)
}

// isInitialized returns true once at least one user has registered.
func isInitialized(db *gorm.DB) bool {
	var count int64
	db.Table("users").Count(&count)
	return count > 0
}

// GET /init — {isInit: bool}
func (h *Handler) checkInit(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"isInit": isInitialized(h.db)})
}

// GET /init/configs/default — returns default configs
func (h *Handler) defaultConfigs(c *gin.Context) {
	if isInitialized(h.db) {
		response.ForbiddenMsg(c, "system is already initialized")
		return
	}
	response.OK(c, config.DefaultFullConfig())
}

// PATCH /init/configs/:key — update a config section before the first user
// exists. After that the authenticated configs routes take over.
func (h *Handler) patchConfigKey(c *gin.Context) {
	if isInitialized(h.db) {
		response.ForbiddenMsg(c, "system is already initialized")
		return
	}
	key := c.Param("key")
	var body json.RawMessage
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	updated, err := h.cfgSvc.Patch(map[string]json.RawMessage{key: body})
	if err != nil {
		response.InternalError(c, err)
		return
	}

	full, _ := json.Marshal(updated)
	var m map[string]json.RawMessage
	_ = json.Unmarshal(full, &m)
	if val, ok := m[key]; ok {
		var section interface{}
		_ = json.Unmarshal(val, &section)
		response.OK(c, section)
		return
	}
	response.OK(c, updated)
}
