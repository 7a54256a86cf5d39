package configs

import (
	"encoding/json"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/ecosphere/core/internal/pkg/response"
)

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, moderatorMW gin.HandlerFunc) {
	g := rg.Group("/configs")

	g.GET("", h.getPublic)

	a := g.Group("", moderatorMW)
	a.GET("/all", h.getAll)
	a.PATCH("", h.patch)

	// /options/:key - per-section access used by the admin panel
	opts := rg.Group("/options", moderatorMW)
	opts.GET("", h.getOptionsAll)
	opts.GET("/:key", h.getOption)
	opts.PATCH("/:key", h.patchOption)
}

// getPublic returns the public-safe subset of the config.
func (h *Handler) getPublic(c *gin.Context) {
	cfg, err := h.svc.Get()
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{
		"site": cfg.Site,
		"url":  cfg.URL,
		"features": gin.H{
			"news_feed":     cfg.NewsAPI.Enable,
			"waste_scanner": cfg.Inference.Enable,
			"assistant":     cfg.AI.EnableAssist,
			"donations":     cfg.Payment.Enable,
		},
	})
}

// getAll returns the full config with secrets masked.
func (h *Handler) getAll(c *gin.Context) {
	cfg, err := h.svc.Get()
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, h.maskedMap(cfg))
}

// patch merges a partial config update.
func (h *Handler) patch(c *gin.Context) {
	var partial map[string]json.RawMessage
	if err := c.ShouldBindJSON(&partial); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	partial, err := stripMaskedFromPartial(partial)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	updated, err := h.svc.Patch(partial)
	if err != nil {
		if errors.Is(err, errAssistProviderNotEnabled) {
			response.BadRequest(c, "enable at least one ai provider before enabling the assistant")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OK(c, h.maskedMap(updated))
}

// getOption returns a specific top-level config section (e.g. GET /options/payment).
func (h *Handler) getOption(c *gin.Context) {
	key := normalizeOptionKey(c.Param("key"))
	cfg, err := h.svc.Get()
	if err != nil {
		response.InternalError(c, err)
		return
	}

	m := h.maskedMap(cfg)
	if val, ok := m[key]; ok {
		response.OK(c, convertMapKeys(val, snakeToCamelKey))
		return
	}
	response.NotFound(c)
}

// patchOption merges an update into a specific top-level config section.
func (h *Handler) patchOption(c *gin.Context) {
	key := normalizeOptionKey(c.Param("key"))
	var body json.RawMessage
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	normalizedBody, err := normalizeJSONKeys(body, camelToSnakeKey)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	partial, err := stripMaskedFromPartial(map[string]json.RawMessage{key: normalizedBody})
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	updated, err := h.svc.Patch(partial)
	if err != nil {
		if errors.Is(err, errAssistProviderNotEnabled) {
			response.BadRequest(c, "enable at least one ai provider before enabling the assistant")
			return
		}
		response.InternalError(c, err)
		return
	}

	m := h.maskedMap(updated)
	if val, ok := m[key]; ok {
		response.OK(c, convertMapKeys(val, snakeToCamelKey))
		return
	}
	response.OK(c, convertMapKeys(m, snakeToCamelKey))
}

func (h *Handler) getOptionsAll(c *gin.Context) {
	cfg, err := h.svc.Get()
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, convertMapKeys(h.maskedMap(cfg), snakeToCamelKey))
}

func (h *Handler) maskedMap(cfg interface{}) map[string]interface{} {
	raw, _ := json.Marshal(cfg)
	m := map[string]interface{}{}
	_ = json.Unmarshal(raw, &m)
	return maskConfigSecrets(m)
}

func stripMaskedFromPartial(partial map[string]json.RawMessage) (map[string]json.RawMessage, error) {
	out := make(map[string]json.RawMessage, len(partial))
	for key, raw := range partial {
		var section interface{}
		if err := json.Unmarshal(raw, &section); err != nil {
			return nil, err
		}
		cleaned, err := json.Marshal(stripMaskedSecrets(section))
		if err != nil {
			return nil, err
		}
		out[key] = cleaned
	}
	return out, nil
}
