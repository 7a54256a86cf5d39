package file

import (
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/ecosphere/core/internal/pkg/response"
)

// Handler exposes object upload, retrieval, and deletion.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW, moderatorMW gin.HandlerFunc) {
	g := rg.Group("/objects")

	g.POST("/upload", authMW, h.upload)
	g.GET("/:namespace", moderatorMW, h.list)
	g.GET("/:namespace/:name", h.get)
	g.DELETE("/:namespace/:name", moderatorMW, h.delete)
}

func (h *Handler) upload(c *gin.Context) {
	ns := normalizeNamespaceDefault(c.Query("type"), namespaceDefault)
	if ns == "" {
		response.BadRequest(c, "invalid object namespace")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "file is required")
		return
	}
	src, err := fileHeader.Open()
	if err != nil {
		response.InternalError(c, err)
		return
	}
	defer src.Close()
	payload, err := io.ReadAll(src)
	if err != nil {
		response.InternalError(c, err)
		return
	}

	key := ns + "/" + buildFileName(fileHeader.Filename)
	contentType := detectContentType(fileHeader.Filename, payload, fileHeader.Header.Get("Content-Type"))
	stored, err := h.svc.Store(c.Request.Context(), key, payload, contentType)
	if err != nil {
		response.InternalError(c, err)
		return
	}

	response.OK(c, gin.H{
		"url":     stored.URL,
		"key":     stored.Key,
		"name":    filepath.Base(stored.Key),
		"storage": stored.Storage,
	})
}

func (h *Handler) list(c *gin.Context) {
	ns := normalizeNamespace(c.Param("namespace"))
	if ns == "" {
		response.BadRequest(c, "invalid object namespace")
		return
	}

	dir := filepath.Join(h.svc.StaticDir(), ns)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			response.OK(c, []gin.H{})
			return
		}
		response.InternalError(c, err)
		return
	}

	items := make([]gin.H, 0, len(entries))
	for _, ent := range entries {
		if ent.IsDir() {
			continue
		}
		info, err := ent.Info()
		if err != nil {
			continue
		}
		items = append(items, gin.H{
			"name":    ent.Name(),
			"url":     "/api/v2/objects/" + ns + "/" + ent.Name(),
			"size":    info.Size(),
			"created": info.ModTime().UnixMilli(),
		})
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i]["created"].(int64) > items[j]["created"].(int64)
	})
	response.OK(c, items)
}

func (h *Handler) get(c *gin.Context) {
	ns := normalizeNamespace(c.Param("namespace"))
	name := safeName(c.Param("name"))
	if ns == "" || name == "" {
		response.NotFound(c)
		return
	}

	path, ok := h.svc.LocalPath(ns + "/" + name)
	if !ok {
		response.NotFound(c)
		return
	}
	if _, err := os.Stat(path); err != nil {
		response.NotFound(c)
		return
	}

	c.Header("Cache-Control", "public, max-age=31536000")
	c.File(path)
}

func (h *Handler) delete(c *gin.Context) {
	ns := normalizeNamespace(c.Param("namespace"))
	name := safeName(c.Param("name"))
	if ns == "" || name == "" {
		response.BadRequest(c, "invalid path")
		return
	}

	if err := h.svc.Remove(c.Request.Context(), ns+"/"+name, c.Query("storage")); err != nil {
		response.InternalError(c, err)
		return
	}
	response.NoContent(c)
}
