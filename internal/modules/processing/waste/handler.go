package waste

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ecosphere/core/internal/middleware"
	filestore "github.com/ecosphere/core/internal/modules/storage/file"
	"github.com/ecosphere/core/internal/pkg/response"
	"github.com/ecosphere/core/internal/pkg/taskqueue"
)

const (
	maxImageBytes    = 8 << 20
	asyncScanTimeout = 2 * time.Minute
)

type taskStore interface {
	Enqueue(ctx context.Context, taskType string, payload interface{}, dedupKey, groupKey string) (*taskqueue.Task, error)
	GetByID(ctx context.Context, id string) (*taskqueue.Task, error)
	UpdateStatus(ctx context.Context, id string, status taskqueue.TaskStatus, result interface{}, errMsg string) error
}

type Handler struct {
	svc        *Service
	classifier *Classifier
	storage    *filestore.Service
	logger     *zap.Logger
	tasks      taskStore
}

func NewHandler(svc *Service, classifier *Classifier, storage *filestore.Service, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, classifier: classifier, storage: storage, logger: logger}
}

// SetTasks enables async classification backed by the Redis task queue.
func (h *Handler) SetTasks(tasks taskStore) { h.tasks = tasks }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	waste := rg.Group("/waste", authMW)
	{
		waste.POST("/classify", h.classify)
		waste.GET("/scans", h.scans)
		waste.GET("/tasks/:id", h.task)
	}
}

type classifyResponse struct {
	*Classification
	ScanID   string `json:"scan_id,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

func (h *Handler) classify(c *gin.Context) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		response.BadRequest(c, "image file is required")
		return
	}
	if fileHeader.Size > maxImageBytes {
		response.BadRequest(c, "image is too large")
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		response.BadRequest(c, "cannot read image")
		return
	}
	defer f.Close()
	payload, err := io.ReadAll(io.LimitReader(f, maxImageBytes))
	if err != nil {
		response.BadRequest(c, "cannot read image")
		return
	}

	contentType := imageContentType(fileHeader.Filename, fileHeader.Header.Get("Content-Type"), payload)
	dataURL := "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(payload)

	// Gradio inference can take a while. Callers that do not want to hold the
	// connection open can poll /waste/tasks/:id instead.
	if h.tasks != nil && isTruthy(c.Query("async")) {
		h.classifyAsync(c, fileHeader.Filename, contentType, dataURL, payload)
		return
	}

	result, err := h.classifier.Classify(c.Request.Context(), dataURL)
	if err != nil {
		switch {
		case errors.Is(err, errNotEnabled):
			response.BadRequest(c, errNotEnabled.Error())
		case errors.Is(err, errUnexpectedFormat):
			response.BadGateway(c, errUnexpectedFormat.Error())
		default:
			response.BadGateway(c, "inference request failed")
		}
		return
	}

	out := classifyResponse{Classification: result}

	// history persistence is best-effort, a storage hiccup must not fail the
	// classification itself
	key := filestore.NamespaceWasteScans + "/" + scanFileName(fileHeader.Filename, contentType)
	if stored, err := h.storage.Store(c.Request.Context(), key, payload, contentType); err != nil {
		if h.logger != nil {
			h.logger.Warn("waste scan image store failed", zap.Error(err))
		}
	} else if scan, err := h.svc.SaveScan(middleware.CurrentUserID(c), stored.URL, stored.Key, result); err != nil {
		if h.logger != nil {
			h.logger.Warn("waste scan save failed", zap.Error(err))
		}
	} else {
		out.ScanID = scan.ID
		out.ImageURL = scan.ImageURL
	}

	response.OK(c, out)
}

func (h *Handler) classifyAsync(c *gin.Context, filename, contentType, dataURL string, payload []byte) {
	userID := middleware.CurrentUserID(c)
	task, err := h.tasks.Enqueue(c.Request.Context(), "waste_classify", map[string]string{
		"filename": filename,
		"user_id":  userID,
	}, "", userID)
	if err != nil {
		response.InternalError(c, err)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), asyncScanTimeout)
		defer cancel()

		_ = h.tasks.UpdateStatus(ctx, task.ID, taskqueue.TaskRunning, nil, "")
		result, err := h.classifier.Classify(ctx, dataURL)
		if err != nil {
			_ = h.tasks.UpdateStatus(ctx, task.ID, taskqueue.TaskFailed, nil, err.Error())
			return
		}

		out := classifyResponse{Classification: result}
		key := filestore.NamespaceWasteScans + "/" + scanFileName(filename, contentType)
		if stored, err := h.storage.Store(ctx, key, payload, contentType); err != nil {
			if h.logger != nil {
				h.logger.Warn("waste scan image store failed", zap.Error(err))
			}
		} else if scan, err := h.svc.SaveScan(userID, stored.URL, stored.Key, result); err != nil {
			if h.logger != nil {
				h.logger.Warn("waste scan save failed", zap.Error(err))
			}
		} else {
			out.ScanID = scan.ID
			out.ImageURL = scan.ImageURL
		}
		_ = h.tasks.UpdateStatus(ctx, task.ID, taskqueue.TaskCompleted, out, "")
	}()

	c.JSON(http.StatusAccepted, gin.H{"task_id": task.ID, "status": task.Status})
}

// GET /waste/tasks/:id — poll an async classification.
func (h *Handler) task(c *gin.Context) {
	if h.tasks == nil {
		response.NotFound(c)
		return
	}
	task, err := h.tasks.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if task == nil || task.GroupKey != middleware.CurrentUserID(c) {
		response.NotFound(c)
		return
	}
	response.OK(c, task)
}

func isTruthy(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes":
		return true
	}
	return false
}

func (h *Handler) scans(c *gin.Context) {
	scans, err := h.svc.ListScans(middleware.CurrentUserID(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, scans)
}

func imageContentType(filename, header string, payload []byte) string {
	if header != "" && header != "application/octet-stream" {
		return header
	}
	if i := strings.LastIndex(filename, "."); i >= 0 {
		if ct := mime.TypeByExtension(filename[i:]); ct != "" {
			return ct
		}
	}
	return http.DetectContentType(payload)
}

func scanFileName(original, contentType string) string {
	ext := ""
	if i := strings.LastIndex(original, "."); i >= 0 {
		ext = strings.ToLower(original[i:])
	}
	if ext == "" {
		if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
			ext = exts[0]
		}
	}
	return fmt.Sprintf("%s%s", uuid.New().String()[:18], ext)
}
