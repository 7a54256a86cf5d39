package blog

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ecosphere/core/internal/middleware"
	"github.com/ecosphere/core/internal/models"
	"github.com/ecosphere/core/internal/modules/gateway/gateway"
	"github.com/ecosphere/core/internal/modules/processing/markdown"
	"github.com/ecosphere/core/internal/pkg/pagination"
	"github.com/ecosphere/core/internal/pkg/response"
)

// eventDispatcher delivers domain events to registered outbound webhooks.
type eventDispatcher interface {
	Dispatch(event string, payload interface{})
}

type Handler struct {
	svc      *Service
	hub      *gateway.Hub
	webhooks eventDispatcher
}

func NewHandler(svc *Service, hub *gateway.Hub) *Handler {
	return &Handler{svc: svc, hub: hub}
}

// SetWebhooks wires an optional webhook dispatcher for post lifecycle events.
func (h *Handler) SetWebhooks(d eventDispatcher) { h.webhooks = d }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW, optionalAuthMW gin.HandlerFunc) {
	g := rg.Group("/blog")

	g.GET("/posts", optionalAuthMW, h.list)
	g.GET("/posts/:id", optionalAuthMW, h.get)
	g.GET("/categories", h.categories)

	a := g.Group("", authMW)
	a.POST("/posts", h.create)
	a.PUT("/posts/:id", h.update)
	a.DELETE("/posts/:id", h.delete)
	a.POST("/posts/:id/like", h.like)
	a.DELETE("/posts/:id/like", h.unlike)
}

// GET /blog/posts?category=&tag=&q=&sort=newest|mostLiked
func (h *Handler) list(c *gin.Context) {
	q := pagination.FromContext(c)
	lq := ListQuery{
		Category: strings.TrimSpace(c.Query("category")),
		Tag:      strings.TrimSpace(c.Query("tag")),
		Search:   strings.TrimSpace(c.Query("q")),
		Sort:     strings.TrimSpace(c.Query("sort")),
	}
	if lq.Category != "" && !validCategory(lq.Category) {
		response.BadRequest(c, errInvalidCategory.Error())
		return
	}

	items, pag, err := h.svc.List(q, lq)
	if err != nil {
		response.InternalError(c, err)
		return
	}

	ids := make([]string, len(items))
	for i := range items {
		ids[i] = items[i].ID
	}
	likedSet, err := h.svc.LikedSet(ids, middleware.CurrentUserID(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}

	authed := middleware.IsAuthenticated(c)
	out := make([]postResponse, len(items))
	for i := range items {
		var liked *bool
		if authed {
			v := likedSet[items[i].ID]
			liked = &v
		}
		out[i] = toListResponse(&items[i], markdown.Excerpt(items[i].Text, excerptLength), liked)
	}
	response.Paged(c, out, pag)
}

// GET /blog/posts/:id — detail with rendered HTML.
func (h *Handler) get(c *gin.Context) {
	post, err := h.svc.GetByID(c.Param("id"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if post == nil {
		response.NotFound(c)
		return
	}

	var liked *bool
	if middleware.IsAuthenticated(c) {
		v := h.svc.HasLiked(post.ID, middleware.CurrentUserID(c))
		liked = &v
	}
	response.OK(c, toDetailResponse(post, markdown.Render(post.Text), liked))
}

// GET /blog/categories
func (h *Handler) categories(c *gin.Context) {
	counts := h.svc.CategoryCounts()
	out := make([]gin.H, 0, len(Categories))
	for _, category := range Categories {
		out = append(out, gin.H{"name": category, "count": counts[category]})
	}
	response.OK(c, out)
}

// POST /blog/posts
func (h *Handler) create(c *gin.Context) {
	var dto CreatePostDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if !validCategory(dto.Category) {
		response.BadRequest(c, errInvalidCategory.Error())
		return
	}

	authorID := middleware.CurrentUserID(c)
	post := models.BlogPostModel{
		Title:      strings.TrimSpace(dto.Title),
		Text:       dto.Text,
		ImageURL:   strings.TrimSpace(dto.ImageURL),
		AuthorID:   authorID,
		AuthorName: h.svc.UserDisplayName(authorID),
		Category:   dto.Category,
		Tags:       models.StringArray(dto.Tags),
	}
	if err := h.svc.Create(&post); err != nil {
		response.InternalError(c, err)
		return
	}

	if h.hub != nil {
		h.hub.BroadcastPublic(gateway.EventPostCreated, toListResponse(&post, markdown.Excerpt(post.Text, excerptLength), nil))
	}
	if h.webhooks != nil {
		h.webhooks.Dispatch(gateway.EventPostCreated, toListResponse(&post, markdown.Excerpt(post.Text, excerptLength), nil))
	}
	response.Created(c, toDetailResponse(&post, markdown.Render(post.Text), nil))
}

// PUT /blog/posts/:id — author only.
func (h *Handler) update(c *gin.Context) {
	post, err := h.svc.GetByID(c.Param("id"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if post == nil {
		response.NotFound(c)
		return
	}
	if post.AuthorID != middleware.CurrentUserID(c) {
		response.Forbidden(c)
		return
	}

	var dto UpdatePostDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	updates := map[string]interface{}{}
	if dto.Title != nil {
		updates["title"] = strings.TrimSpace(*dto.Title)
	}
	if dto.Text != nil {
		updates["text"] = *dto.Text
	}
	if dto.ImageURL != nil {
		updates["image_url"] = strings.TrimSpace(*dto.ImageURL)
	}
	if dto.Category != nil {
		if !validCategory(*dto.Category) {
			response.BadRequest(c, errInvalidCategory.Error())
			return
		}
		updates["category"] = *dto.Category
	}
	if dto.Tags != nil {
		updates["tags"] = models.StringArray(*dto.Tags)
	}
	if err := h.svc.Update(post, updates); err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, toDetailResponse(post, markdown.Render(post.Text), nil))
}

// DELETE /blog/posts/:id — author or moderator.
func (h *Handler) delete(c *gin.Context) {
	post, err := h.svc.GetByID(c.Param("id"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if post == nil {
		response.NotFound(c)
		return
	}

	uid := middleware.CurrentUserID(c)
	if post.AuthorID != uid && !h.svc.IsModerator(uid) {
		response.Forbidden(c)
		return
	}

	if err := h.svc.Delete(post.ID); err != nil {
		response.InternalError(c, err)
		return
	}
	response.NoContent(c)
}

// POST /blog/posts/:id/like
func (h *Handler) like(c *gin.Context) {
	h.toggleLike(c, true)
}

// DELETE /blog/posts/:id/like
func (h *Handler) unlike(c *gin.Context) {
	h.toggleLike(c, false)
}

func (h *Handler) toggleLike(c *gin.Context, like bool) {
	postID := c.Param("id")
	uid := middleware.CurrentUserID(c)

	var (
		likes int
		err   error
	)
	if like {
		likes, err = h.svc.Like(postID, uid)
	} else {
		likes, err = h.svc.Unlike(postID, uid)
	}
	if err != nil {
		if errors.Is(err, errPostNotFound) {
			response.NotFound(c)
			return
		}
		response.InternalError(c, err)
		return
	}

	if h.hub != nil {
		h.hub.BroadcastPublic(gateway.EventPostLiked, gin.H{
			"id":    postID,
			"likes": likes,
		})
	}
	if like && h.webhooks != nil {
		h.webhooks.Dispatch(gateway.EventPostLiked, map[string]interface{}{
			"id":    postID,
			"likes": likes,
		})
	}
	response.OK(c, gin.H{"id": postID, "likes": likes, "liked": like})
}
