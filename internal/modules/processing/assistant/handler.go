package assistant

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/ecosphere/core/internal/middleware"
	"github.com/ecosphere/core/internal/pkg/response"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/assistant", authMW)
	{
		g.POST("/chat", h.chat)
		g.GET("/conversations", h.listConversations)
		g.GET("/conversations/:id", h.getConversation)
		g.DELETE("/conversations/:id", h.deleteConversation)
	}
}

func (h *Handler) chat(c *gin.Context) {
	var dto chatDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "message is required")
		return
	}

	result, err := h.svc.Chat(c.Request.Context(), middleware.CurrentUserID(c), dto.ConversationID, dto.Message)
	if err != nil {
		switch {
		case errors.Is(err, errConversationNotFound):
			response.NotFound(c)
		case errors.Is(err, errAssistDisabled), errors.Is(err, errNoProvider):
			response.BadRequest(c, err.Error())
		default:
			response.BadGateway(c, "assistant request failed")
		}
		return
	}
	response.OK(c, result)
}

func (h *Handler) listConversations(c *gin.Context) {
	conversations, err := h.svc.ListConversations(middleware.CurrentUserID(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	out := make([]conversationResponse, 0, len(conversations))
	for i := range conversations {
		out = append(out, toConversationResponse(&conversations[i]))
	}
	response.OK(c, out)
}

func (h *Handler) getConversation(c *gin.Context) {
	conversation, messages, err := h.svc.GetConversation(middleware.CurrentUserID(c), c.Param("id"))
	if err != nil {
		if errors.Is(err, errConversationNotFound) {
			response.NotFound(c)
			return
		}
		response.InternalError(c, err)
		return
	}

	detail := conversationDetailResponse{
		conversationResponse: toConversationResponse(conversation),
		Messages:             make([]messageResponse, 0, len(messages)),
	}
	for i := range messages {
		detail.Messages = append(detail.Messages, toMessageResponse(&messages[i]))
	}
	response.OK(c, detail)
}

func (h *Handler) deleteConversation(c *gin.Context) {
	err := h.svc.DeleteConversation(middleware.CurrentUserID(c), c.Param("id"))
	if err != nil {
		if errors.Is(err, errConversationNotFound) {
			response.NotFound(c)
			return
		}
		response.InternalError(c, err)
		return
	}
	response.NoContent(c)
}
