package user

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/ecosphere/core/internal/middleware"
	"github.com/ecosphere/core/internal/pkg/response"
)

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/user")

	g.GET("", authMW, h.getProfile)
	g.PATCH("", authMW, h.updateProfile)
	g.PATCH("/password", authMW, h.changePassword)
	g.GET("/:id", middleware.OptionalAuth(h.svc.db), h.getUser)
}

func (h *Handler) getProfile(c *gin.Context) {
	u, err := h.svc.GetByID(middleware.CurrentUserID(c))
	if err != nil {
		if errors.Is(err, errUserNotFound) {
			response.NotFound(c)
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OK(c, toResponse(u))
}

func (h *Handler) getUser(c *gin.Context) {
	u, err := h.svc.GetByID(c.Param("id"))
	if err != nil {
		if errors.Is(err, errUserNotFound) {
			response.NotFound(c)
			return
		}
		response.InternalError(c, err)
		return
	}
	// users see their own full profile, everyone else the public shape
	if middleware.CurrentUserID(c) == u.ID {
		response.OK(c, toResponse(u))
		return
	}
	response.OK(c, toPublicResponse(u))
}

func (h *Handler) updateProfile(c *gin.Context) {
	var dto UpdateProfileDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	u, err := h.svc.UpdateProfile(middleware.CurrentUserID(c), &dto)
	if err != nil {
		if errors.Is(err, errUserNotFound) {
			response.NotFound(c)
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OK(c, toResponse(u))
}

func (h *Handler) changePassword(c *gin.Context) {
	var dto ChangePasswordDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	err := h.svc.ChangePassword(
		middleware.CurrentUserID(c),
		middleware.CurrentSessionID(c),
		dto.OldPassword, dto.NewPassword,
	)
	switch {
	case errors.Is(err, errWrongPassword):
		response.BadRequest(c, errWrongPassword.Error())
	case errors.Is(err, errPasswordSameAsOld):
		response.UnprocessableEntity(c, errPasswordSameAsOld.Error())
	case errors.Is(err, errUserNotFound):
		response.NotFound(c)
	case err != nil:
		response.InternalError(c, err)
	default:
		response.NoContent(c)
	}
}
