package auth

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ecosphere/core/internal/middleware"
	appconfigs "github.com/ecosphere/core/internal/modules/system/core/configs"
	jwtpkg "github.com/ecosphere/core/internal/pkg/jwt"
	"github.com/ecosphere/core/internal/pkg/response"
	sessionpkg "github.com/ecosphere/core/internal/pkg/session"
)

type Handler struct {
	svc    *Service
	cfgSvc *appconfigs.Service
}

func NewHandler(svc *Service, cfgSvc *appconfigs.Service) *Handler {
	return &Handler{svc: svc, cfgSvc: cfgSvc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	a := rg.Group("/auth")

	a.POST("/login", h.login)
	a.POST("/register", h.register)
	a.POST("/logout", h.logout)

	a.GET("/sessions", authMW, h.listSessions)
	a.DELETE("/sessions", authMW, h.revokeOtherSessions)
	a.DELETE("/sessions/:id", authMW, h.revokeSession)

	tok := a.Group("/token", authMW)
	tok.GET("", h.listTokens)
	tok.POST("", h.createToken)
	tok.DELETE("/:id", h.deleteToken)
}

func (h *Handler) login(c *gin.Context) {
	var dto LoginDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if disabled, err := h.isPasswordLoginDisabled(); err != nil {
		response.InternalError(c, err)
		return
	} else if disabled {
		response.BadRequest(c, "password login is disabled")
		return
	}

	token, user, err := h.svc.Login(dto.Username, dto.Password, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		if errors.Is(err, errAuthUserNotFound) || errors.Is(err, errAuthWrongPassword) {
			response.ForbiddenMsg(c, "invalid username or password")
			return
		}
		response.InternalError(c, err)
		return
	}

	setAuthTokenCookie(c, token)
	response.OK(c, loginResponse{
		Token: token,
		User: userSummary{
			ID:       user.ID,
			Username: user.Username,
			Name:     displayName(user.Name, user.Username),
			Role:     user.Role,
		},
	})
}

func (h *Handler) register(c *gin.Context) {
	var dto RegisterDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	u, err := h.svc.Register(&dto)
	if err != nil {
		if errors.Is(err, errUsernameTaken) {
			response.Conflict(c, errUsernameTaken.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Created(c, userSummary{
		ID:       u.ID,
		Username: u.Username,
		Name:     u.Name,
		Role:     u.Role,
	})
}

func (h *Handler) logout(c *gin.Context) {
	if token := extractAuthTokenFromRequest(c); token != "" {
		if claims, err := jwtpkg.Parse(token); err == nil {
			sessionID := strings.TrimSpace(claims.SessionID)
			userID := strings.TrimSpace(claims.UserID)
			if sessionID != "" && userID != "" {
				_ = sessionpkg.Revoke(h.svc.db, userID, sessionID)
			}
		}
	}
	clearAuthTokenCookie(c)
	response.NoContent(c)
}

func (h *Handler) listSessions(c *gin.Context) {
	sessions, err := sessionpkg.ListActive(h.svc.db, middleware.CurrentUserID(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}

	current := middleware.CurrentSessionID(c)
	items := make([]sessionResponse, 0, len(sessions))
	for _, s := range sessions {
		items = append(items, sessionResponse{
			ID:      s.ID,
			IP:      s.IP,
			UA:      s.UA,
			Current: s.ID == current,
			Expires: s.ExpiresAt,
			Created: s.CreatedAt,
		})
	}
	response.OK(c, items)
}

func (h *Handler) revokeSession(c *gin.Context) {
	sessionID := resolveSessionIDFromToken(c.Param("id"))
	err := sessionpkg.Revoke(h.svc.db, middleware.CurrentUserID(c), sessionID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		response.NotFound(c)
		return
	}
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.NoContent(c)
}

// revokeOtherSessions signs the user out everywhere except the device making
// the request.
func (h *Handler) revokeOtherSessions(c *gin.Context) {
	err := sessionpkg.RevokeAllExcept(h.svc.db, middleware.CurrentUserID(c), middleware.CurrentSessionID(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) listTokens(c *gin.Context) {
	tokens, err := h.svc.ListTokens(middleware.CurrentUserID(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	items := make([]tokenResponse, 0, len(tokens))
	for _, t := range tokens {
		items = append(items, tokenResponse{
			ID: t.ID, Name: t.Name, Token: t.Token,
			Expired: t.ExpiredAt, Created: t.CreatedAt,
		})
	}
	response.OK(c, items)
}

func (h *Handler) createToken(c *gin.Context) {
	var dto CreateTokenDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	t, err := h.svc.CreateToken(middleware.CurrentUserID(c), &dto)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Created(c, tokenResponse{
		ID: t.ID, Name: t.Name, Token: t.Token,
		Expired: t.ExpiredAt, Created: t.CreatedAt,
	})
}

func (h *Handler) deleteToken(c *gin.Context) {
	err := h.svc.DeleteToken(middleware.CurrentUserID(c), c.Param("id"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		response.NotFoundMsg(c, "token not found")
		return
	}
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) isPasswordLoginDisabled() (bool, error) {
	if h.cfgSvc == nil {
		return false, nil
	}
	cfg, err := h.cfgSvc.Get()
	if err != nil || cfg == nil {
		return false, err
	}
	return cfg.AuthSecurity.DisablePasswordLogin, nil
}
