package auth

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ecosphere/core/internal/middleware"
	jwtpkg "github.com/ecosphere/core/internal/pkg/jwt"
	sessionpkg "github.com/ecosphere/core/internal/pkg/session"
)

const authCookieName = "eco-token"

func extractAuthTokenFromRequest(c *gin.Context) string {
	if token := middleware.NormalizeToken(c.GetHeader("Authorization")); token != "" {
		return token
	}
	if token := middleware.NormalizeToken(c.Query("token")); token != "" {
		return token
	}
	for _, cookieKey := range []string{authCookieName, "token"} {
		if raw, err := c.Cookie(cookieKey); err == nil {
			if token := middleware.NormalizeToken(raw); token != "" {
				return token
			}
		}
	}
	return ""
}

// resolveSessionIDFromToken accepts either a raw session id or a signed JWT
// carrying one.
func resolveSessionIDFromToken(rawToken string) string {
	token := middleware.NormalizeToken(rawToken)
	if token == "" {
		return ""
	}
	if claims, err := jwtpkg.Parse(token); err == nil {
		return strings.TrimSpace(claims.SessionID)
	}
	return strings.TrimSpace(token)
}

func setAuthTokenCookie(c *gin.Context, token string) {
	c.SetCookie(authCookieName, token, int(sessionpkg.DefaultTTL.Seconds()), "/", "", false, true)
}

func clearAuthTokenCookie(c *gin.Context) {
	c.SetCookie(authCookieName, "", -1, "/", "", false, true)
}
