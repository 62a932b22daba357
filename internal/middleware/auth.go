package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/agendly/agenda-api/internal/access"
	"github.com/agendly/agenda-api/internal/handler"
	"github.com/agendly/agenda-api/internal/model"
	"github.com/agendly/agenda-api/pkg/auth"
)

const sessionKey = "session"

type AuthMiddleware struct {
	jwt auth.JWTService
}

func NewAuthMiddleware(jwt auth.JWTService) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt}
}

// Authenticate verifies the bearer token and stores the session in the
// request context.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("missing authorization header"))
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid authorization format"))
			c.Abort()
			return
		}

		claims, err := m.jwt.ValidateToken(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid token"))
			c.Abort()
			return
		}

		c.Set(sessionKey, &access.Session{
			AccountID:       claims.AccountID,
			Role:            claims.Role,
			EstablishmentID: claims.EstablishmentID,
		})
		c.Next()
	}
}

// RequireRoles gates a route on the session role. A denied session gets a
// 403 with the landing path it belongs at; an absent one gets a 401 with
// the public entry path.
func (m *AuthMiddleware) RequireRoles(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		decision := access.Authorize(SessionFromContext(c), roles...)
		switch decision.Verdict {
		case access.Allow:
			c.Next()
		case access.Redirect:
			status := http.StatusForbidden
			if decision.Path == access.PublicEntryPath {
				status = http.StatusUnauthorized
			}
			c.Header("Location", decision.Path)
			c.JSON(status, handler.NewErrorResponse("access denied"))
			c.Abort()
		default:
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("access denied"))
			c.Abort()
		}
	}
}

// SessionFromContext returns the authenticated session, or nil on public
// routes.
func SessionFromContext(c *gin.Context) *access.Session {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}
	session, ok := v.(*access.Session)
	if !ok {
		return nil
	}
	return session
}
