package server

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	httpHandlers "github.com/taskboard/core/internal/adapters/http"
	"github.com/taskboard/core/internal/ports"
)

// authMiddleware resolves the caller from a Bearer header or the session cookie
func (s *Server) authMiddleware(authService ports.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString := s.extractToken(c)
			if tokenString == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Not authorized, no token")
			}

			claims, err := authService.ValidateToken(tokenString)
			if err != nil {
				s.logger.LogSecurityEvent("invalid_token", "", c.RealIP(), map[string]interface{}{
					"error":    err.Error(),
					"endpoint": c.Request().URL.Path,
				})
				return echo.NewHTTPError(http.StatusUnauthorized, "Not authorized, token failed")
			}

			c.Set(httpHandlers.ContextKeyUserID, claims.UserID)
			c.Set(httpHandlers.ContextKeyUserEmail, claims.Email)
			c.Set(httpHandlers.ContextKeyUserRole, claims.Role)

			return next(c)
		}
	}
}

// extractToken prefers the Authorization header and falls back to the cookie
func (s *Server) extractToken(c echo.Context) string {
	if authHeader := c.Request().Header.Get(echo.HeaderAuthorization); authHeader != "" {
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			return ""
		}
		return strings.TrimSpace(tokenString)
	}

	cookie, err := c.Cookie(s.config.JWT.CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
