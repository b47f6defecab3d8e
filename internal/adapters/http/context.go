package http

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/taskboard/core/internal/domain/entities"
)

// Context keys set by the authentication middleware
const (
	ContextKeyUserID    = "user"
	ContextKeyUserEmail = "user_email"
	ContextKeyUserRole  = "user_role"
)

// CookieConfig controls the session cookie carrying the access token
type CookieConfig struct {
	Name   string
	Secure bool
}

// getUserIDFromContext returns the authenticated requester
func getUserIDFromContext(c echo.Context) (uuid.UUID, error) {
	userIDStr, ok := c.Get(ContextKeyUserID).(string)
	if !ok {
		return uuid.Nil, entities.ErrUnauthenticated
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return uuid.Nil, entities.ErrUnauthenticated
	}

	return userID, nil
}

// parseID reads a path identifier. Malformed ids are reported as notFound.
func parseID(c echo.Context, notFound error) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, notFound
	}
	return id, nil
}

func (cfg CookieConfig) set(c echo.Context, token string, ttl time.Duration) {
	c.SetCookie(&http.Cookie{
		Name:     cfg.Name,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(ttl.Seconds()),
		Expires:  time.Now().Add(ttl),
	})
}

func (cfg CookieConfig) clear(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     cfg.Name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
	})
}
