// Package middleware provides HTTP middleware for authentication, logging, and rate limiting.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pandeptwidyaop/nodered-backups/internal/models"
)

// SessionContextKey is the key for storing the session in the request context.
const SessionContextKey = "session"

// SessionValidator is the part of the auth service the middleware needs.
type SessionValidator interface {
	Enabled() bool
	CookieName() string
	ValidateSession(sessionID string) (*models.Session, error)
}

// AuthRequired rejects requests without a valid session cookie. When no
// password is configured it lets everything through.
func AuthRequired(auth SessionValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !auth.Enabled() {
			c.Next()
			return
		}

		sessionID, err := c.Cookie(auth.CookieName())
		if err != nil || sessionID == "" {
			deny(c, "unauthorized")
			return
		}

		session, err := auth.ValidateSession(sessionID)
		if err != nil {
			c.SetCookie(auth.CookieName(), "", -1, cookiePath(c), "", false, true)
			deny(c, "session expired")
			return
		}

		c.Set(SessionContextKey, session)
		c.Next()
	}
}

func deny(c *gin.Context, message string) {
	if isAPIRequest(c) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": message})
		return
	}
	redirectToLogin(c)
}

func isAPIRequest(c *gin.Context) bool {
	return strings.Contains(c.Request.URL.Path, "/api/") ||
		strings.Contains(c.GetHeader("Accept"), "application/json")
}

func redirectToLogin(c *gin.Context) {
	c.Redirect(http.StatusFound, c.GetString(PathPrefixKey)+"/login")
	c.Abort()
}

func cookiePath(c *gin.Context) string {
	if prefix := c.GetString(PathPrefixKey); prefix != "" {
		return prefix
	}
	return "/"
}
