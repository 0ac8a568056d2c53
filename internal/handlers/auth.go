package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pandeptwidyaop/nodered-backups/internal/services"
)

// AuthHandler handles the login form and logout.
type AuthHandler struct {
	authService  *services.AuthService
	auditService *services.AuditService
	pathPrefix   string
	secureCookie bool
}

// NewAuthHandler creates a new AuthHandler instance.
func NewAuthHandler(authService *services.AuthService, auditService *services.AuditService, pathPrefix string, secureCookie bool) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		auditService: auditService,
		pathPrefix:   pathPrefix,
		secureCookie: secureCookie,
	}
}

// LoginRequest contains the login credentials.
type LoginRequest struct {
	Password string `json:"password" form:"password" binding:"required"`
}

func (h *AuthHandler) cookiePath() string {
	if h.pathPrefix == "" {
		return "/"
	}
	return h.pathPrefix
}

func wantsJSON(c *gin.Context) bool {
	return c.ContentType() == "application/json" || c.GetHeader("Accept") == "application/json"
}

// LoginPage renders the login page. With authentication disabled it sends
// the visitor straight to the installation list.
func (h *AuthHandler) LoginPage(c *gin.Context) {
	if !h.authService.Enabled() {
		c.Redirect(http.StatusFound, h.pathPrefix+"/")
		return
	}
	c.HTML(http.StatusOK, "login.html", gin.H{
		"PathPrefix": h.pathPrefix,
	})
}

// Login checks the password and sets the session cookie.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		h.loginFailed(c, http.StatusBadRequest, "Password is required")
		return
	}

	session, err := h.authService.Login(req.Password, c.ClientIP(), c.GetHeader("User-Agent"))
	switch {
	case errors.Is(err, services.ErrAuthDisabled):
		c.Redirect(http.StatusFound, h.pathPrefix+"/")
		return
	case errors.Is(err, services.ErrInvalidCredentials):
		h.auditService.LogLogin(c.ClientIP(), c.GetHeader("User-Agent"), false)
		h.loginFailed(c, http.StatusUnauthorized, "Invalid password")
		return
	case err != nil:
		respondError(c, err)
		return
	}

	h.auditService.LogLogin(c.ClientIP(), c.GetHeader("User-Agent"), true)

	maxAge := int(h.authService.SessionDuration().Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.authService.CookieName(), session.ID, maxAge, h.cookiePath(), "", h.secureCookie, true)

	if wantsJSON(c) {
		c.JSON(http.StatusOK, gin.H{"message": "logged in", "expires_at": session.ExpiresAt})
		return
	}
	c.Redirect(http.StatusFound, h.pathPrefix+"/")
}

func (h *AuthHandler) loginFailed(c *gin.Context, status int, message string) {
	if wantsJSON(c) {
		c.JSON(status, gin.H{"error": message})
		return
	}
	c.HTML(status, "login.html", gin.H{
		"PathPrefix": h.pathPrefix,
		"Error":      message,
	})
}

// Logout clears the auth cookie and redirects to the installation list.
func (h *AuthHandler) Logout(c *gin.Context) {
	cookieName := h.authService.CookieName()

	if sessionID, err := c.Cookie(cookieName); err == nil && sessionID != "" {
		_ = h.authService.DeleteSession(sessionID)
		h.auditService.LogLogout(c.ClientIP(), c.GetHeader("User-Agent"))
	}

	c.SetCookie(cookieName, "", -1, h.cookiePath(), "", h.secureCookie, true)
	c.Redirect(http.StatusFound, h.pathPrefix+"/")
}
