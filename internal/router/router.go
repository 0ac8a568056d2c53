// Package router wires handlers and middleware into a gin engine.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pandeptwidyaop/nodered-backups/internal/assets"
	"github.com/pandeptwidyaop/nodered-backups/internal/backups"
	"github.com/pandeptwidyaop/nodered-backups/internal/config"
	"github.com/pandeptwidyaop/nodered-backups/internal/handlers"
	"github.com/pandeptwidyaop/nodered-backups/internal/middleware"
	"github.com/pandeptwidyaop/nodered-backups/internal/services"
)

// Deps are the services the routes are served from.
type Deps struct {
	Catalog      *backups.Catalog
	FileOps      *backups.FileOps
	AuthService  *services.AuthService
	AuditService *services.AuditService
	// LoginLimiter throttles POST /login. Nil disables throttling.
	LoginLimiter *middleware.RateLimiter
}

// hstsMaxAge is one year.
const hstsMaxAge = 31536000

func New(cfg *config.Config, deps Deps) (*gin.Engine, error) {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.SecurityHeaders())
	if cfg.Server.SecureCookie {
		r.Use(middleware.StrictTransportSecurity(hstsMaxAge))
	}
	r.Use(middleware.PathPrefix(cfg.Server.PathPrefix))

	tmpl, err := assets.Templates()
	if err != nil {
		return nil, err
	}
	r.SetHTMLTemplate(tmpl)

	prefix := r.Group(cfg.Server.PathPrefix)

	authHandler := handlers.NewAuthHandler(deps.AuthService, deps.AuditService, cfg.Server.PathPrefix, cfg.Server.SecureCookie)
	backupHandler := handlers.NewBackupHandler(deps.Catalog, deps.FileOps, deps.AuditService)
	webHandler := handlers.NewWebHandler(deps.Catalog, cfg.Server.PathPrefix, deps.AuthService.Enabled())
	healthHandler := handlers.NewHealthHandler(deps.Catalog.Root(), cfg.Health.ExposeRoot)

	// public
	prefix.GET("/health", healthHandler.Health)
	prefix.GET("/metrics", gin.WrapH(promhttp.Handler()))
	prefix.GET("/login", authHandler.LoginPage)
	login := []gin.HandlerFunc{middleware.LoginBodyLimit()}
	if deps.LoginLimiter != nil {
		login = append(login, deps.LoginLimiter.Middleware())
	}
	prefix.POST("/login", append(login, authHandler.Login)...)
	prefix.GET("/logout", authHandler.Logout)
	prefix.GET("/api/version", handlers.Version)

	protected := prefix.Group("")
	protected.Use(middleware.AuthRequired(deps.AuthService))
	{
		protected.GET("/", webHandler.Index)
		protected.GET("/installation/:name", webHandler.Installation)
		protected.GET("/all-backups", webHandler.AllBackups)

		api := protected.Group("/api")
		api.GET("/installations", backupHandler.ListInstallations)
		api.GET("/installations/:installation/files", backupHandler.ListFiles)
		api.GET("/installations/:installation/latest", backupHandler.Latest)
		api.GET("/installations/:installation/files/:filename", backupHandler.Download)
		api.DELETE("/installations/:installation/files/:filename", backupHandler.Delete)
		api.GET("/backups", backupHandler.ListAll)
	}

	// Redirect root to path prefix (only if prefix is not empty)
	if cfg.Server.PathPrefix != "" {
		r.GET("/", func(c *gin.Context) {
			c.Redirect(http.StatusFound, cfg.Server.PathPrefix+"/")
		})
	}

	return r, nil
}
