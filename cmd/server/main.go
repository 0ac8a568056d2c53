// Package main is the entry point for the Node-RED backup browser.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/pandeptwidyaop/nodered-backups/internal/backups"
	"github.com/pandeptwidyaop/nodered-backups/internal/config"
	"github.com/pandeptwidyaop/nodered-backups/internal/database"
	"github.com/pandeptwidyaop/nodered-backups/internal/logger"
	"github.com/pandeptwidyaop/nodered-backups/internal/middleware"
	"github.com/pandeptwidyaop/nodered-backups/internal/retention"
	"github.com/pandeptwidyaop/nodered-backups/internal/router"
	"github.com/pandeptwidyaop/nodered-backups/internal/service"
	"github.com/pandeptwidyaop/nodered-backups/internal/services"
	"github.com/pandeptwidyaop/nodered-backups/internal/version"
)

const shutdownTimeout = 5 * time.Second

func printVersion() {
	fmt.Printf("Node-RED Backups %s\n", version.Version)
	fmt.Printf("Build Time: %s\n", version.BuildTime)
	fmt.Printf("Git Commit: %s\n", version.GitCommit)
}

func main() {
	// Check for subcommands first
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version":
			printVersion()
			os.Exit(0)
		case "hash-password":
			if len(os.Args) != 3 {
				fmt.Fprintln(os.Stderr, "usage: server hash-password <password>")
				os.Exit(2)
			}
			hash, err := services.HashPassword(os.Args[2], 0)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Failed to hash password: %v\n", err)
				os.Exit(1)
			}
			fmt.Println(hash)
			os.Exit(0)
		case "service":
			if err := runService(os.Args[2:]); err != nil {
				fmt.Fprintf(os.Stderr, "Service command failed: %v\n", err)
				os.Exit(1)
			}
			os.Exit(0)
		}
	}

	configPath := flag.String("config", "config.yaml", "path to config file")
	showVersion := flag.Bool("version", false, "show version information")
	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	loadErr := err
	if err != nil {
		// Ignore error for default config as it's already handled
		cfg, _ = config.Load("")
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	if loadErr != nil {
		log.Warn().Err(loadErr).Str("path", *configPath).Msg("could not load config, using defaults")
	}

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error().Err(err).Msg("error closing database")
		}
	}()

	if err := db.Migrate(); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	catalog := backups.NewCatalog(cfg.Backups.Root)
	fileOps := backups.NewFileOps(cfg.Backups.Root)
	authService := services.NewAuthService(db, cfg)
	auditService := services.NewAuditService(db)

	if !authService.Enabled() {
		log.Warn().Msg("auth.password_hash is empty, authentication is disabled")
	}

	loginLimiter := middleware.NewRateLimiter(10, time.Minute)
	go loginLimiter.Cleanup(ctx)

	var retentionDone <-chan struct{}
	if cfg.Retention.Enabled {
		engine, err := retention.New(cfg.Retention, catalog, fileOps, auditService)
		if err != nil {
			return err
		}
		retentionDone = engine.Start(ctx)
	}

	gin.SetMode(gin.ReleaseMode)
	r, err := router.New(cfg, router.Deps{
		Catalog:      catalog,
		FileOps:      fileOps,
		AuthService:  authService,
		AuditService: auditService,
		LoginLimiter: loginLimiter,
	})
	if err != nil {
		return fmt.Errorf("build router: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info().
		Str("version", version.Version).
		Str("addr", addr).
		Str("backup_root", cfg.Backups.Root).
		Msgf("Access at: http://%s%s/", addr, cfg.Server.PathPrefix)

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("start server: %w", err)
		}
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}

	stop()
	if retentionDone != nil {
		<-retentionDone
	}
	return nil
}

// runService handles "server service <print|install|uninstall|status>".
func runService(args []string) error {
	if len(args) == 0 {
		return errors.New("usage: server service <print|install|uninstall|status> [-config path]")
	}
	action := args[0]

	fs := flag.NewFlagSet("service", flag.ContinueOnError)
	configPath := fs.String("config", "config.yaml", "path to config file")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	switch action {
	case "uninstall":
		return service.Uninstall()
	case "status":
		status, err := service.Status()
		if err != nil {
			return err
		}
		fmt.Printf("installed: %t\nenabled: %t\nrunning: %t (%s)\n",
			status.IsInstalled, status.IsEnabled, status.IsRunning, status.ActiveState)
		return nil
	case "print", "install":
	default:
		return fmt.Errorf("unknown service action %q", action)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	svcCfg, err := service.DefaultConfig(*configPath, cfg.Backups.Root, cfg.Database.Path)
	if err != nil {
		return err
	}

	if action == "print" {
		content, err := service.GenerateServiceFile(svcCfg)
		if err != nil {
			return err
		}
		fmt.Print(content)
		return nil
	}
	return service.Install(svcCfg)
}
