// Package retention prunes old backup files on a cron schedule, keeping the
// newest keep_last files of every installation.
package retention

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/pandeptwidyaop/nodered-backups/internal/backups"
	"github.com/pandeptwidyaop/nodered-backups/internal/config"
	"github.com/pandeptwidyaop/nodered-backups/internal/metrics"
)

// Recorder receives one call per removed file.
type Recorder interface {
	LogRetentionDelete(installation, filename string, keepLast int)
}

type Engine struct {
	catalog  *backups.Catalog
	fileOps  *backups.FileOps
	recorder Recorder
	schedule cron.Schedule
	spec     string
	keepLast int
}

// Result summarises one sweep.
type Result struct {
	Installations int
	Removed       int
	Failed        int
}

func New(cfg config.RetentionConfig, catalog *backups.Catalog, fileOps *backups.FileOps, recorder Recorder) (*Engine, error) {
	if cfg.KeepLast < 1 {
		return nil, fmt.Errorf("retention keep_last must be at least 1, got %d", cfg.KeepLast)
	}

	schedule, err := cron.ParseStandard(cfg.Schedule)
	if err != nil {
		return nil, fmt.Errorf("invalid retention schedule %q: %w", cfg.Schedule, err)
	}

	return &Engine{
		catalog:  catalog,
		fileOps:  fileOps,
		recorder: recorder,
		schedule: schedule,
		spec:     cfg.Schedule,
		keepLast: cfg.KeepLast,
	}, nil
}

// Run performs one sweep over every installation. A failing installation or
// file is logged and skipped; only a failure to list installations is returned.
func (e *Engine) Run(ctx context.Context) (Result, error) {
	var result Result

	installations, err := e.catalog.ListInstallations(ctx)
	if err != nil {
		return result, err
	}

	for _, inst := range installations {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		result.Installations++

		removed, failed, err := e.prune(ctx, inst.Name)
		result.Removed += removed
		result.Failed += failed
		if err != nil {
			// the installation may have been removed since it was listed
			if !errors.Is(err, backups.ErrNotFound) {
				log.Error().Err(err).Str("installation", inst.Name).Msg("retention: failed to list backups")
				result.Failed++
			}
		}
	}

	log.Info().
		Int("installations", result.Installations).
		Int("removed", result.Removed).
		Int("failed", result.Failed).
		Int("keep_last", e.keepLast).
		Msg("retention sweep finished")

	return result, nil
}

func (e *Engine) prune(ctx context.Context, installation string) (removed, failed int, err error) {
	files, err := e.catalog.ListFiles(ctx, installation)
	if err != nil {
		return 0, 0, err
	}
	if len(files) <= e.keepLast {
		return 0, 0, nil
	}

	// files are newest first
	for _, f := range files[e.keepLast:] {
		if ctx.Err() != nil {
			return removed, failed, ctx.Err()
		}

		_, err := e.fileOps.Delete(ctx, installation, f.Filename)
		switch {
		case errors.Is(err, backups.ErrNotFound):
			continue
		case err != nil:
			log.Error().Err(err).
				Str("installation", installation).
				Str("filename", f.Filename).
				Msg("retention: failed to delete backup")
			failed++
			continue
		}

		removed++
		metrics.RetentionRemovedTotal.Inc()
		if e.recorder != nil {
			e.recorder.LogRetentionDelete(installation, f.Filename, e.keepLast)
		}
		log.Debug().Str("installation", installation).Str("filename", f.Filename).Msg("retention: removed backup")
	}

	return removed, failed, nil
}

// Start schedules Run on the configured cron schedule until ctx is done.
// The returned channel is closed once the scheduler has stopped and any
// running sweep has finished.
func (e *Engine) Start(ctx context.Context) <-chan struct{} {
	c := cron.New()
	c.Schedule(e.schedule, cron.FuncJob(func() {
		if _, err := e.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("retention sweep failed")
		}
	}))
	c.Start()

	log.Info().Str("schedule", e.spec).Int("keep_last", e.keepLast).Msg("retention scheduler started")

	done := make(chan struct{})
	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
		log.Info().Msg("retention scheduler stopped")
		close(done)
	}()
	return done
}

// Next reports when the next sweep is due after now.
func (e *Engine) Next(now time.Time) time.Time {
	return e.schedule.Next(now)
}
