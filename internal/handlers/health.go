package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/sys/unix"

	"github.com/pandeptwidyaop/nodered-backups/internal/metrics"
	"github.com/pandeptwidyaop/nodered-backups/internal/models"
)

// HealthHandler reports whether the backup root is usable.
type HealthHandler struct {
	root       string
	exposeRoot bool
}

// NewHealthHandler creates a new HealthHandler instance.
func NewHealthHandler(root string, exposeRoot bool) *HealthHandler {
	return &HealthHandler{root: root, exposeRoot: exposeRoot}
}

// Health always answers 200 with status "ok"; the backup_dir_* flags say
// whether the root is usable.
// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	status := models.HealthStatus{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
	}
	if h.exposeRoot {
		if abs, err := filepath.Abs(h.root); err == nil {
			status.BackupDir = abs
		} else {
			status.BackupDir = h.root
		}
	}

	info, err := os.Stat(h.root)
	status.BackupDirExists = err == nil && info.IsDir()
	if status.BackupDirExists {
		status.BackupDirReadable = unix.Access(h.root, unix.R_OK|unix.X_OK) == nil
		status.BackupDirWritable = unix.Access(h.root, unix.W_OK|unix.X_OK) == nil

		disk, err := metrics.DiskUsage(c.Request.Context(), h.root)
		if err != nil {
			log.Warn().Err(err).Msg("failed to read disk usage")
		} else {
			status.Disk = disk
		}
	}

	c.JSON(http.StatusOK, status)
}
