package handlers

import (
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pandeptwidyaop/nodered-backups/internal/backups"
	"github.com/pandeptwidyaop/nodered-backups/internal/metrics"
	"github.com/pandeptwidyaop/nodered-backups/internal/middleware"
	"github.com/pandeptwidyaop/nodered-backups/internal/services"
)

// BackupHandler serves the JSON API for listing, downloading and deleting backups.
type BackupHandler struct {
	catalog      *backups.Catalog
	fileOps      *backups.FileOps
	auditService *services.AuditService
}

// NewBackupHandler creates a new BackupHandler instance.
func NewBackupHandler(catalog *backups.Catalog, fileOps *backups.FileOps, auditService *services.AuditService) *BackupHandler {
	return &BackupHandler{
		catalog:      catalog,
		fileOps:      fileOps,
		auditService: auditService,
	}
}

// ListInstallations returns all installations.
// GET /api/installations
func (h *BackupHandler) ListInstallations(c *gin.Context) {
	installations, err := h.catalog.ListInstallations(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"installations": installations})
}

// ListFiles returns the backup files of one installation, newest first.
// GET /api/installations/:installation/files
func (h *BackupHandler) ListFiles(c *gin.Context) {
	installation := c.Param("installation")

	files, err := h.catalog.ListFiles(c.Request.Context(), installation)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"installation": installation, "files": files})
}

// ListAll returns every backup file across installations, newest first.
// GET /api/backups
func (h *BackupHandler) ListAll(c *gin.Context) {
	files, err := h.catalog.ListAllFiles(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"files": files})
}

// Latest streams the most recently modified backup of an installation.
// GET /api/installations/:installation/latest
func (h *BackupHandler) Latest(c *gin.Context) {
	installation := c.Param("installation")

	latest, err := h.catalog.ResolveLatest(c.Request.Context(), installation)
	if err != nil {
		respondError(c, err)
		return
	}

	h.serve(c, installation, latest.Filename)
}

// Download streams one backup file.
// GET /api/installations/:installation/files/:filename
func (h *BackupHandler) Download(c *gin.Context) {
	h.serve(c, c.Param("installation"), c.Param("filename"))
}

// Delete removes one backup file.
// DELETE /api/installations/:installation/files/:filename
func (h *BackupHandler) Delete(c *gin.Context) {
	installation := c.Param("installation")
	filename := c.Param("filename")

	receipt, err := h.fileOps.Delete(c.Request.Context(), installation, filename)
	if err != nil {
		respondError(c, err)
		return
	}

	metrics.DeletionsTotal.Inc()
	h.auditService.LogDelete(installation, filename, c.ClientIP(), c.GetHeader("User-Agent"), c.GetString(middleware.RequestIDKey))

	c.JSON(http.StatusOK, receipt)
}

func (h *BackupHandler) serve(c *gin.Context, installation, filename string) {
	download, err := h.fileOps.OpenForRead(c.Request.Context(), installation, filename)
	if err != nil {
		respondError(c, err)
		return
	}
	defer func() { _ = download.Close() }()

	c.Header("Content-Type", download.ContentType)
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": download.Filename}))
	http.ServeContent(c.Writer, c.Request, download.Filename, download.ModifiedAt, download.File)

	// 304 and 412 answers to conditional requests carry no file content
	switch c.Writer.Status() {
	case http.StatusOK, http.StatusPartialContent:
		metrics.DownloadsTotal.Inc()
		h.auditService.LogDownload(installation, filename, c.ClientIP(), c.GetHeader("User-Agent"), c.GetString(middleware.RequestIDKey))
	}
}
