package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/pandeptwidyaop/nodered-backups/internal/backups"
	"github.com/pandeptwidyaop/nodered-backups/internal/models"
	"github.com/pandeptwidyaop/nodered-backups/internal/version"
)

// WebHandler handles web page rendering.
type WebHandler struct {
	catalog     *backups.Catalog
	pathPrefix  string
	authEnabled bool
}

// NewWebHandler creates a new WebHandler instance.
func NewWebHandler(catalog *backups.Catalog, pathPrefix string, authEnabled bool) *WebHandler {
	return &WebHandler{
		catalog:     catalog,
		pathPrefix:  pathPrefix,
		authEnabled: authEnabled,
	}
}

func (h *WebHandler) page(data gin.H) gin.H {
	data["PathPrefix"] = h.pathPrefix
	data["Version"] = version.Version
	data["AuthEnabled"] = h.authEnabled
	return data
}

// Index renders the installation list. Enumeration failures are shown on the
// page rather than turned into an error response.
func (h *WebHandler) Index(c *gin.Context) {
	installations, err := h.catalog.ListInstallations(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to list installations")
		c.HTML(http.StatusOK, "index.html", h.page(gin.H{
			"Installations": []models.Installation{},
			"Error":         err.Error(),
		}))
		return
	}

	c.HTML(http.StatusOK, "index.html", h.page(gin.H{
		"Installations": installations,
	}))
}

// Installation renders the files of one installation with the installation
// list as a sidebar.
func (h *WebHandler) Installation(c *gin.Context) {
	name := c.Param("name")

	files, err := h.catalog.ListFiles(c.Request.Context(), name)
	if err != nil {
		status, _ := classify(err)
		if status >= http.StatusInternalServerError {
			log.Error().Err(err).Str("installation", name).Msg("failed to list backup files")
		}
		c.HTML(status, "error.html", h.page(gin.H{
			"Status": status,
			"Error":  err.Error(),
		}))
		return
	}

	installations, err := h.catalog.ListInstallations(c.Request.Context())
	if err != nil {
		// the sidebar is optional
		log.Warn().Err(err).Msg("failed to list installations for sidebar")
		installations = []models.Installation{}
	}

	c.HTML(http.StatusOK, "installation.html", h.page(gin.H{
		"InstallationName": name,
		"Files":            files,
		"Installations":    installations,
	}))
}

// AllBackups renders every backup file across installations.
func (h *WebHandler) AllBackups(c *gin.Context) {
	ctx := c.Request.Context()

	installations, err := h.catalog.ListInstallations(ctx)
	var files []models.BackupFile
	if err == nil {
		files, err = h.catalog.ListAllFiles(ctx)
	}
	if err != nil {
		log.Error().Err(err).Msg("failed to list backups")
		c.HTML(http.StatusOK, "all_backups.html", h.page(gin.H{
			"Files":            []models.BackupFile{},
			"Installations":    []models.Installation{},
			"ShowInstallation": true,
			"Error":            err.Error(),
		}))
		return
	}

	c.HTML(http.StatusOK, "all_backups.html", h.page(gin.H{
		"Files":            files,
		"Installations":    installations,
		"ShowInstallation": true,
	}))
}
