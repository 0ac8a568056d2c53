package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pandeptwidyaop/nodered-backups/internal/version"
)

// Version returns build information.
// GET /api/version
func Version(c *gin.Context) {
	c.JSON(http.StatusOK, version.Info())
}
