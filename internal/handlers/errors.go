package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/pandeptwidyaop/nodered-backups/internal/backups"
	"github.com/pandeptwidyaop/nodered-backups/internal/metrics"
	"github.com/pandeptwidyaop/nodered-backups/internal/middleware"
	"github.com/pandeptwidyaop/nodered-backups/internal/validation"
)

// classify maps a core error to its HTTP status and metrics kind.
func classify(err error) (int, string) {
	var fault *backups.StorageFault
	switch {
	case errors.Is(err, validation.ErrInvalidName):
		return http.StatusBadRequest, metrics.KindInvalidName
	case errors.Is(err, backups.ErrInvalidState):
		return http.StatusBadRequest, metrics.KindInvalidState
	case errors.Is(err, backups.ErrNotFound):
		return http.StatusNotFound, metrics.KindNotFound
	case errors.As(err, &fault):
		return http.StatusInternalServerError, metrics.KindStorage
	default:
		return http.StatusInternalServerError, metrics.KindInternal
	}
}

// respondError writes {"error": ...} with the status matching err.
func respondError(c *gin.Context, err error) {
	status, kind := classify(err)
	metrics.RecordError(kind)

	message := err.Error()
	if kind == metrics.KindInternal {
		message = "internal server error"
	}

	if status >= http.StatusInternalServerError {
		log.Error().Err(err).
			Str("path", c.Request.URL.Path).
			Str("request_id", c.GetString(middleware.RequestIDKey)).
			Msg("request failed")
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}
