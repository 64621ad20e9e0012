package api

import (
	"errors"
	"net/http"

	"puzzle2profit/providers"
	"puzzle2profit/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError bildet Service-Fehler auf Status und Antwort-Body ab.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	var (
		cfgErr   *services.ConfigError
		upstream *providers.UpstreamError
	)
	switch {
	case errors.As(err, &cfgErr):
		c.JSON(http.StatusInternalServerError, gin.H{"error": cfgErr.Error(), "details": cfgErr.Details})
	case errors.Is(err, services.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrAlreadyPopulated),
		errors.Is(err, services.ErrNoDetailedTools):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &upstream):
		log.Error("Upstream-Dienst lieferte einen Fehler",
			zap.String("provider", upstream.Provider), zap.Int("status", upstream.StatusCode))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":           err.Error(),
			"code":            "upstream_error",
			"provider_status": upstream.StatusCode,
			"provider_body":   upstream.Body,
		})
	case errors.Is(err, services.ErrInvalidModelOutput):
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "code": "invalid_model_output"})
	default:
		log.Error("Request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
