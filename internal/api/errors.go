package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/axellelanca/urlanalytics/internal/errors"
)

// statusFor maps a service error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrInvalidURL),
		errors.Is(err, apperrors.ErrInvalidShortCode),
		errors.Is(err, apperrors.ErrInvalidGranularity),
		errors.Is(err, apperrors.ErrEmptyBatch),
		errors.Is(err, apperrors.ErrBatchTooLarge):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, apperrors.ErrLinkNotFound),
		errors.Is(err, apperrors.ErrAnalyticsNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrCodeAlreadyTaken):
		return http.StatusConflict
	case errors.Is(err, apperrors.ErrCodeGenerationExhausted):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as JSON. Unclassified errors are logged and hidden from the client.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("[API] ERROR %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}
	if status == http.StatusServiceUnavailable {
		c.JSON(status, gin.H{"error": "Unable to generate unique short code. Please try again later."})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
