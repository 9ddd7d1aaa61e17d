// Package api provides the HTTP handlers for the contact query and command service and for
// controlling the extraction job.
package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/roster/internal/domain"
	"github.com/jonesrussell/roster/internal/infrastructure/logger"
	"github.com/jonesrussell/roster/internal/job"
	"github.com/jonesrussell/roster/internal/service"
)

// statusFor maps a service error to an HTTP status code.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidContact), errors.Is(err, service.ErrInvalidQuery):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrContactNotFound), errors.Is(err, domain.ErrRunNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateContact), errors.Is(err, job.ErrAlreadyRunning):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as {"error": "..."}. Internal failures are logged and their detail
// is not returned to the caller.
func respondError(c *gin.Context, fallback logger.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.FromContext(c.Request.Context(), fallback).Error("Request failed",
			logger.String("path", c.FullPath()),
			logger.Error(err),
		)
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
