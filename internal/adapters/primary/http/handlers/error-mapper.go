package handlers

import (
	"errors"
	"net/http"

	"dataset-hub-service/internal/core/domain"

	"github.com/gin-gonic/gin"
)

func mapDomainError(c *gin.Context, err error) {
	switch {
	// Not found errors
	case errors.Is(err, domain.ErrDatasetNotFound),
		errors.Is(err, domain.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

	// Conflict errors
	case errors.Is(err, domain.ErrNameConflict),
		errors.Is(err, domain.ErrPromptConflict),
		errors.Is(err, domain.ErrUsernameTaken):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})

	// Identity errors
	case errors.Is(err, domain.ErrNotAuthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})

	// Bad request / validation errors
	case domain.IsValidation(err),
		errors.Is(err, domain.ErrMissingUID),
		errors.Is(err, domain.ErrMissingLicense),
		errors.Is(err, domain.ErrUsernameMissing),
		errors.Is(err, domain.ErrInvalidDatasetInfo),
		errors.Is(err, domain.ErrContentTypeMismatch),
		errors.Is(err, domain.ErrInvalidCategory):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	// Upstream storage errors
	case errors.Is(err, domain.ErrBlobStorageFailed):
		c.JSON(http.StatusBadGateway, gin.H{"error": domain.ErrBlobStorageFailed.Error()})

	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
