package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/your-org/forms-backend/internal/domain/challan"
	"github.com/your-org/forms-backend/internal/domain/inventory"
	"github.com/your-org/forms-backend/internal/domain/lifecycle"
	"github.com/your-org/forms-backend/internal/domain/quality"
	"github.com/your-org/forms-backend/internal/domain/sequence"
	"github.com/your-org/forms-backend/internal/domain/supervisor"
	"github.com/your-org/forms-backend/internal/interfaces/http/middleware"
)

var badRequestErrors = []error{
	sequence.ErrInvalidPrefix,
	inventory.ErrInvalidQuantity,
	inventory.ErrInvalidLocation,
	inventory.ErrInvalidDirection,
	inventory.ErrEmptyDocument,
	inventory.ErrInvalidReorderLevel,
	quality.ErrInvalidStatus,
	quality.ErrItemNotFound,
	quality.ErrNoItems,
	supervisor.ErrInvalidStatus,
	supervisor.ErrDimensionNotFound,
}

var notFoundErrors = []error{
	challan.ErrNotFound,
	quality.ErrNotFound,
	supervisor.ErrNotFound,
	inventory.ErrStockNotFound,
	inventory.ErrDocumentNotFound,
}

var versionConflictErrors = []error{
	lifecycle.ErrVersionConflict,
	quality.ErrVersionConflict,
	supervisor.ErrVersionConflict,
}

// respondError maps domain errors to HTTP responses
func respondError(c *gin.Context, err error) {
	var insufficient *inventory.InsufficientStockError
	switch {
	case errors.As(err, &insufficient):
		c.JSON(http.StatusConflict, gin.H{
			"error":      "Insufficient stock",
			"product_id": insufficient.ProductID,
			"location":   insufficient.Location,
			"requested":  insufficient.Requested,
			"available":  insufficient.Available,
		})
	case isAny(err, badRequestErrors):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case isAny(err, notFoundErrors):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case isAny(err, versionConflictErrors):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "retryable": true})
	case errors.Is(err, challan.ErrInvalidTransition), errors.Is(err, inventory.ErrDocumentCancelled):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, sequence.ErrAllocationConflict):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error(), "retryable": true})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "Request timeout"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func isAny(err error, targets []error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Invalid request data",
		"details": err.Error(),
	})
}

func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid " + name,
		})
		return 0, false
	}
	return uint(id), true
}

func currentUser(c *gin.Context) (uint, bool) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User not authenticated",
		})
		return 0, false
	}
	return userID, true
}
