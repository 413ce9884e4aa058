package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/your-org/forms-backend/internal/domain/lifecycle"
)

// ChallanHandler handles delivery challan endpoints
type ChallanHandler struct {
	lifecycle *lifecycle.Service
}

// NewChallanHandler creates a new challan handler
func NewChallanHandler(svc *lifecycle.Service) *ChallanHandler {
	return &ChallanHandler{lifecycle: svc}
}

// CreateChallan handles POST /challans
func (h *ChallanHandler) CreateChallan(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req lifecycle.CreateChallanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	challan, err := h.lifecycle.CreateChallan(c.Request.Context(), &req, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Delivery challan created successfully",
		"data":    challan,
	})
}

// GetChallan handles GET /challans/:id
func (h *ChallanHandler) GetChallan(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	challan, err := h.lifecycle.GetChallan(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Delivery challan retrieved successfully",
		"data":    challan,
	})
}

// CompleteChallan handles POST /challans/:id/complete. Repeating the call
// returns 200 with already_applied set.
func (h *ChallanHandler) CompleteChallan(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	result, err := h.lifecycle.CompleteChallan(c.Request.Context(), id, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	message := "Delivery challan completed successfully"
	if result.AlreadyApplied {
		message = "Delivery challan was already completed"
	}
	c.JSON(http.StatusOK, gin.H{
		"message":         message,
		"already_applied": result.AlreadyApplied,
		"data":            result.Challan,
	})
}

// CancelChallan handles POST /challans/:id/cancel
func (h *ChallanHandler) CancelChallan(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	challan, err := h.lifecycle.CancelChallan(c.Request.Context(), id, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Delivery challan cancelled successfully",
		"data":    challan,
	})
}
