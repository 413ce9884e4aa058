package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/your-org/forms-backend/internal/domain/lifecycle"
)

// CheckHandler handles quality and supervisor check endpoints
type CheckHandler struct {
	lifecycle *lifecycle.Service
}

// NewCheckHandler creates a new check handler
func NewCheckHandler(svc *lifecycle.Service) *CheckHandler {
	return &CheckHandler{lifecycle: svc}
}

// QUALITY CHECK ENDPOINTS

// CreateQualityCheck handles POST /quality-checks
func (h *CheckHandler) CreateQualityCheck(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req lifecycle.CreateQualityCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	qc, err := h.lifecycle.CreateQualityCheck(c.Request.Context(), &req, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Quality check created successfully",
		"data":    qc,
	})
}

// GetQualityCheck handles GET /quality-checks/:id
func (h *CheckHandler) GetQualityCheck(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	qc, err := h.lifecycle.GetQualityCheck(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Quality check retrieved successfully",
		"data":    qc,
	})
}

// UpdateQualityItems handles PUT /quality-checks/:id/items
func (h *CheckHandler) UpdateQualityItems(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req lifecycle.UpdateQualityItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	qc, err := h.lifecycle.UpdateQualityItems(c.Request.Context(), id, &req, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Quality check updated successfully",
		"data":    qc,
	})
}

// SUPERVISOR CHECK ENDPOINTS

// CreateSupervisorCheck handles POST /supervisor-checks
func (h *CheckHandler) CreateSupervisorCheck(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req lifecycle.CreateSupervisorCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	sc, err := h.lifecycle.CreateSupervisorCheck(c.Request.Context(), &req, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Supervisor check created successfully",
		"data":    sc,
	})
}

// GetSupervisorCheck handles GET /supervisor-checks/:id
func (h *CheckHandler) GetSupervisorCheck(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	sc, err := h.lifecycle.GetSupervisorCheck(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Supervisor check retrieved successfully",
		"data":    sc,
	})
}

// UpdateSupervisorCheck handles PUT /supervisor-checks/:id
func (h *CheckHandler) UpdateSupervisorCheck(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req lifecycle.UpdateSupervisorCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	sc, err := h.lifecycle.UpdateSupervisorCheck(c.Request.Context(), id, &req, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Supervisor check updated successfully",
		"data":    sc,
	})
}
