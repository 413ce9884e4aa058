package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/your-org/forms-backend/internal/domain/lifecycle"
)

// NumberHandler issues document numbers for types managed outside this service
type NumberHandler struct {
	lifecycle *lifecycle.Service
}

func NewNumberHandler(svc *lifecycle.Service) *NumberHandler {
	return &NumberHandler{lifecycle: svc}
}

// AllocateNumberRequest represents a number allocation request
type AllocateNumberRequest struct {
	Prefix string `json:"prefix" binding:"required"`
}

// AllocateNumber handles POST /numbers
func (h *NumberHandler) AllocateNumber(c *gin.Context) {
	var req AllocateNumberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	number, err := h.lifecycle.AllocateNumber(c.Request.Context(), strings.ToUpper(strings.TrimSpace(req.Prefix)))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Number allocated successfully",
		"data":    gin.H{"number": number},
	})
}
