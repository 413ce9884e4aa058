package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/your-org/forms-backend/internal/domain/inventory"
)

// StockHandler handles stock queries and admin adjustments
type StockHandler struct {
	inventory *inventory.Service
}

// NewStockHandler creates a new stock handler
func NewStockHandler(svc *inventory.Service) *StockHandler {
	return &StockHandler{inventory: svc}
}

// StockAdjustmentRequest represents a direct credit or debit
type StockAdjustmentRequest struct {
	ProductID uint   `json:"product_id" binding:"required"`
	Location  string `json:"location" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
}

// ReorderLevelRequest sets the low-stock threshold of one record
type ReorderLevelRequest struct {
	ProductID    uint   `json:"product_id" binding:"required"`
	Location     string `json:"location" binding:"required"`
	ReorderLevel int    `json:"reorder_level" binding:"min=0"`
}

// GetStock handles GET /stock. With both product_id and location it returns
// one record, otherwise a filtered list.
func (h *StockHandler) GetStock(c *gin.Context) {
	var productID uint
	if raw := c.Query("product_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product_id"})
			return
		}
		productID = uint(id)
	}
	location := c.Query("location")

	if productID != 0 && location != "" {
		record, err := h.inventory.GetStock(c.Request.Context(), productID, location)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message": "Stock retrieved successfully",
			"data":    record,
		})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	records, err := h.inventory.ListStock(c.Request.Context(), inventory.StockFilter{
		ProductID: productID,
		Location:  location,
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Stock retrieved successfully",
		"data":    records,
	})
}

// GetLowStock handles GET /stock/low
func (h *StockHandler) GetLowStock(c *gin.Context) {
	records, err := h.inventory.LowStock(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Low stock items retrieved successfully",
		"data":    records,
		"count":   len(records),
	})
}

// GetMovements handles GET /stock/movements?product_id=&location=
func (h *StockHandler) GetMovements(c *gin.Context) {
	productID, err := strconv.ParseUint(c.Query("product_id"), 10, 32)
	if err != nil || productID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product_id"})
		return
	}
	location := c.Query("location")
	if location == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "location is required"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	movements, err := h.inventory.Movements(c.Request.Context(), uint(productID), location, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Stock movements retrieved successfully",
		"data":    movements,
	})
}

// CreditStock handles POST /admin/stock/credit
func (h *StockHandler) CreditStock(c *gin.Context) {
	h.adjust(c, h.inventory.Credit, "Stock credited successfully")
}

// DebitStock handles POST /admin/stock/debit
func (h *StockHandler) DebitStock(c *gin.Context) {
	h.adjust(c, h.inventory.Debit, "Stock debited successfully")
}

type adjustFunc func(ctx context.Context, productID uint, location string, qty int) error

func (h *StockHandler) adjust(c *gin.Context, fn adjustFunc, message string) {
	var req StockAdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	ctx := c.Request.Context()
	if err := fn(ctx, req.ProductID, req.Location, req.Quantity); err != nil {
		respondError(c, err)
		return
	}

	record, err := h.inventory.GetStock(ctx, req.ProductID, req.Location)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": message,
		"data":    record,
	})
}

// SetReorderLevel handles PUT /admin/stock/reorder-level
func (h *StockHandler) SetReorderLevel(c *gin.Context) {
	var req ReorderLevelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	record, err := h.inventory.SetReorderLevel(c.Request.Context(), req.ProductID, req.Location, req.ReorderLevel)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Reorder level updated successfully",
		"data":    record,
	})
}
