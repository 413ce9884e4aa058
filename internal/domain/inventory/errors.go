package inventory

import (
	"errors"
	"fmt"
)

var (
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrAlreadyApplied      = errors.New("document already applied to inventory")
	ErrDocumentCancelled   = errors.New("document is cancelled")
	ErrDocumentNotFound    = errors.New("ledger document not found")
	ErrStockNotFound       = errors.New("stock record not found")
	ErrInvalidQuantity     = errors.New("quantity must be greater than zero")
	ErrInvalidLocation     = errors.New("location is required")
	ErrInvalidDirection    = errors.New("invalid document direction")
	ErrEmptyDocument       = errors.New("document has no items")
	ErrUnsavedDocument     = errors.New("document must be saved before it is applied")
	ErrInvalidReorderLevel = errors.New("reorder level cannot be negative")
)

// InsufficientStockError names the product that could not be debited
type InsufficientStockError struct {
	ProductID uint
	Location  string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d at %s: requested %d, available %d",
		e.ProductID, e.Location, e.Requested, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}
