// internal/domain/inventory/entity.go
package inventory

import (
	"fmt"
	"time"
)

// Direction tells whether a document brings stock in or sends it out
type Direction string

const (
	DirectionInward  Direction = "Inward"
	DirectionOutward Direction = "Outward"
)

func (d Direction) Valid() bool {
	return d == DirectionInward || d == DirectionOutward
}

// DocumentStatus is the status of a ledger document
type DocumentStatus string

const (
	DocumentDraft     DocumentStatus = "Draft"
	DocumentCompleted DocumentStatus = "Completed"
	DocumentCancelled DocumentStatus = "Cancelled"
)

// MovementType represents the type of stock movement
type MovementType string

const (
	MovementTypeInbound  MovementType = "inbound"
	MovementTypeOutbound MovementType = "outbound"
)

// Reference types recorded on movements
const (
	ReferenceChallan    = "delivery_challan"
	ReferenceAdjustment = "adjustment"
)

// StockKey identifies a stock record
type StockKey struct {
	ProductID uint
	Location  string
}

func (k StockKey) String() string {
	return fmt.Sprintf("%d@%s", k.ProductID, k.Location)
}

// Less orders keys by product then location
func (k StockKey) Less(o StockKey) bool {
	if k.ProductID != o.ProductID {
		return k.ProductID < o.ProductID
	}
	return k.Location < o.Location
}

// StockRecord is the quantity of one product held at one location
type StockRecord struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	ProductID    uint      `gorm:"not null;uniqueIndex:idx_stock_product_location" json:"product_id"`
	Location     string    `gorm:"not null;size:100;uniqueIndex:idx_stock_product_location" json:"location"`
	Quantity     int       `gorm:"not null;default:0;check:chk_stock_quantity_non_negative,quantity >= 0" json:"quantity"`
	ReorderLevel int       `gorm:"not null;default:0" json:"reorder_level"`
	LastUpdated  time.Time `json:"last_updated"`
	CreatedAt    time.Time `json:"created_at"`
}

func (StockRecord) TableName() string { return "stock_records" }

// Key returns the record's key
func (r *StockRecord) Key() StockKey {
	return StockKey{ProductID: r.ProductID, Location: r.Location}
}

// IsLowStock checks if the quantity is at or below the reorder level
func (r *StockRecord) IsLowStock() bool {
	return r.ReorderLevel > 0 && r.Quantity <= r.ReorderLevel
}

// IsOutOfStock checks if there is nothing left
func (r *StockRecord) IsOutOfStock() bool {
	return r.Quantity <= 0
}

// StockMovement is an append-only audit row for one quantity change
type StockMovement struct {
	ID               uint         `gorm:"primaryKey" json:"id"`
	ProductID        uint         `gorm:"not null;index:idx_movement_key" json:"product_id"`
	Location         string       `gorm:"not null;size:100;index:idx_movement_key" json:"location"`
	MovementType     MovementType `gorm:"not null" json:"movement_type"`
	Quantity         int          `gorm:"not null" json:"quantity"`
	PreviousQuantity int          `gorm:"not null" json:"previous_quantity"`
	NewQuantity      int          `gorm:"not null" json:"new_quantity"`
	ReferenceType    string       `gorm:"size:50" json:"reference_type"`
	ReferenceID      uint         `gorm:"index" json:"reference_id"`
	ReferenceNumber  string       `gorm:"size:50" json:"reference_number"`
	BatchID          string       `gorm:"size:36;index" json:"batch_id"`
	CreatedBy        uint         `gorm:"index" json:"created_by"`
	CreatedAt        time.Time    `json:"created_at"`
}

func (StockMovement) TableName() string { return "stock_movements" }

// LedgerItem is one line of a ledger document
type LedgerItem struct {
	ProductID uint
	Quantity  int
}

// LedgerDocument is the part of a delivery challan the ledger needs.
// Status is informational; the ledger trusts the persisted status only.
type LedgerDocument struct {
	ID          uint
	Number      string
	Direction   Direction
	Status      DocumentStatus
	Location    string
	Items       []LedgerItem
	PerformedBy uint
}

// StockFilter narrows ListStock
type StockFilter struct {
	ProductID uint
	Location  string
	LowOnly   bool
	Limit     int
	Offset    int
}
