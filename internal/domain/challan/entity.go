// internal/domain/challan/entity.go
package challan

import (
	"context"
	"errors"
	"time"

	"github.com/your-org/forms-backend/internal/domain/inventory"
)

var (
	ErrNotFound          = errors.New("delivery challan not found")
	ErrInvalidTransition = errors.New("invalid challan status transition")
)

// DeliveryChallan moves goods into or out of a location. Completing it
// applies its items to the inventory ledger.
type DeliveryChallan struct {
	ID            uint                     `json:"id" gorm:"primaryKey"`
	Number        string                   `json:"number" gorm:"uniqueIndex;not null;size:50"`
	Direction     inventory.Direction      `json:"direction" gorm:"not null;size:10"`
	Status        inventory.DocumentStatus `json:"status" gorm:"not null;size:20;default:'Draft';index"`
	Location      string                   `json:"location" gorm:"not null;size:100"`
	PartyName     string                   `json:"party_name" gorm:"size:200"`
	OrderNumber   string                   `json:"order_number" gorm:"size:50;index"`
	VehicleNumber string                   `json:"vehicle_number" gorm:"size:30"`
	Remarks       string                   `json:"remarks" gorm:"type:text"`
	Items         []ChallanItem            `json:"items" gorm:"foreignKey:ChallanID;constraint:OnDelete:CASCADE"`
	CreatedBy     uint                     `json:"created_by"`
	CompletedBy   *uint                    `json:"completed_by,omitempty"`
	CompletedAt   *time.Time               `json:"completed_at,omitempty"`
	CancelledAt   *time.Time               `json:"cancelled_at,omitempty"`
	CreatedAt     time.Time                `json:"created_at"`
	UpdatedAt     time.Time                `json:"updated_at"`
}

// ChallanItem is one product line
type ChallanItem struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	ChallanID   uint   `json:"challan_id" gorm:"not null;index"`
	Position    int    `json:"position" gorm:"not null"`
	ProductID   uint   `json:"product_id" gorm:"not null;index"`
	Description string `json:"description" gorm:"size:255"`
	Quantity    int    `json:"quantity" gorm:"not null"`
	Unit        string `json:"unit" gorm:"size:20"`
}

func (DeliveryChallan) TableName() string { return "delivery_challans" }
func (ChallanItem) TableName() string     { return "delivery_challan_items" }

// LedgerDocument converts the challan into the ledger's view of it
func (c *DeliveryChallan) LedgerDocument(performedBy uint) inventory.LedgerDocument {
	items := make([]inventory.LedgerItem, len(c.Items))
	for i, it := range c.Items {
		items[i] = inventory.LedgerItem{ProductID: it.ProductID, Quantity: it.Quantity}
	}
	return inventory.LedgerDocument{
		ID:          c.ID,
		Number:      c.Number,
		Direction:   c.Direction,
		Status:      c.Status,
		Location:    c.Location,
		Items:       items,
		PerformedBy: performedBy,
	}
}

var validTransitions = map[inventory.DocumentStatus][]inventory.DocumentStatus{
	inventory.DocumentDraft: {
		inventory.DocumentCompleted,
		inventory.DocumentCancelled,
	},
}

// CanTransition reports whether a challan may move from one status to another
func CanTransition(from, to inventory.DocumentStatus) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Store persists challans. Completion happens through the inventory ledger;
// Cancel must only succeed while the persisted status is Draft.
type Store interface {
	CreateChallan(ctx context.Context, c *DeliveryChallan) error
	GetChallan(ctx context.Context, id uint) (*DeliveryChallan, error)
	CancelChallan(ctx context.Context, id uint, at time.Time) error
}
