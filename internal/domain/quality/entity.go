package quality

import (
	"context"
	"errors"
	"time"
)

// Status is used both for individual items and for the overall check.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusInProgress Status = "In Progress"
	StatusPartial    Status = "Partial"
	StatusPassed     Status = "Passed"
	StatusFailed     Status = "Failed"
)

var (
	ErrNotFound        = errors.New("quality check not found")
	ErrVersionConflict = errors.New("quality check was modified concurrently")
	ErrInvalidStatus   = errors.New("invalid item status")
	ErrItemNotFound    = errors.New("quality check item not found")
	ErrNoItems         = errors.New("quality check needs at least one item")
)

// Valid reports whether s is one of the known item statuses
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusPartial, StatusPassed, StatusFailed:
		return true
	}
	return false
}

// QualityCheck represents an inspection of the goods on an order or challan
type QualityCheck struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	Number        string    `json:"number" gorm:"uniqueIndex;not null"`
	OrderNumber   string    `json:"order_number" gorm:"index"`
	ChallanID     *uint     `json:"challan_id,omitempty" gorm:"index"`
	Inspector     string    `json:"inspector"`
	OverallStatus Status    `json:"overall_status" gorm:"not null;default:'Pending'"`
	Notes         string    `json:"notes" gorm:"type:text"`
	Version       int       `json:"version" gorm:"not null;default:1"`
	Items         []Item    `json:"items" gorm:"foreignKey:QualityCheckID;constraint:OnDelete:CASCADE"`
	CreatedBy     uint      `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Item is a single inspected parameter of a quality check
type Item struct {
	ID             uint   `json:"id" gorm:"primaryKey"`
	QualityCheckID uint   `json:"quality_check_id" gorm:"not null;index"`
	Position       int    `json:"position" gorm:"not null"`
	Parameter      string `json:"parameter" gorm:"not null"`
	Specification  string `json:"specification"`
	Observed       string `json:"observed"`
	Status         Status `json:"status" gorm:"not null;default:'Pending'"`
	Remarks        string `json:"remarks"`
}

func (QualityCheck) TableName() string { return "quality_checks" }
func (Item) TableName() string         { return "quality_check_items" }

// ItemStatuses returns the item statuses in position order
func (qc *QualityCheck) ItemStatuses() []Status {
	out := make([]Status, len(qc.Items))
	for i, it := range qc.Items {
		out[i] = it.Status
	}
	return out
}

// Recompute refreshes OverallStatus from the items and reports whether it changed
func (qc *QualityCheck) Recompute() bool {
	next := DeriveOverallStatus(qc.ItemStatuses(), qc.OverallStatus)
	changed := next != qc.OverallStatus
	qc.OverallStatus = next
	return changed
}

// Store persists quality checks. Save must only succeed when the stored
// version equals qc.Version, and bumps it on success.
type Store interface {
	CreateQualityCheck(ctx context.Context, qc *QualityCheck) error
	GetQualityCheck(ctx context.Context, id uint) (*QualityCheck, error)
	SaveQualityCheck(ctx context.Context, qc *QualityCheck) error
}
