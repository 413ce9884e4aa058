package lifecycle

import (
	"context"
	"time"
)

// Event types, also used as routing keys
const (
	EventChallanCompleted        = "challan.completed"
	EventChallanCancelled        = "challan.cancelled"
	EventQualityStatusChanged    = "quality_check.status_changed"
	EventSupervisorStatusChanged = "supervisor_check.status_changed"
	EventStockLow                = "stock.low"
)

// Event is emitted after a committed state change
type Event struct {
	Type           string    `json:"type"`
	DocumentID     uint      `json:"document_id"`
	DocumentNumber string    `json:"document_number"`
	Status         string    `json:"status"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	UserID         uint      `json:"user_id,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// EventPublisher delivers lifecycle events. Delivery is best effort.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// NopPublisher drops every event
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
