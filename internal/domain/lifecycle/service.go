// Package lifecycle ties document numbering, the inventory ledger and status
// derivation together for the document types that carry state.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/your-org/forms-backend/internal/domain/challan"
	"github.com/your-org/forms-backend/internal/domain/inventory"
	"github.com/your-org/forms-backend/internal/domain/quality"
	"github.com/your-org/forms-backend/internal/domain/supervisor"
)

// NumberAllocator issues document numbers for the current year
type NumberAllocator interface {
	Next(ctx context.Context, prefix string) (string, error)
}

// Ledger applies completed documents to stock
type Ledger interface {
	ApplyDocument(ctx context.Context, doc inventory.LedgerDocument) error
}

// Store is the document store used by the lifecycle
type Store interface {
	challan.Store
	quality.Store
	supervisor.Store
}

// ErrVersionConflict is returned when a check kept changing underneath an
// update, or when the caller's expected version is stale.
var ErrVersionConflict = errors.New("document was modified concurrently")

const defaultSaveRetries = 3

// Service is the composition root for stateful documents
type Service struct {
	numbers     NumberAllocator
	ledger      Ledger
	store       Store
	events      EventPublisher
	logger      *logrus.Logger
	now         func() time.Time
	saveRetries int
}

// NewService creates a new lifecycle service. A nil publisher drops events.
func NewService(numbers NumberAllocator, ledger Ledger, store Store, events EventPublisher, logger *logrus.Logger) *Service {
	if events == nil {
		events = NopPublisher{}
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &Service{
		numbers:     numbers,
		ledger:      ledger,
		store:       store,
		events:      events,
		logger:      logger,
		now:         time.Now,
		saveRetries: defaultSaveRetries,
	}
}

// WithClock replaces the clock used for timestamps
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// AllocateNumber issues a number for document types whose records live
// outside this service (orders, invoices, drawings, inspections).
func (s *Service) AllocateNumber(ctx context.Context, prefix string) (string, error) {
	return s.numbers.Next(ctx, prefix)
}

func (s *Service) publish(ctx context.Context, event Event) {
	event.OccurredAt = s.now().UTC()
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"event":    event.Type,
			"document": event.DocumentNumber,
		}).Warn("Failed to publish lifecycle event")
	}
}

func wrapConflict(kind string, id uint, attempts int) error {
	return fmt.Errorf("%w: %s %d after %d attempts", ErrVersionConflict, kind, id, attempts)
}
