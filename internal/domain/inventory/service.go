// internal/domain/inventory/service.go
package inventory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Service is the inventory ledger. Every stock mutation goes through it.
type Service struct {
	store  Store
	logger *logrus.Logger
	now    func() time.Time
}

// NewService creates a new inventory service
func NewService(store Store, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &Service{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock replaces the clock used for timestamps
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Credit adds qty to the record for (productID, location), creating it if absent
func (s *Service) Credit(ctx context.Context, productID uint, location string, qty int) error {
	return s.adjust(ctx, productID, location, qty, MovementTypeInbound)
}

// Debit removes qty from the record for (productID, location). A missing
// record has zero available.
func (s *Service) Debit(ctx context.Context, productID uint, location string, qty int) error {
	return s.adjust(ctx, productID, location, qty, MovementTypeOutbound)
}

func (s *Service) adjust(ctx context.Context, productID uint, location string, qty int, mt MovementType) error {
	location = strings.TrimSpace(location)
	if location == "" {
		return ErrInvalidLocation
	}
	if qty <= 0 {
		return ErrInvalidQuantity
	}

	key := StockKey{ProductID: productID, Location: location}
	batchID := uuid.NewString()

	err := s.store.WithTx(ctx, func(tx Tx) error {
		rec, err := tx.LockStock(ctx, key)
		if err != nil {
			return fmt.Errorf("failed to lock stock %s: %w", key, err)
		}
		if mt == MovementTypeOutbound {
			if err := checkAvailable(key, rec, qty); err != nil {
				return err
			}
		}
		return s.apply(ctx, tx, key, rec, qty, mt, movementRef{
			Type:    ReferenceAdjustment,
			BatchID: batchID,
		})
	})
	if err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"product_id": productID,
		"location":   location,
		"quantity":   qty,
		"movement":   mt,
	}).Info("Stock adjusted")
	return nil
}

// ApplyDocument applies a ledger document to stock and marks it Completed in
// the same transaction. Outward documents are validated in full before any
// debit is written. A document that is already Completed returns
// ErrAlreadyApplied and leaves stock untouched.
func (s *Service) ApplyDocument(ctx context.Context, doc LedgerDocument) error {
	if err := validateDocument(doc); err != nil {
		return err
	}

	demand, order := aggregate(doc)
	keys := make([]StockKey, len(order))
	copy(keys, order)
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	mt := MovementTypeInbound
	if doc.Direction == DirectionOutward {
		mt = MovementTypeOutbound
	}
	ref := movementRef{
		Type:    ReferenceChallan,
		ID:      doc.ID,
		Number:  doc.Number,
		BatchID: uuid.NewString(),
		UserID:  doc.PerformedBy,
	}

	err := s.store.WithTx(ctx, func(tx Tx) error {
		current, err := tx.LockDocument(ctx, doc.ID)
		if err != nil {
			return err
		}
		switch current {
		case DocumentCompleted:
			return ErrAlreadyApplied
		case DocumentCancelled:
			return ErrDocumentCancelled
		}

		records := make(map[StockKey]*StockRecord, len(keys))
		for _, key := range keys {
			rec, err := tx.LockStock(ctx, key)
			if err != nil {
				return fmt.Errorf("failed to lock stock %s: %w", key, err)
			}
			records[key] = rec
		}

		// Validate everything before the first write, in document order so the
		// reported product is the first failing line.
		if mt == MovementTypeOutbound {
			for _, key := range order {
				if err := checkAvailable(key, records[key], demand[key]); err != nil {
					return err
				}
			}
		}

		for _, key := range keys {
			if err := s.apply(ctx, tx, key, records[key], demand[key], mt, ref); err != nil {
				return err
			}
		}

		return tx.SetDocumentStatus(ctx, doc.ID, DocumentCompleted, doc.PerformedBy, s.now())
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyApplied) {
			s.logger.WithField("document", doc.Number).Debug("Ledger document already applied")
		}
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"document":  doc.Number,
		"direction": doc.Direction,
		"lines":     len(doc.Items),
		"batch_id":  ref.BatchID,
	}).Info("Ledger document applied")
	return nil
}

// GetStock returns the record for (productID, location)
func (s *Service) GetStock(ctx context.Context, productID uint, location string) (*StockRecord, error) {
	return s.store.GetStock(ctx, StockKey{ProductID: productID, Location: location})
}

// ListStock lists stock records
func (s *Service) ListStock(ctx context.Context, filter StockFilter) ([]StockRecord, error) {
	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 100
	}
	return s.store.ListStock(ctx, filter)
}

// LowStock lists records at or below their reorder level
func (s *Service) LowStock(ctx context.Context) ([]StockRecord, error) {
	return s.store.ListStock(ctx, StockFilter{LowOnly: true})
}

// Movements returns the latest movements for a stock key
func (s *Service) Movements(ctx context.Context, productID uint, location string, limit int) ([]StockMovement, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.store.ListMovements(ctx, StockKey{ProductID: productID, Location: location}, limit)
}

// SetReorderLevel sets the low-stock threshold, creating an empty record if needed
func (s *Service) SetReorderLevel(ctx context.Context, productID uint, location string, level int) (*StockRecord, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, ErrInvalidLocation
	}
	if level < 0 {
		return nil, ErrInvalidReorderLevel
	}

	key := StockKey{ProductID: productID, Location: location}
	var out StockRecord
	err := s.store.WithTx(ctx, func(tx Tx) error {
		rec, err := tx.LockStock(ctx, key)
		if err != nil {
			return err
		}
		if rec == nil {
			rec = &StockRecord{ProductID: productID, Location: location, LastUpdated: s.now()}
		}
		rec.ReorderLevel = level
		if err := tx.SaveStock(ctx, rec); err != nil {
			return fmt.Errorf("failed to save reorder level: %w", err)
		}
		out = *rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

type movementRef struct {
	Type    string
	ID      uint
	Number  string
	BatchID string
	UserID  uint
}

func (s *Service) apply(ctx context.Context, tx Tx, key StockKey, rec *StockRecord, qty int, mt MovementType, ref movementRef) error {
	now := s.now()
	if rec == nil {
		rec = &StockRecord{ProductID: key.ProductID, Location: key.Location}
	}

	previous := rec.Quantity
	next := previous + qty
	if mt == MovementTypeOutbound {
		next = previous - qty
	}
	if next < 0 {
		return &InsufficientStockError{ProductID: key.ProductID, Location: key.Location, Requested: qty, Available: previous}
	}

	rec.Quantity = next
	rec.LastUpdated = now
	if err := tx.SaveStock(ctx, rec); err != nil {
		return fmt.Errorf("failed to update stock %s: %w", key, err)
	}

	movement := &StockMovement{
		ProductID:        key.ProductID,
		Location:         key.Location,
		MovementType:     mt,
		Quantity:         qty,
		PreviousQuantity: previous,
		NewQuantity:      next,
		ReferenceType:    ref.Type,
		ReferenceID:      ref.ID,
		ReferenceNumber:  ref.Number,
		BatchID:          ref.BatchID,
		CreatedBy:        ref.UserID,
		CreatedAt:        now,
	}
	if err := tx.AddMovement(ctx, movement); err != nil {
		return fmt.Errorf("failed to record movement: %w", err)
	}
	return nil
}

func checkAvailable(key StockKey, rec *StockRecord, qty int) error {
	available := 0
	if rec != nil {
		available = rec.Quantity
	}
	if available < qty {
		return &InsufficientStockError{
			ProductID: key.ProductID,
			Location:  key.Location,
			Requested: qty,
			Available: available,
		}
	}
	return nil
}

func validateDocument(doc LedgerDocument) error {
	if doc.ID == 0 {
		return ErrUnsavedDocument
	}
	if !doc.Direction.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidDirection, doc.Direction)
	}
	if strings.TrimSpace(doc.Location) == "" {
		return ErrInvalidLocation
	}
	if len(doc.Items) == 0 {
		return ErrEmptyDocument
	}
	for _, item := range doc.Items {
		if item.Quantity <= 0 {
			return fmt.Errorf("%w: product %d", ErrInvalidQuantity, item.ProductID)
		}
	}
	return nil
}

// aggregate sums quantities per key. order holds keys by first appearance.
func aggregate(doc LedgerDocument) (map[StockKey]int, []StockKey) {
	location := strings.TrimSpace(doc.Location)
	demand := make(map[StockKey]int, len(doc.Items))
	order := make([]StockKey, 0, len(doc.Items))
	for _, item := range doc.Items {
		key := StockKey{ProductID: item.ProductID, Location: location}
		if _, seen := demand[key]; !seen {
			order = append(order, key)
		}
		demand[key] += item.Quantity
	}
	return demand, order
}
