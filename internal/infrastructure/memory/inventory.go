package memory

import (
	"context"
	"time"

	"github.com/your-org/forms-backend/internal/domain/inventory"
)

type docUpdate struct {
	status inventory.DocumentStatus
	by     uint
	at     time.Time
}

// tx stages writes and publishes them in one step on commit
type tx struct {
	s           *Store
	unlocks     []func()
	lockedStock map[inventory.StockKey]bool
	lockedDocs  map[uint]bool
	stock       map[inventory.StockKey]inventory.StockRecord
	movements   []inventory.StockMovement
	docs        map[uint]docUpdate
}

// WithTx implements inventory.Store
func (s *Store) WithTx(ctx context.Context, fn func(inventory.Tx) error) error {
	t := &tx{
		s:           s,
		lockedStock: map[inventory.StockKey]bool{},
		lockedDocs:  map[uint]bool{},
		stock:       map[inventory.StockKey]inventory.StockRecord{},
		docs:        map[uint]docUpdate{},
	}
	defer t.release()

	if err := fn(t); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	t.commit()
	return nil
}

func (t *tx) release() {
	for i := len(t.unlocks) - 1; i >= 0; i-- {
		t.unlocks[i]()
	}
	t.unlocks = nil
}

func (t *tx) commit() {
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, rec := range t.stock {
		if rec.ID == 0 {
			rec.ID = s.nextID("stock_records")
			rec.CreatedAt = rec.LastUpdated
		}
		s.stock[key] = rec
	}
	for _, m := range t.movements {
		m.ID = s.nextID("stock_movements")
		s.movements = append(s.movements, m)
	}
	for id, u := range t.docs {
		c, ok := s.challans[id]
		if !ok {
			continue
		}
		c.Status = u.status
		c.UpdatedAt = u.at
		if u.status == inventory.DocumentCompleted {
			at, by := u.at, u.by
			c.CompletedAt = &at
			c.CompletedBy = &by
		}
		s.challans[id] = c
	}
}

func (t *tx) LockDocument(ctx context.Context, id uint) (inventory.DocumentStatus, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !t.lockedDocs[id] {
		t.unlocks = append(t.unlocks, t.s.docLocks.lock(id))
		t.lockedDocs[id] = true
	}
	if u, ok := t.docs[id]; ok {
		return u.status, nil
	}

	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	c, ok := t.s.challans[id]
	if !ok {
		return "", inventory.ErrDocumentNotFound
	}
	return c.Status, nil
}

func (t *tx) SetDocumentStatus(ctx context.Context, id uint, status inventory.DocumentStatus, by uint, at time.Time) error {
	if _, err := t.LockDocument(ctx, id); err != nil {
		return err
	}
	t.docs[id] = docUpdate{status: status, by: by, at: at}
	return nil
}

func (t *tx) LockStock(ctx context.Context, key inventory.StockKey) (*inventory.StockRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !t.lockedStock[key] {
		t.unlocks = append(t.unlocks, t.s.stockLocks.lock(key))
		t.lockedStock[key] = true
	}
	if rec, ok := t.stock[key]; ok {
		return &rec, nil
	}

	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	rec, ok := t.s.stock[key]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (t *tx) SaveStock(ctx context.Context, rec *inventory.StockRecord) error {
	key := rec.Key()
	if !t.lockedStock[key] {
		if _, err := t.LockStock(ctx, key); err != nil {
			return err
		}
	}
	t.stock[key] = *rec
	return nil
}

func (t *tx) AddMovement(ctx context.Context, m *inventory.StockMovement) error {
	t.movements = append(t.movements, *m)
	return nil
}

// GetStock implements inventory.Store
func (s *Store) GetStock(ctx context.Context, key inventory.StockKey) (*inventory.StockRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.stock[key]
	if !ok {
		return nil, inventory.ErrStockNotFound
	}
	return &rec, nil
}

// ListStock implements inventory.Store
func (s *Store) ListStock(ctx context.Context, filter inventory.StockFilter) ([]inventory.StockRecord, error) {
	s.mu.RLock()
	out := make([]inventory.StockRecord, 0, len(s.stock))
	for _, rec := range s.stock {
		if filter.ProductID != 0 && rec.ProductID != filter.ProductID {
			continue
		}
		if filter.Location != "" && rec.Location != filter.Location {
			continue
		}
		if filter.LowOnly && !rec.IsLowStock() {
			continue
		}
		out = append(out, rec)
	}
	s.mu.RUnlock()

	sortStock(out)
	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return []inventory.StockRecord{}, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// ListMovements implements inventory.Store, newest first
func (s *Store) ListMovements(ctx context.Context, key inventory.StockKey, limit int) ([]inventory.StockMovement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []inventory.StockMovement
	for i := len(s.movements) - 1; i >= 0; i-- {
		m := s.movements[i]
		if m.ProductID != key.ProductID || m.Location != key.Location {
			continue
		}
		out = append(out, m)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
