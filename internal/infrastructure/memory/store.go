// Package memory is a process-local implementation of every store the
// domain packages need. It backs tests and the NUMBERING_BACKEND=memory mode.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/your-org/forms-backend/internal/domain/challan"
	"github.com/your-org/forms-backend/internal/domain/inventory"
	"github.com/your-org/forms-backend/internal/domain/quality"
	"github.com/your-org/forms-backend/internal/domain/sequence"
	"github.com/your-org/forms-backend/internal/domain/supervisor"
)

// Store holds all state behind one RWMutex. Per-key mutexes serialise
// ledger transactions on the same stock rows or document.
type Store struct {
	mu sync.RWMutex

	counters         map[sequence.Key]int64
	stock            map[inventory.StockKey]inventory.StockRecord
	movements        []inventory.StockMovement
	challans         map[uint]challan.DeliveryChallan
	qualityChecks    map[uint]quality.QualityCheck
	supervisorChecks map[uint]supervisor.SupervisorCheck

	ids map[string]uint

	stockLocks *keyedMutex[inventory.StockKey]
	docLocks   *keyedMutex[uint]

	now func() time.Time
}

// New creates an empty store
func New() *Store {
	return &Store{
		counters:         map[sequence.Key]int64{},
		stock:            map[inventory.StockKey]inventory.StockRecord{},
		challans:         map[uint]challan.DeliveryChallan{},
		qualityChecks:    map[uint]quality.QualityCheck{},
		supervisorChecks: map[uint]supervisor.SupervisorCheck{},
		ids:              map[string]uint{},
		stockLocks:       newKeyedMutex[inventory.StockKey](),
		docLocks:         newKeyedMutex[uint](),
		now:              time.Now,
	}
}

// nextID must be called with mu held for writing
func (s *Store) nextID(table string) uint {
	s.ids[table]++
	return s.ids[table]
}

// Increment implements sequence.CounterStore
func (s *Store) Increment(ctx context.Context, key sequence.Key) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[key]++
	return s.counters[key], nil
}

// Counter returns the last issued value for key
func (s *Store) Counter(key sequence.Key) int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.counters[key]
}

// keyedMutex hands out one mutex per key
type keyedMutex[K comparable] struct {
	mu    sync.Mutex
	locks map[K]*sync.Mutex
}

func newKeyedMutex[K comparable]() *keyedMutex[K] {
	return &keyedMutex[K]{locks: map[K]*sync.Mutex{}}
}

func (k *keyedMutex[K]) lock(key K) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}

func sortStock(records []inventory.StockRecord) {
	sort.Slice(records, func(i, j int) bool {
		return records[i].Key().Less(records[j].Key())
	})
}
