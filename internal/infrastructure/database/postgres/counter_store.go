package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/your-org/forms-backend/internal/domain/sequence"
	"gorm.io/gorm"
)

// SequenceCounter is the persisted last-issued value per (prefix, year)
type SequenceCounter struct {
	Prefix     string    `gorm:"primaryKey;size:10"`
	Year       int       `gorm:"primaryKey;autoIncrement:false"`
	LastIssued int64     `gorm:"not null;default:0"`
	UpdatedAt  time.Time
}

func (SequenceCounter) TableName() string { return "sequence_counters" }

// CounterStore increments counters with a single upsert statement
type CounterStore struct {
	db *gorm.DB
}

// NewCounterStore creates a new counter store
func NewCounterStore(db *gorm.DB) *CounterStore {
	return &CounterStore{db: db}
}

const incrementSQL = `INSERT INTO sequence_counters (prefix, year, last_issued, updated_at)
VALUES (?, ?, 1, ?)
ON CONFLICT (prefix, year) DO UPDATE
SET last_issued = sequence_counters.last_issued + 1, updated_at = excluded.updated_at
RETURNING last_issued`

// Increment implements sequence.CounterStore
func (s *CounterStore) Increment(ctx context.Context, key sequence.Key) (int64, error) {
	var lastIssued int64
	err := s.db.WithContext(ctx).
		Raw(incrementSQL, key.Prefix, key.Year, time.Now().UTC()).
		Scan(&lastIssued).Error
	if err != nil {
		if isTransient(err) {
			return 0, fmt.Errorf("%w: %v", sequence.ErrConflict, err)
		}
		return 0, fmt.Errorf("failed to increment counter %s: %w", key, err)
	}
	if lastIssued == 0 {
		return 0, fmt.Errorf("counter %s returned no value", key)
	}
	return lastIssued, nil
}

// Current returns the last issued value without changing it
func (s *CounterStore) Current(ctx context.Context, key sequence.Key) (int64, error) {
	var c SequenceCounter
	err := s.db.WithContext(ctx).
		Where("prefix = ? AND year = ?", key.Prefix, key.Year).
		Take(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return c.LastIssued, nil
}

// serialization_failure, deadlock_detected, lock_not_available
var transientCodes = map[string]bool{
	"40001": true,
	"40P01": true,
	"55P03": true,
}

func isTransient(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return transientCodes[pgErr.Code]
	}
	// SQLITE_BUSY
	return strings.Contains(err.Error(), "database is locked")
}
