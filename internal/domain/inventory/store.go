package inventory

import (
	"context"
	"time"
)

// Tx is a unit of work over stock records and ledger document status.
// Locks taken through it are held until the surrounding WithTx returns.
type Tx interface {
	// LockDocument locks the document and returns its persisted status
	LockDocument(ctx context.Context, id uint) (DocumentStatus, error)
	SetDocumentStatus(ctx context.Context, id uint, status DocumentStatus, by uint, at time.Time) error
	// LockStock locks the record for key. A nil record means none exists yet;
	// the key stays locked either way.
	LockStock(ctx context.Context, key StockKey) (*StockRecord, error)
	SaveStock(ctx context.Context, rec *StockRecord) error
	AddMovement(ctx context.Context, m *StockMovement) error
}

// Store is the persistence boundary of the ledger. WithTx commits only when
// fn returns nil.
type Store interface {
	WithTx(ctx context.Context, fn func(tx Tx) error) error
	GetStock(ctx context.Context, key StockKey) (*StockRecord, error)
	ListStock(ctx context.Context, filter StockFilter) ([]StockRecord, error)
	ListMovements(ctx context.Context, key StockKey, limit int) ([]StockMovement, error)
}
