package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/your-org/forms-backend/internal/domain/challan"
	"github.com/your-org/forms-backend/internal/domain/inventory"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InventoryStore keeps stock in stock_records and uses delivery_challans as
// the ledger documents.
type InventoryStore struct {
	db *gorm.DB
}

// NewInventoryStore creates a new inventory store
func NewInventoryStore(db *gorm.DB) *InventoryStore {
	return &InventoryStore{db: db}
}

// WithTx implements inventory.Store
func (s *InventoryStore) WithTx(ctx context.Context, fn func(inventory.Tx) error) error {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(&stockTx{db: tx}); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

type stockTx struct {
	db *gorm.DB
}

// forUpdate adds a row lock where the dialect has one. SQLite serialises
// writers on the database instead.
func (t *stockTx) forUpdate(q *gorm.DB) *gorm.DB {
	if isPostgres(t.db) {
		return q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return q
}

func (t *stockTx) LockDocument(ctx context.Context, id uint) (inventory.DocumentStatus, error) {
	var c challan.DeliveryChallan
	err := t.forUpdate(t.db.Select("id", "status")).Where("id = ?", id).Take(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", inventory.ErrDocumentNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to lock document %d: %w", id, err)
	}
	return c.Status, nil
}

func (t *stockTx) SetDocumentStatus(ctx context.Context, id uint, status inventory.DocumentStatus, by uint, at time.Time) error {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": at,
	}
	if status == inventory.DocumentCompleted {
		updates["completed_at"] = at
		updates["completed_by"] = by
	}
	res := t.db.Model(&challan.DeliveryChallan{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to update document status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return inventory.ErrDocumentNotFound
	}
	return nil
}

func (t *stockTx) LockStock(ctx context.Context, key inventory.StockKey) (*inventory.StockRecord, error) {
	rec, err := t.selectStock(key)
	if err != nil || rec != nil || !isPostgres(t.db) {
		return rec, err
	}

	// Materialise an empty row so there is something to lock. It disappears
	// again if the transaction rolls back.
	placeholder := inventory.StockRecord{
		ProductID:   key.ProductID,
		Location:    key.Location,
		LastUpdated: time.Now().UTC(),
	}
	if err := t.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&placeholder).Error; err != nil {
		return nil, fmt.Errorf("failed to create stock row: %w", err)
	}
	return t.selectStock(key)
}

func (t *stockTx) selectStock(key inventory.StockKey) (*inventory.StockRecord, error) {
	var rec inventory.StockRecord
	err := t.forUpdate(t.db).
		Where("product_id = ? AND location = ?", key.ProductID, key.Location).
		Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (t *stockTx) SaveStock(ctx context.Context, rec *inventory.StockRecord) error {
	return t.db.Save(rec).Error
}

func (t *stockTx) AddMovement(ctx context.Context, m *inventory.StockMovement) error {
	return t.db.Create(m).Error
}

// GetStock implements inventory.Store
func (s *InventoryStore) GetStock(ctx context.Context, key inventory.StockKey) (*inventory.StockRecord, error) {
	var rec inventory.StockRecord
	err := s.db.WithContext(ctx).
		Where("product_id = ? AND location = ?", key.ProductID, key.Location).
		Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, inventory.ErrStockNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get stock: %w", err)
	}
	return &rec, nil
}

// ListStock implements inventory.Store
func (s *InventoryStore) ListStock(ctx context.Context, filter inventory.StockFilter) ([]inventory.StockRecord, error) {
	query := s.db.WithContext(ctx).Model(&inventory.StockRecord{})
	if filter.ProductID != 0 {
		query = query.Where("product_id = ?", filter.ProductID)
	}
	if filter.Location != "" {
		query = query.Where("location = ?", filter.Location)
	}
	if filter.LowOnly {
		query = query.Where("reorder_level > 0 AND quantity <= reorder_level")
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var records []inventory.StockRecord
	if err := query.Order("product_id, location").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list stock: %w", err)
	}
	return records, nil
}

// ListMovements implements inventory.Store
func (s *InventoryStore) ListMovements(ctx context.Context, key inventory.StockKey, limit int) ([]inventory.StockMovement, error) {
	var movements []inventory.StockMovement
	err := s.db.WithContext(ctx).
		Where("product_id = ? AND location = ?", key.ProductID, key.Location).
		Order("id DESC").
		Limit(limit).
		Find(&movements).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list movements: %w", err)
	}
	return movements, nil
}
