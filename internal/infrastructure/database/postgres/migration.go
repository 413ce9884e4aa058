// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/your-org/forms-backend/internal/domain/challan"
	"github.com/your-org/forms-backend/internal/domain/inventory"
	"github.com/your-org/forms-backend/internal/domain/quality"
	"github.com/your-org/forms-backend/internal/domain/supervisor"
	"gorm.io/gorm"
)

// Migration handles database migrations
type Migration struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB, logger *logrus.Logger) *Migration {
	return &Migration{
		db:     db,
		logger: logger,
	}
}

func (m *Migration) models() []interface{} {
	return []interface{}{
		// Numbering
		&SequenceCounter{},

		// Inventory
		&inventory.StockRecord{},
		&inventory.StockMovement{},

		// Documents
		&challan.DeliveryChallan{},
		&challan.ChallanItem{},
		&quality.QualityCheck{},
		&quality.Item{},
		&supervisor.SupervisorCheck{},
		&supervisor.DimensionCheck{},
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	m.logger.Info("Running database auto-migrations")

	for _, model := range m.models() {
		m.logger.Debugf("Migrating model: %T", model)
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	m.logger.Info("Database auto-migrations completed successfully")
	return nil
}

// CreateIndexes creates additional indexes for better performance
func (m *Migration) CreateIndexes() error {
	indexes := []string{
		// Stock indexes
		"CREATE INDEX IF NOT EXISTS idx_stock_records_location ON stock_records(location)",
		"CREATE INDEX IF NOT EXISTS idx_stock_movements_created_at ON stock_movements(created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_stock_movements_reference ON stock_movements(reference_type, reference_id)",

		// Document indexes
		"CREATE INDEX IF NOT EXISTS idx_delivery_challans_status_created ON delivery_challans(status, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_delivery_challan_items_position ON delivery_challan_items(challan_id, position)",
		"CREATE INDEX IF NOT EXISTS idx_quality_checks_status ON quality_checks(overall_status)",
		"CREATE INDEX IF NOT EXISTS idx_quality_check_items_position ON quality_check_items(quality_check_id, position)",
		"CREATE INDEX IF NOT EXISTS idx_supervisor_checks_status ON supervisor_checks(overall_status)",
		"CREATE INDEX IF NOT EXISTS idx_supervisor_dimension_checks_position ON supervisor_dimension_checks(supervisor_check_id, position)",
	}

	successCount := 0
	failCount := 0

	for _, indexSQL := range indexes {
		if err := m.db.Exec(indexSQL).Error; err != nil {
			m.logger.WithError(err).Warn("Failed to create index")
			failCount++
		} else {
			successCount++
		}
	}

	m.logger.Infof("Created %d indexes successfully (%d failed)", successCount, failCount)
	return nil
}

// GetTableInfo logs the row count of every migrated table
func (m *Migration) GetTableInfo() error {
	totalRecords := int64(0)
	for _, model := range m.models() {
		stmt := &gorm.Statement{DB: m.db}
		if err := stmt.Parse(model); err != nil {
			return err
		}
		var count int64
		if err := m.db.Table(stmt.Schema.Table).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to count %s: %w", stmt.Schema.Table, err)
		}
		totalRecords += count
		m.logger.Debugf("%-30s | %d records", stmt.Schema.Table, count)
	}
	m.logger.Infof("Total records across all tables: %d", totalRecords)
	return nil
}
