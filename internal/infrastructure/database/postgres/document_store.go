package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/your-org/forms-backend/internal/domain/challan"
	"github.com/your-org/forms-backend/internal/domain/inventory"
	"github.com/your-org/forms-backend/internal/domain/quality"
	"github.com/your-org/forms-backend/internal/domain/supervisor"
	"gorm.io/gorm"
)

// DocumentStore persists challans and inspection checks
type DocumentStore struct {
	db *gorm.DB
}

// NewDocumentStore creates a new document store
func NewDocumentStore(db *gorm.DB) *DocumentStore {
	return &DocumentStore{db: db}
}

func byPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

// CreateChallan implements challan.Store
func (s *DocumentStore) CreateChallan(ctx context.Context, c *challan.DeliveryChallan) error {
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return fmt.Errorf("failed to create challan: %w", err)
	}
	return nil
}

// GetChallan implements challan.Store
func (s *DocumentStore) GetChallan(ctx context.Context, id uint) (*challan.DeliveryChallan, error) {
	var c challan.DeliveryChallan
	err := s.db.WithContext(ctx).Preload("Items", byPosition).First(&c, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, challan.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get challan: %w", err)
	}
	return &c, nil
}

// CancelChallan implements challan.Store
func (s *DocumentStore) CancelChallan(ctx context.Context, id uint, at time.Time) error {
	res := s.db.WithContext(ctx).
		Model(&challan.DeliveryChallan{}).
		Where("id = ? AND status = ?", id, inventory.DocumentDraft).
		Updates(map[string]interface{}{
			"status":       inventory.DocumentCancelled,
			"cancelled_at": at,
			"updated_at":   at,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to cancel challan: %w", res.Error)
	}
	if res.RowsAffected == 1 {
		return nil
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&challan.DeliveryChallan{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check challan: %w", err)
	}
	if count == 0 {
		return challan.ErrNotFound
	}
	return challan.ErrInvalidTransition
}

// CreateQualityCheck implements quality.Store
func (s *DocumentStore) CreateQualityCheck(ctx context.Context, qc *quality.QualityCheck) error {
	qc.Version = 1
	if err := s.db.WithContext(ctx).Create(qc).Error; err != nil {
		return fmt.Errorf("failed to create quality check: %w", err)
	}
	return nil
}

// GetQualityCheck implements quality.Store
func (s *DocumentStore) GetQualityCheck(ctx context.Context, id uint) (*quality.QualityCheck, error) {
	var qc quality.QualityCheck
	err := s.db.WithContext(ctx).Preload("Items", byPosition).First(&qc, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, quality.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get quality check: %w", err)
	}
	return &qc, nil
}

// SaveQualityCheck implements quality.Store
func (s *DocumentStore) SaveQualityCheck(ctx context.Context, qc *quality.QualityCheck) error {
	now := time.Now().UTC()
	err := s.versionedSave(ctx, &quality.QualityCheck{}, qc.ID, qc.Version, map[string]interface{}{
		"overall_status": qc.OverallStatus,
		"inspector":      qc.Inspector,
		"notes":          qc.Notes,
		"updated_at":     now,
	}, func(tx *gorm.DB) error {
		for _, it := range qc.Items {
			err := tx.Model(&quality.Item{}).
				Where("id = ? AND quality_check_id = ?", it.ID, qc.ID).
				Updates(map[string]interface{}{
					"status":   it.Status,
					"observed": it.Observed,
					"remarks":  it.Remarks,
				}).Error
			if err != nil {
				return fmt.Errorf("failed to update quality item %d: %w", it.ID, err)
			}
		}
		return nil
	})
	switch {
	case errors.Is(err, errStale):
		return quality.ErrVersionConflict
	case errors.Is(err, errMissing):
		return quality.ErrNotFound
	case err != nil:
		return err
	}
	qc.Version++
	qc.UpdatedAt = now
	return nil
}

// CreateSupervisorCheck implements supervisor.Store
func (s *DocumentStore) CreateSupervisorCheck(ctx context.Context, sc *supervisor.SupervisorCheck) error {
	sc.Version = 1
	if err := s.db.WithContext(ctx).Create(sc).Error; err != nil {
		return fmt.Errorf("failed to create supervisor check: %w", err)
	}
	return nil
}

// GetSupervisorCheck implements supervisor.Store
func (s *DocumentStore) GetSupervisorCheck(ctx context.Context, id uint) (*supervisor.SupervisorCheck, error) {
	var sc supervisor.SupervisorCheck
	err := s.db.WithContext(ctx).Preload("Dimensions", byPosition).First(&sc, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, supervisor.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get supervisor check: %w", err)
	}
	return &sc, nil
}

// SaveSupervisorCheck implements supervisor.Store
func (s *DocumentStore) SaveSupervisorCheck(ctx context.Context, sc *supervisor.SupervisorCheck) error {
	now := time.Now().UTC()
	err := s.versionedSave(ctx, &supervisor.SupervisorCheck{}, sc.ID, sc.Version, map[string]interface{}{
		"overall_status":    sc.OverallStatus,
		"visual_inspection": sc.VisualInspection,
		"material_check":    sc.MaterialCheck,
		"supervisor":        sc.Supervisor,
		"remarks":           sc.Remarks,
		"updated_at":        now,
	}, func(tx *gorm.DB) error {
		for _, d := range sc.Dimensions {
			err := tx.Model(&supervisor.DimensionCheck{}).
				Where("id = ? AND supervisor_check_id = ?", d.ID, sc.ID).
				Updates(map[string]interface{}{
					"status":   d.Status,
					"measured": d.Measured,
				}).Error
			if err != nil {
				return fmt.Errorf("failed to update dimension %d: %w", d.ID, err)
			}
		}
		return nil
	})
	switch {
	case errors.Is(err, errStale):
		return supervisor.ErrVersionConflict
	case errors.Is(err, errMissing):
		return supervisor.ErrNotFound
	case err != nil:
		return err
	}
	sc.Version++
	sc.UpdatedAt = now
	return nil
}

var (
	errStale   = errors.New("stale version")
	errMissing = errors.New("row missing")
)

// versionedSave bumps the parent's version only if it still equals version,
// then runs children in the same transaction.
func (s *DocumentStore) versionedSave(ctx context.Context, model interface{}, id uint, version int, fields map[string]interface{}, children func(tx *gorm.DB) error) error {
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

	fields["version"] = version + 1
	res := tx.Model(model).Where("id = ? AND version = ?", id, version).Updates(fields)
	if res.Error != nil {
		tx.Rollback()
		return fmt.Errorf("failed to save document: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := tx.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
			tx.Rollback()
			return err
		}
		tx.Rollback()
		if count == 0 {
			return errMissing
		}
		return errStale
	}

	if err := children(tx); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
