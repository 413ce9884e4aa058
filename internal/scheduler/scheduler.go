// Package scheduler runs background jobs on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/your-org/forms-backend/internal/config"
	"github.com/your-org/forms-backend/internal/domain/inventory"
	"github.com/your-org/forms-backend/internal/domain/lifecycle"
	"github.com/your-org/forms-backend/internal/pkg/notify"
)

// StockSource lists stock records at or below their reorder level
type StockSource interface {
	LowStock(ctx context.Context) ([]inventory.StockRecord, error)
}

// Deduper suppresses repeated alerts for the same record
type Deduper interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron     *cron.Cron
	cfg      config.InventoryConfig
	stock    StockSource
	dedupe   Deduper
	notifier notify.Notifier
	events   lifecycle.EventPublisher
	logger   *logrus.Logger
	now      func() time.Time
}

// NewScheduler creates a new scheduler instance. A nil deduper uses an
// in-process one; a nil notifier only logs; a nil publisher drops events.
func NewScheduler(cfg config.InventoryConfig, stock StockSource, dedupe Deduper, notifier notify.Notifier, events lifecycle.EventPublisher, logger *logrus.Logger) *Scheduler {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	if dedupe == nil {
		dedupe = NewMemoryDeduper()
	}
	if events == nil {
		events = lifecycle.NopPublisher{}
	}
	if cfg.AlertTimeout <= 0 {
		cfg.AlertTimeout = 30 * time.Second
	}
	if cfg.AlertDedupeTTL <= 0 {
		cfg.AlertDedupeTTL = 6 * time.Hour
	}

	return &Scheduler{
		cron:     cron.New(),
		cfg:      cfg,
		stock:    stock,
		dedupe:   dedupe,
		notifier: notifier,
		events:   events,
		logger:   logger,
		now:      time.Now,
	}
}

// Start schedules the low-stock sweep and starts the cron runner
func (s *Scheduler) Start() error {
	if s.cfg.AlertSchedule == "" {
		s.logger.Info("Low stock sweep disabled")
		return nil
	}

	if _, err := s.cron.AddFunc(s.cfg.AlertSchedule, s.runLowStockSweep); err != nil {
		return fmt.Errorf("failed to schedule low stock sweep %q: %w", s.cfg.AlertSchedule, err)
	}

	s.logger.WithField("schedule", s.cfg.AlertSchedule).Info("Starting scheduler")
	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running job to finish
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runLowStockSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.AlertTimeout)
	defer cancel()

	if _, err := s.SweepLowStock(ctx); err != nil {
		s.logger.WithError(err).Error("Low stock sweep failed")
	}
}

// SweepLowStock alerts on low records not already alerted within the
// dedupe window and returns how many were alerted.
func (s *Scheduler) SweepLowStock(ctx context.Context) (int, error) {
	records, err := s.stock.LowStock(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list low stock: %w", err)
	}
	if len(records) == 0 {
		return 0, nil
	}

	var (
		fresh   []inventory.StockRecord
		claimed []string
	)
	for _, rec := range records {
		key := alertKey(rec)
		ok, err := s.dedupe.Claim(ctx, key, s.cfg.AlertDedupeTTL)
		if err != nil {
			// without the marker we may repeat an alert, which is better than missing one
			s.logger.WithError(err).WithField("stock", rec.Key().String()).Warn("Alert dedupe unavailable")
			ok = true
		}
		if !ok {
			continue
		}
		fresh = append(fresh, rec)
		claimed = append(claimed, key)
	}
	if len(fresh) == 0 {
		return 0, nil
	}

	alert := notify.LowStockAlert{
		Source:      "forms-backend",
		GeneratedAt: s.now().UTC(),
		Items:       make([]notify.LowStockItem, 0, len(fresh)),
	}
	for _, rec := range fresh {
		alert.Items = append(alert.Items, notify.LowStockItem{
			ProductID:    rec.ProductID,
			Location:     rec.Location,
			Quantity:     rec.Quantity,
			ReorderLevel: rec.ReorderLevel,
		})
	}

	if s.notifier != nil {
		if err := s.notifier.NotifyLowStock(ctx, alert); err != nil {
			for _, key := range claimed {
				if rerr := s.dedupe.Release(ctx, key); rerr != nil {
					s.logger.WithError(rerr).WithField("key", key).Warn("Failed to release alert marker")
				}
			}
			return 0, fmt.Errorf("failed to deliver low stock alert: %w", err)
		}
	}

	for _, rec := range fresh {
		event := lifecycle.Event{
			Type:           lifecycle.EventStockLow,
			DocumentID:     rec.ID,
			DocumentNumber: rec.Key().String(),
			Status:         fmt.Sprintf("%d/%d", rec.Quantity, rec.ReorderLevel),
			OccurredAt:     alert.GeneratedAt,
		}
		if err := s.events.Publish(ctx, event); err != nil {
			s.logger.WithError(err).WithField("stock", event.DocumentNumber).Warn("Failed to publish low stock event")
		}
	}

	s.logger.WithField("count", len(fresh)).Info("Low stock alert sent")
	return len(fresh), nil
}

func alertKey(rec inventory.StockRecord) string {
	return "lowstock:" + rec.Key().String()
}
