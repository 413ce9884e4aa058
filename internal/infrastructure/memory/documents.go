package memory

import (
	"context"
	"time"

	"github.com/your-org/forms-backend/internal/domain/challan"
	"github.com/your-org/forms-backend/internal/domain/inventory"
	"github.com/your-org/forms-backend/internal/domain/quality"
	"github.com/your-org/forms-backend/internal/domain/supervisor"
)

func cloneChallan(c challan.DeliveryChallan) challan.DeliveryChallan {
	c.Items = append([]challan.ChallanItem(nil), c.Items...)
	return c
}

func cloneQuality(qc quality.QualityCheck) quality.QualityCheck {
	qc.Items = append([]quality.Item(nil), qc.Items...)
	return qc
}

func cloneSupervisor(sc supervisor.SupervisorCheck) supervisor.SupervisorCheck {
	sc.Dimensions = append([]supervisor.DimensionCheck(nil), sc.Dimensions...)
	return sc
}

// CreateChallan implements challan.Store
func (s *Store) CreateChallan(ctx context.Context, c *challan.DeliveryChallan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	c.ID = s.nextID("delivery_challans")
	c.CreatedAt, c.UpdatedAt = now, now
	for i := range c.Items {
		c.Items[i].ID = s.nextID("delivery_challan_items")
		c.Items[i].ChallanID = c.ID
	}
	s.challans[c.ID] = cloneChallan(*c)
	return nil
}

// GetChallan implements challan.Store
func (s *Store) GetChallan(ctx context.Context, id uint) (*challan.DeliveryChallan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.challans[id]
	if !ok {
		return nil, challan.ErrNotFound
	}
	c = cloneChallan(c)
	return &c, nil
}

// CancelChallan implements challan.Store
func (s *Store) CancelChallan(ctx context.Context, id uint, at time.Time) error {
	unlock := s.docLocks.lock(id)
	defer unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.challans[id]
	if !ok {
		return challan.ErrNotFound
	}
	if !challan.CanTransition(c.Status, inventory.DocumentCancelled) {
		return challan.ErrInvalidTransition
	}
	c.Status = inventory.DocumentCancelled
	c.CancelledAt = &at
	c.UpdatedAt = at
	s.challans[id] = c
	return nil
}

// CreateQualityCheck implements quality.Store
func (s *Store) CreateQualityCheck(ctx context.Context, qc *quality.QualityCheck) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	qc.ID = s.nextID("quality_checks")
	qc.Version = 1
	qc.CreatedAt, qc.UpdatedAt = now, now
	for i := range qc.Items {
		qc.Items[i].ID = s.nextID("quality_check_items")
		qc.Items[i].QualityCheckID = qc.ID
	}
	s.qualityChecks[qc.ID] = cloneQuality(*qc)
	return nil
}

// GetQualityCheck implements quality.Store
func (s *Store) GetQualityCheck(ctx context.Context, id uint) (*quality.QualityCheck, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	qc, ok := s.qualityChecks[id]
	if !ok {
		return nil, quality.ErrNotFound
	}
	qc = cloneQuality(qc)
	return &qc, nil
}

// SaveQualityCheck implements quality.Store
func (s *Store) SaveQualityCheck(ctx context.Context, qc *quality.QualityCheck) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.qualityChecks[qc.ID]
	if !ok {
		return quality.ErrNotFound
	}
	if current.Version != qc.Version {
		return quality.ErrVersionConflict
	}
	qc.Version++
	qc.UpdatedAt = s.now()
	s.qualityChecks[qc.ID] = cloneQuality(*qc)
	return nil
}

// CreateSupervisorCheck implements supervisor.Store
func (s *Store) CreateSupervisorCheck(ctx context.Context, sc *supervisor.SupervisorCheck) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	sc.ID = s.nextID("supervisor_checks")
	sc.Version = 1
	sc.CreatedAt, sc.UpdatedAt = now, now
	for i := range sc.Dimensions {
		sc.Dimensions[i].ID = s.nextID("supervisor_dimension_checks")
		sc.Dimensions[i].SupervisorCheckID = sc.ID
	}
	s.supervisorChecks[sc.ID] = cloneSupervisor(*sc)
	return nil
}

// GetSupervisorCheck implements supervisor.Store
func (s *Store) GetSupervisorCheck(ctx context.Context, id uint) (*supervisor.SupervisorCheck, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sc, ok := s.supervisorChecks[id]
	if !ok {
		return nil, supervisor.ErrNotFound
	}
	sc = cloneSupervisor(sc)
	return &sc, nil
}

// SaveSupervisorCheck implements supervisor.Store
func (s *Store) SaveSupervisorCheck(ctx context.Context, sc *supervisor.SupervisorCheck) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.supervisorChecks[sc.ID]
	if !ok {
		return supervisor.ErrNotFound
	}
	if current.Version != sc.Version {
		return supervisor.ErrVersionConflict
	}
	sc.Version++
	sc.UpdatedAt = s.now()
	s.supervisorChecks[sc.ID] = cloneSupervisor(*sc)
	return nil
}
