package lifecycle

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/your-org/forms-backend/internal/domain/quality"
	"github.com/your-org/forms-backend/internal/domain/sequence"
	"github.com/your-org/forms-backend/internal/domain/supervisor"
)

// CreateQualityCheckRequest represents quality check creation data
type CreateQualityCheckRequest struct {
	OrderNumber string               `json:"order_number"`
	ChallanID   *uint                `json:"challan_id"`
	Inspector   string               `json:"inspector"`
	Notes       string               `json:"notes"`
	Items       []QualityItemRequest `json:"items" binding:"required,min=1,dive"`
}

// QualityItemRequest represents one inspected parameter
type QualityItemRequest struct {
	Parameter     string         `json:"parameter" binding:"required"`
	Specification string         `json:"specification"`
	Observed      string         `json:"observed"`
	Status        quality.Status `json:"status"`
}

// UpdateQualityItemsRequest changes item results. Version, when set, must
// match the stored version.
type UpdateQualityItemsRequest struct {
	Version *int                `json:"version"`
	Items   []QualityItemUpdate `json:"items" binding:"required,min=1,dive"`
}

// QualityItemUpdate targets one item by ID
type QualityItemUpdate struct {
	ItemID   uint           `json:"item_id" binding:"required"`
	Status   quality.Status `json:"status" binding:"required"`
	Observed *string        `json:"observed"`
	Remarks  *string        `json:"remarks"`
}

// CreateSupervisorCheckRequest represents supervisor check creation data
type CreateSupervisorCheckRequest struct {
	OrderNumber string             `json:"order_number"`
	Supervisor  string             `json:"supervisor"`
	Remarks     string             `json:"remarks"`
	Dimensions  []DimensionRequest `json:"dimensions" binding:"dive"`
}

// DimensionRequest represents one dimension to be measured
type DimensionRequest struct {
	Dimension string `json:"dimension" binding:"required"`
	Expected  string `json:"expected"`
}

// UpdateSupervisorCheckRequest changes any subset of the check results
type UpdateSupervisorCheckRequest struct {
	Version          *int                    `json:"version"`
	VisualInspection *supervisor.CheckStatus `json:"visual_inspection"`
	MaterialCheck    *supervisor.CheckStatus `json:"material_check"`
	Remarks          *string                 `json:"remarks"`
	Dimensions       []DimensionUpdate       `json:"dimensions" binding:"dive"`
}

// DimensionUpdate targets one dimension by ID
type DimensionUpdate struct {
	DimensionID uint                   `json:"dimension_id" binding:"required"`
	Status      supervisor.CheckStatus `json:"status" binding:"required"`
	Measured    *string                `json:"measured"`
}

// CreateQualityCheck creates a numbered quality check and derives its status
func (s *Service) CreateQualityCheck(ctx context.Context, req *CreateQualityCheckRequest, userID uint) (*quality.QualityCheck, error) {
	if len(req.Items) == 0 {
		return nil, quality.ErrNoItems
	}
	items := make([]quality.Item, len(req.Items))
	for i, it := range req.Items {
		st := it.Status
		if st == "" {
			st = quality.StatusPending
		}
		if !st.Valid() {
			return nil, fmt.Errorf("%w: %q", quality.ErrInvalidStatus, st)
		}
		items[i] = quality.Item{
			Position:      i + 1,
			Parameter:     it.Parameter,
			Specification: it.Specification,
			Observed:      it.Observed,
			Status:        st,
		}
	}

	number, err := s.numbers.Next(ctx, sequence.PrefixQualityCheck)
	if err != nil {
		return nil, err
	}

	qc := &quality.QualityCheck{
		Number:        number,
		OrderNumber:   req.OrderNumber,
		ChallanID:     req.ChallanID,
		Inspector:     req.Inspector,
		Notes:         req.Notes,
		OverallStatus: quality.StatusPending,
		Items:         items,
		CreatedBy:     userID,
	}
	qc.Recompute()

	if err := s.store.CreateQualityCheck(ctx, qc); err != nil {
		return nil, fmt.Errorf("failed to create quality check: %w", err)
	}
	s.logger.WithFields(logrus.Fields{
		"quality_check": qc.Number,
		"status":        qc.OverallStatus,
	}).Info("Quality check created")
	return qc, nil
}

// GetQualityCheck returns a quality check by ID
func (s *Service) GetQualityCheck(ctx context.Context, id uint) (*quality.QualityCheck, error) {
	return s.store.GetQualityCheck(ctx, id)
}

// UpdateQualityItems applies item results, re-derives the overall status and
// saves. Concurrent writers are retried against a fresh copy.
func (s *Service) UpdateQualityItems(ctx context.Context, id uint, req *UpdateQualityItemsRequest, userID uint) (*quality.QualityCheck, error) {
	for _, u := range req.Items {
		if !u.Status.Valid() {
			return nil, fmt.Errorf("%w: %q", quality.ErrInvalidStatus, u.Status)
		}
	}

	for attempt := 1; attempt <= s.saveRetries; attempt++ {
		qc, err := s.store.GetQualityCheck(ctx, id)
		if err != nil {
			return nil, err
		}
		if req.Version != nil && *req.Version != qc.Version {
			return nil, fmt.Errorf("%w: quality check %d is at version %d", ErrVersionConflict, id, qc.Version)
		}

		if err := applyQualityUpdates(qc, req.Items); err != nil {
			return nil, err
		}
		previous := qc.OverallStatus
		changed := qc.Recompute()

		err = s.store.SaveQualityCheck(ctx, qc)
		if errors.Is(err, quality.ErrVersionConflict) {
			if req.Version != nil {
				return nil, fmt.Errorf("%w: quality check %d", ErrVersionConflict, id)
			}
			s.logger.WithFields(logrus.Fields{"quality_check": qc.Number, "attempt": attempt}).Debug("Version conflict, reloading")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to save quality check: %w", err)
		}

		if changed {
			s.publish(ctx, Event{
				Type:           EventQualityStatusChanged,
				DocumentID:     qc.ID,
				DocumentNumber: qc.Number,
				Status:         string(qc.OverallStatus),
				PreviousStatus: string(previous),
				UserID:         userID,
			})
		}
		return qc, nil
	}
	return nil, wrapConflict("quality check", id, s.saveRetries)
}

func applyQualityUpdates(qc *quality.QualityCheck, updates []QualityItemUpdate) error {
	index := make(map[uint]int, len(qc.Items))
	for i, it := range qc.Items {
		index[it.ID] = i
	}
	for _, u := range updates {
		i, ok := index[u.ItemID]
		if !ok {
			return fmt.Errorf("%w: %d", quality.ErrItemNotFound, u.ItemID)
		}
		qc.Items[i].Status = u.Status
		if u.Observed != nil {
			qc.Items[i].Observed = *u.Observed
		}
		if u.Remarks != nil {
			qc.Items[i].Remarks = *u.Remarks
		}
	}
	return nil
}

// CreateSupervisorCheck creates a numbered supervisor check with every check Pending
func (s *Service) CreateSupervisorCheck(ctx context.Context, req *CreateSupervisorCheckRequest, userID uint) (*supervisor.SupervisorCheck, error) {
	dims := make([]supervisor.DimensionCheck, len(req.Dimensions))
	for i, d := range req.Dimensions {
		dims[i] = supervisor.DimensionCheck{
			Position:  i + 1,
			Dimension: d.Dimension,
			Expected:  d.Expected,
			Status:    supervisor.CheckPending,
		}
	}

	number, err := s.numbers.Next(ctx, sequence.PrefixSupervisorCheck)
	if err != nil {
		return nil, err
	}

	sc := &supervisor.SupervisorCheck{
		Number:           number,
		OrderNumber:      req.OrderNumber,
		Supervisor:       req.Supervisor,
		Remarks:          req.Remarks,
		VisualInspection: supervisor.CheckPending,
		MaterialCheck:    supervisor.CheckPending,
		OverallStatus:    supervisor.OverallPending,
		Dimensions:       dims,
		CreatedBy:        userID,
	}
	sc.Recompute()

	if err := s.store.CreateSupervisorCheck(ctx, sc); err != nil {
		return nil, fmt.Errorf("failed to create supervisor check: %w", err)
	}
	s.logger.WithFields(logrus.Fields{
		"supervisor_check": sc.Number,
		"status":           sc.OverallStatus,
	}).Info("Supervisor check created")
	return sc, nil
}

// GetSupervisorCheck returns a supervisor check by ID
func (s *Service) GetSupervisorCheck(ctx context.Context, id uint) (*supervisor.SupervisorCheck, error) {
	return s.store.GetSupervisorCheck(ctx, id)
}

// UpdateSupervisorCheck applies check results and re-derives the overall status
func (s *Service) UpdateSupervisorCheck(ctx context.Context, id uint, req *UpdateSupervisorCheckRequest, userID uint) (*supervisor.SupervisorCheck, error) {
	if req.VisualInspection != nil && !req.VisualInspection.Valid() {
		return nil, fmt.Errorf("%w: visual inspection %q", supervisor.ErrInvalidStatus, *req.VisualInspection)
	}
	if req.MaterialCheck != nil && !req.MaterialCheck.Valid() {
		return nil, fmt.Errorf("%w: material check %q", supervisor.ErrInvalidStatus, *req.MaterialCheck)
	}
	for _, d := range req.Dimensions {
		if !d.Status.Valid() {
			return nil, fmt.Errorf("%w: %q", supervisor.ErrInvalidStatus, d.Status)
		}
	}

	for attempt := 1; attempt <= s.saveRetries; attempt++ {
		sc, err := s.store.GetSupervisorCheck(ctx, id)
		if err != nil {
			return nil, err
		}
		if req.Version != nil && *req.Version != sc.Version {
			return nil, fmt.Errorf("%w: supervisor check %d is at version %d", ErrVersionConflict, id, sc.Version)
		}

		if err := applySupervisorUpdates(sc, req); err != nil {
			return nil, err
		}
		previous := sc.OverallStatus
		changed := sc.Recompute()

		err = s.store.SaveSupervisorCheck(ctx, sc)
		if errors.Is(err, supervisor.ErrVersionConflict) {
			if req.Version != nil {
				return nil, fmt.Errorf("%w: supervisor check %d", ErrVersionConflict, id)
			}
			s.logger.WithFields(logrus.Fields{"supervisor_check": sc.Number, "attempt": attempt}).Debug("Version conflict, reloading")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to save supervisor check: %w", err)
		}

		if changed {
			s.publish(ctx, Event{
				Type:           EventSupervisorStatusChanged,
				DocumentID:     sc.ID,
				DocumentNumber: sc.Number,
				Status:         string(sc.OverallStatus),
				PreviousStatus: string(previous),
				UserID:         userID,
			})
		}
		return sc, nil
	}
	return nil, wrapConflict("supervisor check", id, s.saveRetries)
}

func applySupervisorUpdates(sc *supervisor.SupervisorCheck, req *UpdateSupervisorCheckRequest) error {
	index := make(map[uint]int, len(sc.Dimensions))
	for i, d := range sc.Dimensions {
		index[d.ID] = i
	}
	for _, u := range req.Dimensions {
		i, ok := index[u.DimensionID]
		if !ok {
			return fmt.Errorf("%w: %d", supervisor.ErrDimensionNotFound, u.DimensionID)
		}
		sc.Dimensions[i].Status = u.Status
		if u.Measured != nil {
			sc.Dimensions[i].Measured = *u.Measured
		}
	}
	if req.VisualInspection != nil {
		sc.VisualInspection = *req.VisualInspection
	}
	if req.MaterialCheck != nil {
		sc.MaterialCheck = *req.MaterialCheck
	}
	if req.Remarks != nil {
		sc.Remarks = *req.Remarks
	}
	return nil
}
