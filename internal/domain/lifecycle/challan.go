package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/your-org/forms-backend/internal/domain/challan"
	"github.com/your-org/forms-backend/internal/domain/inventory"
	"github.com/your-org/forms-backend/internal/domain/sequence"
)

// CreateChallanRequest represents delivery challan creation data
type CreateChallanRequest struct {
	Direction     inventory.Direction  `json:"direction" binding:"required,oneof=Inward Outward"`
	Location      string               `json:"location" binding:"required"`
	PartyName     string               `json:"party_name"`
	OrderNumber   string               `json:"order_number"`
	VehicleNumber string               `json:"vehicle_number"`
	Remarks       string               `json:"remarks"`
	Items         []ChallanItemRequest `json:"items" binding:"required,min=1,dive"`
}

// ChallanItemRequest represents one challan line
type ChallanItemRequest struct {
	ProductID   uint   `json:"product_id" binding:"required"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity" binding:"required,gt=0"`
	Unit        string `json:"unit"`
}

// CompleteResult is the outcome of completing a challan
type CompleteResult struct {
	Challan        *challan.DeliveryChallan `json:"challan"`
	AlreadyApplied bool                     `json:"already_applied"`
}

// CreateChallan creates a Draft challan numbered INW or OUT by direction
func (s *Service) CreateChallan(ctx context.Context, req *CreateChallanRequest, userID uint) (*challan.DeliveryChallan, error) {
	if !req.Direction.Valid() {
		return nil, fmt.Errorf("%w: %q", inventory.ErrInvalidDirection, req.Direction)
	}
	location := strings.TrimSpace(req.Location)
	if location == "" {
		return nil, inventory.ErrInvalidLocation
	}
	if len(req.Items) == 0 {
		return nil, inventory.ErrEmptyDocument
	}

	items := make([]challan.ChallanItem, len(req.Items))
	for i, it := range req.Items {
		if it.Quantity <= 0 {
			return nil, fmt.Errorf("%w: product %d", inventory.ErrInvalidQuantity, it.ProductID)
		}
		items[i] = challan.ChallanItem{
			Position:    i + 1,
			ProductID:   it.ProductID,
			Description: it.Description,
			Quantity:    it.Quantity,
			Unit:        it.Unit,
		}
	}

	prefix := sequence.PrefixInward
	if req.Direction == inventory.DirectionOutward {
		prefix = sequence.PrefixOutward
	}
	number, err := s.numbers.Next(ctx, prefix)
	if err != nil {
		return nil, err
	}

	c := &challan.DeliveryChallan{
		Number:        number,
		Direction:     req.Direction,
		Status:        inventory.DocumentDraft,
		Location:      location,
		PartyName:     req.PartyName,
		OrderNumber:   req.OrderNumber,
		VehicleNumber: req.VehicleNumber,
		Remarks:       req.Remarks,
		Items:         items,
		CreatedBy:     userID,
	}
	if err := s.store.CreateChallan(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create challan: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"challan":   c.Number,
		"direction": c.Direction,
		"user_id":   userID,
	}).Info("Delivery challan created")
	return c, nil
}

// GetChallan returns a challan by ID
func (s *Service) GetChallan(ctx context.Context, id uint) (*challan.DeliveryChallan, error) {
	return s.store.GetChallan(ctx, id)
}

// CompleteChallan applies the challan to inventory and marks it Completed.
// Completing an already completed challan is reported through
// CompleteResult.AlreadyApplied rather than as an error.
func (s *Service) CompleteChallan(ctx context.Context, id uint, userID uint) (*CompleteResult, error) {
	c, err := s.store.GetChallan(ctx, id)
	if err != nil {
		return nil, err
	}

	err = s.ledger.ApplyDocument(ctx, c.LedgerDocument(userID))
	alreadyApplied := errors.Is(err, inventory.ErrAlreadyApplied)
	if err != nil && !alreadyApplied {
		return nil, err
	}

	c, err = s.store.GetChallan(ctx, id)
	if err != nil {
		return nil, err
	}

	if !alreadyApplied {
		s.logger.WithFields(logrus.Fields{
			"challan": c.Number,
			"user_id": userID,
		}).Info("Delivery challan completed")
		s.publish(ctx, Event{
			Type:           EventChallanCompleted,
			DocumentID:     c.ID,
			DocumentNumber: c.Number,
			Status:         string(c.Status),
			PreviousStatus: string(inventory.DocumentDraft),
			UserID:         userID,
		})
	}
	return &CompleteResult{Challan: c, AlreadyApplied: alreadyApplied}, nil
}

// CancelChallan moves a Draft challan to Cancelled
func (s *Service) CancelChallan(ctx context.Context, id uint, userID uint) (*challan.DeliveryChallan, error) {
	if err := s.store.CancelChallan(ctx, id, s.now()); err != nil {
		return nil, err
	}

	c, err := s.store.GetChallan(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"challan": c.Number,
		"user_id": userID,
	}).Info("Delivery challan cancelled")
	s.publish(ctx, Event{
		Type:           EventChallanCancelled,
		DocumentID:     c.ID,
		DocumentNumber: c.Number,
		Status:         string(c.Status),
		PreviousStatus: string(inventory.DocumentDraft),
		UserID:         userID,
	})
	return c, nil
}
