package supervisor

import (
	"context"
	"errors"
	"time"
)

// CheckStatus is the result of a single dimension or fixed check
type CheckStatus string

const (
	CheckPending CheckStatus = "Pending"
	CheckPass    CheckStatus = "Pass"
	CheckFail    CheckStatus = "Fail"
)

// OverallStatus is the derived status of a supervisor check
type OverallStatus string

const (
	OverallPending    OverallStatus = "Pending"
	OverallInProgress OverallStatus = "In Progress"
	OverallPassed     OverallStatus = "Passed"
	OverallFailed     OverallStatus = "Failed"
)

var (
	ErrNotFound          = errors.New("supervisor check not found")
	ErrVersionConflict   = errors.New("supervisor check was modified concurrently")
	ErrInvalidStatus     = errors.New("invalid check status")
	ErrDimensionNotFound = errors.New("dimension check not found")
)

func (s CheckStatus) Valid() bool {
	return s == CheckPending || s == CheckPass || s == CheckFail
}

// SupervisorCheck records a supervisor's sign-off on produced goods
type SupervisorCheck struct {
	ID               uint             `json:"id" gorm:"primaryKey"`
	Number           string           `json:"number" gorm:"uniqueIndex;not null"`
	OrderNumber      string           `json:"order_number" gorm:"index"`
	Supervisor       string           `json:"supervisor"`
	VisualInspection CheckStatus      `json:"visual_inspection" gorm:"not null;default:'Pending'"`
	MaterialCheck    CheckStatus      `json:"material_check" gorm:"not null;default:'Pending'"`
	OverallStatus    OverallStatus    `json:"overall_status" gorm:"not null;default:'Pending'"`
	Remarks          string           `json:"remarks" gorm:"type:text"`
	Version          int              `json:"version" gorm:"not null;default:1"`
	Dimensions       []DimensionCheck `json:"dimensions" gorm:"foreignKey:SupervisorCheckID;constraint:OnDelete:CASCADE"`
	CreatedBy        uint             `json:"created_by"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// DimensionCheck is one measured dimension
type DimensionCheck struct {
	ID                uint        `json:"id" gorm:"primaryKey"`
	SupervisorCheckID uint        `json:"supervisor_check_id" gorm:"not null;index"`
	Position          int         `json:"position" gorm:"not null"`
	Dimension         string      `json:"dimension" gorm:"not null"`
	Expected          string      `json:"expected"`
	Measured          string      `json:"measured"`
	Status            CheckStatus `json:"status" gorm:"not null;default:'Pending'"`
}

func (SupervisorCheck) TableName() string { return "supervisor_checks" }
func (DimensionCheck) TableName() string  { return "supervisor_dimension_checks" }

// Input returns the derivation input for the check
func (sc *SupervisorCheck) Input() Input {
	dims := make([]CheckStatus, len(sc.Dimensions))
	for i, d := range sc.Dimensions {
		dims[i] = d.Status
	}
	return Input{
		Dimensions:       dims,
		VisualInspection: sc.VisualInspection,
		MaterialCheck:    sc.MaterialCheck,
	}
}

// Recompute refreshes OverallStatus and reports whether it changed
func (sc *SupervisorCheck) Recompute() bool {
	next := DeriveOverallStatus(sc.Input(), sc.OverallStatus)
	changed := next != sc.OverallStatus
	sc.OverallStatus = next
	return changed
}

// Store persists supervisor checks with optimistic versioning on save
type Store interface {
	CreateSupervisorCheck(ctx context.Context, sc *SupervisorCheck) error
	GetSupervisorCheck(ctx context.Context, id uint) (*SupervisorCheck, error)
	SaveSupervisorCheck(ctx context.Context, sc *SupervisorCheck) error
}
