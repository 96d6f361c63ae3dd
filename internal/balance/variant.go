// Package balance computes weight and balance trajectories for an aircraft
// variant and checks them against the variant's certified envelope.
package balance

import (
	"errors"
	"fmt"
	"sort"

	"github.com/iwvelando/weight-balance/pkg/constants"
)

var (
	// ErrMissingEnvelope is returned when a variant has no basic grid polyline.
	ErrMissingEnvelope = errors.New("variant has no envelope")

	// ErrMissingFuelTable is returned when a fuel extension is requested for a
	// variant without a calibration table.
	ErrMissingFuelTable = errors.New("variant has no fuel calibration table")

	// ErrInvalidVariant is returned for variants with unusable reference data.
	ErrInvalidVariant = errors.New("invalid aircraft variant")
)

// Baseline is the operating empty weight and moment of a variant.
type Baseline struct {
	Weight float64 `json:"weight"`
	Moment float64 `json:"moment"`
}

// Arm returns the baseline moment arm.
func (b Baseline) Arm() float64 {
	if b.Weight == 0 {
		return 0
	}
	return b.Moment / b.Weight
}

// FuelSample is one calibration point mapping a fuel weight to its arm.
type FuelSample struct {
	Weight float64 `json:"weight"`
	Arm    float64 `json:"arm"`
}

// Variant holds the reference data of one aircraft variant.
type Variant struct {
	Name      string       `json:"name"`
	RefArm    float64      `json:"refArm"`
	MACLength float64      `json:"macLength"`
	CenterCG  float64      `json:"centerCG"`
	Baseline  Baseline     `json:"baseline"`
	Envelope  Envelope     `json:"envelope"`
	FuelTable []FuelSample `json:"fuelTable,omitempty"`
}

// CG converts an average moment arm into %MAC.
func (v *Variant) CG(arm float64) float64 {
	return (arm - v.RefArm) * constants.PercentageMultiplier / v.MACLength
}

// BaselineRow returns the calculation row for the operating empty weight.
func (v *Variant) BaselineRow() CalculationRow {
	arm := v.Baseline.Arm()
	return CalculationRow{
		Position:  constants.BaselinePosition,
		MomentArm: arm,
		Weight:    v.Baseline.Weight,
		Moment:    v.Baseline.Moment,
		SumWeight: v.Baseline.Weight,
		SumMoment: v.Baseline.Moment,
		SumBA:     arm,
		CG:        v.CG(arm),
	}
}

// Validate checks the reference data needed by every calculation.
func (v *Variant) Validate() error {
	if v == nil {
		return fmt.Errorf("%w: nil variant", ErrInvalidVariant)
	}
	if v.MACLength <= 0 {
		return fmt.Errorf("%w: %s: macLength must be positive, got %v", ErrInvalidVariant, v.Name, v.MACLength)
	}
	if v.Baseline.Weight <= 0 {
		return fmt.Errorf("%w: %s: baseline weight must be positive, got %v", ErrInvalidVariant, v.Name, v.Baseline.Weight)
	}
	if len(v.Envelope.BasicGrid) < 2 {
		return fmt.Errorf("%s: %w", v.Name, ErrMissingEnvelope)
	}
	if err := v.Envelope.Bounds.validate(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidVariant, v.Name, err)
	}
	if !sort.SliceIsSorted(v.FuelTable, func(i, j int) bool {
		return v.FuelTable[i].Weight < v.FuelTable[j].Weight
	}) {
		return fmt.Errorf("%w: %s: fuel table must be sorted by weight", ErrInvalidVariant, v.Name)
	}
	return nil
}
