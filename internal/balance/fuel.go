package balance

import (
	"fmt"
	"sort"

	"github.com/iwvelando/weight-balance/pkg/constants"
	"github.com/iwvelando/weight-balance/pkg/mathutil"
)

// FuelExtension is the row and point produced by adding fuel after the
// last loading step.
type FuelExtension struct {
	Row   CalculationRow  `json:"row"`
	Point TrajectoryPoint `json:"point"`
}

// FuelArm looks up the moment arm for a fuel weight. Weights at or above the
// last sample use the last arm, weights below the first sample use the first
// arm, anything in between is interpolated linearly.
func FuelArm(table []FuelSample, fuelWeight float64) (float64, error) {
	if len(table) == 0 {
		return 0, ErrMissingFuelTable
	}
	last := table[len(table)-1]
	if fuelWeight >= last.Weight {
		return last.Arm, nil
	}
	if fuelWeight <= table[0].Weight {
		return table[0].Arm, nil
	}

	// index of the first sample strictly above fuelWeight; the sample before it
	// is the largest one at or below
	upper := sort.Search(len(table), func(i int) bool {
		return table[i].Weight > fuelWeight
	})
	lo, hi := table[upper-1], table[upper]
	if lo.Weight == hi.Weight {
		return lo.Arm, nil
	}
	return mathutil.Interpolate(fuelWeight, lo.Weight, lo.Arm, hi.Weight, hi.Arm), nil
}

// ExtendWithFuel adds fuelWeight on top of last. A fuel weight of zero or
// less is a no-op and returns nil.
func ExtendWithFuel(last CalculationRow, fuelWeight float64, v *Variant) (*FuelExtension, error) {
	if fuelWeight <= 0 {
		return nil, nil
	}
	arm, err := FuelArm(v.FuelTable, fuelWeight)
	if err != nil {
		return nil, fmt.Errorf("variant %s: %w", v.Name, err)
	}

	moment := fuelWeight * arm
	sumWeight := last.SumWeight + fuelWeight
	sumMoment := last.SumMoment + moment
	avgArm := sumMoment / sumWeight
	row := CalculationRow{
		Position:  constants.FuelPosition,
		MomentArm: arm,
		Weight:    fuelWeight,
		Moment:    moment,
		SumWeight: sumWeight,
		SumMoment: sumMoment,
		SumBA:     avgArm,
		CG:        v.CG(avgArm),
	}
	return &FuelExtension{Row: row, Point: row.Point()}, nil
}

// WithFuel returns a copy of t with the fuel row appended. The receiver is
// not modified.
func (t Trajectory) WithFuel(fuelWeight float64, v *Variant) (Trajectory, error) {
	ext, err := ExtendWithFuel(t.Last(), fuelWeight, v)
	if err != nil {
		return t, err
	}
	out := Trajectory{
		Baseline: t.Baseline,
		Rows:     append([]CalculationRow(nil), t.Rows...),
		Points:   append([]TrajectoryPoint(nil), t.Points...),
		Outcomes: append([]ItemOutcome(nil), t.Outcomes...),
	}
	if ext == nil {
		return out, nil
	}
	out.Rows = append(out.Rows, ext.Row)
	out.Points = append(out.Points, ext.Point)
	return out, nil
}
