package balance

import (
	"fmt"
)

// PositionCode identifies a loading position on the aircraft.
type PositionCode string

// ArmResolver maps a position code to its moment arm.
type ArmResolver interface {
	MomentArm(code PositionCode) (float64, bool)
}

// ArmMap is a fixed ArmResolver backed by a map.
type ArmMap map[PositionCode]float64

// MomentArm implements ArmResolver.
func (m ArmMap) MomentArm(code PositionCode) (float64, bool) {
	arm, ok := m[code]
	return arm, ok
}

// WeightItem is one cargo item assigned to a position.
type WeightItem struct {
	Position PositionCode `json:"position"`
	Weight   float64      `json:"weight"`
}

// TrajectoryPoint is the aircraft state after a loading step.
type TrajectoryPoint struct {
	Weight float64 `json:"weight"`
	CG     float64 `json:"cg"`
}

// CalculationRow records one applied loading step.
type CalculationRow struct {
	Position  PositionCode `json:"position"`
	MomentArm float64      `json:"momentArm"`
	Weight    float64      `json:"weight"`
	Moment    float64      `json:"moment"`
	SumWeight float64      `json:"sumWeight"`
	SumMoment float64      `json:"sumMoment"`
	SumBA     float64      `json:"sumBA"`
	CG        float64      `json:"cg"`
}

// Point returns the trajectory point reached by the row.
func (r CalculationRow) Point() TrajectoryPoint {
	return TrajectoryPoint{Weight: r.SumWeight, CG: r.CG}
}

// ItemStatus tags what happened to an input item.
type ItemStatus string

const (
	StatusApplied           ItemStatus = "applied"
	StatusSkippedZeroWeight ItemStatus = "skipped_zero_weight"
	StatusSkippedUnresolved ItemStatus = "skipped_unresolved_position"
)

// ItemOutcome reports the handling of the input item at Index.
type ItemOutcome struct {
	Index    int          `json:"index"`
	Position PositionCode `json:"position"`
	Weight   float64      `json:"weight"`
	Status   ItemStatus   `json:"status"`
}

// Trajectory is the full result of a loading sequence. Points[0] is always
// the baseline; Points[i] for i > 0 matches Rows[i-1].
type Trajectory struct {
	Baseline CalculationRow    `json:"baseline"`
	Rows     []CalculationRow  `json:"rows"`
	Points   []TrajectoryPoint `json:"points"`
	Outcomes []ItemOutcome     `json:"outcomes"`
}

// Last returns the most recent row, the baseline when nothing was applied.
func (t Trajectory) Last() CalculationRow {
	if len(t.Rows) == 0 {
		return t.Baseline
	}
	return t.Rows[len(t.Rows)-1]
}

// Final returns the last trajectory point.
func (t Trajectory) Final() TrajectoryPoint {
	return t.Last().Point()
}

// Loaded reports whether any point beyond the baseline exists.
func (t Trajectory) Loaded() bool {
	return len(t.Rows) > 0
}

// Unresolved returns the outcomes of items whose position had no arm.
func (t Trajectory) Unresolved() []ItemOutcome {
	var out []ItemOutcome
	for _, o := range t.Outcomes {
		if o.Status == StatusSkippedUnresolved {
			out = append(out, o)
		}
	}
	return out
}

// Warnings describes every data-quality skip.
func (t Trajectory) Warnings() []string {
	var warnings []string
	for _, o := range t.Unresolved() {
		warnings = append(warnings, fmt.Sprintf("Item %d: position %q has no moment arm (%.0f skipped)",
			o.Index, o.Position, o.Weight))
	}
	return warnings
}

// ComputeTrajectory applies items in order on top of the variant baseline.
// Zero weights and unresolved positions are tagged in Outcomes and
// contribute nothing.
func ComputeTrajectory(items []WeightItem, v *Variant, arms ArmResolver) Trajectory {
	baseline := v.BaselineRow()
	traj := Trajectory{
		Baseline: baseline,
		Rows:     make([]CalculationRow, 0, len(items)),
		Points:   make([]TrajectoryPoint, 1, len(items)+1),
		Outcomes: make([]ItemOutcome, 0, len(items)),
	}
	traj.Points[0] = baseline.Point()

	sumWeight := baseline.SumWeight
	sumMoment := baseline.SumMoment
	for i, item := range items {
		outcome := ItemOutcome{Index: i, Position: item.Position, Weight: item.Weight, Status: StatusApplied}
		if item.Weight == 0 {
			outcome.Status = StatusSkippedZeroWeight
			traj.Outcomes = append(traj.Outcomes, outcome)
			continue
		}
		arm, ok := arms.MomentArm(item.Position)
		if !ok {
			outcome.Status = StatusSkippedUnresolved
			traj.Outcomes = append(traj.Outcomes, outcome)
			continue
		}

		moment := item.Weight * arm
		sumWeight += item.Weight
		sumMoment += moment
		avgArm := sumMoment / sumWeight
		row := CalculationRow{
			Position:  item.Position,
			MomentArm: arm,
			Weight:    item.Weight,
			Moment:    moment,
			SumWeight: sumWeight,
			SumMoment: sumMoment,
			SumBA:     avgArm,
			CG:        v.CG(avgArm),
		}
		traj.Rows = append(traj.Rows, row)
		traj.Points = append(traj.Points, row.Point())
		traj.Outcomes = append(traj.Outcomes, outcome)
	}
	return traj
}

// Pair assigns weights to pattern positions by index. Weights beyond the
// pattern length get an empty position code and are reported as unresolved.
func Pair(weights []float64, pattern []PositionCode) []WeightItem {
	items := make([]WeightItem, len(weights))
	for i, w := range weights {
		items[i].Weight = w
		if i < len(pattern) {
			items[i].Position = pattern[i]
		}
	}
	return items
}

// Weights extracts the weight values of items.
func Weights(items []WeightItem) []float64 {
	out := make([]float64, len(items))
	for i, item := range items {
		out[i] = item.Weight
	}
	return out
}

// TotalWeight sums the weight values.
func TotalWeight(weights []float64) float64 {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	return total
}
