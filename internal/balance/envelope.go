package balance

import (
	"errors"
	"math"

	"github.com/iwvelando/weight-balance/pkg/mathutil"
)

// Names of the envelope polylines returned by Curves.
const (
	CurveBasicGrid         = "basicGrid"
	CurveDoNotOperate      = "doNotOperate"
	CurveMaxLandingWeight  = "maxLandingWeight"
	CurveMaxZeroFuelWeight = "maxZeroFuelWeight"
	CurveMaxTaxiWeight     = "maxTaxiWeight"
)

// EnvelopePoint is a vertex of an envelope polyline.
type EnvelopePoint struct {
	CG     float64 `json:"cg"`
	Weight float64 `json:"weight"`
}

// Bounds is the rectangle outside of which no point is accepted.
type Bounds struct {
	MinCG     float64 `json:"minCG"`
	MaxCG     float64 `json:"maxCG"`
	MinWeight float64 `json:"minWeight"`
	MaxWeight float64 `json:"maxWeight"`
}

func (b Bounds) validate() error {
	if b.MinCG >= b.MaxCG {
		return errors.New("envelope bounds: minCG must be below maxCG")
	}
	if b.MinWeight >= b.MaxWeight {
		return errors.New("envelope bounds: minWeight must be below maxWeight")
	}
	return nil
}

// Contains reports whether the point lies inside the rectangle, edges included.
func (b Bounds) Contains(cg, weight float64) bool {
	return cg >= b.MinCG && cg <= b.MaxCG && weight >= b.MinWeight && weight <= b.MaxWeight
}

// NamedCurve is a labelled polyline.
type NamedCurve struct {
	Name   string          `json:"name"`
	Points []EnvelopePoint `json:"points"`
}

// Envelope is the certified weight/CG envelope of a variant. Only BasicGrid
// takes part in containment; the other polylines are informational.
type Envelope struct {
	Bounds            Bounds          `json:"bounds"`
	DefaultMaxWeight  float64         `json:"defaultMaxWeight"`
	DefaultMinWeight  float64         `json:"defaultMinWeight"`
	BasicGrid         []EnvelopePoint `json:"basicGrid"`
	DoNotOperate      []EnvelopePoint `json:"doNotOperate,omitempty"`
	MaxLandingWeight  []EnvelopePoint `json:"maxLandingWeight,omitempty"`
	MaxZeroFuelWeight []EnvelopePoint `json:"maxZeroFuelWeight,omitempty"`
	MaxTaxiWeight     []EnvelopePoint `json:"maxTaxiWeight,omitempty"`
	AltForwardLimits  []NamedCurve    `json:"altForwardLimits,omitempty"`
}

// Limits returns the lowest and highest basic-grid weight at cg, taken over
// every segment whose cg interval contains cg. A vertical segment contributes
// both of its endpoint weights. When no segment qualifies the default
// weights are returned and bracketed is false.
func (e *Envelope) Limits(cg float64) (lower, upper float64, bracketed bool) {
	lower, upper = math.Inf(1), math.Inf(-1)
	grid := e.BasicGrid
	for i := 0; i+1 < len(grid); i++ {
		p1, p2 := grid[i], grid[i+1]
		if cg < math.Min(p1.CG, p2.CG) || cg > math.Max(p1.CG, p2.CG) {
			continue
		}
		bracketed = true
		if p1.CG == p2.CG {
			lower = math.Min(lower, math.Min(p1.Weight, p2.Weight))
			upper = math.Max(upper, math.Max(p1.Weight, p2.Weight))
			continue
		}
		w := mathutil.Interpolate(cg, p1.CG, p1.Weight, p2.CG, p2.Weight)
		lower = math.Min(lower, w)
		upper = math.Max(upper, w)
	}
	if !bracketed {
		return e.DefaultMinWeight, e.DefaultMaxWeight, false
	}
	return lower, upper, true
}

// Contains reports whether (cg, weight) is inside the envelope. The test is
// an approximation of polygon containment: the point must lie inside the
// global bounds and between the lowest and highest basic-grid weights found
// at cg.
func (e *Envelope) Contains(cg, weight float64) bool {
	if math.IsNaN(cg) || math.IsNaN(weight) {
		return false
	}
	if !e.Bounds.Contains(cg, weight) {
		return false
	}
	lower, upper, _ := e.Limits(cg)
	return weight >= lower && weight <= upper
}

// ContainsPoint is Contains for a trajectory point.
func (e *Envelope) ContainsPoint(p TrajectoryPoint) bool {
	return e.Contains(p.CG, p.Weight)
}

// Curves returns every non-empty polyline by name, basic grid first.
func (e *Envelope) Curves() []NamedCurve {
	named := []NamedCurve{
		{Name: CurveBasicGrid, Points: e.BasicGrid},
		{Name: CurveDoNotOperate, Points: e.DoNotOperate},
		{Name: CurveMaxLandingWeight, Points: e.MaxLandingWeight},
		{Name: CurveMaxZeroFuelWeight, Points: e.MaxZeroFuelWeight},
		{Name: CurveMaxTaxiWeight, Points: e.MaxTaxiWeight},
	}
	named = append(named, e.AltForwardLimits...)

	curves := make([]NamedCurve, 0, len(named))
	for _, c := range named {
		if len(c.Points) > 0 {
			curves = append(curves, c)
		}
	}
	return curves
}

// IsInEnvelope checks a point against the envelope of variant v.
func IsInEnvelope(cg, weight float64, v *Variant) bool {
	return v.Envelope.Contains(cg, weight)
}
