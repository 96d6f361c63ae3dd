package optimizer

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/iwvelando/weight-balance/internal/balance"
	"github.com/iwvelando/weight-balance/pkg/constants"
)

var (
	// ErrLengthMismatch is returned when the weight and pattern lengths differ.
	ErrLengthMismatch = errors.New("weights and pattern lengths differ")

	// ErrNegativeWeight is returned for weights below zero.
	ErrNegativeWeight = errors.New("negative weight")
)

// Problem is the input shared by every strategy: weight values to permute
// across a fixed pattern of positions.
type Problem struct {
	Variant *balance.Variant
	Arms    balance.ArmResolver
	Pattern []balance.PositionCode
	Weights []float64
}

func (p Problem) validate() error {
	if p.Variant == nil {
		return fmt.Errorf("%w: variant is required", balance.ErrInvalidVariant)
	}
	if p.Arms == nil {
		return errors.New("arm resolver is required")
	}
	if len(p.Weights) != len(p.Pattern) {
		return fmt.Errorf("%w: %d weights, %d positions", ErrLengthMismatch, len(p.Weights), len(p.Pattern))
	}
	for i, w := range p.Weights {
		if w < 0 || math.IsNaN(w) {
			return fmt.Errorf("%w: item %d is %v", ErrNegativeWeight, i, w)
		}
	}
	return nil
}

// Items pairs weights with the pattern.
func (p Problem) Items(weights []float64) []balance.WeightItem {
	return balance.Pair(weights, p.Pattern)
}

// OracleOptions tune the penalty and objective functions. Zero values
// select the defaults.
type OracleOptions struct {
	TargetCG            *float64 `json:"targetCG,omitempty"`
	FinalPenalty        float64  `json:"finalPenalty,omitempty"`
	IntermediatePenalty float64  `json:"intermediatePenalty,omitempty"`
	SteeringWeight      float64  `json:"steeringWeight,omitempty"`
	CacheSize           int      `json:"cacheSize,omitempty"`
}

func (o OracleOptions) withDefaults() OracleOptions {
	if o.FinalPenalty <= 0 {
		o.FinalPenalty = constants.DefaultFinalPenalty
	}
	if o.IntermediatePenalty <= 0 {
		o.IntermediatePenalty = constants.DefaultIntermediatePenalty
	}
	if o.SteeringWeight <= 0 {
		o.SteeringWeight = constants.DefaultSteeringWeight
	}
	if o.CacheSize <= 0 {
		o.CacheSize = constants.DefaultCacheSize
	}
	return o
}

// Evaluation is the envelope assessment of one arrangement.
type Evaluation struct {
	Final                  balance.TrajectoryPoint
	Loaded                 bool
	FinalInside            bool
	IntermediateViolations int
	Violations             int
}

// Feasible reports whether every point beyond the baseline is inside.
func (e Evaluation) Feasible() bool {
	return e.Loaded && e.Violations == 0
}

// Oracle scores arrangements of a Problem. It is safe for concurrent use.
type Oracle struct {
	problem Problem
	opts    OracleOptions
	cache   *lru.Cache[string, Evaluation]
}

// NewOracle builds an oracle for p.
func NewOracle(p Problem, opts OracleOptions) (*Oracle, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()
	cache, err := lru.New[string, Evaluation](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("oracle cache: %w", err)
	}
	return &Oracle{problem: p, opts: opts, cache: cache}, nil
}

// Options returns the effective options.
func (o *Oracle) Options() OracleOptions {
	return o.opts
}

func cacheKey(weights []float64) string {
	buf := make([]byte, 0, len(weights)*8)
	for i, w := range weights {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = strconv.AppendFloat(buf, w, 'g', -1, 64)
	}
	return string(buf)
}

// Trajectory computes the loading trajectory of an arrangement.
func (o *Oracle) Trajectory(weights []float64) balance.Trajectory {
	return balance.ComputeTrajectory(o.problem.Items(weights), o.problem.Variant, o.problem.Arms)
}

// Evaluate classifies every point of the arrangement's trajectory.
func (o *Oracle) Evaluate(weights []float64) Evaluation {
	key := cacheKey(weights)
	if e, ok := o.cache.Get(key); ok {
		return e
	}

	traj := o.Trajectory(weights)
	env := &o.problem.Variant.Envelope
	e := Evaluation{Final: traj.Final(), Loaded: traj.Loaded()}
	last := len(traj.Points) - 1
	for i := 1; i <= last; i++ {
		if env.ContainsPoint(traj.Points[i]) {
			continue
		}
		e.Violations++
		if i < last {
			e.IntermediateViolations++
		}
	}
	e.FinalInside = e.Loaded && env.ContainsPoint(e.Final)

	o.cache.Add(key, e)
	return e
}

// Feasible reports whether every non-baseline point is inside the envelope.
func (o *Oracle) Feasible(weights []float64) bool {
	return o.Evaluate(weights).Feasible()
}

// Violations counts the non-baseline points outside the envelope.
func (o *Oracle) Violations(weights []float64) int {
	return o.Evaluate(weights).Violations
}

func (o *Oracle) target() float64 {
	if o.opts.TargetCG != nil {
		return *o.opts.TargetCG
	}
	return o.problem.Variant.CenterCG
}

// Penalty is the fitness minimized by the local and swarm strategies. An
// arrangement that loads nothing is scored at the baseline and counts as a
// final violation, so it stays finite and never succeeds.
func (o *Oracle) Penalty(weights []float64) float64 {
	e := o.Evaluate(weights)
	penalty := 0.0
	if !e.FinalInside {
		penalty += o.opts.FinalPenalty
	}
	penalty += float64(e.IntermediateViolations) * o.opts.IntermediatePenalty
	if o.opts.TargetCG != nil {
		penalty += math.Abs(e.Final.CG-*o.opts.TargetCG) * o.opts.SteeringWeight
	}
	return penalty
}

// Objective is the distance between the final CG and the target, or the
// variant's centre CG when no target is set. Without a loaded point the
// baseline CG is used.
func (o *Oracle) Objective(weights []float64) float64 {
	e := o.Evaluate(weights)
	return math.Abs(e.Final.CG - o.target())
}
