package optimizer

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"slices"

	"github.com/iwvelando/weight-balance/internal/balance"
	"github.com/iwvelando/weight-balance/pkg/constants"
	"github.com/iwvelando/weight-balance/pkg/mathutil"
)

// Window is the range of final CGs reachable by rearranging the weights.
// Weight is the baseline plus every input weight, including items whose
// position has no arm. It can therefore exceed the final weight of any
// computed trajectory, which counts only resolved items.
type Window struct {
	MinCG      float64 `json:"minCG"`
	MaxCG      float64 `json:"maxCG"`
	Weight     float64 `json:"weight"`
	Empty      bool    `json:"empty"`
	Candidates int     `json:"candidates"`
}

// Direction selects which end of the window the direction search seeks.
type Direction string

const (
	DirectionForward Direction = "forward"
	DirectionAft     Direction = "aft"
)

// DirectionalResult is the extreme arrangement found by the direction search.
type DirectionalResult struct {
	Direction   Direction            `json:"direction"`
	Arrangement []balance.WeightItem `json:"arrangement"`
	FinalCG     float64              `json:"finalCG"`
	FinalWeight float64              `json:"finalWeight"`
	Attempts    int                  `json:"attempts"`
	Found       bool                 `json:"found"`
}

// WindowCandidates returns the number of generated window candidates for n
// items, excluding the as-given arrangement.
func WindowCandidates(n int) int {
	return min(constants.WindowCandidateCap, mathutil.Factorial(min(n, constants.WindowFactorialCap)))
}

// windowCandidate builds generated candidate i into dst.
func windowCandidate(dst, weights []float64, i int, rng *rand.Rand) {
	copy(dst, weights)
	switch {
	case i < constants.WindowDescendingCandidates:
		sortDescending(dst)
		randomSwaps(dst, i, rng)
	case i < constants.WindowAscendingCandidates:
		slices.Sort(dst)
		randomSwaps(dst, i-constants.WindowDescendingCandidates, rng)
	default:
		shuffle(dst, rng)
	}
}

func finalPoint(p Problem, weights []float64) (balance.TrajectoryPoint, bool) {
	traj := balance.ComputeTrajectory(p.Items(weights), p.Variant, p.Arms)
	return traj.Final(), traj.Loaded()
}

// EstimateOpportunityWindow samples the as-given arrangement plus up to
// WindowCandidates(n) generated ones and reports the spread of final CGs.
// The window is empty when every candidate ends at the same CG or none moves
// past the baseline.
func EstimateOpportunityWindow(ctx context.Context, p Problem, rng *rand.Rand) (Window, error) {
	if err := p.validate(); err != nil {
		return Window{}, err
	}
	w := Window{
		MinCG:  math.Inf(1),
		MaxCG:  math.Inf(-1),
		Weight: p.Variant.Baseline.Weight + balance.TotalWeight(p.Weights),
	}
	if len(p.Weights) == 0 || balance.TotalWeight(p.Weights) == 0 {
		return emptyWindow(w), nil
	}
	rng = ensureRand(rng)

	observe := func(weights []float64) {
		w.Candidates++
		final, ok := finalPoint(p, weights)
		if !ok {
			return
		}
		w.MinCG = math.Min(w.MinCG, final.CG)
		w.MaxCG = math.Max(w.MaxCG, final.CG)
	}

	observe(p.Weights)
	candidate := make([]float64, len(p.Weights))
	for i := 0; i < WindowCandidates(len(p.Weights)); i++ {
		if err := ctx.Err(); err != nil {
			return settleWindow(w), err
		}
		windowCandidate(candidate, p.Weights, i, rng)
		observe(candidate)
	}
	return settleWindow(w), nil
}

func emptyWindow(w Window) Window {
	w.MinCG, w.MaxCG, w.Empty = 0, 0, true
	return w
}

func settleWindow(w Window) Window {
	if math.IsInf(w.MinCG, 0) || w.MinCG == w.MaxCG {
		candidates := w.Candidates
		w = emptyWindow(w)
		w.Candidates = candidates
	}
	return w
}

// directionCandidate builds attempt into dst.
func directionCandidate(dst, weights []float64, attempt int, dir Direction, rng *rand.Rand) {
	copy(dst, weights)
	switch {
	case attempt == 0:
	case attempt < constants.DirectionSortedAttempts:
		if dir == DirectionForward {
			sortDescending(dst)
		} else {
			slices.Sort(dst)
		}
		randomSwaps(dst, attempt/10, rng)
	default:
		shuffle(dst, rng)
	}
}

// FindDirectionalArrangement searches for an extreme arrangement. With
// DirectionForward the highest final CG wins, with DirectionAft the lowest.
// Attempt 0 is the as-given arrangement.
func FindDirectionalArrangement(ctx context.Context, p Problem, dir Direction, attempts int, rng *rand.Rand) (DirectionalResult, error) {
	if err := p.validate(); err != nil {
		return DirectionalResult{}, err
	}
	if dir != DirectionForward && dir != DirectionAft {
		return DirectionalResult{}, fmt.Errorf("unknown direction %q", dir)
	}
	if attempts <= 0 {
		attempts = constants.DefaultDirectionAttempts
	}
	res := DirectionalResult{Direction: dir, Arrangement: []balance.WeightItem{}}
	if len(p.Weights) == 0 {
		return res, nil
	}
	rng = ensureRand(rng)

	var best []float64
	var bestPoint balance.TrajectoryPoint
	candidate := make([]float64, len(p.Weights))
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return settleDirection(res, p, best, bestPoint), err
		}
		directionCandidate(candidate, p.Weights, attempt, dir, rng)
		res.Attempts++
		final, ok := finalPoint(p, candidate)
		if !ok {
			continue
		}
		improved := best == nil ||
			(dir == DirectionForward && final.CG > bestPoint.CG) ||
			(dir == DirectionAft && final.CG < bestPoint.CG)
		if improved {
			best = slices.Clone(candidate)
			bestPoint = final
		}
	}
	return settleDirection(res, p, best, bestPoint), nil
}

func settleDirection(res DirectionalResult, p Problem, best []float64, point balance.TrajectoryPoint) DirectionalResult {
	if best == nil {
		res.Arrangement = p.Items(p.Weights)
		return res
	}
	res.Found = true
	res.Arrangement = p.Items(best)
	res.FinalCG = point.CG
	res.FinalWeight = point.Weight
	return res
}
