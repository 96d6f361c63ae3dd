package optimizer

import (
	"context"
	"fmt"
	"iter"
	"math/rand"
	"slices"

	"github.com/iwvelando/weight-balance/pkg/constants"
)

// SamplingPolicy selects which permutations the bounded search examines.
type SamplingPolicy string

const (
	// SamplingPrefix takes the first MaxCandidates permutations in
	// enumeration order.
	SamplingPrefix SamplingPolicy = "prefix"

	// SamplingReservoir draws MaxCandidates permutations uniformly from the
	// first ReservoirScan of the enumeration.
	SamplingReservoir SamplingPolicy = "reservoir"
)

// BoundedConfig configures the bounded search.
type BoundedConfig struct {
	MaxCandidates int
	Sampling      SamplingPolicy
	ReservoirScan int
	Oracle        OracleOptions
}

func (c BoundedConfig) withDefaults() BoundedConfig {
	if c.MaxCandidates <= 0 {
		c.MaxCandidates = constants.DefaultMaxCandidates
	}
	if c.Sampling == "" {
		c.Sampling = SamplingPrefix
	}
	if c.ReservoirScan < c.MaxCandidates {
		c.ReservoirScan = c.MaxCandidates * constants.DefaultReservoirScanFactor
	}
	c.Oracle = c.Oracle.withDefaults()
	return c
}

// Permutations lazily enumerates every ordering of values by swap-based
// backtracking. Each yielded slice is a fresh copy. The sequence may be
// ranged over more than once.
func Permutations(values []float64) iter.Seq[[]float64] {
	return func(yield func([]float64) bool) {
		if len(values) == 0 {
			return
		}
		work := slices.Clone(values)
		var walk func(start int) bool
		walk = func(start int) bool {
			if start >= len(work)-1 {
				return yield(slices.Clone(work))
			}
			for i := start; i < len(work); i++ {
				work[start], work[i] = work[i], work[start]
				ok := walk(start + 1)
				work[start], work[i] = work[i], work[start]
				if !ok {
					return false
				}
			}
			return true
		}
		walk(0)
	}
}

// take limits seq to its first n elements.
func take[T any](seq iter.Seq[T], n int) iter.Seq[T] {
	return func(yield func(T) bool) {
		if n <= 0 {
			return
		}
		count := 0
		for v := range seq {
			if !yield(v) {
				return
			}
			count++
			if count >= n {
				return
			}
		}
	}
}

// reservoir returns a uniform sample of k elements from seq.
func reservoir[T any](seq iter.Seq[T], k int, rng *rand.Rand) []T {
	sample := make([]T, 0, k)
	seen := 0
	for v := range seq {
		seen++
		if len(sample) < k {
			sample = append(sample, v)
			continue
		}
		if j := rng.Intn(seen); j < k {
			sample[j] = v
		}
	}
	return sample
}

// Candidates returns the capped candidate sequence for the configured
// sampling policy.
func (c BoundedConfig) Candidates(values []float64, rng *rand.Rand) (iter.Seq[[]float64], error) {
	c = c.withDefaults()
	switch c.Sampling {
	case SamplingPrefix:
		return take(Permutations(values), c.MaxCandidates), nil
	case SamplingReservoir:
		sample := reservoir(take(Permutations(values), c.ReservoirScan), c.MaxCandidates, ensureRand(rng))
		return slices.Values(sample), nil
	default:
		return nil, fmt.Errorf("unknown sampling policy %q", c.Sampling)
	}
}

// RunBoundedSearch examines at most MaxCandidates permutations. The input
// arrangement is the starting incumbent; a candidate replaces it when it is
// feasible and the incumbent is not, or when both are feasible and the
// candidate's objective is strictly lower.
func RunBoundedSearch(ctx context.Context, p Problem, cfg BoundedConfig, rng *rand.Rand) (Result, error) {
	if err := p.validate(); err != nil {
		return Result{}, err
	}
	if len(p.Weights) == 0 {
		return emptyResult(MethodBounded), nil
	}
	cfg = cfg.withDefaults()
	oracle, err := NewOracle(p, cfg.Oracle)
	if err != nil {
		return Result{}, err
	}
	candidates, err := cfg.Candidates(p.Weights, rng)
	if err != nil {
		return Result{}, err
	}

	best := slices.Clone(p.Weights)
	bestValue := oracle.Objective(best)
	bestFeasible := oracle.Feasible(best)
	res := Result{Method: MethodBounded, Stopped: StopExhausted}

	for candidate := range candidates {
		if err := ctx.Err(); err != nil {
			res.Stopped = StopCanceled
			res = finish(res, oracle, best)
			res.Success = res.Feasible
			return res, err
		}
		res.Iterations++
		if !oracle.Feasible(candidate) {
			continue
		}
		value := oracle.Objective(candidate)
		if !bestFeasible || value < bestValue {
			best, bestValue, bestFeasible = candidate, value, true
		}
	}
	if res.Iterations >= cfg.MaxCandidates {
		res.Stopped = StopBudget
	}

	res = finish(res, oracle, best)
	res.Success = res.Feasible
	return res, nil
}
