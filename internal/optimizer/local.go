package optimizer

import (
	"context"
	"math/rand"

	"github.com/iwvelando/weight-balance/pkg/constants"
)

// LocalConfig configures the local random search.
type LocalConfig struct {
	Trials int
	Oracle OracleOptions
}

func (c LocalConfig) withDefaults() LocalConfig {
	if c.Trials <= 0 {
		c.Trials = constants.DefaultLocalSearchTrials
	}
	c.Oracle = c.Oracle.withDefaults()
	return c
}

// RunLocalSearch scores the input arrangement and then tries cfg.Trials
// uniform shuffles, keeping the first arrangement with a strictly lower
// penalty. On cancellation the best arrangement so far is returned together
// with the context error.
func RunLocalSearch(ctx context.Context, p Problem, cfg LocalConfig, rng *rand.Rand) (Result, error) {
	if err := p.validate(); err != nil {
		return Result{}, err
	}
	if len(p.Weights) == 0 {
		return emptyResult(MethodLocal), nil
	}
	cfg = cfg.withDefaults()
	oracle, err := NewOracle(p, cfg.Oracle)
	if err != nil {
		return Result{}, err
	}
	rng = ensureRand(rng)

	best := append([]float64(nil), p.Weights...)
	bestScore := oracle.Penalty(best)
	candidate := make([]float64, len(best))
	res := Result{Method: MethodLocal, Stopped: StopBudget}

	for res.Iterations < cfg.Trials {
		if err := ctx.Err(); err != nil {
			res.Stopped = StopCanceled
			res = finish(res, oracle, best)
			res.Success = res.Score < cfg.Oracle.FinalPenalty
			return res, err
		}
		copy(candidate, p.Weights)
		shuffle(candidate, rng)
		res.Iterations++
		if score := oracle.Penalty(candidate); score < bestScore {
			bestScore = score
			copy(best, candidate)
		}
		res.ConvergenceTrace = append(res.ConvergenceTrace, bestScore)
	}

	res = finish(res, oracle, best)
	res.Success = res.Score < cfg.Oracle.FinalPenalty
	return res, nil
}
