package optimizer

import (
	"github.com/iwvelando/weight-balance/internal/balance"
)

// Method names an arrangement search strategy.
type Method string

const (
	MethodLocal   Method = "local"
	MethodSwarm   Method = "pso"
	MethodBounded Method = "bounded"
	MethodCompare Method = "compare"
)

// Methods lists the runnable strategies.
var Methods = []Method{MethodLocal, MethodSwarm, MethodBounded}

// StopReason tells why a strategy returned.
type StopReason string

const (
	StopBudget    StopReason = "budget"
	StopConverged StopReason = "converged"
	StopExhausted StopReason = "exhausted"
	StopCanceled  StopReason = "canceled"
)

// Result is the outcome of one strategy run.
type Result struct {
	Method           Method               `json:"method"`
	Arrangement      []balance.WeightItem `json:"arrangement"`
	Score            float64              `json:"score"`
	Objective        float64              `json:"objective"`
	Feasible         bool                 `json:"feasible"`
	Success          bool                 `json:"success"`
	Iterations       int                  `json:"iterations"`
	ConvergenceTrace []float64            `json:"convergenceTrace,omitempty"`
	Stopped          StopReason           `json:"stopped"`
}

// Weights returns the arranged weight values.
func (r Result) Weights() []float64 {
	return balance.Weights(r.Arrangement)
}

func emptyResult(method Method) Result {
	return Result{
		Method:      method,
		Arrangement: []balance.WeightItem{},
		Stopped:     StopExhausted,
	}
}

// finish fills the oracle-derived fields of r for the arrangement weights.
func finish(r Result, o *Oracle, weights []float64) Result {
	r.Arrangement = o.problem.Items(weights)
	r.Score = o.Penalty(weights)
	r.Objective = o.Objective(weights)
	r.Feasible = o.Feasible(weights)
	return r
}

// better reports whether a beats b: success first, then feasibility, then
// the lower objective.
func better(a, b Result) bool {
	if a.Success != b.Success {
		return a.Success
	}
	if a.Feasible != b.Feasible {
		return a.Feasible
	}
	return a.Objective < b.Objective
}
