package optimizer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iwvelando/weight-balance/internal/balance"
	"github.com/iwvelando/weight-balance/pkg/testutil"
)

func TestWindowCandidates(t *testing.T) {
	tests := []struct {
		n    int
		want int
	}{
		{0, 1},
		{1, 1},
		{3, 6},
		{4, 24},
		{5, 100},
		{12, 100},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, WindowCandidates(tt.n), "n=%d", tt.n)
	}
}

func TestWindowWeightCountsUnresolvedItems(t *testing.T) {
	p := Problem{
		Variant: testutil.VariantA(),
		Arms:    testutil.Arms(),
		Pattern: []balance.PositionCode{testutil.P1, "ZZ"},
		Weights: []float64{6000, 5000},
	}
	w, err := EstimateOpportunityWindow(context.Background(), p, NewRand(1))
	require.NoError(t, err)

	oracle, err := NewOracle(p, OracleOptions{})
	require.NoError(t, err)
	traj := oracle.Trajectory(p.Weights)

	assert.Equal(t, 332000.0, w.Weight)
	assert.Equal(t, 327000.0, traj.Final().Weight)
	assert.Len(t, traj.Unresolved(), 1)
}

func TestEstimateOpportunityWindow(t *testing.T) {
	w, err := EstimateOpportunityWindow(context.Background(), threeProblem(), NewRand(1))
	require.NoError(t, err)

	assert.False(t, w.Empty)
	assert.Equal(t, 7, w.Candidates)
	assert.Equal(t, 367000.0, w.Weight)
	assert.InDelta(t, asGivenCG, w.MinCG, 0.001)
	assert.Greater(t, w.MaxCG, w.MinCG)
	assert.LessOrEqual(t, w.MaxCG, highestCG+0.001)
}

func TestEstimateOpportunityWindowEmpty(t *testing.T) {
	tests := []struct {
		name    string
		problem Problem
		weight  float64
	}{
		{"no weights", emptyProblem(), 321000},
		{"all zero", pairProblem(0, 0), 321000},
		{"identical weights", pairProblem(5000, 5000), 331000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := EstimateOpportunityWindow(context.Background(), tt.problem, NewRand(1))
			require.NoError(t, err)

			assert.True(t, w.Empty)
			assert.Zero(t, w.MinCG)
			assert.Zero(t, w.MaxCG)
			assert.Equal(t, tt.weight, w.Weight)
		})
	}
}

func TestEstimateOpportunityWindowInvalid(t *testing.T) {
	_, err := EstimateOpportunityWindow(context.Background(), pairProblem(1000), nil)
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestFindDirectionalArrangement(t *testing.T) {
	ctx := context.Background()

	fwd, err := FindDirectionalArrangement(ctx, threeProblem(), DirectionForward, 0, NewRand(1))
	require.NoError(t, err)
	aft, err := FindDirectionalArrangement(ctx, threeProblem(), DirectionAft, 0, NewRand(1))
	require.NoError(t, err)

	assert.True(t, fwd.Found)
	assert.True(t, aft.Found)
	assert.Equal(t, 200, fwd.Attempts)
	assert.Equal(t, 200, aft.Attempts)
	assert.GreaterOrEqual(t, fwd.FinalCG, aft.FinalCG)

	assert.InDelta(t, highestCG, fwd.FinalCG, 0.001)
	assert.Equal(t, []float64{4000, 12000, 30000}, weightsOf(fwd))
	assert.Equal(t, 367000.0, fwd.FinalWeight)

	// the as-given order is already the lowest final CG
	assert.InDelta(t, asGivenCG, aft.FinalCG, 0.001)
	assert.Equal(t, threeWeights, weightsOf(aft))
}

func TestFindDirectionalArrangementAttempts(t *testing.T) {
	res, err := FindDirectionalArrangement(context.Background(), threeProblem(), DirectionAft, 1, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Attempts)
	assert.Equal(t, threeWeights, weightsOf(res))
}

func TestFindDirectionalArrangementEdgeCases(t *testing.T) {
	ctx := context.Background()

	_, err := FindDirectionalArrangement(ctx, threeProblem(), Direction("up"), 10, nil)
	assert.Error(t, err)

	res, err := FindDirectionalArrangement(ctx, emptyProblem(), DirectionForward, 10, nil)
	require.NoError(t, err)
	assert.False(t, res.Found)
	assert.Empty(t, res.Arrangement)

	res, err = FindDirectionalArrangement(ctx, pairProblem(0, 0), DirectionForward, 10, nil)
	require.NoError(t, err)
	assert.False(t, res.Found)
	assert.Len(t, res.Arrangement, 2)
	assert.Equal(t, 10, res.Attempts)
}

func TestFindDirectionalArrangementCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := FindDirectionalArrangement(ctx, threeProblem(), DirectionForward, 10, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, res.Found)
	assert.Equal(t, threeWeights, weightsOf(res))
}

func weightsOf(res DirectionalResult) []float64 {
	out := make([]float64, len(res.Arrangement))
	for i, item := range res.Arrangement {
		out[i] = item.Weight
	}
	return out
}
