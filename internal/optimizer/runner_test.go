package optimizer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/iwvelando/weight-balance/internal/balance"
	"github.com/iwvelando/weight-balance/internal/config"
	"github.com/iwvelando/weight-balance/pkg/optimization"
	"github.com/iwvelando/weight-balance/pkg/testutil"
)

type memoryRecorder struct {
	mu      sync.Mutex
	records []optimization.Record
	err     error
}

func (m *memoryRecorder) Record(_ context.Context, rec optimization.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, rec)
	return nil
}

func threeRequest(method Method) Request {
	return Request{
		Pattern:   "spread",
		Positions: threePattern,
		Variant:   testutil.VariantA(),
		Arms:      threeArms,
		Weights:   append([]float64(nil), threeWeights...),
		Method:    method,
	}
}

func newTestRunner(t *testing.T, settings Settings, opts ...Option) *Runner {
	t.Helper()
	r, err := NewRunner(zaptest.NewLogger(t), settings, opts...)
	require.NoError(t, err)
	return r
}

func TestRunnerOptimizeBounded(t *testing.T) {
	rec := &memoryRecorder{}
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r := newTestRunner(t, Settings{Seed: 1}, WithRecorder(rec), WithMetrics(metrics), WithClock(func() time.Time { return fixed }))

	out, err := r.Optimize(context.Background(), threeRequest(MethodBounded))
	require.NoError(t, err)

	assert.Equal(t, MethodBounded, out.Result.Method)
	assert.True(t, out.Result.Success)
	assert.Equal(t, feasibleOrder, out.Result.Weights())
	assert.Empty(t, out.Warnings)
	assert.InDelta(t, asGivenCG, out.Initial.Final().CG, 0.001)
	assert.InDelta(t, feasibleCG, out.Final.Final().CG, 0.001)

	require.Len(t, rec.records, 1)
	record := rec.records[0]
	assert.Equal(t, out.Record, record)
	assert.NotEmpty(t, record.ID)
	assert.Equal(t, "spread", record.Pattern)
	assert.Equal(t, "A", record.Variant)
	assert.Equal(t, "bounded", record.Method)
	assert.Equal(t, threeWeights, record.InitialWeights)
	assert.Equal(t, feasibleOrder, record.FinalWeights)
	assert.InDelta(t, asGivenCG, record.InitialCG, 0.001)
	assert.InDelta(t, feasibleCG, record.FinalCG, 0.001)
	assert.InDelta(t, feasibleCG-asGivenCG, record.CGImprovement, 0.002)
	assert.Equal(t, 0, record.ViolationCount)
	assert.True(t, record.Success)
	assert.Equal(t, 367000.0, record.TotalWeight)
	assert.Zero(t, record.FuelWeight)
	assert.Zero(t, record.ElapsedMs)
	assert.Equal(t, fixed, record.CreatedAt)

	assert.Equal(t, 1.0, promtest.ToFloat64(metrics.optimizations.WithLabelValues("bounded", "true")))
	assert.Equal(t, 1, promtest.CollectAndCount(metrics.duration))
}

func TestRunnerOptimizeWithFuel(t *testing.T) {
	r := newTestRunner(t, Settings{Seed: 1})
	req := threeRequest(MethodBounded)
	req.FuelWeight = 75000

	out, err := r.Optimize(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 442000.0, out.Final.Final().Weight)
	assert.Equal(t, 442000.0, out.Record.TotalWeight)
	assert.Equal(t, 75000.0, out.Record.FuelWeight)
	assert.InDelta(t, feasibleCG, out.Record.FinalCG, 0.001, "final CG is measured before fuel")
}

func TestRunnerOptimizeMissingFuelTable(t *testing.T) {
	r := newTestRunner(t, Settings{})
	req := threeRequest(MethodLocal)
	req.Variant.FuelTable = nil
	req.FuelWeight = 1000

	_, err := r.Optimize(context.Background(), req)
	assert.ErrorIs(t, err, balance.ErrMissingFuelTable)
}

func TestRunnerOptimizeCompare(t *testing.T) {
	r := newTestRunner(t, Settings{Seed: 4})

	out, err := r.Optimize(context.Background(), threeRequest(MethodCompare))
	require.NoError(t, err)

	require.Len(t, out.Alternatives, len(Methods))
	for i, alt := range out.Alternatives {
		assert.Equal(t, Methods[i], alt.Method)
		assert.False(t, better(alt, out.Result), "%s beats the chosen result", alt.Method)
	}
	assert.True(t, out.Result.Success)
	assert.True(t, out.Result.Feasible)
	assert.Equal(t, feasibleOrder, out.Result.Weights())
}

func TestRunnerOptimizeDefaultsToLocal(t *testing.T) {
	r := newTestRunner(t, Settings{Seed: 1})

	out, err := r.Optimize(context.Background(), threeRequest(""))
	require.NoError(t, err)
	assert.Equal(t, MethodLocal, out.Result.Method)
}

func TestRunnerOptimizeUnknownMethod(t *testing.T) {
	r := newTestRunner(t, Settings{})

	_, err := r.Optimize(context.Background(), threeRequest("annealing"))
	assert.ErrorIs(t, err, ErrUnknownMethod)
}

func TestRunnerOptimizeInvalidRequest(t *testing.T) {
	r := newTestRunner(t, Settings{})

	req := threeRequest(MethodLocal)
	req.Variant = nil
	_, err := r.Optimize(context.Background(), req)
	assert.ErrorIs(t, err, balance.ErrInvalidVariant)

	req = threeRequest(MethodLocal)
	req.Weights = req.Weights[:1]
	_, err = r.Optimize(context.Background(), req)
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestRunnerDoesNotMutateVariant(t *testing.T) {
	r := newTestRunner(t, Settings{Seed: 1})
	req := threeRequest(MethodBounded)
	before := *testutil.VariantA()

	_, err := r.Optimize(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, before, *req.Variant)
}

func TestRunnerRecorderFailureIsNotFatal(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	rec := &memoryRecorder{err: errors.New("disk full")}
	r, err := NewRunner(zap.New(core), Settings{Seed: 1}, WithRecorder(rec))
	require.NoError(t, err)

	out, err := r.Optimize(context.Background(), threeRequest(MethodBounded))
	require.NoError(t, err)
	assert.True(t, out.Result.Success)

	entries := logs.FilterMessage("failed to record optimization").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "optimizer.Optimize", entries[0].ContextMap()["op"])
}

func TestRunnerUnresolvedPositions(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	metrics := NewMetrics(prometheus.NewRegistry())
	r, err := NewRunner(zap.New(core), Settings{Seed: 1}, WithMetrics(metrics))
	require.NoError(t, err)

	req := threeRequest(MethodLocal)
	req.Positions = []balance.PositionCode{"X1", "ZZ", "X3"}

	out, err := r.Optimize(context.Background(), req)
	require.NoError(t, err)

	assert.Len(t, out.Warnings, 1)
	assert.Equal(t, 1, logs.FilterMessage("position has no moment arm, item skipped").Len())
	assert.Equal(t, 1.0, promtest.ToFloat64(metrics.skipped))
}

func TestRunnerTimeBudget(t *testing.T) {
	r := newTestRunner(t, Settings{Seed: 1, TimeBudget: time.Nanosecond})

	out, err := r.Optimize(context.Background(), threeRequest(MethodSwarm))
	require.NoError(t, err, "expiry of the runner's own budget is not an error")
	require.NotNil(t, out)
	assert.Equal(t, MethodSwarm, out.Result.Method)
}

func TestRunnerCallerCancellation(t *testing.T) {
	r := newTestRunner(t, Settings{Seed: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := r.Optimize(ctx, threeRequest(MethodLocal))
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, out)
	assert.Equal(t, StopCanceled, out.Result.Stopped)
	assert.Equal(t, threeWeights, out.Result.Weights())
}

func TestRunnerRequestSeedIsReproducible(t *testing.T) {
	r := newTestRunner(t, Settings{})
	seed := int64(42)
	req := threeRequest(MethodSwarm)
	req.Seed = &seed

	first, err := r.Optimize(context.Background(), req)
	require.NoError(t, err)
	second, err := r.Optimize(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.Result, second.Result)
}

func TestRunnerWindowAndDirection(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())
	r := newTestRunner(t, Settings{Seed: 1}, WithMetrics(metrics))
	ctx := context.Background()

	w, err := r.Window(ctx, threeRequest(""))
	require.NoError(t, err)
	assert.False(t, w.Empty)
	assert.Equal(t, 1.0, promtest.ToFloat64(metrics.windows.WithLabelValues("false")))

	fwd, err := r.Direction(ctx, threeRequest(""), DirectionForward)
	require.NoError(t, err)
	aft, err := r.Direction(ctx, threeRequest(""), DirectionAft)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, fwd.FinalCG, aft.FinalCG)
	assert.LessOrEqual(t, aft.FinalCG, w.MinCG+1e-9)

	_, err = r.Direction(ctx, threeRequest(""), Direction("sideways"))
	assert.Error(t, err)
}

func TestNewRunnerValidation(t *testing.T) {
	_, err := NewRunner(nil, Settings{Bounded: BoundedConfig{Sampling: "random"}})
	assert.Error(t, err)

	_, err = NewRunner(nil, Settings{TimeBudget: -time.Second})
	assert.Error(t, err)

	r, err := NewRunner(nil, Settings{})
	require.NoError(t, err)
	s := r.Settings()
	assert.Equal(t, 50, s.Local.Trials)
	assert.Equal(t, 20, s.Swarm.Particles)
	assert.Equal(t, SamplingPrefix, s.Bounded.Sampling)
}

func TestSettingsFromConfig(t *testing.T) {
	c := config.OptimizerConfig{
		Seed:              9,
		TimeBudget:        time.Second,
		Trials:            7,
		Particles:         11,
		MaxCandidates:     30,
		Sampling:          config.OptimizerSamplingReservoir,
		FinalPenalty:      5e5,
		DirectionAttempts: 25,
	}
	s := SettingsFromConfig(c)

	assert.Equal(t, int64(9), s.Seed)
	assert.Equal(t, time.Second, s.TimeBudget)
	assert.Equal(t, 25, s.DirectionAttempts)
	assert.Equal(t, 7, s.Local.Trials)
	assert.Equal(t, 11, s.Swarm.Particles)
	assert.Equal(t, 30, s.Bounded.MaxCandidates)
	assert.Equal(t, SamplingReservoir, s.Bounded.Sampling)
	assert.Equal(t, 5e5, s.Local.Oracle.FinalPenalty)
	assert.Equal(t, 5e5, s.Bounded.Oracle.FinalPenalty)
}

func TestRandomWeights(t *testing.T) {
	weights := RandomWeights(25, 0, 0, NewRand(1))
	require.Len(t, weights, 25)
	for _, w := range weights {
		assert.GreaterOrEqual(t, w, 5000.0)
		assert.Less(t, w, 8000.0)
		assert.Equal(t, float64(int64(w)), w)
	}

	assert.Equal(t, RandomWeights(5, 100, 200, NewRand(7)), RandomWeights(5, 100, 200, NewRand(7)))
	assert.Empty(t, RandomWeights(0, 0, 0, nil))
}

func TestDeriveRandStreamsDiffer(t *testing.T) {
	base := NewRand(1)
	a := deriveRand(base, 0)
	b := deriveRand(base, 1)
	assert.NotEqual(t, a.Int63(), b.Int63())

	assert.Equal(t, deriveSeed(5, 2), deriveSeed(5, 2))
	assert.NotEqual(t, deriveSeed(5, 2), deriveSeed(5, 3))
}
