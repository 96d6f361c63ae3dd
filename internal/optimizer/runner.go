package optimizer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/brunoga/deep"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/iwvelando/weight-balance/internal/balance"
	"github.com/iwvelando/weight-balance/internal/config"
	"github.com/iwvelando/weight-balance/pkg/optimization"
)

// ErrUnknownMethod is returned for an unrecognized strategy name.
var ErrUnknownMethod = errors.New("unknown optimization method")

// Recorder receives a record for every completed optimization.
type Recorder interface {
	Record(ctx context.Context, rec optimization.Record) error
}

// Settings collects the strategy configuration used by a Runner.
type Settings struct {
	Seed              int64
	TimeBudget        time.Duration
	DirectionAttempts int
	Local             LocalConfig
	Swarm             SwarmConfig
	Bounded           BoundedConfig
}

// SettingsFromConfig converts the optimizer section of the configuration.
func SettingsFromConfig(c config.OptimizerConfig) Settings {
	oracle := OracleOptions{
		FinalPenalty:        c.FinalPenalty,
		IntermediatePenalty: c.IntermediatePenalty,
		SteeringWeight:      c.SteeringWeight,
		CacheSize:           c.CacheSize,
	}
	return Settings{
		Seed:              c.Seed,
		TimeBudget:        c.TimeBudget,
		DirectionAttempts: c.DirectionAttempts,
		Local:             LocalConfig{Trials: c.Trials, Oracle: oracle},
		Swarm: SwarmConfig{
			Particles:     c.Particles,
			MaxIterations: c.MaxIterations,
			Inertia:       c.Inertia,
			Cognitive:     c.Cognitive,
			Social:        c.Social,
			Oracle:        oracle,
		},
		Bounded: BoundedConfig{
			MaxCandidates: c.MaxCandidates,
			Sampling:      SamplingPolicy(c.Sampling),
			ReservoirScan: c.ReservoirScan,
			Oracle:        oracle,
		},
	}
}

// Request describes one optimization, window or direction query.
type Request struct {
	Pattern    string
	Positions  []balance.PositionCode
	Variant    *balance.Variant
	Arms       balance.ArmResolver
	Weights    []float64
	Method     Method
	TargetCG   *float64
	FuelWeight float64
	Seed       *int64
}

// Outcome is a Runner optimization result with its trajectories and the
// record handed to the recorder.
type Outcome struct {
	Result       Result              `json:"result"`
	Alternatives []Result            `json:"alternatives,omitempty"`
	Initial      balance.Trajectory  `json:"initial"`
	Final        balance.Trajectory  `json:"final"`
	Record       optimization.Record `json:"record"`
	Warnings     []string            `json:"warnings,omitempty"`
}

// Runner applies settings, time budgets, recording and metrics around the
// strategies.
type Runner struct {
	logger   *zap.Logger
	settings Settings
	recorder Recorder
	metrics  *Metrics
	now      func() time.Time
}

// Option customizes a Runner.
type Option func(*Runner)

// WithRecorder sets the sink for optimization records.
func WithRecorder(rec Recorder) Option {
	return func(r *Runner) { r.recorder = rec }
}

// WithMetrics sets the metrics collectors.
func WithMetrics(m *Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// NewRunner constructs a Runner for the provided settings.
func NewRunner(logger *zap.Logger, settings Settings, opts ...Option) (*Runner, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	settings.Local = settings.Local.withDefaults()
	settings.Swarm = settings.Swarm.withDefaults()
	settings.Bounded = settings.Bounded.withDefaults()
	if settings.Bounded.Sampling != SamplingPrefix && settings.Bounded.Sampling != SamplingReservoir {
		return nil, fmt.Errorf("unknown sampling policy %q", settings.Bounded.Sampling)
	}
	if settings.TimeBudget < 0 {
		return nil, fmt.Errorf("time budget cannot be negative: %v", settings.TimeBudget)
	}

	r := &Runner{logger: logger, settings: settings, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Settings returns the effective settings.
func (r *Runner) Settings() Settings {
	return r.settings
}

// prepare snapshots the variant and builds the problem for req.
func (r *Runner) prepare(req Request) (Problem, error) {
	if req.Variant == nil {
		return Problem{}, fmt.Errorf("%w: variant is required", balance.ErrInvalidVariant)
	}
	variant, err := deep.Copy(*req.Variant)
	if err != nil {
		return Problem{}, fmt.Errorf("snapshot variant %s: %w", req.Variant.Name, err)
	}
	if err := variant.Validate(); err != nil {
		return Problem{}, err
	}
	p := Problem{
		Variant: &variant,
		Arms:    req.Arms,
		Pattern: req.Positions,
		Weights: append([]float64(nil), req.Weights...),
	}
	if err := p.validate(); err != nil {
		return Problem{}, err
	}
	return p, nil
}

func (r *Runner) rand(req Request) *rand.Rand {
	if req.Seed != nil {
		return NewRand(*req.Seed)
	}
	return NewRand(r.settings.Seed)
}

func (r *Runner) withBudget(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.settings.TimeBudget > 0 {
		return context.WithTimeout(ctx, r.settings.TimeBudget)
	}
	return context.WithCancel(ctx)
}

// budgetErr drops the error produced by the runner's own time budget; the
// strategies already returned their best result so far.
func budgetErr(parent context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) && parent.Err() == nil {
		return nil
	}
	return err
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (r *Runner) warnUnresolved(op string, traj balance.Trajectory) []string {
	unresolved := traj.Unresolved()
	for _, o := range unresolved {
		r.logger.Warn("position has no moment arm, item skipped",
			zap.String("op", op),
			zap.Int("index", o.Index),
			zap.String("position", string(o.Position)),
			zap.Float64("weight", o.Weight))
	}
	r.metrics.observeSkipped(len(unresolved))
	return traj.Warnings()
}

func (r *Runner) run(ctx context.Context, method Method, p Problem, opts OracleOptions, rng *rand.Rand) (Result, error) {
	switch method {
	case MethodLocal:
		cfg := r.settings.Local
		cfg.Oracle = mergeOracle(cfg.Oracle, opts)
		return RunLocalSearch(ctx, p, cfg, rng)
	case MethodSwarm:
		cfg := r.settings.Swarm
		cfg.Oracle = mergeOracle(cfg.Oracle, opts)
		return RunParticleSwarm(ctx, p, cfg, rng)
	case MethodBounded:
		cfg := r.settings.Bounded
		cfg.Oracle = mergeOracle(cfg.Oracle, opts)
		return RunBoundedSearch(ctx, p, cfg, rng)
	default:
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}
}

func mergeOracle(base, override OracleOptions) OracleOptions {
	if override.TargetCG != nil {
		base.TargetCG = override.TargetCG
	}
	return base
}

// compare runs every strategy concurrently, each on its own random stream,
// and returns the best result first.
func (r *Runner) compare(ctx context.Context, p Problem, opts OracleOptions, rng *rand.Rand) (Result, []Result, error) {
	results := make([]Result, len(Methods))
	streams := make([]*rand.Rand, len(Methods))
	for i := range Methods {
		streams[i] = deriveRand(rng, uint64(i))
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, method := range Methods {
		g.Go(func() error {
			res, err := r.run(gctx, method, p, opts, streams[i])
			results[i] = res
			return err
		})
	}
	err := g.Wait()
	if err != nil && !isContextErr(err) {
		return Result{}, nil, err
	}

	best := 0
	for i := 1; i < len(results); i++ {
		if better(results[i], results[best]) {
			best = i
		}
	}
	return results[best], results, err
}

// Optimize runs the requested strategy and records the outcome.
func (r *Runner) Optimize(ctx context.Context, req Request) (*Outcome, error) {
	const op = "optimizer.Optimize"
	start := r.now()

	p, err := r.prepare(req)
	if err != nil {
		return nil, err
	}
	if req.FuelWeight > 0 && len(p.Variant.FuelTable) == 0 {
		return nil, fmt.Errorf("variant %s: %w", p.Variant.Name, balance.ErrMissingFuelTable)
	}
	method := req.Method
	if method == "" {
		method = MethodLocal
	}

	out := &Outcome{}
	out.Initial = balance.ComputeTrajectory(p.Items(p.Weights), p.Variant, p.Arms)
	out.Warnings = r.warnUnresolved(op, out.Initial)

	runCtx, cancel := r.withBudget(ctx)
	defer cancel()
	rng := r.rand(req)
	opts := OracleOptions{TargetCG: req.TargetCG}

	var runErr error
	if method == MethodCompare {
		out.Result, out.Alternatives, runErr = r.compare(runCtx, p, opts, rng)
	} else {
		out.Result, runErr = r.run(runCtx, method, p, opts, rng)
	}
	if runErr != nil && !isContextErr(runErr) {
		return nil, runErr
	}
	runErr = budgetErr(ctx, runErr)

	optimized := balance.ComputeTrajectory(out.Result.Arrangement, p.Variant, p.Arms)
	out.Final, err = optimized.WithFuel(req.FuelWeight, p.Variant)
	if err != nil {
		return nil, err
	}
	elapsed := r.now().Sub(start)
	out.Record = r.buildRecord(req, p, out, optimized, elapsed)

	r.metrics.observeRun(out.Result, elapsed)
	r.logger.Info("optimization complete",
		zap.String("op", op),
		zap.String("pattern", req.Pattern),
		zap.String("variant", p.Variant.Name),
		zap.String("method", string(out.Result.Method)),
		zap.Bool("success", out.Result.Success),
		zap.Bool("feasible", out.Result.Feasible),
		zap.Float64("objective", out.Result.Objective),
		zap.Float64("initialCG", out.Record.InitialCG),
		zap.Float64("finalCG", out.Record.FinalCG),
		zap.Int("iterations", out.Result.Iterations),
		zap.String("stopped", string(out.Result.Stopped)),
		zap.Duration("elapsed", elapsed))

	if r.recorder != nil {
		if err := r.recorder.Record(ctx, out.Record); err != nil {
			r.logger.Warn("failed to record optimization",
				zap.String("op", op),
				zap.String("id", out.Record.ID),
				zap.Error(err))
		}
	}
	return out, runErr
}

func (r *Runner) buildRecord(req Request, p Problem, out *Outcome, optimized balance.Trajectory, elapsed time.Duration) optimization.Record {
	initialCG := out.Initial.Final().CG
	finalCG := optimized.Final().CG
	violations := 0
	for _, pt := range optimized.Points[1:] {
		if !p.Variant.Envelope.ContainsPoint(pt) {
			violations++
		}
	}
	return optimization.Record{
		ID:             uuid.NewString(),
		Pattern:        req.Pattern,
		Variant:        p.Variant.Name,
		Method:         string(out.Result.Method),
		InitialWeights: append([]float64(nil), p.Weights...),
		FinalWeights:   out.Result.Weights(),
		InitialCG:      initialCG,
		FinalCG:        finalCG,
		ElapsedMs:      float64(elapsed.Microseconds()) / 1000,
		ViolationCount: violations,
		Success:        out.Result.Success,
		FuelWeight:     math.Max(req.FuelWeight, 0),
		TotalWeight:    out.Final.Final().Weight,
		CGImprovement:  math.Abs(finalCG - initialCG),
		CreatedAt:      r.now().UTC(),
	}
}

// Window estimates the opportunity window for req.
func (r *Runner) Window(ctx context.Context, req Request) (Window, error) {
	const op = "optimizer.Window"
	p, err := r.prepare(req)
	if err != nil {
		return Window{}, err
	}
	r.warnUnresolved(op, balance.ComputeTrajectory(p.Items(p.Weights), p.Variant, p.Arms))

	runCtx, cancel := r.withBudget(ctx)
	defer cancel()
	w, err := EstimateOpportunityWindow(runCtx, p, r.rand(req))
	if err != nil && !isContextErr(err) {
		return Window{}, err
	}
	r.metrics.observeWindow(w)
	r.logger.Debug("opportunity window estimated",
		zap.String("op", op),
		zap.String("pattern", req.Pattern),
		zap.Float64("minCG", w.MinCG),
		zap.Float64("maxCG", w.MaxCG),
		zap.Bool("empty", w.Empty),
		zap.Int("candidates", w.Candidates))
	return w, budgetErr(ctx, err)
}

// Direction searches for the most forward or most aft arrangement.
func (r *Runner) Direction(ctx context.Context, req Request, dir Direction) (DirectionalResult, error) {
	const op = "optimizer.Direction"
	p, err := r.prepare(req)
	if err != nil {
		return DirectionalResult{}, err
	}
	r.warnUnresolved(op, balance.ComputeTrajectory(p.Items(p.Weights), p.Variant, p.Arms))

	runCtx, cancel := r.withBudget(ctx)
	defer cancel()
	res, err := FindDirectionalArrangement(runCtx, p, dir, r.settings.DirectionAttempts, r.rand(req))
	if err != nil && !isContextErr(err) {
		return DirectionalResult{}, err
	}
	r.logger.Debug("directional arrangement found",
		zap.String("op", op),
		zap.String("direction", string(dir)),
		zap.Float64("finalCG", res.FinalCG),
		zap.Int("attempts", res.Attempts))
	return res, budgetErr(ctx, err)
}
