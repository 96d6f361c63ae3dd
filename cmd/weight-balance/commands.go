package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/iwvelando/weight-balance/internal/balance"
	"github.com/iwvelando/weight-balance/internal/config"
	"github.com/iwvelando/weight-balance/internal/logging"
	"github.com/iwvelando/weight-balance/internal/optimizer"
	"github.com/iwvelando/weight-balance/internal/ranking"
	"github.com/iwvelando/weight-balance/internal/server"
	"github.com/iwvelando/weight-balance/pkg/constants"
	"github.com/iwvelando/weight-balance/pkg/output"
)

// loadFlags are shared by every command that takes a loading.
type loadFlags struct {
	variant  string
	pattern  string
	weights  []float64
	items    []string
	fuel     float64
	targetCG float64
	method   string
	seed     int64
	testFill bool
}

var (
	computeFlags   loadFlags
	optimizeFlags  loadFlags
	windowFlags    loadFlags
	directionFlags loadFlags

	directionName        string
	serverConfigLocation string
	listenAddress        string

	computeCmd = &cobra.Command{
		Use:   "compute",
		Short: "Compute the CG trajectory of a loading sequence",
		Example: `  weight-balance compute --variant 777-300ER --items AL=6000,AR=6500
  weight-balance compute --pattern forward --weights 6000,6500,7000 --fuel 75000`,
		Args: cobra.NoArgs,
		Run:  runCompute,
	}

	optimizeCmd = &cobra.Command{
		Use:   "optimize",
		Short: "Search for a loading order that stays inside the envelope",
		Args:  cobra.NoArgs,
		Run:   runOptimize,
	}

	windowCmd = &cobra.Command{
		Use:   "window",
		Short: "Estimate the range of final CG reachable by reordering the weights",
		Args:  cobra.NoArgs,
		Run:   runWindow,
	}

	directionCmd = &cobra.Command{
		Use:   "direction",
		Short: "Find the most forward or most aft loading order",
		Args:  cobra.NoArgs,
		Run:   runDirection,
	}

	rankCmd = &cobra.Command{
		Use:   "rank",
		Short: "Rank loading patterns from the optimization history",
		Args:  cobra.NoArgs,
		Run:   runRank,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the weight and balance HTTP API",
		Args:  cobra.NoArgs,
		Run:   runServe,
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
)

func addLoadFlags(cmd *cobra.Command, f *loadFlags, defaultPattern string) {
	cmd.Flags().StringVar(&f.variant, "variant", "", "aircraft variant (defaults to the first configured)")
	cmd.Flags().StringVar(&f.pattern, "pattern", defaultPattern, "loading pattern name")
	cmd.Flags().Float64SliceVar(&f.weights, "weights", nil, "item weights in pattern order")
	cmd.Flags().Float64Var(&f.fuel, "fuel", 0, "fuel weight added after the last item")
	cmd.Flags().Int64Var(&f.seed, "seed", 0, "random seed override")
	cmd.Flags().BoolVar(&f.testFill, "test-fill", false, "generate random weights for the whole pattern when --weights is empty")
}

func init() {
	addLoadFlags(computeCmd, &computeFlags, "")
	computeCmd.Flags().StringSliceVar(&computeFlags.items, "items", nil, "explicit items as POSITION=WEIGHT, applied in order")

	addLoadFlags(optimizeCmd, &optimizeFlags, "default")
	optimizeCmd.Flags().StringVar(&optimizeFlags.method, "method", string(optimizer.MethodLocal), "strategy: local, pso, bounded or compare")
	optimizeCmd.Flags().Float64Var(&optimizeFlags.targetCG, "target-cg", 0, "steer the final CG toward this %MAC")

	addLoadFlags(windowCmd, &windowFlags, "default")

	addLoadFlags(directionCmd, &directionFlags, "default")
	directionCmd.Flags().StringVar(&directionName, "direction", string(optimizer.DirectionForward), "forward or aft")

	serveCmd.Flags().StringVar(&serverConfigLocation, "server-config", constants.DefaultServerConfigFile, "path to server configuration file")
	serveCmd.Flags().StringVar(&listenAddress, "address", "", "listen address override")
}

// parseItems reads POSITION=WEIGHT pairs.
func parseItems(raw []string) ([]balance.WeightItem, error) {
	items := make([]balance.WeightItem, 0, len(raw))
	for _, entry := range raw {
		code, weightStr, ok := strings.Cut(entry, "=")
		code = strings.TrimSpace(code)
		if !ok || code == "" {
			return nil, fmt.Errorf("invalid item %q: expected POSITION=WEIGHT", entry)
		}
		weight, err := strconv.ParseFloat(strings.TrimSpace(weightStr), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid weight in item %q: %w", entry, err)
		}
		if weight < 0 {
			return nil, fmt.Errorf("invalid weight in item %q: must not be negative", entry)
		}
		items = append(items, balance.WeightItem{Position: balance.PositionCode(code), Weight: weight})
	}
	return items, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func (a *app) variant(name string) *balance.Variant {
	if name == "" && len(a.conf.Aircraft) > 0 {
		name = a.conf.Aircraft[0].Name
	}
	v, err := a.conf.Variant(name)
	if err != nil {
		a.fatal("failed to resolve aircraft variant",
			zap.String("op", "main.variant"),
			zap.Error(err),
		)
	}
	return v
}

func (a *app) pattern(name string) config.PatternConfig {
	p, err := a.conf.Pattern(name)
	if err != nil {
		a.fatal("failed to resolve loading pattern",
			zap.String("op", "main.pattern"),
			zap.Error(err),
		)
	}
	return p
}

// request builds an optimizer request from the command flags.
func (a *app) request(cmd *cobra.Command, f loadFlags) optimizer.Request {
	p := a.pattern(f.pattern)
	req := optimizer.Request{
		Pattern:    p.Name,
		Variant:    a.variant(f.variant),
		Arms:       a.registry,
		Weights:    f.weights,
		Method:     optimizer.Method(f.method),
		FuelWeight: f.fuel,
	}
	if cmd.Flags().Changed("seed") {
		seed := f.seed
		req.Seed = &seed
	}
	if cmd.Flags().Changed("target-cg") {
		target := f.targetCG
		req.TargetCG = &target
	}
	if len(req.Weights) == 0 && f.testFill {
		seed := a.conf.Optimizer.Seed
		if req.Seed != nil {
			seed = *req.Seed
		}
		req.Weights = optimizer.RandomWeights(len(p.Sequence), 0, 0, optimizer.NewRand(seed))
		a.logger.Info("generated test-fill weights",
			zap.String("op", "main.request"),
			zap.String("pattern", p.Name),
			zap.Float64s("weights", req.Weights),
		)
	}
	req.Positions = p.Prefix(len(req.Weights))
	return req
}

func (a *app) newRunner(opts ...optimizer.Option) *optimizer.Runner {
	runner, err := optimizer.NewRunner(a.logger, optimizer.SettingsFromConfig(a.conf.Optimizer), opts...)
	if err != nil {
		a.fatal("failed to initialize optimizer",
			zap.String("op", "main.newRunner"),
			zap.Error(err),
		)
	}
	return runner
}

func (a *app) render(op string, err error) {
	if err != nil {
		a.fatal("failed to write output",
			zap.String("op", op),
			zap.Error(err),
		)
	}
}

func runCompute(cmd *cobra.Command, args []string) {
	const op = "main.runCompute"
	a := loadApp()
	defer a.close()

	v := a.variant(computeFlags.variant)

	var items []balance.WeightItem
	switch {
	case len(computeFlags.items) > 0:
		parsed, err := parseItems(computeFlags.items)
		if err != nil {
			a.fatal("failed to parse items",
				zap.String("op", op),
				zap.Error(err),
			)
		}
		items = parsed
	case computeFlags.pattern != "":
		weights := computeFlags.weights
		p := a.pattern(computeFlags.pattern)
		if len(weights) == 0 && computeFlags.testFill {
			weights = optimizer.RandomWeights(len(p.Sequence), 0, 0, optimizer.NewRand(computeFlags.seed))
		}
		items = balance.Pair(weights, p.Codes())
	default:
		a.fatal("either --items or --pattern is required",
			zap.String("op", op),
		)
	}

	traj := balance.ComputeTrajectory(items, v, a.registry)
	for _, warning := range traj.Warnings() {
		a.logger.Warn(warning,
			zap.String("op", op),
		)
	}

	traj, err := traj.WithFuel(computeFlags.fuel, v)
	if err != nil {
		a.fatal("failed to add fuel",
			zap.String("op", op),
			zap.Error(err),
		)
	}

	a.render(op, output.Trajectory(cmd.OutOrStdout(), a.outputFormat, "Loading for "+v.Name, traj, v))
}

func runOptimize(cmd *cobra.Command, args []string) {
	const op = "main.runOptimize"
	a := loadApp()
	store := a.openHistory()
	defer a.close()

	req := a.request(cmd, optimizeFlags)
	runner := a.newRunner(optimizer.WithRecorder(store))

	ctx, stop := signalContext()
	defer stop()

	out, err := runner.Optimize(ctx, req)
	if err != nil {
		if out == nil {
			a.fatal("optimization failed",
				zap.String("op", op),
				zap.Error(err),
			)
		}
		a.logger.Warn("optimization interrupted, showing best arrangement so far",
			zap.String("op", op),
			zap.Error(err),
		)
	}

	a.render(op, output.Optimization(cmd.OutOrStdout(), a.outputFormat, out, req.Variant))
}

func runWindow(cmd *cobra.Command, args []string) {
	const op = "main.runWindow"
	a := loadApp()
	defer a.close()

	req := a.request(cmd, windowFlags)
	runner := a.newRunner()

	ctx, stop := signalContext()
	defer stop()

	window, err := runner.Window(ctx, req)
	if err != nil {
		a.fatal("failed to estimate opportunity window",
			zap.String("op", op),
			zap.Error(err),
		)
	}

	a.render(op, output.Window(cmd.OutOrStdout(), a.outputFormat, window))
}

func runDirection(cmd *cobra.Command, args []string) {
	const op = "main.runDirection"
	a := loadApp()
	defer a.close()

	req := a.request(cmd, directionFlags)
	runner := a.newRunner()

	ctx, stop := signalContext()
	defer stop()

	res, err := runner.Direction(ctx, req, optimizer.Direction(directionName))
	if err != nil {
		a.fatal("directional search failed",
			zap.String("op", op),
			zap.String("direction", directionName),
			zap.Error(err),
		)
	}

	a.render(op, output.Direction(cmd.OutOrStdout(), a.outputFormat, res))
}

func runRank(cmd *cobra.Command, args []string) {
	const op = "main.runRank"
	a := loadApp()
	store := a.openHistory()
	defer a.close()

	records, err := store.List(cmd.Context(), "")
	if err != nil {
		a.fatal("failed to read optimization history",
			zap.String("op", op),
			zap.Error(err),
		)
	}

	entries := ranking.Build(a.logger, records, a.conf.PatternRatings())
	analytics := ranking.Summarize(entries, records)

	a.render(op, output.Rankings(cmd.OutOrStdout(), a.outputFormat, entries, analytics))
}

func runServe(cmd *cobra.Command, args []string) {
	const op = "main.runServe"
	a := loadApp()

	serverCfg, err := server.LoadConfig(serverConfigLocation)
	if err != nil {
		a.fatal("failed to load server configuration",
			zap.String("op", op),
			zap.String("path", serverConfigLocation),
			zap.Error(err),
		)
	}
	if listenAddress != "" {
		serverCfg.Address = listenAddress
	}

	// The server config may carry its own logging section
	if serverCfg.Logging != (config.LoggingConfig{}) {
		logger, err := logging.New(serverCfg.Logging, logLevel)
		if err != nil {
			a.fatal("failed to initialize server logger",
				zap.String("op", op),
				zap.Error(err),
			)
		}
		_ = a.logger.Sync()
		a.logger = logger
	}

	store := a.openHistory()
	defer a.close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	runner := a.newRunner(
		optimizer.WithRecorder(store),
		optimizer.WithMetrics(optimizer.NewMetrics(reg)),
	)

	handler, err := server.NewHandler(a.logger, server.Options{
		Config:      a.conf,
		Runner:      runner,
		History:     store,
		Gatherer:    reg,
		MaxBodySize: serverCfg.BodySizeBytes(),
		Version:     version,
	})
	if err != nil {
		a.fatal("failed to initialize HTTP handler",
			zap.String("op", op),
			zap.Error(err),
		)
	}

	srv := &http.Server{
		Addr:              serverCfg.Address,
		Handler:           handler,
		ReadHeaderTimeout: serverCfg.ReadHeaderTimeout,
	}

	ctx, stop := signalContext()
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("starting HTTP server",
			zap.String("op", op),
			zap.String("address", serverCfg.Address),
			zap.Int64("maxBodySize", serverCfg.BodySizeBytes()),
			zap.String("version", version),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), serverCfg.ShutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server",
			zap.String("op", op),
		)
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		a.logger.Error("HTTP server stopped with error",
			zap.String("op", op),
			zap.Error(err),
		)
	}
}
