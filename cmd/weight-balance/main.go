package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iwvelando/weight-balance/internal/config"
	"github.com/iwvelando/weight-balance/internal/history"
	"github.com/iwvelando/weight-balance/internal/logging"
	"github.com/iwvelando/weight-balance/internal/optimizer"
	"github.com/iwvelando/weight-balance/internal/registry"
	"github.com/iwvelando/weight-balance/pkg/constants"
	"github.com/iwvelando/weight-balance/pkg/validation"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	configLocation   string
	outputFormatFlag string
	logLevel         string

	rootCmd = &cobra.Command{
		Use:   "weight-balance",
		Short: "Aircraft weight and balance calculator and loading optimizer",
		Long: `weight-balance computes the centre of gravity trajectory of a loading
sequence, checks it against the certified envelope and searches for
loading orders that keep every step inside it.`,
		SilenceUsage: true,
	}
)

// app is the state shared by every subcommand once configuration and
// logging are initialized.
type app struct {
	conf         *config.Configuration
	logger       *zap.Logger
	outputFormat string
	registry     *registry.Registry
	store        historyStore
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configLocation, "config", constants.DefaultConfigFile, "path to configuration file")
	rootCmd.PersistentFlags().StringVar(&outputFormatFlag, "output-format", "", "type of output override: pretty, csv, json")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(computeCmd, optimizeCmd, windowCmd, directionCmd, rankCmd, serveCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadApp loads the configuration and logger. Failures before the logger
// exists are reported as a JSON line on stderr, everything after through
// logger.Fatal.
func loadApp() *app {
	conf, err := config.LoadConfiguration(configLocation)
	if err != nil {
		fmt.Fprintf(os.Stderr, "{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": %q}\n", configLocation, err.Error())
		os.Exit(1)
	}

	logger, err := logging.New(conf.Logging, logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": %q}\n", err.Error())
		os.Exit(1)
	}

	// Determine output format (CLI override takes precedence over config)
	outputFormat := conf.Output.Format
	if outputFormatFlag != "" {
		outputFormat = outputFormatFlag
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}

	if err := conf.Validate(); err != nil {
		logger.Fatal("invalid configuration",
			zap.String("op", "main"),
			zap.String("path", configLocation),
			zap.Error(err),
		)
	}

	// Validate configuration and display any warnings
	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	reg, err := conf.Registry()
	if err != nil {
		logger.Fatal("failed to build position registry",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	return &app{conf: conf, logger: logger, outputFormat: outputFormat, registry: reg}
}

// historyStore is what the commands need from a record store.
type historyStore interface {
	optimizer.Recorder
	history.Reader
	Close() error
}

// openHistory opens the configured store. Without a path, or with inMemory
// set, records only live for the duration of the process. The store stays
// attached to the app until close or fatal releases it.
func (a *app) openHistory() historyStore {
	if a.conf.Store.InMemory || a.conf.Store.Path == "" {
		a.logger.Debug("using in-memory optimization history",
			zap.String("op", "main.openHistory"),
		)
		a.store = history.NewMemory()
		return a.store
	}

	store, err := history.Open(history.ConfigFromStore(a.conf.Store, a.logger))
	if err != nil {
		a.fatal("failed to open optimization history",
			zap.String("op", "main.openHistory"),
			zap.String("path", a.conf.Store.Path),
			zap.Error(err),
		)
	}
	a.store = store
	return a.store
}

func (a *app) closeStore() {
	if a.store == nil {
		return
	}
	if err := a.store.Close(); err != nil {
		a.logger.Warn("failed to close optimization history",
			zap.String("op", "main.closeStore"),
			zap.Error(err),
		)
	}
	a.store = nil
}

func (a *app) close() {
	a.closeStore()
	_ = a.logger.Sync()
}

// fatal releases the history store before exiting; deferred calls do not run
// after logger.Fatal.
func (a *app) fatal(msg string, fields ...zap.Field) {
	a.closeStore()
	a.logger.Fatal(msg, fields...)
}
