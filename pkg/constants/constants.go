// Package constants provides shared constants for the weight-balance application.
package constants

import "time"

// Position codes with a fixed meaning in calculation rows.
const (
	// BaselinePosition labels the operating empty weight row
	BaselinePosition = "OEW"

	// FuelPosition labels the fuel extension row
	FuelPosition = "FUEL"
)

// Balance constants
const (
	// PercentageMultiplier converts an arm offset ratio into %MAC
	PercentageMultiplier = 100.0

	// DisplayPrecision is the precision used when rounding CG values for display (2 decimal places)
	DisplayPrecision = 100

	// CGTolerance is the tolerance for comparing CG values
	CGTolerance = 1e-9
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the machine-readable output format
	OutputFormatJSON = "json"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// ExampleConfigFile is the example configuration file name
	ExampleConfigFile = "config.yaml.example"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"

	// EnvPrefix is the prefix for environment variable overrides
	EnvPrefix = "WB"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the API
	DefaultServerAddress = ":8080"

	// DefaultMaxBodySizeBytes is the default maximum request body size (256 KB)
	DefaultMaxBodySizeBytes int64 = 256 * 1024

	// DefaultReadHeaderTimeout bounds how long a client may take to send headers
	DefaultReadHeaderTimeout = 10 * time.Second

	// DefaultShutdownTimeout is how long in-flight requests get on shutdown
	DefaultShutdownTimeout = 10 * time.Second
)

// Oracle defaults
const (
	// DefaultFinalPenalty is added when the final point leaves the envelope
	DefaultFinalPenalty = 1_000_000.0

	// DefaultIntermediatePenalty is added per intermediate point outside the envelope
	DefaultIntermediatePenalty = 1_000.0

	// DefaultSteeringWeight scales the distance between the final CG and the target
	DefaultSteeringWeight = 100.0

	// DefaultCacheSize bounds the number of memoized oracle evaluations
	DefaultCacheSize = 4096
)

// Optimizer defaults
const (
	// DefaultLocalSearchTrials is the number of shuffles tried by the local search
	DefaultLocalSearchTrials = 50

	// DefaultParticles is the particle swarm population size
	DefaultParticles = 20

	// DefaultSwarmIterations is the particle swarm iteration budget
	DefaultSwarmIterations = 50

	// DefaultInertia is the particle swarm inertia weight
	DefaultInertia = 0.7

	// DefaultCognitive is the particle swarm personal-best coefficient
	DefaultCognitive = 1.4

	// DefaultSocial is the particle swarm global-best coefficient
	DefaultSocial = 1.4

	// ConvergenceWindow is the number of iterations compared for early stopping
	ConvergenceWindow = 10

	// ConvergenceTolerance is the minimum global best change that keeps the swarm running
	ConvergenceTolerance = 0.001

	// DefaultMaxCandidates caps the bounded search permutation sequence
	DefaultMaxCandidates = 100

	// DefaultReservoirScanFactor multiplies MaxCandidates to get the reservoir scan length
	DefaultReservoirScanFactor = 10

	// DefaultDirectionAttempts is the number of arrangements tried by the direction search
	DefaultDirectionAttempts = 200

	// DirectionSortedAttempts is the number of direction attempts seeded from a sorted arrangement
	DirectionSortedAttempts = 50
)

// Opportunity window constants
const (
	// WindowCandidateCap is the maximum number of generated window candidates
	WindowCandidateCap = 100

	// WindowFactorialCap bounds n in factorial(n) when sizing the candidate set
	WindowFactorialCap = 7

	// WindowDescendingCandidates is the number of candidates seeded from a descending sort
	WindowDescendingCandidates = 20

	// WindowAscendingCandidates is the candidate index where ascending seeds stop
	WindowAscendingCandidates = 40
)

// Test fill bounds
const (
	// TestFillMinWeight is the inclusive lower bound of generated item weights
	TestFillMinWeight = 5000.0

	// TestFillMaxWeight is the exclusive upper bound of generated item weights
	TestFillMaxWeight = 8000.0
)

// Pattern ranking constants
const (
	// DefaultUserRating is the rating assumed for patterns without one
	DefaultUserRating = 3.0

	// MaxUserRating is the upper bound of a user rating
	MaxUserRating = 5.0

	// RecentActivityLimit is the number of records reported as recent activity
	RecentActivityLimit = 10
)
