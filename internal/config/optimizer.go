package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/iwvelando/weight-balance/pkg/constants"
)

const (
	OptimizerMethodLocal   = "local"
	OptimizerMethodSwarm   = "pso"
	OptimizerMethodBounded = "bounded"
	OptimizerMethodCompare = "compare"

	OptimizerSamplingPrefix    = "prefix"
	OptimizerSamplingReservoir = "reservoir"
)

// OptimizerConfig holds the strategy settings shared by every run.
type OptimizerConfig struct {
	Method              string        `yaml:"method,omitempty" mapstructure:"method"`
	Seed                int64         `yaml:"seed,omitempty" mapstructure:"seed"`
	TimeBudget          time.Duration `yaml:"timeBudget,omitempty" mapstructure:"timeBudget"`
	Trials              int           `yaml:"trials,omitempty" mapstructure:"trials"`
	Particles           int           `yaml:"particles,omitempty" mapstructure:"particles"`
	MaxIterations       int           `yaml:"maxIterations,omitempty" mapstructure:"maxIterations"`
	Inertia             float64       `yaml:"inertia,omitempty" mapstructure:"inertia"`
	Cognitive           float64       `yaml:"cognitive,omitempty" mapstructure:"cognitive"`
	Social              float64       `yaml:"social,omitempty" mapstructure:"social"`
	MaxCandidates       int           `yaml:"maxCandidates,omitempty" mapstructure:"maxCandidates"`
	Sampling            string        `yaml:"sampling,omitempty" mapstructure:"sampling"`
	ReservoirScan       int           `yaml:"reservoirScan,omitempty" mapstructure:"reservoirScan"`
	FinalPenalty        float64       `yaml:"finalPenalty,omitempty" mapstructure:"finalPenalty"`
	IntermediatePenalty float64       `yaml:"intermediatePenalty,omitempty" mapstructure:"intermediatePenalty"`
	SteeringWeight      float64       `yaml:"steeringWeight,omitempty" mapstructure:"steeringWeight"`
	CacheSize           int           `yaml:"cacheSize,omitempty" mapstructure:"cacheSize"`
	DirectionAttempts   int           `yaml:"directionAttempts,omitempty" mapstructure:"directionAttempts"`
}

// Normalize ensures defaults and canonical values are applied before validation.
func (o *OptimizerConfig) Normalize() {
	if o == nil {
		return
	}
	o.Method = strings.ToLower(strings.TrimSpace(o.Method))
	if o.Method == "" {
		o.Method = OptimizerMethodLocal
	}
	o.Sampling = strings.ToLower(strings.TrimSpace(o.Sampling))
	if o.Sampling == "" {
		o.Sampling = OptimizerSamplingPrefix
	}

	if o.Trials <= 0 {
		o.Trials = constants.DefaultLocalSearchTrials
	}
	if o.Particles <= 0 {
		o.Particles = constants.DefaultParticles
	}
	if o.MaxIterations <= 0 {
		o.MaxIterations = constants.DefaultSwarmIterations
	}
	if o.Inertia <= 0 {
		o.Inertia = constants.DefaultInertia
	}
	if o.Cognitive <= 0 {
		o.Cognitive = constants.DefaultCognitive
	}
	if o.Social <= 0 {
		o.Social = constants.DefaultSocial
	}
	if o.MaxCandidates <= 0 {
		o.MaxCandidates = constants.DefaultMaxCandidates
	}
	if o.ReservoirScan < o.MaxCandidates {
		o.ReservoirScan = o.MaxCandidates * constants.DefaultReservoirScanFactor
	}
	if o.FinalPenalty <= 0 {
		o.FinalPenalty = constants.DefaultFinalPenalty
	}
	if o.IntermediatePenalty <= 0 {
		o.IntermediatePenalty = constants.DefaultIntermediatePenalty
	}
	if o.SteeringWeight <= 0 {
		o.SteeringWeight = constants.DefaultSteeringWeight
	}
	if o.CacheSize <= 0 {
		o.CacheSize = constants.DefaultCacheSize
	}
	if o.DirectionAttempts <= 0 {
		o.DirectionAttempts = constants.DefaultDirectionAttempts
	}
}

// Validate returns an error when the optimizer configuration is unsupported.
func (o *OptimizerConfig) Validate() error {
	if o == nil {
		return fmt.Errorf("optimizer configuration cannot be nil")
	}

	o.Normalize()

	switch o.Method {
	case OptimizerMethodLocal, OptimizerMethodSwarm, OptimizerMethodBounded, OptimizerMethodCompare:
		// supported methods
	default:
		return fmt.Errorf("optimizer method %q is not supported", o.Method)
	}
	switch o.Sampling {
	case OptimizerSamplingPrefix, OptimizerSamplingReservoir:
	default:
		return fmt.Errorf("optimizer sampling %q is not supported", o.Sampling)
	}
	if o.TimeBudget < 0 {
		return fmt.Errorf("optimizer timeBudget cannot be negative")
	}
	if o.FinalPenalty <= o.IntermediatePenalty {
		return fmt.Errorf("optimizer finalPenalty (%v) must exceed intermediatePenalty (%v)",
			o.FinalPenalty, o.IntermediatePenalty)
	}
	return nil
}
