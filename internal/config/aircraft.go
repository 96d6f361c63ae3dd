package config

import (
	"strings"

	"github.com/iwvelando/weight-balance/internal/balance"
)

// AircraftConfig holds the reference data of one aircraft variant.
type AircraftConfig struct {
	Name      string             `yaml:"name" validate:"required"`
	RefArm    float64            `yaml:"refArm" mapstructure:"refArm" validate:"gt=0"`
	MACLength float64            `yaml:"macLength" mapstructure:"macLength" validate:"gt=0"`
	CenterCG  float64            `yaml:"centerCG" mapstructure:"centerCG"`
	Baseline  BaselineConfig     `yaml:"baseline"`
	Envelope  EnvelopeConfig     `yaml:"envelope"`
	FuelTable []FuelSampleConfig `yaml:"fuelTable,omitempty" mapstructure:"fuelTable" validate:"dive"`
}

// BaselineConfig is the operating empty weight and moment.
type BaselineConfig struct {
	Weight float64 `yaml:"weight" validate:"gt=0"`
	Moment float64 `yaml:"moment" validate:"gt=0"`
}

// BoundsConfig is the global CG/weight rectangle.
type BoundsConfig struct {
	MinCG     float64 `yaml:"minCG" mapstructure:"minCG"`
	MaxCG     float64 `yaml:"maxCG" mapstructure:"maxCG" validate:"gtfield=MinCG"`
	MinWeight float64 `yaml:"minWeight" mapstructure:"minWeight" validate:"gte=0"`
	MaxWeight float64 `yaml:"maxWeight" mapstructure:"maxWeight" validate:"gtfield=MinWeight"`
}

// PointConfig is a polyline vertex.
type PointConfig struct {
	CG     float64 `yaml:"cg"`
	Weight float64 `yaml:"weight" validate:"gte=0"`
}

// CurveConfig is a named polyline.
type CurveConfig struct {
	Name   string        `yaml:"name" validate:"required"`
	Points []PointConfig `yaml:"points" validate:"min=2,dive"`
}

// EnvelopeConfig describes the certified envelope.
type EnvelopeConfig struct {
	Bounds            BoundsConfig  `yaml:"bounds"`
	DefaultMaxWeight  float64       `yaml:"defaultMaxWeight,omitempty" mapstructure:"defaultMaxWeight" validate:"gte=0"`
	DefaultMinWeight  float64       `yaml:"defaultMinWeight,omitempty" mapstructure:"defaultMinWeight" validate:"gte=0"`
	BasicGrid         []PointConfig `yaml:"basicGrid" mapstructure:"basicGrid" validate:"required,min=2,dive"`
	DoNotOperate      []PointConfig `yaml:"doNotOperate,omitempty" mapstructure:"doNotOperate" validate:"dive"`
	MaxLandingWeight  []PointConfig `yaml:"maxLandingWeight,omitempty" mapstructure:"maxLandingWeight" validate:"dive"`
	MaxZeroFuelWeight []PointConfig `yaml:"maxZeroFuelWeight,omitempty" mapstructure:"maxZeroFuelWeight" validate:"dive"`
	MaxTaxiWeight     []PointConfig `yaml:"maxTaxiWeight,omitempty" mapstructure:"maxTaxiWeight" validate:"dive"`
	AltForwardLimits  []CurveConfig `yaml:"altForwardLimits,omitempty" mapstructure:"altForwardLimits" validate:"dive"`
}

// FuelSampleConfig is one fuel calibration point.
type FuelSampleConfig struct {
	Weight float64 `yaml:"weight" validate:"gte=0"`
	Arm    float64 `yaml:"arm" validate:"gt=0"`
}

func (a *AircraftConfig) normalize() {
	a.Name = strings.TrimSpace(a.Name)
	env := &a.Envelope
	if env.DefaultMaxWeight == 0 {
		env.DefaultMaxWeight = env.Bounds.MaxWeight
	}
	if env.DefaultMinWeight == 0 {
		env.DefaultMinWeight = env.Bounds.MinWeight
	}
	if a.CenterCG == 0 {
		a.CenterCG = (env.Bounds.MinCG + env.Bounds.MaxCG) / 2
	}
}

func toPoints(in []PointConfig) []balance.EnvelopePoint {
	if len(in) == 0 {
		return nil
	}
	out := make([]balance.EnvelopePoint, len(in))
	for i, p := range in {
		out[i] = balance.EnvelopePoint{CG: p.CG, Weight: p.Weight}
	}
	return out
}

// ToVariant converts the configuration into the calculation model.
func (a AircraftConfig) ToVariant() balance.Variant {
	env := a.Envelope
	v := balance.Variant{
		Name:      a.Name,
		RefArm:    a.RefArm,
		MACLength: a.MACLength,
		CenterCG:  a.CenterCG,
		Baseline:  balance.Baseline{Weight: a.Baseline.Weight, Moment: a.Baseline.Moment},
		Envelope: balance.Envelope{
			Bounds: balance.Bounds{
				MinCG:     env.Bounds.MinCG,
				MaxCG:     env.Bounds.MaxCG,
				MinWeight: env.Bounds.MinWeight,
				MaxWeight: env.Bounds.MaxWeight,
			},
			DefaultMaxWeight:  env.DefaultMaxWeight,
			DefaultMinWeight:  env.DefaultMinWeight,
			BasicGrid:         toPoints(env.BasicGrid),
			DoNotOperate:      toPoints(env.DoNotOperate),
			MaxLandingWeight:  toPoints(env.MaxLandingWeight),
			MaxZeroFuelWeight: toPoints(env.MaxZeroFuelWeight),
			MaxTaxiWeight:     toPoints(env.MaxTaxiWeight),
		},
	}
	for _, c := range env.AltForwardLimits {
		v.Envelope.AltForwardLimits = append(v.Envelope.AltForwardLimits, balance.NamedCurve{
			Name:   c.Name,
			Points: toPoints(c.Points),
		})
	}
	for _, s := range a.FuelTable {
		v.FuelTable = append(v.FuelTable, balance.FuelSample{Weight: s.Weight, Arm: s.Arm})
	}
	return v
}
