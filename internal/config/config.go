package config

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/iwvelando/weight-balance/internal/balance"
	"github.com/iwvelando/weight-balance/internal/registry"
	"github.com/iwvelando/weight-balance/pkg/configprocessor"
	"github.com/iwvelando/weight-balance/pkg/constants"
)

var (
	// ErrUnknownVariant is returned when no aircraft matches a name.
	ErrUnknownVariant = errors.New("unknown aircraft variant")

	// ErrUnknownPattern is returned when no loading pattern matches a name.
	ErrUnknownPattern = errors.New("unknown loading pattern")
)

// Configuration holds all weight and balance reference data and settings.
type Configuration struct {
	Logging         LoggingConfig       `yaml:"logging,omitempty"`
	Output          OutputConfig        `yaml:"output,omitempty"`
	Positions       []PositionConfig    `yaml:"positions,omitempty" validate:"dive"`
	CustomPositions []PositionConfig    `yaml:"customPositions,omitempty" mapstructure:"customPositions" validate:"dive"`
	PalletStyles    []PalletStyleConfig `yaml:"palletStyles,omitempty" mapstructure:"palletStyles" validate:"dive"`
	Patterns        []PatternConfig     `yaml:"patterns,omitempty" validate:"dive"`
	Aircraft        []AircraftConfig    `yaml:"aircraft" validate:"required,min=1,dive"`
	Optimizer       OptimizerConfig     `yaml:"optimizer,omitempty"`
	Store           StoreConfig         `yaml:"store,omitempty"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty" validate:"omitempty,oneof=debug info warn error"` // debug, info, warn, error
	Format     string `yaml:"format,omitempty" validate:"omitempty,oneof=json console"`         // json, console
	OutputFile string `yaml:"outputFile,omitempty"`                                             // optional file output
	MaxSizeMB  int    `yaml:"maxSizeMB,omitempty" validate:"gte=0"`
	MaxBackups int    `yaml:"maxBackups,omitempty" validate:"gte=0"`
	MaxAgeDays int    `yaml:"maxAgeDays,omitempty" validate:"gte=0"`
}

// OutputConfig holds output formatting configuration
type OutputConfig struct {
	Format string `yaml:"format,omitempty" validate:"omitempty,oneof=pretty csv json"` // pretty, csv, json
}

// StoreConfig selects where optimization history is kept.
type StoreConfig struct {
	Path       string `yaml:"path,omitempty"`
	InMemory   bool   `yaml:"inMemory,omitempty" mapstructure:"inMemory"`
	SyncWrites bool   `yaml:"syncWrites,omitempty" mapstructure:"syncWrites"`
}

// LoadConfiguration reads the YAML configuration at configPath. Environment
// variables prefixed with WB override file values.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %w", err)
	}
	return decode(v)
}

// LoadConfigurationFromReader reads a YAML configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config, %w", err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yml")
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}
	configuration.Normalize()
	return &configuration, nil
}

// Normalize applies defaults before validation.
func (c *Configuration) Normalize() {
	if c.Output.Format == "" {
		c.Output.Format = constants.OutputFormatPretty
	}
	for i := range c.Patterns {
		c.Patterns[i].normalize()
	}
	for i := range c.Aircraft {
		c.Aircraft[i].normalize()
	}
	c.Optimizer.Normalize()
}

// Validate checks the configuration and returns the first fatal problem.
func (c *Configuration) Validate() error {
	c.Normalize()

	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := c.Optimizer.Validate(); err != nil {
		return err
	}

	names := make(map[string]bool, len(c.Aircraft))
	for _, ac := range c.Aircraft {
		if names[ac.Name] {
			return fmt.Errorf("duplicate aircraft %q", ac.Name)
		}
		names[ac.Name] = true
		variant := ac.ToVariant()
		if err := variant.Validate(); err != nil {
			return err
		}
	}

	patterns := make(map[string]bool, len(c.Patterns))
	for _, p := range c.Patterns {
		if patterns[p.Name] {
			return fmt.Errorf("duplicate pattern %q", p.Name)
		}
		patterns[p.Name] = true
	}

	if _, err := c.Registry(); err != nil {
		return err
	}
	return nil
}

// ValidateConfiguration performs non-fatal checks and returns warnings.
func (c *Configuration) ValidateConfiguration() []string {
	in := configprocessor.Input{}
	for _, p := range c.staticPositions() {
		in.Positions = append(in.Positions, configprocessor.PositionInfo{Code: string(p.Code), Arm: p.Arm})
	}
	for _, p := range c.CustomPositions {
		in.CustomPositions = append(in.CustomPositions, configprocessor.PositionInfo{Code: p.Code, Arm: p.Arm})
	}
	for _, p := range c.Patterns {
		in.Patterns = append(in.Patterns, configprocessor.PatternInfo{Name: p.Name, Sequence: p.Sequence})
	}
	for _, s := range c.PalletStyles {
		in.Styles = append(in.Styles, configprocessor.StyleInfo{Name: s.Name, MaxWeight: s.MaxWeight})
	}
	for _, ac := range c.Aircraft {
		in.Aircraft = append(in.Aircraft, configprocessor.AircraftInfo{
			Name:     ac.Name,
			CenterCG: ac.CenterCG,
			MinCG:    ac.Envelope.Bounds.MinCG,
			MaxCG:    ac.Envelope.Bounds.MaxCG,
		})
	}
	return configprocessor.NewProcessor().ValidateConfiguration(in)
}

// Variant returns the aircraft variant with the given name. Matching falls
// back to a case-insensitive comparison.
func (c *Configuration) Variant(name string) (*balance.Variant, error) {
	for i := range c.Aircraft {
		if c.Aircraft[i].Name == name {
			v := c.Aircraft[i].ToVariant()
			return &v, nil
		}
	}
	for i := range c.Aircraft {
		if strings.EqualFold(c.Aircraft[i].Name, name) {
			v := c.Aircraft[i].ToVariant()
			return &v, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownVariant, name)
}

// VariantNames lists the configured aircraft in file order.
func (c *Configuration) VariantNames() []string {
	names := make([]string, len(c.Aircraft))
	for i, ac := range c.Aircraft {
		names[i] = ac.Name
	}
	return names
}

// Pattern returns the loading pattern with the given name.
func (c *Configuration) Pattern(name string) (PatternConfig, error) {
	for _, p := range c.Patterns {
		if p.Name == name {
			return p, nil
		}
	}
	for _, p := range c.Patterns {
		if strings.EqualFold(p.Name, name) {
			return p, nil
		}
	}
	return PatternConfig{}, fmt.Errorf("%w: %q", ErrUnknownPattern, name)
}

// PatternRatings maps pattern names to their user rating.
func (c *Configuration) PatternRatings() map[string]float64 {
	ratings := make(map[string]float64, len(c.Patterns))
	for _, p := range c.Patterns {
		ratings[p.Name] = p.Rating
	}
	return ratings
}

func (c *Configuration) staticPositions() []registry.Position {
	if len(c.Positions) == 0 {
		return registry.DefaultPositions()
	}
	out := make([]registry.Position, len(c.Positions))
	for i, p := range c.Positions {
		out[i] = p.toPosition()
	}
	return out
}

// Registry builds the position registry: the configured static positions
// (or the built-in 777 set when none are configured), then custom positions
// and pallet styles.
func (c *Configuration) Registry() (*registry.Registry, error) {
	reg, err := registry.New(c.staticPositions())
	if err != nil {
		return nil, err
	}
	for _, p := range c.CustomPositions {
		if _, err := reg.Register(p.toPosition()); err != nil {
			return nil, err
		}
	}
	for _, s := range c.PalletStyles {
		if err := reg.RegisterStyle(s.toStyle()); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
