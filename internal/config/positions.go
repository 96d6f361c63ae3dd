package config

import (
	"strings"

	"github.com/iwvelando/weight-balance/internal/balance"
	"github.com/iwvelando/weight-balance/internal/registry"
	"github.com/iwvelando/weight-balance/pkg/constants"
)

// PositionConfig is a loading position entry.
type PositionConfig struct {
	Code       string  `yaml:"code" validate:"required"`
	Name       string  `yaml:"name,omitempty"`
	Arm        float64 `yaml:"arm" validate:"gt=0"`
	PalletType string  `yaml:"palletType,omitempty" mapstructure:"palletType"`
}

func (p PositionConfig) toPosition() registry.Position {
	name := p.Name
	if name == "" {
		name = p.Code
	}
	return registry.Position{
		Code:       balance.PositionCode(p.Code),
		Name:       name,
		Arm:        p.Arm,
		PalletType: p.PalletType,
	}
}

// PalletStyleConfig is a pallet catalogue entry.
type PalletStyleConfig struct {
	Name             string  `yaml:"name" validate:"required"`
	Description      string  `yaml:"description,omitempty"`
	MaxWeight        float64 `yaml:"maxWeight" mapstructure:"maxWeight"`
	Dimensions       string  `yaml:"dimensions,omitempty"`
	MomentMultiplier float64 `yaml:"momentMultiplier,omitempty" mapstructure:"momentMultiplier" validate:"gte=0"`
	Category         string  `yaml:"category,omitempty"`
}

func (s PalletStyleConfig) toStyle() registry.PalletStyle {
	multiplier := s.MomentMultiplier
	if multiplier == 0 {
		multiplier = 1
	}
	return registry.PalletStyle{
		Name:             s.Name,
		Description:      s.Description,
		MaxWeight:        s.MaxWeight,
		Dimensions:       s.Dimensions,
		MomentMultiplier: multiplier,
		Category:         s.Category,
	}
}

// PatternConfig is a named loading order.
type PatternConfig struct {
	Name        string   `yaml:"name" validate:"required"`
	Description string   `yaml:"description,omitempty"`
	Sequence    []string `yaml:"sequence" validate:"required,min=1,dive,required"`
	Rating      float64  `yaml:"rating,omitempty" validate:"gte=0,lte=5"`
}

func (p *PatternConfig) normalize() {
	p.Name = strings.TrimSpace(p.Name)
	for i := range p.Sequence {
		p.Sequence[i] = strings.TrimSpace(p.Sequence[i])
	}
	if p.Rating == 0 {
		p.Rating = constants.DefaultUserRating
	}
}

// Codes returns the pattern sequence as position codes.
func (p PatternConfig) Codes() []balance.PositionCode {
	out := make([]balance.PositionCode, len(p.Sequence))
	for i, code := range p.Sequence {
		out[i] = balance.PositionCode(code)
	}
	return out
}

// Prefix returns the first n codes of the pattern, or all of them when the
// pattern is shorter.
func (p PatternConfig) Prefix(n int) []balance.PositionCode {
	codes := p.Codes()
	if n < len(codes) {
		return codes[:n]
	}
	return codes
}
