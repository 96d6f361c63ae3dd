// Package configprocessor provides shared configuration processing utilities.
package configprocessor

import (
	"github.com/iwvelando/weight-balance/pkg/validation"
)

// PositionInfo represents position configuration information
type PositionInfo struct {
	Code string
	Arm  float64
}

// PatternInfo represents loading pattern configuration information
type PatternInfo struct {
	Name     string
	Sequence []string
}

// StyleInfo represents pallet style configuration information
type StyleInfo struct {
	Name      string
	MaxWeight float64
}

// AircraftInfo represents aircraft configuration information
type AircraftInfo struct {
	Name     string
	CenterCG float64
	MinCG    float64
	MaxCG    float64
}

// Input groups everything the processor inspects.
type Input struct {
	Positions       []PositionInfo
	CustomPositions []PositionInfo
	Patterns        []PatternInfo
	Styles          []StyleInfo
	Aircraft        []AircraftInfo
}

// Processor handles configuration processing and validation
type Processor struct{}

// NewProcessor creates a new configuration processor
func NewProcessor() *Processor {
	return &Processor{}
}

// ValidateConfiguration validates the configuration and returns warnings
func (p *Processor) ValidateConfiguration(in Input) []string {
	var warnings []string

	static := make(map[string]float64, len(in.Positions))
	known := make(map[string]bool, len(in.Positions)+len(in.CustomPositions))
	for _, pos := range in.Positions {
		static[pos.Code] = pos.Arm
		known[pos.Code] = true
	}

	for _, pos := range in.CustomPositions {
		if msg := validation.ValidateCustomPosition(pos.Code, pos.Arm, static); msg != "" {
			warnings = append(warnings, msg)
		}
		known[pos.Code] = true
	}

	for _, pattern := range in.Patterns {
		warnings = append(warnings, validation.ValidatePatternPositions(pattern.Name, pattern.Sequence, known)...)
	}

	for _, style := range in.Styles {
		if msg := validation.ValidatePalletStyle(style.Name, style.MaxWeight); msg != "" {
			warnings = append(warnings, msg)
		}
	}

	for _, ac := range in.Aircraft {
		if msg := validation.ValidateCenterCG(ac.Name, ac.CenterCG, ac.MinCG, ac.MaxCG); msg != "" {
			warnings = append(warnings, msg)
		}
	}

	return warnings
}
