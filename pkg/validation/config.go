// Package validation provides configuration validation utilities.
package validation

import (
	"fmt"
)

// ValidatePatternPositions checks that every code in a loading pattern is
// known and used only once.
func ValidatePatternPositions(patternName string, sequence []string, known map[string]bool) []string {
	var warnings []string
	seen := make(map[string]bool, len(sequence))

	for i, code := range sequence {
		if !known[code] {
			warnings = append(warnings, fmt.Sprintf("Pattern '%s' step %d references unknown position '%s' - items there will be skipped",
				patternName, i+1, code))
		}
		if seen[code] {
			warnings = append(warnings, fmt.Sprintf("Pattern '%s' uses position '%s' more than once",
				patternName, code))
		}
		seen[code] = true
	}

	return warnings
}

// ValidateCustomPosition checks whether a custom position replaces a
// static one.
func ValidateCustomPosition(code string, arm float64, static map[string]float64) string {
	staticArm, ok := static[code]
	if !ok {
		return ""
	}
	return fmt.Sprintf("Custom position '%s' overrides the static arm (%.1f -> %.1f)", code, staticArm, arm)
}

// ValidatePalletStyle checks a pallet style's weight limit.
func ValidatePalletStyle(name string, maxWeight float64) string {
	if maxWeight > 0 {
		return ""
	}
	return fmt.Sprintf("Pallet style '%s' has no positive max weight (%.0f)", name, maxWeight)
}

// ValidateCenterCG checks that a variant's objective centre lies inside its
// envelope CG bounds.
func ValidateCenterCG(variant string, centerCG, minCG, maxCG float64) string {
	if centerCG >= minCG && centerCG <= maxCG {
		return ""
	}
	return fmt.Sprintf("Aircraft '%s' centerCG %.2f is outside the envelope CG bounds [%.2f, %.2f]",
		variant, centerCG, minCG, maxCG)
}
