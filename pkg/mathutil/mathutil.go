// Package mathutil provides common mathematical utility functions.
package mathutil

import (
	"math"

	"github.com/iwvelando/weight-balance/pkg/constants"
)

// Round rounds a value to two decimals for display.
func Round(val float64) float64 {
	return math.Round(val*constants.DisplayPrecision) / constants.DisplayPrecision
}

// WithinTolerance checks if two values are within a specified tolerance
func WithinTolerance(val1, val2, tolerance float64) bool {
	return math.Abs(val1-val2) <= tolerance
}

// Clamp limits val to the closed interval [lo, hi].
func Clamp(val, lo, hi float64) float64 {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}

// Interpolate returns the y value on the line through (x0, y0) and (x1, y1)
// at x. Callers must not pass x0 == x1.
func Interpolate(x, x0, y0, x1, y1 float64) float64 {
	return y0 + (x-x0)*(y1-y0)/(x1-x0)
}

// Factorial returns n! for n >= 0 and 1 for negative n.
func Factorial(n int) int {
	result := 1
	for i := 2; i <= n; i++ {
		result *= i
	}
	return result
}

// Mean returns the arithmetic mean of values, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// CalculatePercentage calculates what percentage value is of total
func CalculatePercentage(value, total float64) float64 {
	if total == 0 {
		return 0
	}
	return (value / total) * constants.PercentageMultiplier
}
