// Package format renders weights, moments and CG values for display.
package format

import (
	"fmt"
	"math"
	"strings"
)

// Weight returns a whole-pound weight with thousands separators (e.g., "327,000").
func Weight(weight float64) string {
	return signed(weight, 0)
}

// Moment returns a moment with thousands separators and no decimals.
func Moment(moment float64) string {
	return signed(moment, 0)
}

// Arm returns a moment arm with two decimals (e.g., "1,215.87").
func Arm(arm float64) string {
	return signed(arm, 2)
}

// CG returns a CG in %MAC with two decimals (e.g., "14.86%").
func CG(cg float64) string {
	return fmt.Sprintf("%.2f%%", cg)
}

// Delta returns a signed CG change (e.g., "+1.25", "-0.40").
func Delta(change float64) string {
	return fmt.Sprintf("%+.2f", change)
}

func signed(value float64, decimals int) string {
	formatted := groupThousands(math.Abs(value), decimals)
	if value < 0 && strings.Trim(formatted, "0.,") != "" {
		return "-" + formatted
	}
	return formatted
}

func groupThousands(value float64, decimals int) string {
	formatted := fmt.Sprintf("%.*f", decimals, value)
	intPart, decPart, hasDec := strings.Cut(formatted, ".")

	if len(intPart) > 3 {
		var builder strings.Builder
		for i, digit := range intPart {
			if i > 0 && (len(intPart)-i)%3 == 0 {
				builder.WriteByte(',')
			}
			builder.WriteRune(digit)
		}
		intPart = builder.String()
	}

	if !hasDec {
		return intPart
	}
	return intPart + "." + decPart
}
