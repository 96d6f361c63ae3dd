// Package validation provides common validation utilities.
package validation

import (
	"fmt"

	"github.com/iwvelando/weight-balance/pkg/constants"
)

// ValidateOutputFormat checks if the output format is one of the supported formats.
func ValidateOutputFormat(format string) error {
	switch format {
	case constants.OutputFormatPretty, constants.OutputFormatCSV, constants.OutputFormatJSON:
		return nil
	}
	return fmt.Errorf("expected output format of %s, %s or %s, got %s",
		constants.OutputFormatPretty, constants.OutputFormatCSV, constants.OutputFormatJSON, format)
}

// ValidateOneOf checks that value is one of allowed. kind names the value in
// the error message.
func ValidateOneOf(kind, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("unsupported %s %q, expected one of %v", kind, value, allowed)
}
