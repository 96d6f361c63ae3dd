package validation

import "testing"

func TestValidateOutputFormat(t *testing.T) {
	tests := []struct {
		name      string
		format    string
		expectErr bool
	}{
		{
			name:      "Valid pretty format",
			format:    "pretty",
			expectErr: false,
		},
		{
			name:      "Valid csv format",
			format:    "csv",
			expectErr: false,
		},
		{
			name:      "Valid json format",
			format:    "json",
			expectErr: false,
		},
		{
			name:      "Invalid format",
			format:    "xml",
			expectErr: true,
		},
		{
			name:      "Empty format",
			format:    "",
			expectErr: true,
		},
		{
			name:      "Case sensitive - uppercase",
			format:    "PRETTY",
			expectErr: true,
		},
		{
			name:      "Leading/trailing spaces",
			format:    " pretty ",
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOutputFormat(tt.format)
			if (err != nil) != tt.expectErr {
				t.Errorf("ValidateOutputFormat(%q) error = %v, expectErr %v", tt.format, err, tt.expectErr)
			}
		})
	}
}

func TestValidateOneOf(t *testing.T) {
	if err := ValidateOneOf("direction", "aft", "forward", "aft"); err != nil {
		t.Errorf("expected aft to be accepted, got %v", err)
	}
	if err := ValidateOneOf("direction", "up", "forward", "aft"); err == nil {
		t.Error("expected an error for an unsupported value")
	}
	if err := ValidateOneOf("method", "local"); err == nil {
		t.Error("expected an error when nothing is allowed")
	}
}
