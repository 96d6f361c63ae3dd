package validation

import (
	"strings"
	"testing"
)

func TestValidatePatternPositions(t *testing.T) {
	known := map[string]bool{"AL": true, "AR": true, "BL": true}

	tests := []struct {
		name          string
		sequence      []string
		expectedCount int
		contains      string
	}{
		{
			name:          "All positions known",
			sequence:      []string{"AL", "AR", "BL"},
			expectedCount: 0,
		},
		{
			name:          "Unknown position",
			sequence:      []string{"AL", "ZZ"},
			expectedCount: 1,
			contains:      "unknown position 'ZZ'",
		},
		{
			name:          "Duplicate position",
			sequence:      []string{"AL", "AR", "AL"},
			expectedCount: 1,
			contains:      "more than once",
		},
		{
			name:          "Unknown and duplicated",
			sequence:      []string{"QQ", "QQ"},
			expectedCount: 3,
		},
		{
			name:          "Empty pattern",
			sequence:      nil,
			expectedCount: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warnings := ValidatePatternPositions("test", tt.sequence, known)
			if len(warnings) != tt.expectedCount {
				t.Fatalf("expected %d warnings, got %d: %v", tt.expectedCount, len(warnings), warnings)
			}
			if tt.contains != "" && !strings.Contains(warnings[0], tt.contains) {
				t.Errorf("expected warning to contain %q, got %q", tt.contains, warnings[0])
			}
		})
	}
}

func TestValidateCustomPosition(t *testing.T) {
	static := map[string]float64{"AL": 460}

	if w := ValidateCustomPosition("ZZ", 900, static); w != "" {
		t.Errorf("expected no warning for a new code, got %q", w)
	}
	w := ValidateCustomPosition("AL", 470, static)
	if !strings.Contains(w, "overrides") {
		t.Errorf("expected override warning, got %q", w)
	}
}

func TestValidatePalletStyle(t *testing.T) {
	tests := []struct {
		name      string
		maxWeight float64
		expectMsg bool
	}{
		{"Positive weight", 15000, false},
		{"Zero weight", 0, true},
		{"Negative weight", -5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := ValidatePalletStyle("PMC", tt.maxWeight)
			if (msg != "") != tt.expectMsg {
				t.Errorf("ValidatePalletStyle(%v) = %q, expectMsg %v", tt.maxWeight, msg, tt.expectMsg)
			}
		})
	}
}

func TestValidateCenterCG(t *testing.T) {
	if msg := ValidateCenterCG("A", 28, 14, 44); msg != "" {
		t.Errorf("expected no warning, got %q", msg)
	}
	if msg := ValidateCenterCG("A", 50, 14, 44); msg == "" {
		t.Error("expected a warning for a centre outside the bounds")
	}
}
