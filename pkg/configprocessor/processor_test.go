package configprocessor

import (
	"strings"
	"testing"
)

func TestProcessorValidateConfiguration(t *testing.T) {
	base := func() Input {
		return Input{
			Positions: []PositionInfo{{Code: "AL", Arm: 460}, {Code: "AR", Arm: 460}},
			Patterns:  []PatternInfo{{Name: "forward", Sequence: []string{"AL", "AR"}}},
			Styles:    []StyleInfo{{Name: "PMC", MaxWeight: 15000}},
			Aircraft:  []AircraftInfo{{Name: "777-300ER", CenterCG: 28, MinCG: 14, MaxCG: 44}},
		}
	}

	tests := []struct {
		name          string
		mutate        func(in *Input)
		expectedCount int
		contains      string
	}{
		{
			name:          "Clean configuration",
			mutate:        func(*Input) {},
			expectedCount: 0,
		},
		{
			name: "Custom position overriding static",
			mutate: func(in *Input) {
				in.CustomPositions = []PositionInfo{{Code: "AL", Arm: 470}}
			},
			expectedCount: 1,
			contains:      "overrides",
		},
		{
			name: "Custom position makes pattern valid",
			mutate: func(in *Input) {
				in.CustomPositions = []PositionInfo{{Code: "Z1", Arm: 900}}
				in.Patterns[0].Sequence = append(in.Patterns[0].Sequence, "Z1")
			},
			expectedCount: 0,
		},
		{
			name: "Pattern with unknown position",
			mutate: func(in *Input) {
				in.Patterns[0].Sequence = []string{"AL", "QQ"}
			},
			expectedCount: 1,
			contains:      "unknown position",
		},
		{
			name: "Pallet style without max weight",
			mutate: func(in *Input) {
				in.Styles[0].MaxWeight = 0
			},
			expectedCount: 1,
			contains:      "Pallet style",
		},
		{
			name: "Centre CG outside bounds",
			mutate: func(in *Input) {
				in.Aircraft[0].CenterCG = 10
			},
			expectedCount: 1,
			contains:      "centerCG",
		},
	}

	processor := NewProcessor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := base()
			tt.mutate(&in)
			warnings := processor.ValidateConfiguration(in)
			if len(warnings) != tt.expectedCount {
				t.Fatalf("expected %d warnings, got %d: %v", tt.expectedCount, len(warnings), warnings)
			}
			if tt.contains != "" && !strings.Contains(warnings[0], tt.contains) {
				t.Errorf("expected warning to contain %q, got %q", tt.contains, warnings[0])
			}
		})
	}
}
