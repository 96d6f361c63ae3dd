package testutil

import (
	"testing"

	"github.com/iwvelando/weight-balance/internal/balance"
)

func TestFindRow(t *testing.T) {
	rows := []balance.CalculationRow{
		{Position: "P1", Weight: 6000},
		{Position: "P2", Weight: 6000},
		{Position: "P1", Weight: 1000},
	}

	tests := []struct {
		name       string
		position   balance.PositionCode
		wantWeight float64
		wantNil    bool
	}{
		{name: "first match wins", position: "P1", wantWeight: 6000},
		{name: "second position", position: "P2", wantWeight: 6000},
		{name: "missing position", position: "P9", wantNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := FindRow(rows, tt.position)
			if tt.wantNil {
				if row != nil {
					t.Fatalf("expected nil for %q, got %+v", tt.position, row)
				}
				return
			}
			if row == nil {
				t.Fatalf("expected a row for %q", tt.position)
			}
			if row.Weight != tt.wantWeight {
				t.Errorf("weight = %v, expected %v", row.Weight, tt.wantWeight)
			}
		})
	}

	// returned pointer aliases the slice element
	FindRow(rows, "P2").Weight = 7000
	if rows[1].Weight != 7000 {
		t.Errorf("expected FindRow to return a pointer into the slice")
	}
}

func TestVariantAIsValid(t *testing.T) {
	v := VariantA()
	if err := v.Validate(); err != nil {
		t.Fatalf("fixture variant invalid: %v", err)
	}
	if _, ok := Arms().MomentArm(P1); !ok {
		t.Fatalf("fixture resolver is missing %s", P1)
	}
}
