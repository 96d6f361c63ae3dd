package mathutil

import (
	"math"
	"testing"
)

func TestRound(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected float64
	}{
		{"Round up at midpoint", 14.725, 14.73},
		{"Round down below midpoint", 14.7234, 14.72},
		{"No rounding needed", 19.93, 19.93},
		{"Negative number", -3.456, -3.46},
		{"Zero", 0.0, 0.0},
		{"Very small positive", 0.001, 0.00},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Round(tt.input)
			if math.Abs(result-tt.expected) > 0.001 {
				t.Errorf("Round(%v) = %v, expected %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestWithinTolerance(t *testing.T) {
	tests := []struct {
		name      string
		a, b, tol float64
		expected  bool
	}{
		{"Equal values", 1.0, 1.0, 0.0, true},
		{"Inside tolerance", 10.78, 10.77, 0.02, true},
		{"Exactly at tolerance", 1.0, 1.5, 0.5, true},
		{"Outside tolerance", 1.0, 2.0, 0.5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WithinTolerance(tt.a, tt.b, tt.tol); got != tt.expected {
				t.Errorf("WithinTolerance(%v, %v, %v) = %v, expected %v", tt.a, tt.b, tt.tol, got, tt.expected)
			}
		})
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		name     string
		val      float64
		expected float64
	}{
		{"Below range", -3, -1},
		{"Above range", 2.5, 1},
		{"Inside range", 0.25, 0.25},
		{"Lower edge", -1, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clamp(tt.val, -1, 1); got != tt.expected {
				t.Errorf("Clamp(%v) = %v, expected %v", tt.val, got, tt.expected)
			}
		})
	}
}

func TestInterpolate(t *testing.T) {
	tests := []struct {
		name              string
		x, x0, y0, x1, y1 float64
		expected          float64
	}{
		{"Midpoint", 16.35, 14.7, 492000, 18, 722300, 607150},
		{"Left endpoint", 14.7, 14.7, 492000, 18, 722300, 492000},
		{"Right endpoint", 18, 14.7, 492000, 18, 722300, 722300},
		{"Descending segment", 32.55, 34.9, 347000, 23.2, 300000, 337559.82905982906},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Interpolate(tt.x, tt.x0, tt.y0, tt.x1, tt.y1)
			if math.Abs(got-tt.expected) > 1e-4 {
				t.Errorf("Interpolate = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestFactorial(t *testing.T) {
	tests := []struct {
		n        int
		expected int
	}{
		{-1, 1},
		{0, 1},
		{1, 1},
		{4, 24},
		{7, 5040},
	}

	for _, tt := range tests {
		if got := Factorial(tt.n); got != tt.expected {
			t.Errorf("Factorial(%d) = %d, expected %d", tt.n, got, tt.expected)
		}
	}
}

func TestMean(t *testing.T) {
	if got := Mean(nil); got != 0 {
		t.Errorf("Mean(nil) = %v, expected 0", got)
	}
	if got := Mean([]float64{1, 2, 3, 6}); got != 3 {
		t.Errorf("Mean = %v, expected 3", got)
	}
}

func TestCalculatePercentage(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		total    float64
		expected float64
	}{
		{"Half", 50, 100, 50},
		{"Zero total", 50, 0, 0},
		{"Three of four", 3, 4, 75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CalculatePercentage(tt.value, tt.total); math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("CalculatePercentage(%v, %v) = %v, expected %v", tt.value, tt.total, got, tt.expected)
			}
		})
	}
}
