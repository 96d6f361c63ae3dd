package balance_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iwvelando/weight-balance/internal/balance"
	"github.com/iwvelando/weight-balance/pkg/testutil"
)

func TestEnvelopeContains(t *testing.T) {
	v := testutil.VariantA()

	tests := []struct {
		name   string
		cg     float64
		weight float64
		inside bool
	}{
		{"forward corner on vertical edge", 14.0, 460000, true},
		{"forward edge bottom", 14.0, 300000, true},
		{"above vertical edge", 14.0, 470000, false},
		{"forward of min cg", 9.9, 400000, false},
		{"aft of max cg", 44.1, 500000, false},
		{"baseline", 19.928, 321000, true},
		{"mid envelope", 20.0, 500000, true},
		{"max taxi plateau", 30.0, 768000, true},
		{"above global max weight", 30.0, 768001, false},
		{"below lower edge", 30.0, 320000, false},
		{"below global min weight", 20.0, 240000, false},
		{"nan cg", math.NaN(), 400000, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.inside, v.Envelope.Contains(tt.cg, tt.weight))
			assert.Equal(t, tt.inside, balance.IsInEnvelope(tt.cg, tt.weight, v))
		})
	}
}

func TestEnvelopeLimits(t *testing.T) {
	v := testutil.VariantA()

	lower, upper, ok := v.Envelope.Limits(14.0)
	assert.True(t, ok)
	assert.Equal(t, 300000.0, lower)
	assert.Equal(t, 460000.0, upper)

	lower, upper, ok = v.Envelope.Limits(30.0)
	assert.True(t, ok)
	assert.InDelta(t, 300000+(30-23.2)*47000/11.7, lower, 1e-6)
	assert.Equal(t, 768000.0, upper)

	lower, upper, ok = v.Envelope.Limits(50.0)
	assert.False(t, ok)
	assert.Equal(t, v.Envelope.DefaultMinWeight, lower)
	assert.Equal(t, v.Envelope.DefaultMaxWeight, upper)
}

func TestEnvelopeDefaultsWhenUnbracketed(t *testing.T) {
	env := balance.Envelope{
		Bounds:           balance.Bounds{MinCG: 10, MaxCG: 40, MinWeight: 100, MaxWeight: 1000},
		DefaultMinWeight: 200,
		DefaultMaxWeight: 800,
		BasicGrid:        []balance.EnvelopePoint{{CG: 20, Weight: 300}, {CG: 30, Weight: 700}},
	}

	assert.True(t, env.Contains(12, 500))
	assert.False(t, env.Contains(12, 900))
	assert.False(t, env.Contains(12, 150))
	assert.True(t, env.Contains(25, 500))
	assert.False(t, env.Contains(25, 501))
}

func TestEnvelopeCurves(t *testing.T) {
	v := testutil.VariantA()

	curves := v.Envelope.Curves()

	names := make([]string, 0, len(curves))
	for _, c := range curves {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{
		balance.CurveBasicGrid,
		balance.CurveDoNotOperate,
		balance.CurveMaxLandingWeight,
		balance.CurveMaxZeroFuelWeight,
		balance.CurveMaxTaxiWeight,
		"altFwdCGLimitTakeoff1",
		"altFwdCGLimitTakeoff2",
	}, names)

	v.Envelope.DoNotOperate = nil
	assert.Len(t, v.Envelope.Curves(), len(curves)-1)
}

func TestTrajectoryAgainstEnvelope(t *testing.T) {
	v := testutil.VariantA()
	items := []balance.WeightItem{{Position: testutil.P1, Weight: 6000}, {Position: testutil.P2, Weight: 6000}}

	traj := balance.ComputeTrajectory(items, v, testutil.Arms())

	assert.True(t, v.Envelope.ContainsPoint(traj.Points[0]))
	assert.True(t, v.Envelope.ContainsPoint(traj.Points[1]))
	assert.False(t, v.Envelope.ContainsPoint(traj.Final()))
}
