package balance_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iwvelando/weight-balance/internal/balance"
	"github.com/iwvelando/weight-balance/pkg/constants"
	"github.com/iwvelando/weight-balance/pkg/testutil"
)

func TestFuelArm(t *testing.T) {
	table := testutil.VariantA().FuelTable

	tests := []struct {
		name string
		fuel float64
		arm  float64
	}{
		{"below first sample", 5000, 1180},
		{"at first sample", 10000, 1180},
		{"exact sample", 100000, 1205},
		{"interpolated", 75000, 1200},
		{"interpolated descending arm", 275000, 1206},
		{"at last sample", 320000, 1198},
		{"above last sample", 400000, 1198},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			arm, err := balance.FuelArm(table, tt.fuel)
			require.NoError(t, err)
			assert.InDelta(t, tt.arm, arm, 1e-9)
		})
	}
}

func TestFuelArmEmptyTable(t *testing.T) {
	_, err := balance.FuelArm(nil, 1000)
	assert.ErrorIs(t, err, balance.ErrMissingFuelTable)
}

func TestExtendWithFuel(t *testing.T) {
	v := testutil.VariantA()
	items := []balance.WeightItem{{Position: testutil.P1, Weight: 6000}, {Position: testutil.P2, Weight: 6000}}
	traj := balance.ComputeTrajectory(items, v, testutil.Arms())

	ext, err := balance.ExtendWithFuel(traj.Last(), 75000, v)

	require.NoError(t, err)
	require.NotNil(t, ext)
	assert.Equal(t, balance.PositionCode(constants.FuelPosition), ext.Row.Position)
	assert.Equal(t, 408000.0, ext.Row.SumWeight)
	assert.Equal(t, 75000.0*1200, ext.Row.Moment)
	assert.InDelta(t, cgOf(v, 408000, 401106000+75000*1200), ext.Row.CG, 1e-9)
	assert.Equal(t, ext.Row.Point(), ext.Point)
}

func TestExtendWithFuelNoOp(t *testing.T) {
	v := testutil.VariantA()

	for _, fuel := range []float64{0, -500} {
		ext, err := balance.ExtendWithFuel(v.BaselineRow(), fuel, v)
		assert.NoError(t, err)
		assert.Nil(t, ext)
	}

	// no-op does not need a table
	v.FuelTable = nil
	ext, err := balance.ExtendWithFuel(v.BaselineRow(), 0, v)
	assert.NoError(t, err)
	assert.Nil(t, ext)
}

func TestExtendWithFuelMissingTable(t *testing.T) {
	v := testutil.VariantA()
	v.FuelTable = nil

	_, err := balance.ExtendWithFuel(v.BaselineRow(), 1000, v)

	assert.ErrorIs(t, err, balance.ErrMissingFuelTable)
}

func TestTrajectoryWithFuel(t *testing.T) {
	v := testutil.VariantA()
	traj := balance.ComputeTrajectory([]balance.WeightItem{{Position: testutil.P1, Weight: 6000}}, v, testutil.Arms())

	fueled, err := traj.WithFuel(50000, v)

	require.NoError(t, err)
	assert.Len(t, traj.Rows, 1)
	require.Len(t, fueled.Rows, 2)
	require.Len(t, fueled.Points, 3)
	assert.Equal(t, 377000.0, fueled.Final().Weight)

	same, err := traj.WithFuel(0, v)
	require.NoError(t, err)
	assert.Equal(t, traj.Rows, same.Rows)
}
