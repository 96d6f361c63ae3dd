// Package testutil provides common fixtures and helpers for testing.
package testutil

import (
	"github.com/iwvelando/weight-balance/internal/balance"
)

// Position codes of the two-position fixture.
const (
	P1 balance.PositionCode = "P1"
	P2 balance.PositionCode = "P2"
)

// VariantA returns a 777-300ER style variant used throughout the tests.
func VariantA() *balance.Variant {
	return &balance.Variant{
		Name:      "A",
		RefArm:    1174.5,
		MACLength: 278.5,
		CenterCG:  28.0,
		Baseline:  balance.Baseline{Weight: 321000, Moment: 394830000},
		Envelope: balance.Envelope{
			Bounds:           balance.Bounds{MinCG: 14, MaxCG: 44, MinWeight: 250000, MaxWeight: 768000},
			DefaultMaxWeight: 768000,
			DefaultMinWeight: 250000,
			BasicGrid: []balance.EnvelopePoint{
				{CG: 14, Weight: 300000},
				{CG: 14, Weight: 460000},
				{CG: 14.7, Weight: 492000},
				{CG: 18, Weight: 722300},
				{CG: 19.7, Weight: 752000},
				{CG: 23, Weight: 758143},
				{CG: 26, Weight: 763815},
				{CG: 28.2, Weight: 768000},
				{CG: 30.6, Weight: 768000},
				{CG: 37.8, Weight: 752000},
				{CG: 41.2, Weight: 705300},
				{CG: 44, Weight: 609000},
				{CG: 34.9, Weight: 347000},
				{CG: 23.2, Weight: 300000},
				{CG: 14, Weight: 300000},
			},
			DoNotOperate: []balance.EnvelopePoint{
				{CG: 44, Weight: 609000},
				{CG: 44, Weight: 471000},
				{CG: 39.1, Weight: 377200},
				{CG: 34.9, Weight: 347000},
			},
			MaxLandingWeight:  []balance.EnvelopePoint{{CG: 15, Weight: 545000}, {CG: 44, Weight: 545000}},
			MaxZeroFuelWeight: []balance.EnvelopePoint{{CG: 15, Weight: 529000}, {CG: 16.1, Weight: 529000}, {CG: 44, Weight: 529000}},
			MaxTaxiWeight:     []balance.EnvelopePoint{{CG: 28.2, Weight: 768000}, {CG: 30.6, Weight: 768000}},
			AltForwardLimits: []balance.NamedCurve{
				{Name: "altFwdCGLimitTakeoff1", Points: []balance.EnvelopePoint{{CG: 24, Weight: 300000}, {CG: 24, Weight: 766000}}},
				{Name: "altFwdCGLimitTakeoff2", Points: []balance.EnvelopePoint{{CG: 27, Weight: 300000}, {CG: 27, Weight: 766000}}},
			},
		},
		FuelTable: []balance.FuelSample{
			{Weight: 10000, Arm: 1180},
			{Weight: 50000, Arm: 1195},
			{Weight: 100000, Arm: 1205},
			{Weight: 150000, Arm: 1212},
			{Weight: 200000, Arm: 1215},
			{Weight: 250000, Arm: 1210},
			{Weight: 300000, Arm: 1202},
			{Weight: 320000, Arm: 1198},
		},
	}
}

// Arms returns the two-position resolver matching VariantA.
func Arms() balance.ArmMap {
	return balance.ArmMap{P1: 460, P2: 586}
}

// FindRow finds the first calculation row for position.
// Returns a pointer to the row if found, nil otherwise.
func FindRow(rows []balance.CalculationRow, position balance.PositionCode) *balance.CalculationRow {
	for i := range rows {
		if rows[i].Position == position {
			return &rows[i]
		}
	}
	return nil
}
