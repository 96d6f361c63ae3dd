package ranking

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iwvelando/weight-balance/pkg/optimization"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func record(pattern, method string, success bool, initialCG, finalCG, elapsedMs float64, minute int) optimization.Record {
	return optimization.Record{
		ID:        fmt.Sprintf("%s-%d", pattern, minute),
		Pattern:   pattern,
		Method:    method,
		Success:   success,
		InitialCG: initialCG,
		FinalCG:   finalCG,
		ElapsedMs: elapsedMs,
		CreatedAt: epoch.Add(time.Duration(minute) * time.Minute),
	}
}

func TestScore(t *testing.T) {
	tests := []struct {
		name  string
		stats Stats
		want  float64
	}{
		{
			name:  "unused pattern",
			stats: Stats{UserRating: 3},
			want:  44,
		},
		{
			name: "typical",
			stats: Stats{
				SuccessRate:           1,
				UsageCount:            10,
				AvgCGDeviation:        5,
				AvgOptimizationTimeMs: 2000,
				UserRating:            4,
			},
			want: 77.7,
		},
		{
			name:  "usage is capped",
			stats: Stats{UsageCount: 250},
			want:  20 + 20 + 15,
		},
		{
			name:  "large deviation and slow runs floor at zero",
			stats: Stats{AvgCGDeviation: -150, AvgOptimizationTimeMs: 500000},
			want:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Score(tt.stats), 1e-9)
		})
	}
}

func TestRank(t *testing.T) {
	entries := []Entry{
		{Pattern: "beta", Score: 50},
		{Pattern: "alpha", Score: 50},
		{Pattern: "gamma", Score: 80},
		{Pattern: "delta", Score: 10},
	}

	ranked := Rank(entries)

	require.Len(t, ranked, 4)
	names := []string{ranked[0].Pattern, ranked[1].Pattern, ranked[2].Pattern, ranked[3].Pattern}
	assert.Equal(t, []string{"gamma", "alpha", "beta", "delta"}, names)
	for i, e := range ranked {
		assert.Equal(t, i+1, e.Rank)
	}
	assert.Zero(t, entries[0].Rank, "input must not be modified")
	assert.Empty(t, Rank(nil))
}

func TestUpdateSuccessRate(t *testing.T) {
	rate := 0.0
	outcomes := []bool{true, false, true, true}
	for used, success := range outcomes {
		rate = UpdateSuccessRate(rate, used, success)
	}
	assert.InDelta(t, 0.75, rate, 1e-12)
	assert.Equal(t, 1.0, UpdateSuccessRate(0, 0, true))
	assert.Equal(t, 0.0, UpdateSuccessRate(0, 0, false))
}

func TestAggregate(t *testing.T) {
	records := []optimization.Record{
		record("default", "local", true, 20, 26, 1000, 1),
		record("default", "pso", false, 20, 18, 3000, 5),
		record("default", "local", true, 22, 26, 2000, 3),
	}

	s := Aggregate(records, 4)

	assert.Equal(t, 3, s.UsageCount)
	assert.InDelta(t, 2.0/3.0, s.SuccessRate, 1e-12)
	assert.InDelta(t, 4, s.AvgCGDeviation, 1e-12)
	assert.InDelta(t, 2000, s.AvgOptimizationTimeMs, 1e-12)
	assert.InDelta(t, 70.0/3.0, s.AvgFinalCG, 1e-12)
	assert.Equal(t, 4.0, s.UserRating)
	assert.Equal(t, map[string]int{"local": 2, "pso": 1}, s.MethodDistribution)
	assert.Equal(t, epoch.Add(5*time.Minute), s.LastUsed)

	empty := Aggregate(nil, 3)
	assert.Equal(t, Stats{UserRating: 3}, empty)
}

func TestPerformance(t *testing.T) {
	s := Stats{
		SuccessRate:           0.5,
		UsageCount:            4,
		AvgOptimizationTimeMs: 10000,
		AvgFinalCG:            30,
		MethodDistribution:    map[string]int{"local": 1, "pso": 1, "bounded": 2},
	}

	m := Performance(s)

	assert.Equal(t, 50.0, m.EnvelopeCompliance)
	assert.Equal(t, 95.0, m.FuelEfficiency)
	assert.Equal(t, 90.0, m.LoadingSpeed)
	assert.Equal(t, 75.0, m.Versatility)

	s.MethodDistribution = map[string]int{"a": 1, "b": 1, "c": 1, "d": 1, "e": 1}
	assert.Equal(t, 100.0, Performance(s).Versatility)

	assert.Zero(t, Performance(Stats{}).FuelEfficiency)
}

func TestBuild(t *testing.T) {
	records := []optimization.Record{
		record("forward", "local", true, 20, 25, 100, 1),
		record("forward", "bounded", true, 20, 25, 100, 2),
		record("aft", "pso", false, 20, 40, 100, 3),
		record("adhoc", "local", true, 20, 25, 100, 4),
	}
	ratings := map[string]float64{"forward": 5, "aft": 1, "unused": 3}

	entries := Build(zap.NewNop(), records, ratings)

	require.Len(t, entries, 4)
	assert.Equal(t, "forward", entries[0].Pattern)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, 2, entries[0].Stats.UsageCount)
	assert.Equal(t, 50.0, entries[0].Performance.Versatility)

	byName := map[string]Entry{}
	for _, e := range entries {
		byName[e.Pattern] = e
		assert.InDelta(t, Score(e.Stats), e.Score, 1e-12)
	}
	assert.Equal(t, 3.0, byName["adhoc"].Stats.UserRating)
	assert.Zero(t, byName["unused"].Stats.UsageCount)
	assert.Greater(t, byName["adhoc"].Score, byName["unused"].Score)

	assert.Empty(t, Build(nil, nil, nil))
}

func TestSummarize(t *testing.T) {
	var records []optimization.Record
	for i := 0; i < 12; i++ {
		method := "local"
		if i%3 == 0 {
			method = "pso"
		}
		records = append(records, record("default", method, i%2 == 0, 20, 25, 100, i))
	}
	entries := Build(nil, records, map[string]float64{"default": 3, "spare": 3})

	a := Summarize(entries, records)

	assert.Equal(t, 2, a.TotalPatterns)
	assert.Equal(t, 12, a.TotalOptimizations)
	assert.InDelta(t, 0.5, a.AvgSuccessRate, 1e-12)
	assert.Equal(t, "local", a.MostUsedMethod)
	assert.Equal(t, "default", a.BestPattern)
	require.Len(t, a.RecentActivity, 10)
	assert.Equal(t, epoch.Add(11*time.Minute), a.RecentActivity[0].CreatedAt)
	assert.Equal(t, epoch.Add(2*time.Minute), a.RecentActivity[9].CreatedAt)
}

func TestSummarizeEmpty(t *testing.T) {
	a := Summarize(nil, nil)

	assert.Equal(t, "none", a.MostUsedMethod)
	assert.Empty(t, a.BestPattern)
	assert.Empty(t, a.RecentActivity)
	assert.Zero(t, a.AvgSuccessRate)
}

func TestSummarizeMethodTie(t *testing.T) {
	records := []optimization.Record{
		record("p", "pso", true, 0, 0, 0, 1),
		record("p", "bounded", true, 0, 0, 0, 2),
	}
	assert.Equal(t, "bounded", Summarize(nil, records).MostUsedMethod)
}
