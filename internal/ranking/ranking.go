// Package ranking turns optimization history into per-pattern statistics,
// scores and ranks.
package ranking

import (
	"cmp"
	"math"
	"slices"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/iwvelando/weight-balance/pkg/constants"
	"github.com/iwvelando/weight-balance/pkg/mathutil"
	"github.com/iwvelando/weight-balance/pkg/optimization"
)

// Score weights.
const (
	successWeight = 0.30
	usageWeight   = 0.20
	cgWeight      = 0.20
	speedWeight   = 0.15
	ratingWeight  = 0.15

	usageCap = 100
)

// fuelEfficiencyTarget is the %MAC at which fuel efficiency peaks.
const fuelEfficiencyTarget = 25.0

// Stats are the aggregate usage statistics of one loading pattern.
type Stats struct {
	SuccessRate           float64        `json:"successRate"`
	UsageCount            int            `json:"usageCount"`
	AvgCGDeviation        float64        `json:"avgCGDeviation"`
	AvgOptimizationTimeMs float64        `json:"avgOptimizationTimeMs"`
	UserRating            float64        `json:"userRating"`
	AvgFinalCG            float64        `json:"avgFinalCG"`
	MethodDistribution    map[string]int `json:"methodDistribution,omitempty"`
	LastUsed              time.Time      `json:"lastUsed,omitempty"`
}

// PerformanceMetrics are supplementary 0-100 indicators shown next to the
// score. They do not feed into it.
type PerformanceMetrics struct {
	EnvelopeCompliance float64 `json:"envelopeCompliance"`
	FuelEfficiency     float64 `json:"fuelEfficiency"`
	LoadingSpeed       float64 `json:"loadingSpeed"`
	Versatility        float64 `json:"versatility"`
}

// Entry is one ranked pattern.
type Entry struct {
	Pattern     string             `json:"pattern"`
	Rank        int                `json:"rank"`
	Score       float64            `json:"score"`
	Stats       Stats              `json:"stats"`
	Performance PerformanceMetrics `json:"performance"`
}

// Score combines the statistics into a single value; higher is better.
func Score(s Stats) float64 {
	return s.SuccessRate*100*successWeight +
		float64(min(s.UsageCount, usageCap))*usageWeight +
		math.Max(0, 100-math.Abs(s.AvgCGDeviation))*cgWeight +
		math.Max(0, 100-s.AvgOptimizationTimeMs/1000)*speedWeight +
		s.UserRating*20*ratingWeight
}

// Rank returns a copy of entries sorted by descending score, ties broken by
// pattern name, with 1-based ranks assigned.
func Rank(entries []Entry) []Entry {
	out := slices.Clone(entries)
	slices.SortStableFunc(out, func(a, b Entry) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Pattern, b.Pattern)
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// UpdateSuccessRate folds one more run into a running success rate.
func UpdateSuccessRate(rate float64, used int, success bool) float64 {
	total := rate * float64(used)
	if success {
		total++
	}
	return total / float64(used+1)
}

// Aggregate derives the statistics of a pattern from its history records.
func Aggregate(records []optimization.Record, rating float64) Stats {
	s := Stats{UserRating: rating}
	if len(records) == 0 {
		return s
	}

	s.MethodDistribution = make(map[string]int)
	deviations := make([]float64, 0, len(records))
	elapsed := make([]float64, 0, len(records))
	finals := make([]float64, 0, len(records))
	for _, rec := range records {
		s.SuccessRate = UpdateSuccessRate(s.SuccessRate, s.UsageCount, rec.Success)
		s.UsageCount++
		s.MethodDistribution[rec.Method]++
		deviations = append(deviations, rec.CGDeviation())
		elapsed = append(elapsed, rec.ElapsedMs)
		finals = append(finals, rec.FinalCG)
		if rec.CreatedAt.After(s.LastUsed) {
			s.LastUsed = rec.CreatedAt
		}
	}
	s.AvgCGDeviation = mathutil.Mean(deviations)
	s.AvgOptimizationTimeMs = mathutil.Mean(elapsed)
	s.AvgFinalCG = mathutil.Mean(finals)
	return s
}

// Performance derives the supplementary indicators from s.
func Performance(s Stats) PerformanceMetrics {
	m := PerformanceMetrics{
		EnvelopeCompliance: s.SuccessRate * 100,
		LoadingSpeed:       math.Max(0, 100-s.AvgOptimizationTimeMs/1000),
		Versatility:        math.Min(100, float64(len(s.MethodDistribution))*25),
	}
	if s.UsageCount > 0 {
		m.FuelEfficiency = math.Max(0, 100-math.Abs(s.AvgFinalCG-fuelEfficiencyTarget))
	}
	return m
}

// Build groups records by pattern and ranks every pattern in ratings.
// Records of patterns missing from ratings are ranked with the default user
// rating.
func Build(logger *zap.Logger, records []optimization.Record, ratings map[string]float64) []Entry {
	if logger == nil {
		logger = zap.NewNop()
	}

	grouped := make(map[string][]optimization.Record)
	for _, rec := range records {
		grouped[rec.Pattern] = append(grouped[rec.Pattern], rec)
	}
	for name := range ratings {
		if _, ok := grouped[name]; !ok {
			grouped[name] = nil
		}
	}

	entries := make([]Entry, 0, len(grouped))
	for name, recs := range grouped {
		rating, ok := ratings[name]
		if !ok {
			logger.Debug("pattern has history but no configured rating",
				zap.String("op", "ranking.Build"),
				zap.String("pattern", name),
				zap.Int("records", len(recs)),
			)
			rating = constants.DefaultUserRating
		}
		stats := Aggregate(recs, rating)
		entries = append(entries, Entry{
			Pattern:     name,
			Score:       Score(stats),
			Stats:       stats,
			Performance: Performance(stats),
		})
	}
	return Rank(entries)
}

// Analytics summarizes the whole optimization history.
type Analytics struct {
	TotalPatterns      int                   `json:"totalPatterns"`
	TotalOptimizations int                   `json:"totalOptimizations"`
	AvgSuccessRate     float64               `json:"avgSuccessRate"`
	MostUsedMethod     string                `json:"mostUsedMethod"`
	BestPattern        string                `json:"bestPattern,omitempty"`
	RecentActivity     []optimization.Record `json:"recentActivity"`
}

// Summarize builds the analytics view from ranked entries and the full
// history. The most used method is "none" without history; ties go to the
// alphabetically first method.
func Summarize(entries []Entry, records []optimization.Record) Analytics {
	a := Analytics{
		TotalPatterns:      len(entries),
		TotalOptimizations: len(records),
		MostUsedMethod:     "none",
		RecentActivity:     []optimization.Record{},
	}
	if len(entries) > 0 {
		best := entries[0]
		for _, e := range entries[1:] {
			if e.Rank < best.Rank {
				best = e
			}
		}
		a.BestPattern = best.Pattern
	}
	if len(records) == 0 {
		return a
	}

	successes := 0
	counts := make(map[string]int)
	for _, rec := range records {
		if rec.Success {
			successes++
		}
		counts[rec.Method]++
	}
	a.AvgSuccessRate = float64(successes) / float64(len(records))

	methods := make([]string, 0, len(counts))
	for m := range counts {
		methods = append(methods, m)
	}
	sort.Strings(methods)
	for _, m := range methods {
		if a.MostUsedMethod == "none" || counts[m] > counts[a.MostUsedMethod] {
			a.MostUsedMethod = m
		}
	}

	recent := slices.Clone(records)
	slices.SortStableFunc(recent, func(x, y optimization.Record) int {
		return y.CreatedAt.Compare(x.CreatedAt)
	})
	a.RecentActivity = recent[:min(len(recent), constants.RecentActivityLimit)]
	return a
}
