package optimizer

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records optimizer activity. A nil *Metrics records nothing.
type Metrics struct {
	optimizations *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	iterations    *prometheus.HistogramVec
	windows       *prometheus.CounterVec
	skipped       prometheus.Counter
}

// NewMetrics registers the optimizer collectors with reg. Passing a fresh
// registry keeps tests independent of the default one.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		// optimizations counts completed runs by method and success
		optimizations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wb_optimizations_total",
			Help: "Total optimization runs by method and success",
		}, []string{"method", "success"}),

		// duration tracks wall time per run
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "wb_optimization_duration_seconds",
			Help:    "Optimization duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
		}, []string{"method"}),

		// iterations tracks trials, swarm iterations or candidates per run
		iterations: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "wb_optimizer_iterations",
			Help:    "Iterations used per optimization run",
			Buckets: []float64{1, 5, 10, 20, 50, 100, 200},
		}, []string{"method"}),

		windows: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wb_window_estimates_total",
			Help: "Total opportunity window estimates by emptiness",
		}, []string{"empty"}),

		skipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "wb_skipped_items_total",
			Help: "Total items skipped because their position had no moment arm",
		}),
	}
}

func (m *Metrics) observeRun(res Result, elapsed time.Duration) {
	if m == nil {
		return
	}
	method := string(res.Method)
	m.optimizations.WithLabelValues(method, strconv.FormatBool(res.Success)).Inc()
	m.duration.WithLabelValues(method).Observe(elapsed.Seconds())
	m.iterations.WithLabelValues(method).Observe(float64(res.Iterations))
}

func (m *Metrics) observeWindow(w Window) {
	if m == nil {
		return
	}
	m.windows.WithLabelValues(strconv.FormatBool(w.Empty)).Inc()
}

func (m *Metrics) observeSkipped(n int) {
	if m == nil || n == 0 {
		return
	}
	m.skipped.Add(float64(n))
}
