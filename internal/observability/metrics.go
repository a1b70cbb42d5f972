package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// authAttempts counts register and login attempts by outcome.
	authAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studio_auth_attempts_total",
			Help: "Register and login attempts by operation and outcome.",
		},
		[]string{"op", "outcome"},
	)

	// generations counts image generation runs by outcome
	// (ok, replayed, upstream, conflict, store_unavailable).
	generations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studio_generations_total",
			Help: "Image generation runs by outcome.",
		},
		[]string{"outcome"},
	)

	// upstreamLat records provider call latency. Image synthesis routinely
	// takes tens of seconds, hence the wide buckets.
	upstreamLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "studio_upstream_duration_seconds",
			Help:    "Duration of generative provider calls in seconds.",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 45, 60, 90},
		},
		[]string{"service", "outcome"},
	)

	// activeStates gauges the per-session states held in memory.
	activeStates = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "studio_active_sessions",
			Help: "Per-session application states currently held in memory.",
		},
	)
)

func init() {
	prometheus.MustRegister(authAttempts, generations, upstreamLat, activeStates)
}

// CountAuth records one register or login attempt.
func CountAuth(op, outcome string) {
	authAttempts.WithLabelValues(op, outcome).Inc()
}

// CountGeneration records one generation run.
func CountGeneration(outcome string) {
	generations.WithLabelValues(outcome).Inc()
}

// ObserveUpstream records the latency of one provider call.
func ObserveUpstream(service, outcome string, d time.Duration) {
	upstreamLat.WithLabelValues(service, outcome).Observe(d.Seconds())
}

// SetActiveStates publishes the number of live session states.
func SetActiveStates(n int) {
	activeStates.Set(float64(n))
}
