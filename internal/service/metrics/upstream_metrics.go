package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	UpstreamLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "coinsense",
			Subsystem: "upstream",
			Name:      "latency_seconds",
			Help:      "Latency of upstream API calls",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider", "endpoint"},
	)

	UpstreamErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "coinsense",
			Subsystem: "upstream",
			Name:      "errors_total",
			Help:      "Upstream API errors by kind",
		},
		[]string{"provider", "kind"},
	)

	BreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "coinsense",
			Subsystem: "upstream",
			Name:      "breaker_state",
			Help:      "Circuit breaker state: 0 closed, 1 half-open, 2 open",
		},
		[]string{"provider"},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(UpstreamLatency, UpstreamErrors, BreakerState)
	})
}

// ObserveCall records one upstream call. kind is empty on success.
func ObserveCall(provider, endpoint string, d time.Duration, kind string) {
	Register()
	UpstreamLatency.WithLabelValues(provider, endpoint).Observe(d.Seconds())
	if kind != "" {
		UpstreamErrors.WithLabelValues(provider, kind).Inc()
	}
}

// SetBreakerState publishes the breaker state for provider.
func SetBreakerState(provider string, state int) {
	Register()
	BreakerState.WithLabelValues(provider).Set(float64(state))
}
