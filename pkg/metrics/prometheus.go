package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	decisions    *prometheus.CounterVec
	totalScore   *prometheus.HistogramVec
	actions      *prometheus.CounterVec
	messagesSent *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	latency      *prometheus.HistogramVec
}

// New creates a recorder registered on the default registry.
func New() *Recorder {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates a recorder on reg, mostly so tests can use a private registry.
func NewWithRegisterer(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		decisions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coinsense_decisions_total",
				Help: "Decisions produced by outcome and persona",
			},
			[]string{"outcome", "persona"},
		),
		totalScore: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "coinsense_decision_total_score",
				Help:    "Distribution of weighted total scores",
				Buckets: []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
			},
			[]string{"persona"},
		),
		actions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coinsense_chat_actions_total",
				Help: "Chat messages routed per action",
			},
			[]string{"action", "result"},
		),
		messagesSent: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coinsense_records_sent_total",
				Help: "Decision records delivered per backend",
			},
			[]string{"backend"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coinsense_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "coinsense_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordDecision counts one decision and observes its total score.
func (r *Recorder) RecordDecision(persona, outcome string, total float64) {
	r.decisions.WithLabelValues(outcome, persona).Inc()
	r.totalScore.WithLabelValues(persona).Observe(total)
}

// RecordAction counts a routed chat message.
func (r *Recorder) RecordAction(action string, ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	r.actions.WithLabelValues(action, result).Inc()
}

// RecordMessageSent records a decision record handed to a backend.
func (r *Recorder) RecordMessageSent(backend string) {
	r.messagesSent.WithLabelValues(backend).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
