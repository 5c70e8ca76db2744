// Package metrics holds the Prometheus collectors for the conversation engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics is the set of collectors. A nil *Metrics records nothing.
type Metrics struct {
	TurnsTotal        *prometheus.CounterVec
	TurnDuration      prometheus.Histogram
	ErrorsTotal       *prometheus.CounterVec
	RecordsSaved      prometheus.Counter
	ExtractorFailures prometheus.Counter
	SessionsCreated   prometheus.Counter
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		TurnsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "repbot",
			Name:      "turns_total",
			Help:      "Processed messages by resulting conversation state.",
		}, []string{"state"}),

		TurnDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "repbot",
			Name:      "turn_duration_seconds",
			Help:      "Time spent processing one message, including extraction.",
			Buckets:   prometheus.DefBuckets,
		}),

		ErrorsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "repbot",
			Name:      "errors_total",
			Help:      "Turn errors by kind.",
		}, []string{"kind"}),

		RecordsSaved: f.NewCounter(prometheus.CounterOpts{
			Namespace: "repbot",
			Name:      "records_saved_total",
			Help:      "Workout records persisted.",
		}),

		ExtractorFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: "repbot",
			Name:      "extractor_failures_total",
			Help:      "Failed calls to the text extraction backend.",
		}),

		SessionsCreated: f.NewCounter(prometheus.CounterOpts{
			Namespace: "repbot",
			Name:      "sessions_created_total",
			Help:      "Conversations started by new identities.",
		}),
	}
}

// ObserveTurn counts a finished turn.
func (m *Metrics) ObserveTurn(state string, d time.Duration) {
	if m == nil {
		return
	}
	m.TurnsTotal.WithLabelValues(state).Inc()
	m.TurnDuration.Observe(d.Seconds())
}

// Error counts an error of the given kind.
func (m *Metrics) Error(kind string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(kind).Inc()
}

// Saved counts persisted records.
func (m *Metrics) Saved(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.RecordsSaved.Add(float64(n))
}

// ExtractorFailure counts a failed extraction call.
func (m *Metrics) ExtractorFailure() {
	if m == nil {
		return
	}
	m.ExtractorFailures.Inc()
}

// SessionCreated counts a new conversation.
func (m *Metrics) SessionCreated() {
	if m == nil {
		return
	}
	m.SessionsCreated.Inc()
}
