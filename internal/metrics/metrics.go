// Package metrics provides prometheus instrumentation for the verification pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for verification sessions. All methods are
// safe on a nil receiver.
type Metrics struct {
	// Sessions currently held in the registry
	ActiveSessions prometheus.Gauge

	// Session lifecycle events: "created", "deleted", "expired"
	SessionEvents *prometheus.CounterVec

	// Extraction outcomes: "ocr", "fallback", "cached"
	Extractions *prometheus.CounterVec

	// Wall time of a full extraction run
	ExtractionDuration prometheus.Histogram

	// Liveness capture outcomes: "captured", "cancelled", "device_error", "failed"
	Captures *prometheus.CounterVec

	// Detection strategy downgrades from native to heuristic
	DetectorFallbacks prometheus.Counter

	// Publish outcomes: "success", "failure"
	Publishes *prometheus.CounterVec

	// Score of each published identity
	PublishedScore prometheus.Histogram
}

// New creates a Metrics instance with every collector registered on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		ActiveSessions: f.NewGauge(prometheus.GaugeOpts{
			Name: "veridid_sessions_active",
			Help: "Number of verification sessions currently open",
		}),

		SessionEvents: f.NewCounterVec(prometheus.CounterOpts{
			Name: "veridid_session_events_total",
			Help: "Verification session lifecycle events by kind",
		}, []string{"event"}),

		Extractions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "veridid_extractions_total",
			Help: "Document extraction runs by outcome",
		}, []string{"outcome"}),

		ExtractionDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "veridid_extraction_duration_seconds",
			Help:    "Duration of document extraction runs including phase delays",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 60},
		}),

		Captures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "veridid_liveness_captures_total",
			Help: "Liveness capture rounds by outcome",
		}, []string{"outcome"}),

		DetectorFallbacks: f.NewCounter(prometheus.CounterOpts{
			Name: "veridid_detector_fallbacks_total",
			Help: "Sessions that downgraded from native face detection to the heuristic",
		}),

		Publishes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "veridid_publishes_total",
			Help: "Metadata publication attempts by outcome",
		}, []string{"outcome"}),

		PublishedScore: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "veridid_published_score",
			Help:    "Verification score of published identities",
			Buckets: []float64{25, 50, 75, 100},
		}),
	}
}

// SessionOpened records a new session.
func (m *Metrics) SessionOpened() {
	if m != nil {
		m.ActiveSessions.Inc()
		m.SessionEvents.WithLabelValues("created").Inc()
	}
}

// SessionClosed records a session leaving the registry. expired
// distinguishes janitor removal from explicit deletion.
func (m *Metrics) SessionClosed(expired bool) {
	if m == nil {
		return
	}
	m.ActiveSessions.Dec()
	if expired {
		m.SessionEvents.WithLabelValues("expired").Inc()
		return
	}
	m.SessionEvents.WithLabelValues("deleted").Inc()
}

// ObserveExtraction records an extraction run.
func (m *Metrics) ObserveExtraction(outcome string, d time.Duration) {
	if m != nil {
		m.Extractions.WithLabelValues(outcome).Inc()
		m.ExtractionDuration.Observe(d.Seconds())
	}
}

// IncrementCapture records a capture round outcome.
func (m *Metrics) IncrementCapture(outcome string) {
	if m != nil {
		m.Captures.WithLabelValues(outcome).Inc()
	}
}

// IncrementDetectorFallback records a detection strategy downgrade.
func (m *Metrics) IncrementDetectorFallback() {
	if m != nil {
		m.DetectorFallbacks.Inc()
	}
}

// ObservePublish records a publish attempt and, on success, the published score.
func (m *Metrics) ObservePublish(err error, score int) {
	if m == nil {
		return
	}
	if err != nil {
		m.Publishes.WithLabelValues("failure").Inc()
		return
	}
	m.Publishes.WithLabelValues("success").Inc()
	m.PublishedScore.Observe(float64(score))
}
