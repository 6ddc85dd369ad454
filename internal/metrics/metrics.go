// Package metrics holds the Prometheus collectors for the registration form.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Submission outcomes.
const (
	OutcomeSubmitted       = "submitted"
	OutcomeGatewayError    = "gateway_error"
	OutcomeShareIncomplete = "share_incomplete"
	OutcomeInvalid         = "invalid"
)

// Metrics groups the registration collectors. A nil *Metrics records nothing.
type Metrics struct {
	ShareClicks     prometheus.Counter
	Submissions     *prometheus.CounterVec
	GatewayDuration prometheus.Histogram
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ShareClicks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "regform_share_clicks_total",
			Help: "Share intents opened by registrants",
		}),
		Submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "regform_submissions_total",
			Help: "Submit attempts by outcome",
		}, []string{"outcome"}),
		GatewayDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "regform_gateway_duration_seconds",
			Help:    "Round trip time of the registration endpoint",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}
	reg.MustRegister(m.ShareClicks, m.Submissions, m.GatewayDuration)
	return m
}

// Shared records one share intent.
func (m *Metrics) Shared() {
	if m == nil {
		return
	}
	m.ShareClicks.Inc()
}

// Submitted records a submit attempt outcome.
func (m *Metrics) Submitted(outcome string) {
	if m == nil {
		return
	}
	m.Submissions.WithLabelValues(outcome).Inc()
}

// ObserveGateway records a gateway round trip.
func (m *Metrics) ObserveGateway(d time.Duration) {
	if m == nil {
		return
	}
	m.GatewayDuration.Observe(d.Seconds())
}
