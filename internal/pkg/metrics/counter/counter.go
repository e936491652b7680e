package counter

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels.
const (
	OutcomeAccepted    = "accepted"
	OutcomeMock        = "mock"
	OutcomeSynced      = "synced"
	OutcomeInvalid     = "invalid"
	OutcomeUnknownTier = "unknown_tier"
	OutcomeUnsupported = "unsupported"
	OutcomeFailed      = "failed"
)

// Metrics holds the membership counters.
type Metrics struct {
	registry *prometheus.Registry

	SubmissionsTotal *prometheus.CounterVec
	BillingSyncTotal *prometheus.CounterVec
}

// NewMetrics creates the counters and registers them, together with the Go
// runtime collectors, on registry.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: registry,
		SubmissionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "guild_membership_submissions_total",
				Help: "Membership submissions by outcome",
			},
			[]string{"outcome"},
		),
		BillingSyncTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "guild_billing_sync_total",
				Help: "Billing sync attempts by outcome",
			},
			[]string{"outcome"},
		),
	}
	registry.MustRegister(
		m.SubmissionsTotal,
		m.BillingSyncTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// AddSubmission counts one submission. Safe on a nil receiver.
func (m *Metrics) AddSubmission(outcome string) {
	if m == nil {
		return
	}
	m.SubmissionsTotal.WithLabelValues(outcome).Inc()
}

// AddBillingSync counts one sync attempt. Safe on a nil receiver.
func (m *Metrics) AddBillingSync(outcome string) {
	if m == nil {
		return
	}
	m.BillingSyncTotal.WithLabelValues(outcome).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
