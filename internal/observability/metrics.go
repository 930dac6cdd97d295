package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ImportMetrics counts reconciliation outcomes per provider. Results are
// labelled imported, skipped or error.
type ImportMetrics struct {
	Orders   *prometheus.CounterVec
	Runs     *prometheus.CounterVec
	Webhooks *prometheus.CounterVec
}

func NewImportMetrics() *ImportMetrics {
	m := &ImportMetrics{
		Orders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "paysync_import_orders_total",
			Help: "Orders processed during payment imports, by provider and result.",
		}, []string{"provider", "result"}),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "paysync_import_runs_total",
			Help: "Import runs executed, by provider and outcome.",
		}, []string{"provider", "outcome"}),
		Webhooks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "paysync_webhook_events_total",
			Help: "Webhook events received, by provider and action.",
		}, []string{"provider", "action"}),
	}
	prometheus.MustRegister(m.Orders, m.Runs, m.Webhooks)
	return m
}

// NewTestImportMetrics returns metrics backed by a private registry so
// tests can construct services without double-registration panics.
func NewTestImportMetrics() *ImportMetrics {
	reg := prometheus.NewRegistry()
	m := &ImportMetrics{
		Orders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "paysync_import_orders_total",
		}, []string{"provider", "result"}),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "paysync_import_runs_total",
		}, []string{"provider", "outcome"}),
		Webhooks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "paysync_webhook_events_total",
		}, []string{"provider", "action"}),
	}
	reg.MustRegister(m.Orders, m.Runs, m.Webhooks)
	return m
}
