package store

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts reconciliation outcomes. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	Loads        *prometheus.CounterVec
	Saves        *prometheus.CounterVec
	RemoteErrors *prometheus.CounterVec
}

// Load outcomes.
const (
	OutcomeAnonymous = "anonymous"
	OutcomeLocal     = "local"
	OutcomeRemote    = "remote"
	OutcomeMerged    = "merged"
	OutcomeRecovered = "recovered"
)

// Save modes.
const (
	SaveRemote    = "remote"
	SaveDeferred  = "deferred"
	SaveLocalOnly = "local_only"
)

// NewMetrics creates the store counters and registers them on reg when it
// is not nil.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Loads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "store",
				Name:      "loads_total",
				Help:      "Record loads by reconciliation outcome",
			},
			[]string{"record", "outcome"},
		),
		Saves: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "store",
				Name:      "saves_total",
				Help:      "Record saves by write mode",
			},
			[]string{"record", "mode"},
		),
		RemoteErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "store",
				Name:      "remote_errors_total",
				Help:      "Failed remote document operations",
			},
			[]string{"record", "op"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.Loads, m.Saves, m.RemoteErrors)
	}
	return m
}

func (m *Metrics) load(record, outcome string) {
	if m == nil {
		return
	}
	m.Loads.WithLabelValues(record, outcome).Inc()
}

func (m *Metrics) save(record, mode string) {
	if m == nil {
		return
	}
	m.Saves.WithLabelValues(record, mode).Inc()
}

func (m *Metrics) remoteError(record, op string) {
	if m == nil {
		return
	}
	m.RemoteErrors.WithLabelValues(record, op).Inc()
}
