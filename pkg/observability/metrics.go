package observability

import (
	"context"
	"net/http"

	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/aretw0/cardflow/pkg/profile"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the cardflow collectors on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	ScriptsGenerated prometheus.Counter
	ScriptCards      prometheus.Histogram
	ScriptDuration   prometheus.Histogram
	CyclesDetected   prometheus.Counter
	FlowEvents       *prometheus.CounterVec
	ProfileUpdates   prometheus.Counter
}

// NewMetrics creates and registers the collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		ScriptsGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cardflow_scripts_generated_total",
			Help: "Total number of generated scripts",
		}),
		ScriptCards: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cardflow_script_cards",
			Help:    "Number of cards in flows rendered to scripts",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
		ScriptDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "cardflow_script_duration_seconds",
			Help: "Duration of script generation",
		}),
		CyclesDetected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cardflow_script_cycles_total",
			Help: "Total number of cyclic references reported in scripts",
		}),
		FlowEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cardflow_flow_events_total",
				Help: "Flow loads, saves and failed imports",
			},
			[]string{"type"},
		),
		ProfileUpdates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cardflow_profile_updates_total",
			Help: "Total number of assistant profile updates",
		}),
	}
	m.Registry.MustRegister(
		m.ScriptsGenerated,
		m.ScriptCards,
		m.ScriptDuration,
		m.CyclesDetected,
		m.FlowEvents,
		m.ProfileUpdates,
	)
	return m
}

// Hooks returns lifecycle hooks recording into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	flow := func(_ context.Context, e *domain.FlowEvent) {
		m.FlowEvents.WithLabelValues(string(e.Type)).Inc()
	}
	return domain.LifecycleHooks{
		OnFlowLoaded:   flow,
		OnFlowSaved:    flow,
		OnImportFailed: flow,
		OnScriptGenerated: func(_ context.Context, e *domain.ScriptEvent) {
			m.ScriptsGenerated.Inc()
			m.ScriptCards.Observe(float64(e.Cards))
			m.ScriptDuration.Observe(e.Duration.Seconds())
			m.CyclesDetected.Add(float64(e.Cycles))
		},
	}
}

// ProfileListener counts profile updates. Register it with profile.Store.Subscribe.
func (m *Metrics) ProfileListener() profile.Listener {
	return func(profile.Event) {
		m.ProfileUpdates.Inc()
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
