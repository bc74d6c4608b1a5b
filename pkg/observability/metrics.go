package observability

import (
	"context"
	"strconv"

	"github.com/aretw0/tilbot/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the engine's Prometheus collectors.
type Metrics struct {
	Emits    *prometheus.CounterVec
	Matches  *prometheus.CounterVec
	Stalls   prometheus.Counter
	Lookups  *prometheus.CounterVec
	Failures prometheus.Counter
}

// NewMetrics creates the collectors and registers them on reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Emits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tilbot_messages_emitted_total",
				Help: "Total number of bot messages delivered",
			},
			[]string{"block_type"},
		),
		Matches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tilbot_matches_total",
				Help: "Total number of utterances that selected a connector",
			},
			[]string{"kind"},
		),
		Stalls: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tilbot_stalls_total",
			Help: "Total number of utterances that produced no transition",
		}),
		Lookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tilbot_lookups_total",
				Help: "Total number of External Data Provider queries",
			},
			[]string{"kind", "found", "error"},
		),
		Failures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tilbot_session_failures_total",
			Help: "Total number of sessions ended by a fatal error",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Emits, m.Matches, m.Stalls, m.Lookups, m.Failures)
	}
	return m
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnEmit: func(_ context.Context, e *domain.EmitEvent) {
			m.Emits.WithLabelValues(string(e.Message.Type)).Inc()
		},
		OnMatch: func(_ context.Context, e *domain.MatchEvent) {
			m.Matches.WithLabelValues(matchKind(e)).Inc()
		},
		OnStall: func(context.Context, *domain.StallEvent) {
			m.Stalls.Inc()
		},
		OnLookup: func(_ context.Context, e *domain.LookupEvent) {
			m.Lookups.WithLabelValues(e.Kind, strconv.FormatBool(e.Found), strconv.FormatBool(e.Err != nil)).Inc()
		},
		OnFailure: func(context.Context, *domain.FailureEvent) {
			m.Failures.Inc()
		},
	}
}

func matchKind(e *domain.MatchEvent) string {
	switch {
	case e.Trigger:
		return "trigger"
	case e.Else:
		return "else"
	}
	return "label"
}
