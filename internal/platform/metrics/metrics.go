// Package metrics provides Prometheus metrics for the timer service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	SessionsCompleted *prometheus.CounterVec
	AlertsTotal       *prometheus.CounterVec
	CommandsTotal     *prometheus.CounterVec
	PersistenceErrors *prometheus.CounterVec
	TimerPhase        *prometheus.GaugeVec

	registry *prometheus.Registry
}

var phases = []string{"idle", "running", "paused"}

// New creates and registers all metrics on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		SessionsCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pomodoro_sessions_completed_total",
				Help: "Completed sessions by kind.",
			},
			[]string{"kind"},
		),
		AlertsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pomodoro_alerts_total",
				Help: "Alert channel invocations by channel and result.",
			},
			[]string{"channel", "result"},
		),
		CommandsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pomodoro_commands_total",
				Help: "Dispatched commands by action and result.",
			},
			[]string{"action", "result"},
		),
		PersistenceErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pomodoro_persistence_errors_total",
				Help: "Failed writes by store.",
			},
			[]string{"store"},
		),
		TimerPhase: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pomodoro_timer_phase",
				Help: "1 for the current timer phase, 0 otherwise.",
			},
			[]string{"phase"},
		),
		registry: reg,
	}

	reg.MustRegister(m.SessionsCompleted)
	reg.MustRegister(m.AlertsTotal)
	reg.MustRegister(m.CommandsTotal)
	reg.MustRegister(m.PersistenceErrors)
	reg.MustRegister(m.TimerPhase)

	return m
}

// Handler returns an http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) RecordSession(kind string) {
	if m == nil {
		return
	}
	m.SessionsCompleted.WithLabelValues(kind).Inc()
}

func (m *Metrics) RecordAlert(channel, result string) {
	if m == nil {
		return
	}
	m.AlertsTotal.WithLabelValues(channel, result).Inc()
}

func (m *Metrics) RecordCommand(action, result string) {
	if m == nil {
		return
	}
	m.CommandsTotal.WithLabelValues(action, result).Inc()
}

func (m *Metrics) RecordPersistenceError(store string) {
	if m == nil {
		return
	}
	m.PersistenceErrors.WithLabelValues(store).Inc()
}

func (m *Metrics) SetPhase(phase string) {
	if m == nil {
		return
	}
	for _, p := range phases {
		value := 0.0
		if p == phase {
			value = 1
		}
		m.TimerPhase.WithLabelValues(p).Set(value)
	}
}
