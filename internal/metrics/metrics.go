// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package metrics exposes prometheus instrumentation for the decision
// engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/autobrr/fetcharr/internal/health"
)

// Manager owns the prometheus registry and the engine collectors.
type Manager struct {
	registry *prometheus.Registry
	engine   *EngineCollector
}

// NewManager builds a registry with go/process collectors plus the engine
// collector.
func NewManager() *Manager {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return &Manager{
		registry: registry,
		engine:   NewEngineCollector(registry),
	}
}

// GetRegistry returns the prometheus registry for the /metrics handler.
func (m *Manager) GetRegistry() *prometheus.Registry {
	return m.registry
}

// Engine returns the engine collector.
func (m *Manager) Engine() *EngineCollector {
	return m.engine
}

// EngineCollector carries the engine's counters and gauges. All methods are
// nil-safe so services can run without metrics wired (tests).
type EngineCollector struct {
	BreakerState        *prometheus.GaugeVec
	ProviderSearchTotal *prometheus.CounterVec
	DecisionTotal       *prometheus.CounterVec
	CascadeRunTotal     *prometheus.CounterVec
}

// NewEngineCollector registers the engine metrics on r.
func NewEngineCollector(r *prometheus.Registry) *EngineCollector {
	c := &EngineCollector{
		BreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "fetcharr",
			Subsystem: "breaker",
			Name:      "state",
			Help:      "Circuit state per provider (0 closed, 1 open, 2 half-open)",
		}, []string{"provider"}),
		ProviderSearchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fetcharr",
			Subsystem: "search",
			Name:      "provider_total",
			Help:      "Provider search calls by outcome",
		}, []string{"provider", "outcome"}),
		DecisionTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fetcharr",
			Subsystem: "decision",
			Name:      "verdict_total",
			Help:      "Release decisions by verdict",
		}, []string{"verdict"}),
		CascadeRunTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fetcharr",
			Subsystem: "search",
			Name:      "cascade_run_total",
			Help:      "Cascading search runs by result",
		}, []string{"result"}),
	}

	r.MustRegister(c.BreakerState)
	r.MustRegister(c.ProviderSearchTotal)
	r.MustRegister(c.DecisionTotal)
	r.MustRegister(c.CascadeRunTotal)
	return c
}

// ObserveBreakerState records a circuit state transition.
func (c *EngineCollector) ObserveBreakerState(providerID string, state health.State) {
	if c == nil {
		return
	}
	c.BreakerState.WithLabelValues(providerID).Set(float64(state))
}

// ObserveProviderSearch records one provider call outcome
// (success, error, short_circuited).
func (c *EngineCollector) ObserveProviderSearch(providerID, outcome string) {
	if c == nil {
		return
	}
	c.ProviderSearchTotal.WithLabelValues(providerID, outcome).Inc()
}

// ObserveDecision records one decision verdict.
func (c *EngineCollector) ObserveDecision(verdict string) {
	if c == nil {
		return
	}
	c.DecisionTotal.WithLabelValues(verdict).Inc()
}

// ObserveCascade records a finished cascade run.
func (c *EngineCollector) ObserveCascade(result string) {
	if c == nil {
		return
	}
	c.CascadeRunTotal.WithLabelValues(result).Inc()
}
