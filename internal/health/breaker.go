// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package health tracks per-provider success/failure and short-circuits
// calls to degraded providers. State is scoped per provider id: concurrent
// searches against different providers never contend, and mutations for one
// id are serialized under its own lock.
package health

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// State is the circuit state for one provider.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// Config controls when a circuit opens and how long it stays open.
type Config struct {
	// FailureThreshold is the number of consecutive failures that trips
	// Closed to Open.
	FailureThreshold int
	// Cooldown is how long an open circuit waits before allowing a probe.
	Cooldown time.Duration
}

// Status is a read-only snapshot of one provider's circuit.
type Status struct {
	ProviderID          string        `json:"providerId"`
	State               string        `json:"state"`
	ConsecutiveFailures int           `json:"consecutiveFailures"`
	SuccessRate         float64       `json:"successRate"`
	AverageLatency      time.Duration `json:"averageLatency"`
	OpenedAt            *time.Time    `json:"openedAt,omitempty"`
}

// resultWindow is the number of recent results kept for success-rate and
// latency reporting. OnResult stays O(1) and allocation-free after warmup.
const resultWindow = 64

type breaker struct {
	mu                  sync.Mutex
	state               State
	consecutiveFailures int
	openedAt            time.Time
	probeInFlight       bool

	results   [resultWindow]bool
	latencies [resultWindow]time.Duration
	count     int
	next      int
}

// StateListener observes state transitions, e.g. to update metrics.
type StateListener func(providerID string, state State)

// Registry owns all circuit state, keyed by provider id. Breakers are
// created on first use and never deleted while the process runs.
type Registry struct {
	mu       sync.RWMutex
	breakers map[string]*breaker
	cfg      Config
	now      func() time.Time
	listener StateListener
}

// NewRegistry returns a Registry with the given thresholds.
func NewRegistry(cfg Config) *Registry {
	if cfg.FailureThreshold < 1 {
		cfg.FailureThreshold = 1
	}
	return &Registry{
		breakers: make(map[string]*breaker),
		cfg:      cfg,
		now:      time.Now,
	}
}

// OnStateChange registers a listener for state transitions. Must be called
// before the registry is shared.
func (r *Registry) OnStateChange(listener StateListener) {
	r.listener = listener
}

func (r *Registry) breakerFor(providerID string) *breaker {
	r.mu.RLock()
	b, ok := r.breakers[providerID]
	r.mu.RUnlock()
	if ok {
		return b
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.breakers[providerID]; ok {
		return b
	}
	b = &breaker{}
	r.breakers[providerID] = b
	return b
}

func (r *Registry) notify(providerID string, state State) {
	if r.listener != nil {
		r.listener(providerID, state)
	}
}

// BeforeCall reports whether a call to the provider is allowed. While Open
// it returns false until the cooldown elapses, then admits exactly one probe
// (HalfOpen); concurrent callers racing for the probe slot are rejected
// until the in-flight probe resolves.
func (r *Registry) BeforeCall(providerID string) bool {
	b := r.breakerFor(providerID)

	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return true
	case StateOpen:
		if r.now().Sub(b.openedAt) < r.cfg.Cooldown {
			return false
		}
		b.state = StateHalfOpen
		b.probeInFlight = true
		log.Debug().Str("provider", providerID).Msg("breaker: cooldown elapsed, probing")
		r.notify(providerID, StateHalfOpen)
		return true
	case StateHalfOpen:
		if b.probeInFlight {
			return false
		}
		b.probeInFlight = true
		return true
	default:
		return false
	}
}

// OnResult records the outcome of a call previously admitted by BeforeCall.
func (r *Registry) OnResult(providerID string, success bool, latency time.Duration) {
	b := r.breakerFor(providerID)

	b.mu.Lock()
	defer b.mu.Unlock()

	b.results[b.next] = success
	b.latencies[b.next] = latency
	b.next = (b.next + 1) % resultWindow
	if b.count < resultWindow {
		b.count++
	}

	switch b.state {
	case StateHalfOpen:
		b.probeInFlight = false
		if success {
			b.state = StateClosed
			b.consecutiveFailures = 0
			log.Info().Str("provider", providerID).Msg("breaker: probe succeeded, circuit closed")
			r.notify(providerID, StateClosed)
			return
		}
		b.state = StateOpen
		b.openedAt = r.now()
		b.consecutiveFailures++
		log.Warn().Str("provider", providerID).Msg("breaker: probe failed, circuit re-opened")
		r.notify(providerID, StateOpen)

	case StateClosed:
		if success {
			b.consecutiveFailures = 0
			return
		}
		b.consecutiveFailures++
		if b.consecutiveFailures >= r.cfg.FailureThreshold {
			b.state = StateOpen
			b.openedAt = r.now()
			log.Warn().Str("provider", providerID).Int("failures", b.consecutiveFailures).Msg("breaker: failure threshold reached, circuit opened")
			r.notify(providerID, StateOpen)
		}

	case StateOpen:
		// A straggler from before the circuit opened; the counters were
		// already settled when it tripped.
		if !success {
			b.consecutiveFailures++
		}
	}
}

// Status returns a read-only snapshot for one provider. Reading never
// mutates state; an id that was never used reports a closed, empty circuit.
func (r *Registry) Status(providerID string) Status {
	r.mu.RLock()
	b, ok := r.breakers[providerID]
	r.mu.RUnlock()
	if !ok {
		return Status{ProviderID: providerID, State: StateClosed.String()}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	status := Status{
		ProviderID:          providerID,
		State:               b.state.String(),
		ConsecutiveFailures: b.consecutiveFailures,
	}
	if !b.openedAt.IsZero() {
		t := b.openedAt
		status.OpenedAt = &t
	}
	if b.count > 0 {
		successes := 0
		var total time.Duration
		for i := 0; i < b.count; i++ {
			if b.results[i] {
				successes++
			}
			total += b.latencies[i]
		}
		status.SuccessRate = float64(successes) / float64(b.count)
		status.AverageLatency = total / time.Duration(b.count)
	}
	return status
}

// Statuses returns snapshots for every provider seen so far.
func (r *Registry) Statuses() []Status {
	r.mu.RLock()
	ids := make([]string, 0, len(r.breakers))
	for id := range r.breakers {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	statuses := make([]Status, 0, len(ids))
	for _, id := range ids {
		statuses = append(statuses, r.Status(id))
	}
	return statuses
}

// Reset closes the circuit for providerID and clears its counters. Returns
// false when the provider was never seen.
func (r *Registry) Reset(providerID string) bool {
	r.mu.RLock()
	b, ok := r.breakers[providerID]
	r.mu.RUnlock()
	if !ok {
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	b.consecutiveFailures = 0
	b.openedAt = time.Time{}
	b.probeInFlight = false
	log.Info().Str("provider", providerID).Msg("breaker: manually reset")
	r.notify(providerID, StateClosed)
	return true
}
