// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package search orchestrates release searches: provider fan-out behind the
// circuit breaker, scoring, decisions, and the episode-then-season-pack
// cascade for series.
package search

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/avast/retry-go"
	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/autobrr/fetcharr/internal/health"
	"github.com/autobrr/fetcharr/internal/metrics"
	"github.com/autobrr/fetcharr/internal/models"
)

// Config tunes the search service.
type Config struct {
	// SeasonPackThreshold is the fraction of a season that must still be
	// missing after individual search before a pack search is attempted.
	SeasonPackThreshold float64
	// RetryAttempts bounds retries of a single provider call. The breaker
	// sees only the final outcome, so retries don't inflate its counters.
	RetryAttempts int
	// ProviderTimeout caps one provider call including retries.
	ProviderTimeout time.Duration
}

// MediaStore is the store subset the search service needs.
type MediaStore interface {
	GetMovie(ctx context.Context, id int64) (*models.Movie, error)
	GetSeries(ctx context.Context, id int64) (*models.Series, error)
	ListEpisodes(ctx context.Context, seriesID int64) ([]*models.Episode, error)
	SeasonMonitored(ctx context.Context, seriesID int64, seasonNumber int) (bool, error)
	SetMovieFile(ctx context.Context, id int64, score int, resolution string) error
	SetEpisodeFile(ctx context.Context, id int64, score int, resolution string) error
}

// ProfileStore resolves scoring profiles.
type ProfileStore interface {
	GetResolved(ctx context.Context, id string) (*models.ResolvedProfile, error)
}

// FormatStore loads compiled custom formats.
type FormatStore interface {
	ListCompiled(ctx context.Context) ([]*models.CompiledFormat, error)
}

// TaskStore enforces at-most-one-concurrent-run-per-task-id.
type TaskStore interface {
	TryStart(ctx context.Context, taskID string) (int64, bool, error)
	Finish(ctx context.Context, runID int64, status, detail string) error
}

// ErrAlreadyRunning is returned when a search for the same task id is
// already in flight.
var ErrAlreadyRunning = errors.New("task already running")

// Service wires the engine components behind the exposed search operations.
type Service struct {
	media    MediaStore
	profiles ProfileStore
	formats  FormatStore
	tasks    TaskStore
	grabber  Grabber
	breaker  *health.Registry
	metrics  *metrics.EngineCollector
	cfg      Config
	now      func() time.Time

	mu        sync.RWMutex
	providers []Provider
}

// NewService returns a search service. metrics may be nil.
func NewService(media MediaStore, profiles ProfileStore, formats FormatStore, tasks TaskStore, grabber Grabber, breaker *health.Registry, collector *metrics.EngineCollector, cfg Config) *Service {
	if cfg.SeasonPackThreshold <= 0 {
		cfg.SeasonPackThreshold = 0.6
	}
	if cfg.RetryAttempts < 1 {
		cfg.RetryAttempts = 1
	}
	if cfg.ProviderTimeout <= 0 {
		cfg.ProviderTimeout = 60 * time.Second
	}
	return &Service{
		media:    media,
		profiles: profiles,
		formats:  formats,
		tasks:    tasks,
		grabber:  grabber,
		breaker:  breaker,
		metrics:  collector,
		cfg:      cfg,
		now:      time.Now,
	}
}

// SetProviders replaces the provider set used for subsequent searches.
func (s *Service) SetProviders(providers []Provider) {
	s.mu.Lock()
	s.providers = providers
	s.mu.Unlock()
}

func (s *Service) currentProviders() []Provider {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.providers
}

// providerResult is one provider's contribution to a fan-out search.
type providerResult struct {
	candidates     []models.ReleaseCandidate
	errored        int
	shortCircuited int
}

// searchProviders fans the query out across all providers, each behind its
// breaker and retry policy. Provider failures are collected, never fatal:
// partial results are the normal completion mode.
func (s *Service) searchProviders(ctx context.Context, query Query) providerResult {
	providers := s.currentProviders()

	var mu sync.Mutex
	var out providerResult

	g, gctx := errgroup.WithContext(ctx)
	for _, provider := range providers {
		g.Go(func() error {
			candidates, err := s.searchOne(gctx, provider, query)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case errors.Is(err, ErrCircuitOpen):
				out.shortCircuited++
			case err != nil:
				out.errored++
				log.Warn().Err(err).Str("provider", provider.ID()).Str("query", query.Text).Msg("search: provider failed")
			default:
				out.candidates = append(out.candidates, candidates...)
			}
			return nil
		})
	}
	g.Wait()
	return out
}

// searchOne performs a single guarded provider call.
func (s *Service) searchOne(ctx context.Context, provider Provider, query Query) ([]models.ReleaseCandidate, error) {
	providerID := provider.ID()

	if !s.breaker.BeforeCall(providerID) {
		s.metrics.ObserveProviderSearch(providerID, "short_circuited")
		return nil, ErrCircuitOpen
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.ProviderTimeout)
	defer cancel()

	start := s.now()
	var candidates []models.ReleaseCandidate
	err := retry.Do(
		func() error {
			var searchErr error
			candidates, searchErr = provider.Search(callCtx, query)
			return searchErr
		},
		retry.Attempts(uint(s.cfg.RetryAttempts)),
		retry.Context(callCtx),
		retry.LastErrorOnly(true),
	)
	latency := s.now().Sub(start)

	if err != nil {
		s.breaker.OnResult(providerID, false, latency)
		s.metrics.ObserveProviderSearch(providerID, "error")
		return nil, &ProviderError{ProviderID: providerID, Err: err}
	}

	s.breaker.OnResult(providerID, true, latency)
	s.metrics.ObserveProviderSearch(providerID, "success")
	return candidates, nil
}

// grab submits a candidate to the download client.
func (s *Service) grab(ctx context.Context, candidate models.ReleaseCandidate) error {
	handle, err := s.grabber.Submit(ctx, candidate)
	if err != nil {
		return &GrabError{Title: candidate.Title, Err: pkgerrors.Wrap(err, "submit to download client")}
	}
	log.Info().Str("title", candidate.Title).Str("handle", handle.ID).Msg("search: grabbed release")
	return nil
}

// snapshot loads the immutable configuration for one evaluation pass.
// Changes made after this point affect only later passes.
func (s *Service) snapshot(ctx context.Context, profileID string) (*models.ResolvedProfile, []*models.CompiledFormat, error) {
	profile, err := s.profiles.GetResolved(ctx, profileID)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve profile %s: %w", profileID, err)
	}
	formats, err := s.formats.ListCompiled(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load custom formats: %w", err)
	}
	return profile, formats, nil
}
