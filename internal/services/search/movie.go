// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package search

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/autobrr/fetcharr/internal/models"
	"github.com/autobrr/fetcharr/internal/services/decision"
	"github.com/autobrr/fetcharr/internal/services/scoring"
	"github.com/autobrr/fetcharr/internal/services/specifications"
)

// MovieSearchResult is the outcome of one movie search.
type MovieSearchResult struct {
	MovieID int64  `json:"movieId"`
	Status  string `json:"status"`
	Reason  string `json:"reason,omitempty"`
	// Grabbed is set when a release was submitted to the download client.
	Grabbed *models.ScoredRelease `json:"grabbed,omitempty"`
}

// RunMovieSearch gates, searches, scores and decides for a single movie.
// At most one search per movie runs at a time.
func (s *Service) RunMovieSearch(ctx context.Context, movieID int64) (*MovieSearchResult, error) {
	taskID := fmt.Sprintf("movie-search-%d", movieID)
	runID, started, err := s.tasks.TryStart(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("start task %s: %w", taskID, err)
	}
	if !started {
		return nil, ErrAlreadyRunning
	}

	result, err := s.runMovieSearch(ctx, movieID)
	status := models.TaskStatusCompleted
	detail := ""
	if err != nil {
		status = models.TaskStatusFailed
		detail = err.Error()
	} else {
		detail = result.Status
	}
	if finishErr := s.tasks.Finish(ctx, runID, status, detail); finishErr != nil {
		log.Error().Err(finishErr).Str("task", taskID).Msg("search: failed to finish task run")
	}
	return result, err
}

func (s *Service) runMovieSearch(ctx context.Context, movieID int64) (*MovieSearchResult, error) {
	movie, err := s.media.GetMovie(ctx, movieID)
	if err != nil {
		return nil, fmt.Errorf("load movie %d: %w", movieID, err)
	}

	result := &MovieSearchResult{MovieID: movieID}

	gate := specifications.EvaluateMovie(s.now(), specifications.MovieContextFor(movie))
	if !gate.Accepted {
		result.Status = OutcomeSkipped
		result.Reason = gate.Reason
		return result, nil
	}

	profile, formats, err := s.snapshot(ctx, movie.ProfileID)
	if err != nil {
		return nil, err
	}

	query := Query{Text: fmt.Sprintf("%s %d", movie.Title, movie.Year)}
	found := s.searchProviders(ctx, query)
	if len(found.candidates) == 0 {
		if found.errored > 0 && found.shortCircuited+found.errored == len(s.currentProviders()) {
			result.Status = OutcomeError
			result.Reason = "all providers failed"
			return result, nil
		}
		result.Status = OutcomeNoResults
		return result, nil
	}

	var scored []models.ScoredRelease
	for _, candidate := range found.candidates {
		release := scoring.Score(candidate, formats, profile, scoring.MediaTypeMovie)
		if release.RejectionReason != "" {
			continue
		}
		scored = append(scored, release)
	}
	if len(scored) == 0 {
		result.Status = OutcomeRejected
		result.Reason = "no candidate within profile bounds"
		return result, nil
	}

	var existing *models.ScoredRelease
	if movie.HasFile {
		existing = &models.ScoredRelease{TotalScore: movie.FileScore, Resolution: movie.FileResolution}
	}

	for _, candidate := range decision.Rank(scored, profile) {
		verdict := decision.Decide(existing, candidate, profile)
		s.metrics.ObserveDecision(verdict.Verdict)
		if verdict.Verdict == decision.VerdictSkip {
			result.Reason = verdict.Reason
			continue
		}

		if err := s.grab(ctx, candidate.Candidate); err != nil {
			result.Status = OutcomeError
			result.Reason = err.Error()
			return result, nil
		}
		if err := s.media.SetMovieFile(ctx, movie.ID, candidate.TotalScore, candidate.Resolution); err != nil {
			result.Status = OutcomeError
			result.Reason = err.Error()
			return result, nil
		}
		result.Status = OutcomeGrabbed
		result.Reason = ""
		grabbed := candidate
		result.Grabbed = &grabbed
		return result, nil
	}

	result.Status = OutcomeRejected
	return result, nil
}
