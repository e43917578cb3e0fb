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
	"github.com/autobrr/fetcharr/pkg/releases"
)

// Episode outcome statuses.
const (
	OutcomeGrabbed   = "grabbed"
	OutcomeNoResults = "no_results"
	OutcomeRejected  = "rejected"
	OutcomeError     = "error"
	OutcomeSkipped   = "skipped"
	OutcomePack      = "season_pack"
)

// EpisodeOutcome records the result for one episode in a cascade.
type EpisodeOutcome struct {
	EpisodeID     int64  `json:"episodeId"`
	SeasonNumber  int    `json:"seasonNumber"`
	EpisodeNumber int    `json:"episodeNumber"`
	Status        string `json:"status"`
	Reason        string `json:"reason,omitempty"`
}

// CascadeSummary is the terminal state of one series-search cycle.
type CascadeSummary struct {
	SeriesID           int64            `json:"seriesId"`
	EpisodesSearched   int              `json:"episodesSearched"`
	Grabbed            int              `json:"grabbed"`
	NoResults          int              `json:"noResults"`
	Errored            int              `json:"errored"`
	Skipped            int              `json:"skipped"`
	SeasonPacksGrabbed int              `json:"seasonPacksGrabbed"`
	Episodes           []EpisodeOutcome `json:"episodes"`
}

// seasonPlan tracks the request-scoped state for one season of a cascade:
// which episodes are still missing and whether a pack search was attempted.
type seasonPlan struct {
	seasonNumber int
	episodes     []*models.Episode
	missing      []*models.Episode
	packAttempt  bool
}

// RunSeriesSearch runs the cascading search for one series: individual
// episode searches first, then a season-pack search for seasons still mostly
// missing. At most one cascade per series runs at a time.
func (s *Service) RunSeriesSearch(ctx context.Context, seriesID int64) (*CascadeSummary, error) {
	taskID := fmt.Sprintf("series-search-%d", seriesID)
	runID, started, err := s.tasks.TryStart(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("start task %s: %w", taskID, err)
	}
	if !started {
		return nil, ErrAlreadyRunning
	}

	summary, err := s.runCascade(ctx, seriesID)
	if err != nil {
		s.metrics.ObserveCascade("error")
		if finishErr := s.tasks.Finish(ctx, runID, models.TaskStatusFailed, err.Error()); finishErr != nil {
			log.Error().Err(finishErr).Str("task", taskID).Msg("cascade: failed to finish task run")
		}
		return nil, err
	}

	s.metrics.ObserveCascade("completed")
	detail := fmt.Sprintf("searched=%d grabbed=%d packs=%d errored=%d", summary.EpisodesSearched, summary.Grabbed, summary.SeasonPacksGrabbed, summary.Errored)
	if err := s.tasks.Finish(ctx, runID, models.TaskStatusCompleted, detail); err != nil {
		log.Error().Err(err).Str("task", taskID).Msg("cascade: failed to finish task run")
	}
	return summary, nil
}

func (s *Service) runCascade(ctx context.Context, seriesID int64) (*CascadeSummary, error) {
	series, err := s.media.GetSeries(ctx, seriesID)
	if err != nil {
		return nil, fmt.Errorf("load series %d: %w", seriesID, err)
	}

	profile, formats, err := s.snapshot(ctx, series.ProfileID)
	if err != nil {
		return nil, err
	}

	episodes, err := s.media.ListEpisodes(ctx, seriesID)
	if err != nil {
		return nil, fmt.Errorf("list episodes for series %d: %w", seriesID, err)
	}

	summary := &CascadeSummary{SeriesID: seriesID}
	plans := s.planSeasons(episodes)

	for _, plan := range plans {
		s.searchSeasonEpisodes(ctx, series, plan, profile, formats, summary)

		if s.shouldSearchSeasonPack(plan) {
			plan.packAttempt = true
			s.searchSeasonPack(ctx, series, plan, profile, formats, summary)
		}
	}

	log.Info().
		Int64("series", seriesID).
		Int("searched", summary.EpisodesSearched).
		Int("grabbed", summary.Grabbed).
		Int("packs", summary.SeasonPacksGrabbed).
		Int("errored", summary.Errored).
		Msg("cascade: cycle complete")
	return summary, nil
}

// planSeasons groups episodes into per-season plans, preserving the store's
// ascending season/episode order so reconciliation is reproducible.
func (s *Service) planSeasons(episodes []*models.Episode) []*seasonPlan {
	var plans []*seasonPlan
	index := make(map[int]*seasonPlan)
	for _, episode := range episodes {
		plan, ok := index[episode.SeasonNumber]
		if !ok {
			plan = &seasonPlan{seasonNumber: episode.SeasonNumber}
			index[episode.SeasonNumber] = plan
			plans = append(plans, plan)
		}
		plan.episodes = append(plan.episodes, episode)
	}
	return plans
}

// searchSeasonEpisodes runs the individual-episode state of the cascade for
// one season. A single episode's failure is recorded and never halts the
// cascade.
func (s *Service) searchSeasonEpisodes(ctx context.Context, series *models.Series, plan *seasonPlan, profile *models.ResolvedProfile, formats []*models.CompiledFormat, summary *CascadeSummary) {
	seasonMonitored, err := s.media.SeasonMonitored(ctx, series.ID, plan.seasonNumber)
	if err != nil {
		// Season lookup failure is fatal for every episode of this
		// season, but sibling seasons keep evaluating.
		for _, episode := range plan.episodes {
			summary.Errored++
			summary.Episodes = append(summary.Episodes, EpisodeOutcome{
				EpisodeID:     episode.ID,
				SeasonNumber:  episode.SeasonNumber,
				EpisodeNumber: episode.EpisodeNumber,
				Status:        OutcomeError,
				Reason:        err.Error(),
			})
		}
		return
	}

	for _, episode := range plan.episodes {
		outcome := s.searchEpisode(ctx, series, episode, seasonMonitored, profile, formats)
		summary.Episodes = append(summary.Episodes, outcome)

		switch outcome.Status {
		case OutcomeGrabbed:
			summary.EpisodesSearched++
			summary.Grabbed++
		case OutcomeNoResults, OutcomeRejected:
			summary.EpisodesSearched++
			summary.NoResults++
			plan.missing = append(plan.missing, episode)
		case OutcomeError:
			summary.EpisodesSearched++
			summary.Errored++
			plan.missing = append(plan.missing, episode)
		case OutcomeSkipped:
			summary.Skipped++
		}
	}
}

func (s *Service) searchEpisode(ctx context.Context, series *models.Series, episode *models.Episode, seasonMonitored bool, profile *models.ResolvedProfile, formats []*models.CompiledFormat) EpisodeOutcome {
	outcome := EpisodeOutcome{
		EpisodeID:     episode.ID,
		SeasonNumber:  episode.SeasonNumber,
		EpisodeNumber: episode.EpisodeNumber,
	}

	result := specifications.EvaluateEpisode(s.now(), specifications.EpisodeContext{
		SeriesMonitored:  series.Monitored,
		SeasonMonitored:  seasonMonitored,
		EpisodeMonitored: episode.Monitored,
		HasFile:          episode.HasFile,
		AirDate:          episode.AirDate,
	})
	if !result.Accepted {
		outcome.Status = OutcomeSkipped
		outcome.Reason = result.Reason
		return outcome
	}

	query := Query{
		Text:    fmt.Sprintf("%s S%02dE%02d", series.Title, episode.SeasonNumber, episode.EpisodeNumber),
		Season:  episode.SeasonNumber,
		Episode: episode.EpisodeNumber,
	}
	found := s.searchProviders(ctx, query)
	if len(found.candidates) == 0 {
		if found.errored > 0 && found.shortCircuited+found.errored == len(s.currentProviders()) {
			outcome.Status = OutcomeError
			outcome.Reason = "all providers failed"
			return outcome
		}
		outcome.Status = OutcomeNoResults
		return outcome
	}

	var scored []models.ScoredRelease
	for _, candidate := range found.candidates {
		attrs := models.ParseReleaseAttributes(candidate)
		if attrs.Season > 0 && attrs.Season != episode.SeasonNumber {
			continue
		}
		if attrs.Episode > 0 && attrs.Episode != episode.EpisodeNumber {
			continue
		}
		release := scoring.Score(candidate, formats, profile, scoring.MediaTypeEpisode)
		if release.RejectionReason != "" {
			continue
		}
		scored = append(scored, release)
	}
	if len(scored) == 0 {
		outcome.Status = OutcomeRejected
		outcome.Reason = "no candidate within profile bounds"
		return outcome
	}

	existing := existingEpisodeFile(episode)
	for _, candidate := range decision.Rank(scored, profile) {
		verdict := decision.Decide(existing, candidate, profile)
		s.metrics.ObserveDecision(verdict.Verdict)
		if verdict.Verdict == decision.VerdictSkip {
			outcome.Reason = verdict.Reason
			continue
		}

		if err := s.grab(ctx, candidate.Candidate); err != nil {
			log.Warn().Err(err).Int64("episode", episode.ID).Msg("cascade: grab failed")
			outcome.Status = OutcomeError
			outcome.Reason = err.Error()
			return outcome
		}
		if err := s.media.SetEpisodeFile(ctx, episode.ID, candidate.TotalScore, candidate.Resolution); err != nil {
			outcome.Status = OutcomeError
			outcome.Reason = err.Error()
			return outcome
		}
		outcome.Status = OutcomeGrabbed
		outcome.Reason = ""
		return outcome
	}

	outcome.Status = OutcomeRejected
	return outcome
}

func existingEpisodeFile(episode *models.Episode) *models.ScoredRelease {
	if !episode.HasFile {
		return nil
	}
	return &models.ScoredRelease{
		TotalScore: episode.FileScore,
		Resolution: episode.FileResolution,
	}
}

// shouldSearchSeasonPack reports whether the season is still mostly missing
// after individual search.
func (s *Service) shouldSearchSeasonPack(plan *seasonPlan) bool {
	if len(plan.episodes) == 0 || len(plan.missing) == 0 {
		return false
	}
	missingRatio := float64(len(plan.missing)) / float64(len(plan.episodes))
	return missingRatio > s.cfg.SeasonPackThreshold
}

// searchSeasonPack runs the season-pack state. A pack must be verified to
// cover specific missing episode numbers; episodes outside its range stay
// missing for the next cycle. Pack search failure falls back silently to
// "no pack available".
func (s *Service) searchSeasonPack(ctx context.Context, series *models.Series, plan *seasonPlan, profile *models.ResolvedProfile, formats []*models.CompiledFormat, summary *CascadeSummary) {
	query := Query{
		Text:   fmt.Sprintf("%s S%02d", series.Title, plan.seasonNumber),
		Season: plan.seasonNumber,
	}
	found := s.searchProviders(ctx, query)
	if len(found.candidates) == 0 {
		log.Debug().Int64("series", series.ID).Int("season", plan.seasonNumber).Msg("cascade: no season pack available")
		return
	}

	type packCandidate struct {
		release models.ScoredRelease
		info    releases.SeasonPackInfo
	}
	var packs []packCandidate
	for _, candidate := range found.candidates {
		info, ok := releases.ParseSeasonPack(candidate.Title)
		if !ok || (info.Season > 0 && info.Season != plan.seasonNumber) {
			continue
		}

		// Size bounds are per episode; scale pack size down by the
		// number of episodes it covers before scoring.
		covered := coveredCount(info, plan.episodes)
		if covered == 0 {
			continue
		}
		scaled := candidate
		scaled.Size = candidate.Size / int64(covered)

		release := scoring.Score(scaled, formats, profile, scoring.MediaTypeEpisode)
		if release.RejectionReason != "" {
			continue
		}
		release.Candidate = candidate
		packs = append(packs, packCandidate{release: release, info: info})
	}
	if len(packs) == 0 {
		return
	}

	ranked := make([]models.ScoredRelease, 0, len(packs))
	infoByTitle := make(map[string]releases.SeasonPackInfo, len(packs))
	for _, pack := range packs {
		ranked = append(ranked, pack.release)
		infoByTitle[pack.release.Candidate.Title] = pack.info
	}

	for _, candidate := range decision.Rank(ranked, profile) {
		verdict := decision.Decide(nil, candidate, profile)
		s.metrics.ObserveDecision(verdict.Verdict)
		if verdict.Verdict == decision.VerdictSkip {
			continue
		}

		if err := s.grab(ctx, candidate.Candidate); err != nil {
			log.Warn().Err(err).Int("season", plan.seasonNumber).Msg("cascade: season pack grab failed")
			return
		}

		summary.SeasonPacksGrabbed++
		s.reconcilePack(ctx, plan, infoByTitle[candidate.Candidate.Title], candidate, summary)
		return
	}
}

// reconcilePack marks every missing episode the grabbed pack covers as
// resolved; uncovered episodes remain eligible for future cycles.
func (s *Service) reconcilePack(ctx context.Context, plan *seasonPlan, info releases.SeasonPackInfo, pack models.ScoredRelease, summary *CascadeSummary) {
	for _, episode := range plan.missing {
		if !info.Covers(episode.EpisodeNumber) {
			continue
		}
		if err := s.media.SetEpisodeFile(ctx, episode.ID, pack.TotalScore, pack.Resolution); err != nil {
			log.Error().Err(err).Int64("episode", episode.ID).Msg("cascade: failed to record pack coverage")
			continue
		}
		summary.Grabbed++
		markEpisodeResolved(summary, episode.ID)
	}
}

// markEpisodeResolved rewrites an episode's outcome after a pack covered it.
func markEpisodeResolved(summary *CascadeSummary, episodeID int64) {
	for i := range summary.Episodes {
		if summary.Episodes[i].EpisodeID != episodeID {
			continue
		}
		switch summary.Episodes[i].Status {
		case OutcomeNoResults, OutcomeRejected:
			summary.NoResults--
		case OutcomeError:
			summary.Errored--
		}
		summary.Episodes[i].Status = OutcomePack
		summary.Episodes[i].Reason = ""
		return
	}
}

func coveredCount(info releases.SeasonPackInfo, episodes []*models.Episode) int {
	count := 0
	for _, episode := range episodes {
		if info.Covers(episode.EpisodeNumber) {
			count++
		}
	}
	return count
}
