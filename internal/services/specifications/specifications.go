// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package specifications gates which library items are eligible for
// automated search. Each specification is a pure function over a movie or
// episode context; chains are evaluated with short-circuit AND, and the first
// rejection's reason is surfaced.
package specifications

import (
	"time"
)

// Rejection reason codes. Fixed vocabulary so callers can branch on them.
const (
	ReasonNotMonitored        = "not_monitored"
	ReasonSeriesNotMonitored  = "series_not_monitored"
	ReasonSeasonNotMonitored  = "season_not_monitored"
	ReasonEpisodeNotMonitored = "episode_not_monitored"
	ReasonAlreadyHasFile      = "already_has_file"
	ReasonNotYetAired         = "not_yet_aired"
	ReasonNoAirDate           = "no_air_date"
	ReasonNotYetAvailable     = "not_yet_available"
	ReasonOutsideAirWindow    = "outside_air_window"
)

// Result is the outcome of one specification or a whole chain.
type Result struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}

func accept() Result              { return Result{Accepted: true} }
func reject(reason string) Result { return Result{Accepted: false, Reason: reason} }

// MovieContext carries everything the movie chain needs, snapshotted from
// the store before evaluation.
type MovieContext struct {
	Monitored           bool
	HasFile             bool
	Year                int
	AddedAt             time.Time
	MinimumAvailability string
}

// EpisodeContext carries everything the episode chain needs. SeasonMonitored
// is looked up by the caller; a missing season record defaults to monitored.
type EpisodeContext struct {
	SeriesMonitored  bool
	SeasonMonitored  bool
	EpisodeMonitored bool
	HasFile          bool
	AirDate          *time.Time
}

type movieSpec func(now time.Time, c MovieContext) Result

// EvaluateMovie runs the movie chain: Monitored, Missing-Content,
// Availability.
func EvaluateMovie(now time.Time, c MovieContext) Result {
	chain := []movieSpec{
		movieMonitored,
		movieMissing,
		movieAvailable,
	}
	for _, spec := range chain {
		if result := spec(now, c); !result.Accepted {
			return result
		}
	}
	return accept()
}

func movieMonitored(_ time.Time, c MovieContext) Result {
	if !c.Monitored {
		return reject(ReasonNotMonitored)
	}
	return accept()
}

func movieMissing(_ time.Time, c MovieContext) Result {
	if c.HasFile {
		return reject(ReasonAlreadyHasFile)
	}
	return accept()
}

func movieAvailable(now time.Time, c MovieContext) Result {
	minimum := availabilityRank(c.MinimumAvailability)
	if minimum < 0 {
		// Unknown or unset minimum is permissive.
		return accept()
	}
	current := availabilityRank(CurrentAvailability(now, c.Year, c.AddedAt))
	if current < 0 {
		// Unknown current level rejects conservatively.
		return reject(ReasonNotYetAvailable)
	}
	if current < minimum {
		return reject(ReasonNotYetAvailable)
	}
	return accept()
}

type episodeSpec func(now time.Time, c EpisodeContext) Result

// EvaluateEpisode runs the episode chain: Series-Monitored,
// Season-Monitored, Episode-Monitored, Missing-Content.
func EvaluateEpisode(now time.Time, c EpisodeContext) Result {
	chain := []episodeSpec{
		seriesMonitored,
		seasonMonitored,
		episodeMonitored,
		episodeMissing,
	}
	for _, spec := range chain {
		if result := spec(now, c); !result.Accepted {
			return result
		}
	}
	return accept()
}

// EvaluateNewEpisode runs the episode chain plus the newly-aired window
// check used by the "new episode" trigger: the episode must have aired
// within the last window and not lie in the future.
func EvaluateNewEpisode(now time.Time, c EpisodeContext, window time.Duration) Result {
	if result := EvaluateEpisode(now, c); !result.Accepted {
		return result
	}
	airedAfter := now.Add(-window)
	if c.AirDate == nil || c.AirDate.Before(airedAfter) || c.AirDate.After(now) {
		return reject(ReasonOutsideAirWindow)
	}
	return accept()
}

func seriesMonitored(_ time.Time, c EpisodeContext) Result {
	if !c.SeriesMonitored {
		return reject(ReasonSeriesNotMonitored)
	}
	return accept()
}

func seasonMonitored(_ time.Time, c EpisodeContext) Result {
	if !c.SeasonMonitored {
		return reject(ReasonSeasonNotMonitored)
	}
	return accept()
}

func episodeMonitored(_ time.Time, c EpisodeContext) Result {
	if !c.EpisodeMonitored {
		return reject(ReasonEpisodeNotMonitored)
	}
	return accept()
}

func episodeMissing(now time.Time, c EpisodeContext) Result {
	if c.HasFile {
		return reject(ReasonAlreadyHasFile)
	}
	if c.AirDate == nil {
		return reject(ReasonNoAirDate)
	}
	if c.AirDate.After(now) {
		return reject(ReasonNotYetAired)
	}
	return accept()
}
