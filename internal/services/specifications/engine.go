// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package specifications

import (
	"context"
	"fmt"
	"time"

	"github.com/autobrr/fetcharr/internal/models"
)

// MediaStore is the subset of the media store the engine needs.
type MediaStore interface {
	GetMovie(ctx context.Context, id int64) (*models.Movie, error)
	GetSeries(ctx context.Context, id int64) (*models.Series, error)
	GetEpisode(ctx context.Context, id int64) (*models.Episode, error)
	SeasonMonitored(ctx context.Context, seriesID int64, seasonNumber int) (bool, error)
}

// Engine evaluates library items against the monitoring chain. It snapshots
// store state into a context value per item; lookup failures are fatal for
// that single item only.
type Engine struct {
	store MediaStore
	now   func() time.Time
}

// NewEngine returns an Engine backed by store.
func NewEngine(store MediaStore) *Engine {
	return &Engine{store: store, now: time.Now}
}

// EvaluateMovieItem runs the movie chain for one library movie.
func (e *Engine) EvaluateMovieItem(ctx context.Context, movieID int64) (Result, error) {
	movie, err := e.store.GetMovie(ctx, movieID)
	if err != nil {
		return Result{}, fmt.Errorf("load movie %d: %w", movieID, err)
	}
	return EvaluateMovie(e.now(), MovieContextFor(movie)), nil
}

// EvaluateEpisodeItem runs the episode chain for one library episode.
func (e *Engine) EvaluateEpisodeItem(ctx context.Context, episodeID int64) (Result, error) {
	episode, err := e.store.GetEpisode(ctx, episodeID)
	if err != nil {
		return Result{}, fmt.Errorf("load episode %d: %w", episodeID, err)
	}
	series, err := e.store.GetSeries(ctx, episode.SeriesID)
	if err != nil {
		return Result{}, fmt.Errorf("load series %d: %w", episode.SeriesID, err)
	}
	c, err := e.EpisodeContextFor(ctx, series, episode)
	if err != nil {
		return Result{}, err
	}
	return EvaluateEpisode(e.now(), c), nil
}

// MovieContextFor snapshots a movie into a chain context.
func MovieContextFor(m *models.Movie) MovieContext {
	return MovieContext{
		Monitored:           m.Monitored,
		HasFile:             m.HasFile,
		Year:                m.Year,
		AddedAt:             m.AddedAt,
		MinimumAvailability: m.MinimumAvailability,
	}
}

// EpisodeContextFor snapshots an episode into a chain context, performing
// the one season-monitored lookup the chain needs.
func (e *Engine) EpisodeContextFor(ctx context.Context, series *models.Series, episode *models.Episode) (EpisodeContext, error) {
	seasonMonitored, err := e.store.SeasonMonitored(ctx, episode.SeriesID, episode.SeasonNumber)
	if err != nil {
		return EpisodeContext{}, fmt.Errorf("lookup season %d monitoring for series %d: %w", episode.SeasonNumber, episode.SeriesID, err)
	}
	return EpisodeContext{
		SeriesMonitored:  series.Monitored,
		SeasonMonitored:  seasonMonitored,
		EpisodeMonitored: episode.Monitored,
		HasFile:          episode.HasFile,
		AirDate:          episode.AirDate,
	}, nil
}
