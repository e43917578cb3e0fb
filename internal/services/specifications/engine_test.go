// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package specifications

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/fetcharr/internal/models"
)

type fakeStore struct {
	movies    map[int64]*models.Movie
	series    map[int64]*models.Series
	episodes  map[int64]*models.Episode
	seasons   map[int]bool
	seasonErr error
}

func (f *fakeStore) GetMovie(_ context.Context, id int64) (*models.Movie, error) {
	m, ok := f.movies[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return m, nil
}

func (f *fakeStore) GetSeries(_ context.Context, id int64) (*models.Series, error) {
	s, ok := f.series[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return s, nil
}

func (f *fakeStore) GetEpisode(_ context.Context, id int64) (*models.Episode, error) {
	e, ok := f.episodes[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return e, nil
}

func (f *fakeStore) SeasonMonitored(_ context.Context, _ int64, seasonNumber int) (bool, error) {
	if f.seasonErr != nil {
		return false, f.seasonErr
	}
	monitored, ok := f.seasons[seasonNumber]
	if !ok {
		return true, nil
	}
	return monitored, nil
}

func newTestEngine(store *fakeStore) *Engine {
	e := NewEngine(store)
	e.now = func() time.Time { return testNow }
	return e
}

func TestEngineEvaluateMovieItem(t *testing.T) {
	t.Parallel()

	store := &fakeStore{movies: map[int64]*models.Movie{
		1: {
			ID: 1, Title: "Some Movie", Year: 2020, Monitored: true,
			MinimumAvailability: models.AvailabilityReleased,
			AddedAt:             testNow.AddDate(-1, 0, 0),
		},
		2: {ID: 2, Title: "Other Movie", Year: 2020, Monitored: false},
	}}
	engine := newTestEngine(store)

	result, err := engine.EvaluateMovieItem(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, result.Accepted)

	result, err = engine.EvaluateMovieItem(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, ReasonNotMonitored, result.Reason)

	_, err = engine.EvaluateMovieItem(context.Background(), 99)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestEngineEvaluateEpisodeItem(t *testing.T) {
	t.Parallel()

	aired := testNow.Add(-24 * time.Hour)
	store := &fakeStore{
		series: map[int64]*models.Series{1: {ID: 1, Title: "Some Show", Monitored: true}},
		episodes: map[int64]*models.Episode{
			10: {ID: 10, SeriesID: 1, SeasonNumber: 1, EpisodeNumber: 1, Monitored: true, AirDate: &aired},
			11: {ID: 11, SeriesID: 1, SeasonNumber: 2, EpisodeNumber: 1, Monitored: true, AirDate: &aired},
		},
		seasons: map[int]bool{2: false},
	}
	engine := newTestEngine(store)

	result, err := engine.EvaluateEpisodeItem(context.Background(), 10)
	require.NoError(t, err)
	assert.True(t, result.Accepted, "missing season record defaults to monitored")

	result, err = engine.EvaluateEpisodeItem(context.Background(), 11)
	require.NoError(t, err)
	assert.Equal(t, ReasonSeasonNotMonitored, result.Reason)
}

func TestEngineSeasonLookupFailureIsFatalForItem(t *testing.T) {
	t.Parallel()

	aired := testNow.Add(-24 * time.Hour)
	store := &fakeStore{
		series: map[int64]*models.Series{1: {ID: 1, Monitored: true}},
		episodes: map[int64]*models.Episode{
			10: {ID: 10, SeriesID: 1, SeasonNumber: 1, EpisodeNumber: 1, Monitored: true, AirDate: &aired},
		},
		seasonErr: errors.New("disk error"),
	}
	engine := newTestEngine(store)

	_, err := engine.EvaluateEpisodeItem(context.Background(), 10)
	assert.Error(t, err)
}
