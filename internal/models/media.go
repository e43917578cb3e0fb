// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/autobrr/fetcharr/internal/dbinterface"
)

// Availability levels form an ordinal: announced < inCinemas < released.
const (
	AvailabilityAnnounced = "announced"
	AvailabilityInCinemas = "inCinemas"
	AvailabilityReleased  = "released"
)

// AvailabilityRank maps a level to its ordinal position. Unknown levels map
// to -1 so callers can branch on them explicitly.
func AvailabilityRank(level string) int {
	switch level {
	case AvailabilityAnnounced:
		return 0
	case AvailabilityInCinemas:
		return 1
	case AvailabilityReleased:
		return 2
	default:
		return -1
	}
}

// Movie is a monitored movie library item.
type Movie struct {
	ID                  int64     `json:"id"`
	Title               string    `json:"title"`
	Year                int       `json:"year"`
	Monitored           bool      `json:"monitored"`
	MinimumAvailability string    `json:"minimumAvailability"`
	AddedAt             time.Time `json:"addedAt"`
	HasFile             bool      `json:"hasFile"`
	FileScore           int       `json:"fileScore"`
	FileResolution      string    `json:"fileResolution"`
	ProfileID           string    `json:"profileId"`
}

// Series is a monitored TV series.
type Series struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Monitored bool   `json:"monitored"`
	ProfileID string `json:"profileId"`
}

// Season carries the per-season monitored flag.
type Season struct {
	ID           int64 `json:"id"`
	SeriesID     int64 `json:"seriesId"`
	SeasonNumber int   `json:"seasonNumber"`
	Monitored    bool  `json:"monitored"`
}

// Episode is one episode of a series.
type Episode struct {
	ID             int64      `json:"id"`
	SeriesID       int64      `json:"seriesId"`
	SeasonNumber   int        `json:"seasonNumber"`
	EpisodeNumber  int        `json:"episodeNumber"`
	Monitored      bool       `json:"monitored"`
	AirDate        *time.Time `json:"airDate,omitempty"`
	HasFile        bool       `json:"hasFile"`
	FileScore      int        `json:"fileScore"`
	FileResolution string     `json:"fileResolution"`
}

// ErrNotFound marks a missing referenced entity.
var ErrNotFound = errors.New("not found")

// MediaStore handles persistence for movies, series, seasons and episodes.
type MediaStore struct {
	db dbinterface.Querier
}

// NewMediaStore returns a new MediaStore backed by db.
func NewMediaStore(db dbinterface.Querier) *MediaStore {
	return &MediaStore{db: db}
}

// GetMovie returns the movie with the given id.
func (s *MediaStore) GetMovie(ctx context.Context, id int64) (*Movie, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, year, monitored, minimum_availability, added_at, has_file, file_score, file_resolution, profile_id
		FROM movies WHERE id = ?
	`, id)

	var m Movie
	if err := row.Scan(&m.ID, &m.Title, &m.Year, &m.Monitored, &m.MinimumAvailability, &m.AddedAt, &m.HasFile, &m.FileScore, &m.FileResolution, &m.ProfileID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// ListMissingMovies returns monitored movies without a file.
func (s *MediaStore) ListMissingMovies(ctx context.Context) ([]*Movie, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, year, monitored, minimum_availability, added_at, has_file, file_score, file_resolution, profile_id
		FROM movies WHERE monitored = 1 AND has_file = 0
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var movies []*Movie
	for rows.Next() {
		var m Movie
		if err := rows.Scan(&m.ID, &m.Title, &m.Year, &m.Monitored, &m.MinimumAvailability, &m.AddedAt, &m.HasFile, &m.FileScore, &m.FileResolution, &m.ProfileID); err != nil {
			return nil, err
		}
		movies = append(movies, &m)
	}
	return movies, rows.Err()
}

// CreateMovie inserts a movie and returns it with the generated id.
func (s *MediaStore) CreateMovie(ctx context.Context, m *Movie) (*Movie, error) {
	addedAt := m.AddedAt
	if addedAt.IsZero() {
		addedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO movies (title, year, monitored, minimum_availability, added_at, has_file, file_score, file_resolution, profile_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, m.Title, m.Year, m.Monitored, m.MinimumAvailability, addedAt, m.HasFile, m.FileScore, m.FileResolution, m.ProfileID)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return s.GetMovie(ctx, id)
}

// SetMovieFile records a grabbed file's score for a movie.
func (s *MediaStore) SetMovieFile(ctx context.Context, id int64, score int, resolution string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE movies SET has_file = 1, file_score = ?, file_resolution = ? WHERE id = ?
	`, score, resolution, id)
	return err
}

// GetSeries returns the series with the given id.
func (s *MediaStore) GetSeries(ctx context.Context, id int64) (*Series, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, title, monitored, profile_id FROM series WHERE id = ?`, id)
	var sr Series
	if err := row.Scan(&sr.ID, &sr.Title, &sr.Monitored, &sr.ProfileID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &sr, nil
}

// CreateSeries inserts a series and returns it with the generated id.
func (s *MediaStore) CreateSeries(ctx context.Context, sr *Series) (*Series, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO series (title, monitored, profile_id) VALUES (?, ?, ?)`, sr.Title, sr.Monitored, sr.ProfileID)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return s.GetSeries(ctx, id)
}

// SeasonMonitored reports whether the season is monitored. A missing season
// record defaults to monitored so data gaps never block search.
func (s *MediaStore) SeasonMonitored(ctx context.Context, seriesID int64, seasonNumber int) (bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT monitored FROM seasons WHERE series_id = ? AND season_number = ?
	`, seriesID, seasonNumber)
	var monitored bool
	if err := row.Scan(&monitored); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return true, nil
		}
		return false, err
	}
	return monitored, nil
}

// UpsertSeason creates or updates the monitored flag for a season.
func (s *MediaStore) UpsertSeason(ctx context.Context, seriesID int64, seasonNumber int, monitored bool) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO seasons (series_id, season_number, monitored) VALUES (?, ?, ?)
		ON CONFLICT (series_id, season_number) DO UPDATE SET monitored = excluded.monitored
	`, seriesID, seasonNumber, monitored)
	return err
}

// GetEpisode returns the episode with the given id.
func (s *MediaStore) GetEpisode(ctx context.Context, id int64) (*Episode, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, series_id, season_number, episode_number, monitored, air_date, has_file, file_score, file_resolution
		FROM episodes WHERE id = ?
	`, id)
	return scanEpisode(row.Scan)
}

func scanEpisode(scan func(dest ...any) error) (*Episode, error) {
	var e Episode
	var airDate sql.NullTime
	if err := scan(&e.ID, &e.SeriesID, &e.SeasonNumber, &e.EpisodeNumber, &e.Monitored, &airDate, &e.HasFile, &e.FileScore, &e.FileResolution); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if airDate.Valid {
		t := airDate.Time
		e.AirDate = &t
	}
	return &e, nil
}

// ListEpisodes returns all episodes of a series in ascending season/episode
// order. The stable order keeps season-pack reconciliation reproducible.
func (s *MediaStore) ListEpisodes(ctx context.Context, seriesID int64) ([]*Episode, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, series_id, season_number, episode_number, monitored, air_date, has_file, file_score, file_resolution
		FROM episodes WHERE series_id = ?
		ORDER BY season_number ASC, episode_number ASC
	`, seriesID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var episodes []*Episode
	for rows.Next() {
		e, err := scanEpisode(rows.Scan)
		if err != nil {
			return nil, err
		}
		episodes = append(episodes, e)
	}
	return episodes, rows.Err()
}

// CreateEpisode inserts an episode and returns it with the generated id.
func (s *MediaStore) CreateEpisode(ctx context.Context, e *Episode) (*Episode, error) {
	var airDate any
	if e.AirDate != nil {
		airDate = *e.AirDate
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO episodes (series_id, season_number, episode_number, monitored, air_date, has_file, file_score, file_resolution)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, e.SeriesID, e.SeasonNumber, e.EpisodeNumber, e.Monitored, airDate, e.HasFile, e.FileScore, e.FileResolution)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return s.GetEpisode(ctx, id)
}

// SetEpisodeFile records a grabbed file's score for an episode.
func (s *MediaStore) SetEpisodeFile(ctx context.Context, id int64, score int, resolution string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE episodes SET has_file = 1, file_score = ?, file_resolution = ? WHERE id = ?
	`, score, resolution, id)
	return err
}
