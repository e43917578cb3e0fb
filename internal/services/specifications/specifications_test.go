// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package specifications

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/autobrr/fetcharr/internal/models"
)

var testNow = time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

func TestEvaluateMovieChain(t *testing.T) {
	t.Parallel()

	base := MovieContext{
		Monitored:           true,
		Year:                2020,
		AddedAt:             testNow.AddDate(-1, 0, 0),
		MinimumAvailability: models.AvailabilityReleased,
	}

	tests := []struct {
		name   string
		mutate func(c *MovieContext)
		reason string
	}{
		{"eligible", func(c *MovieContext) {}, ""},
		{"unmonitored", func(c *MovieContext) { c.Monitored = false }, ReasonNotMonitored},
		{"already has file", func(c *MovieContext) { c.HasFile = true }, ReasonAlreadyHasFile},
		{"future year not yet available", func(c *MovieContext) { c.Year = testNow.Year() + 1 }, ReasonNotYetAvailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := base
			tt.mutate(&c)
			result := EvaluateMovie(testNow, c)
			if tt.reason == "" {
				assert.True(t, result.Accepted)
				assert.Empty(t, result.Reason)
			} else {
				assert.False(t, result.Accepted)
				assert.Equal(t, tt.reason, result.Reason)
			}
		})
	}
}

func TestEvaluateMovieFirstRejectionWins(t *testing.T) {
	t.Parallel()

	// Unmonitored and has a file: the chain short-circuits on the first
	// failing specification.
	c := MovieContext{Monitored: false, HasFile: true}
	result := EvaluateMovie(testNow, c)
	assert.Equal(t, ReasonNotMonitored, result.Reason)
}

func TestEvaluateMovieCurrentYearWindow(t *testing.T) {
	t.Parallel()

	// A current-year movie added 40 days ago sits in the cinema window;
	// it satisfies inCinemas but not released.
	c := MovieContext{
		Monitored: true,
		Year:      testNow.Year(),
		AddedAt:   testNow.Add(-40 * 24 * time.Hour),
	}

	c.MinimumAvailability = models.AvailabilityReleased
	result := EvaluateMovie(testNow, c)
	assert.False(t, result.Accepted)
	assert.Equal(t, ReasonNotYetAvailable, result.Reason)

	c.MinimumAvailability = models.AvailabilityInCinemas
	assert.True(t, EvaluateMovie(testNow, c).Accepted)

	c.MinimumAvailability = models.AvailabilityAnnounced
	assert.True(t, EvaluateMovie(testNow, c).Accepted)
}

func TestEvaluateMovieUnknownMinimumIsPermissive(t *testing.T) {
	t.Parallel()

	c := MovieContext{
		Monitored:           true,
		Year:                testNow.Year() + 2,
		MinimumAvailability: "",
	}
	assert.True(t, EvaluateMovie(testNow, c).Accepted)
}

func TestEvaluateMovieUnknownYearRejectsConservatively(t *testing.T) {
	t.Parallel()

	c := MovieContext{
		Monitored:           true,
		Year:                0,
		MinimumAvailability: models.AvailabilityAnnounced,
	}
	result := EvaluateMovie(testNow, c)
	assert.False(t, result.Accepted)
	assert.Equal(t, ReasonNotYetAvailable, result.Reason)
}

func TestEvaluateEpisodeChain(t *testing.T) {
	t.Parallel()

	aired := testNow.Add(-48 * time.Hour)
	base := EpisodeContext{
		SeriesMonitored:  true,
		SeasonMonitored:  true,
		EpisodeMonitored: true,
		AirDate:          &aired,
	}

	tests := []struct {
		name   string
		mutate func(c *EpisodeContext)
		reason string
	}{
		{"eligible", func(c *EpisodeContext) {}, ""},
		{"series unmonitored", func(c *EpisodeContext) { c.SeriesMonitored = false }, ReasonSeriesNotMonitored},
		{"season unmonitored", func(c *EpisodeContext) { c.SeasonMonitored = false }, ReasonSeasonNotMonitored},
		{"episode unmonitored", func(c *EpisodeContext) { c.EpisodeMonitored = false }, ReasonEpisodeNotMonitored},
		{"already has file", func(c *EpisodeContext) { c.HasFile = true }, ReasonAlreadyHasFile},
		{"no air date", func(c *EpisodeContext) { c.AirDate = nil }, ReasonNoAirDate},
		{"not yet aired", func(c *EpisodeContext) {
			future := testNow.Add(24 * time.Hour)
			c.AirDate = &future
		}, ReasonNotYetAired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := base
			tt.mutate(&c)
			result := EvaluateEpisode(testNow, c)
			if tt.reason == "" {
				assert.True(t, result.Accepted)
			} else {
				assert.False(t, result.Accepted)
				assert.Equal(t, tt.reason, result.Reason)
			}
		})
	}
}

func TestEvaluateEpisodeOrdering(t *testing.T) {
	t.Parallel()

	// Series gate fires before the season gate.
	c := EpisodeContext{SeriesMonitored: false, SeasonMonitored: false}
	assert.Equal(t, ReasonSeriesNotMonitored, EvaluateEpisode(testNow, c).Reason)
}

func TestEvaluateNewEpisodeWindow(t *testing.T) {
	t.Parallel()

	window := 7 * 24 * time.Hour
	base := EpisodeContext{
		SeriesMonitored:  true,
		SeasonMonitored:  true,
		EpisodeMonitored: true,
	}

	t.Run("aired inside window", func(t *testing.T) {
		t.Parallel()
		c := base
		aired := testNow.Add(-2 * 24 * time.Hour)
		c.AirDate = &aired
		assert.True(t, EvaluateNewEpisode(testNow, c, window).Accepted)
	})

	t.Run("aired before window", func(t *testing.T) {
		t.Parallel()
		c := base
		aired := testNow.Add(-10 * 24 * time.Hour)
		c.AirDate = &aired
		result := EvaluateNewEpisode(testNow, c, window)
		assert.False(t, result.Accepted)
		assert.Equal(t, ReasonOutsideAirWindow, result.Reason)
	})

	t.Run("base chain rejection surfaces first", func(t *testing.T) {
		t.Parallel()
		c := base
		c.SeriesMonitored = false
		aired := testNow.Add(-2 * 24 * time.Hour)
		c.AirDate = &aired
		result := EvaluateNewEpisode(testNow, c, window)
		assert.Equal(t, ReasonSeriesNotMonitored, result.Reason)
	})
}

func TestEvaluateIdempotent(t *testing.T) {
	t.Parallel()

	aired := testNow.Add(-time.Hour)
	c := EpisodeContext{
		SeriesMonitored:  true,
		SeasonMonitored:  true,
		EpisodeMonitored: true,
		AirDate:          &aired,
	}
	first := EvaluateEpisode(testNow, c)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, EvaluateEpisode(testNow, c))
	}
}

func TestCurrentAvailability(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		year    int
		addedAt time.Time
		want    string
	}{
		{"future year", testNow.Year() + 1, testNow, models.AvailabilityAnnounced},
		{"past year", testNow.Year() - 3, testNow, models.AvailabilityReleased},
		{"current year freshly added", testNow.Year(), testNow.Add(-24 * time.Hour), models.AvailabilityInCinemas},
		{"current year added 40 days ago", testNow.Year(), testNow.Add(-40 * 24 * time.Hour), models.AvailabilityInCinemas},
		{"current year added 150 days ago", testNow.Year(), testNow.Add(-150 * 24 * time.Hour), models.AvailabilityReleased},
		{"unknown year", 0, testNow, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, CurrentAvailability(testNow, tt.year, tt.addedAt))
		})
	}
}
