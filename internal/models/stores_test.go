// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/fetcharr/internal/database"
	"github.com/autobrr/fetcharr/internal/models"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestCustomFormatStoreCRUD(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := models.NewCustomFormatStore(newTestDB(t))

	format := &models.CustomFormat{
		ID:           "remux",
		Name:         "Remux",
		Category:     models.FormatCategoryQuality,
		Tags:         []string{"quality"},
		DefaultScore: 50,
		Conditions: []models.FormatCondition{
			{Type: models.ConditionTypeReleaseTitle, Pattern: `\bremux\b`, Required: true},
		},
	}

	created, err := store.Create(ctx, format)
	require.NoError(t, err)
	assert.Equal(t, "Remux", created.Name)
	assert.Equal(t, []string{"quality"}, created.Tags)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := store.Get(ctx, "remux")
	require.NoError(t, err)
	assert.Equal(t, created.Conditions, got.Conditions)

	got.DefaultScore = 60
	got.HardBlock = true
	updated, err := store.Update(ctx, got)
	require.NoError(t, err)
	assert.Equal(t, 60, updated.DefaultScore)
	assert.True(t, updated.HardBlock)

	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, store.Delete(ctx, "remux"))
	_, err = store.Get(ctx, "remux")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestCustomFormatStoreRejectsInvalid(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := models.NewCustomFormatStore(newTestDB(t))

	_, err := store.Create(ctx, &models.CustomFormat{ID: "bad", Name: "Bad", Category: models.FormatCategoryQuality})
	var cfgErr *models.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr, "zero conditions must be rejected")
}

func TestCustomFormatStoreUpdateMissing(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := models.NewCustomFormatStore(newTestDB(t))

	_, err := store.Update(ctx, &models.CustomFormat{
		ID: "ghost", Name: "Ghost", Category: models.FormatCategoryQuality,
		Conditions: []models.FormatCondition{{Type: models.ConditionTypeReleaseTitle, Pattern: `x`}},
	})
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestCustomFormatStoreListCompiledFailsOnBadRow(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t)
	store := models.NewCustomFormatStore(db)

	// A row written past validation (hand edit, older version) with a
	// pattern that no longer compiles fails the whole load.
	_, err := db.ExecContext(ctx, `
		INSERT INTO custom_formats (id, name, category, tags, default_score, hard_block, conditions)
		VALUES ('bad', 'Bad', 'quality', '[]', 0, 0, '[{"type":"release_title","pattern":"("}]')
	`)
	require.NoError(t, err)

	_, err = store.ListCompiled(ctx)
	var cfgErr *models.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "bad", cfgErr.ID)
}

func TestScoringProfileStoreRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := models.NewScoringProfileStore(newTestDB(t))

	upgrades := false
	minScore := 40
	sizeGB := 1.5
	profile := &models.ScoringProfile{
		ID:              "hd",
		Name:            "HD",
		ResolutionOrder: []string{"1080p", "720p"},
		FormatScores:    map[string]int{"web": 10},
		UpgradesAllowed: &upgrades,
		MinScore:        &minScore,
		MinMovieSizeGB:  &sizeGB,
	}

	created, err := store.Create(ctx, profile)
	require.NoError(t, err)
	require.NotNil(t, created.UpgradesAllowed)
	assert.False(t, *created.UpgradesAllowed)
	require.NotNil(t, created.MinScore)
	assert.Equal(t, 40, *created.MinScore)
	require.NotNil(t, created.MinMovieSizeGB)
	assert.Equal(t, 1.5, *created.MinMovieSizeGB)

	// Unset pointer fields survive as nil, not zero.
	assert.Nil(t, created.UpgradeUntilScore)
	assert.Nil(t, created.MaxMovieSizeGB)
}

func TestScoringProfileStoreGetResolved(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := models.NewScoringProfileStore(newTestDB(t))

	baseMin := 20
	cutoff := 100
	_, err := store.Create(ctx, &models.ScoringProfile{
		ID:                "base",
		Name:              "Base",
		ResolutionOrder:   []string{"2160p", "1080p"},
		FormatScores:      map[string]int{"remux": 50},
		MinScore:          &baseMin,
		UpgradeUntilScore: &cutoff,
	})
	require.NoError(t, err)

	childMin := 40
	_, err = store.Create(ctx, &models.ScoringProfile{
		ID:            "child",
		Name:          "Child",
		BaseProfileID: "base",
		FormatScores:  map[string]int{"web": 10},
		MinScore:      &childMin,
	})
	require.NoError(t, err)

	resolved, err := store.GetResolved(ctx, "child")
	require.NoError(t, err)
	assert.Equal(t, 40, resolved.MinScore)
	assert.Equal(t, 100, resolved.UpgradeUntilScore)
	assert.Equal(t, []string{"2160p", "1080p"}, resolved.ResolutionOrder)
	assert.Equal(t, 50, resolved.FormatScores["remux"])
	assert.Equal(t, 10, resolved.FormatScores["web"])
}

func TestScoringProfileStoreGetResolvedMissingBase(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := models.NewScoringProfileStore(newTestDB(t))

	_, err := store.Create(ctx, &models.ScoringProfile{ID: "child", Name: "Child", BaseProfileID: "gone"})
	require.NoError(t, err)

	_, err = store.GetResolved(ctx, "child")
	var cfgErr *models.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestMediaStoreMovies(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := models.NewMediaStore(newTestDB(t))

	movie, err := store.CreateMovie(ctx, &models.Movie{
		Title:               "Some Movie",
		Year:                2023,
		Monitored:           true,
		MinimumAvailability: models.AvailabilityReleased,
		ProfileID:           "default",
	})
	require.NoError(t, err)
	assert.NotZero(t, movie.ID)
	assert.False(t, movie.AddedAt.IsZero())

	missing, err := store.ListMissingMovies(ctx)
	require.NoError(t, err)
	require.Len(t, missing, 1)

	require.NoError(t, store.SetMovieFile(ctx, movie.ID, 75, "2160p"))
	got, err := store.GetMovie(ctx, movie.ID)
	require.NoError(t, err)
	assert.True(t, got.HasFile)
	assert.Equal(t, 75, got.FileScore)
	assert.Equal(t, "2160p", got.FileResolution)

	missing, err = store.ListMissingMovies(ctx)
	require.NoError(t, err)
	assert.Empty(t, missing)

	_, err = store.GetMovie(ctx, 9999)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestMediaStoreEpisodesOrdered(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := models.NewMediaStore(newTestDB(t))

	series, err := store.CreateSeries(ctx, &models.Series{Title: "Some Show", Monitored: true, ProfileID: "default"})
	require.NoError(t, err)

	aired := time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC)
	// Insert out of order.
	for _, pair := range [][2]int{{2, 1}, {1, 3}, {1, 1}, {2, 2}, {1, 2}} {
		_, err := store.CreateEpisode(ctx, &models.Episode{
			SeriesID:      series.ID,
			SeasonNumber:  pair[0],
			EpisodeNumber: pair[1],
			Monitored:     true,
			AirDate:       &aired,
		})
		require.NoError(t, err)
	}

	episodes, err := store.ListEpisodes(ctx, series.ID)
	require.NoError(t, err)
	require.Len(t, episodes, 5)

	var got [][2]int
	for _, e := range episodes {
		got = append(got, [2]int{e.SeasonNumber, e.EpisodeNumber})
		require.NotNil(t, e.AirDate)
		assert.True(t, e.AirDate.Equal(aired))
	}
	assert.Equal(t, [][2]int{{1, 1}, {1, 2}, {1, 3}, {2, 1}, {2, 2}}, got)
}

func TestMediaStoreSeasonMonitored(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := models.NewMediaStore(newTestDB(t))

	series, err := store.CreateSeries(ctx, &models.Series{Title: "Some Show", Monitored: true, ProfileID: "default"})
	require.NoError(t, err)

	// No season record: defaults to monitored.
	monitored, err := store.SeasonMonitored(ctx, series.ID, 1)
	require.NoError(t, err)
	assert.True(t, monitored)

	require.NoError(t, store.UpsertSeason(ctx, series.ID, 1, false))
	monitored, err = store.SeasonMonitored(ctx, series.ID, 1)
	require.NoError(t, err)
	assert.False(t, monitored)

	require.NoError(t, store.UpsertSeason(ctx, series.ID, 1, true))
	monitored, err = store.SeasonMonitored(ctx, series.ID, 1)
	require.NoError(t, err)
	assert.True(t, monitored)
}

func TestTaskRunStoreSingleRunningPerTask(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := models.NewTaskRunStore(newTestDB(t))

	runID, started, err := store.TryStart(ctx, "series-search-1")
	require.NoError(t, err)
	require.True(t, started)

	// Same task id while running: rejected.
	_, started, err = store.TryStart(ctx, "series-search-1")
	require.NoError(t, err)
	assert.False(t, started)

	// A different task id is unaffected.
	_, started, err = store.TryStart(ctx, "series-search-2")
	require.NoError(t, err)
	assert.True(t, started)

	// After finishing, the same id can start again.
	require.NoError(t, store.Finish(ctx, runID, models.TaskStatusCompleted, "done"))
	_, started, err = store.TryStart(ctx, "series-search-1")
	require.NoError(t, err)
	assert.True(t, started)
}

func TestTaskRunStoreReconcileStale(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := models.NewTaskRunStore(newTestDB(t))

	_, started, err := store.TryStart(ctx, "movie-search-9")
	require.NoError(t, err)
	require.True(t, started)

	count, err := store.ReconcileStale(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// The stale run no longer blocks a fresh start.
	_, started, err = store.TryStart(ctx, "movie-search-9")
	require.NoError(t, err)
	assert.True(t, started)

	count, err = store.ReconcileStale(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestProviderStoreUpsert(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := models.NewProviderStore(newTestDB(t))

	require.NoError(t, store.Upsert(ctx, &models.SearchProviderRecord{ID: "prov-1", Name: "Indexer One", Enabled: true}))
	require.NoError(t, store.Upsert(ctx, &models.SearchProviderRecord{ID: "prov-2", Name: "Indexer Two", Enabled: false}))

	got, err := store.Get(ctx, "prov-1")
	require.NoError(t, err)
	assert.Equal(t, "Indexer One", got.Name)
	assert.True(t, got.Enabled)

	// Upsert with the same id updates in place.
	require.NoError(t, store.Upsert(ctx, &models.SearchProviderRecord{ID: "prov-1", Name: "Renamed", Enabled: false}))
	got, err = store.Get(ctx, "prov-1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.False(t, got.Enabled)

	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = store.Get(ctx, "ghost")
	assert.ErrorIs(t, err, models.ErrNotFound)
}
