// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package releases

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeVideoCodec(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"x264", "AVC"},
		{"X264", "AVC"},
		{"h.264", "AVC"},
		{"H264", "AVC"},
		{"AVC", "AVC"},
		{"x265", "HEVC"},
		{"H.265", "HEVC"},
		{"hevc", "HEVC"},
		{"av1", "AV1"},
		{" x264 ", "AVC"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeVideoCodec(tt.in), "codec %q", tt.in)
	}
}

func TestNormalizeSource(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"WEB-DL", "WEBDL"},
		{"WebDL", "WEBDL"},
		{"web dl", "WEBDL"},
		{"WEBRip", "WEBRIP"},
		{"WEB-Rip", "WEBRIP"},
		{"BluRay", "BLURAY"},
		{"Blu-Ray", "BLURAY"},
		{"BDRip", "BLURAY"},
		{"BRRip", "BLURAY"},
		{"HDTV", "HDTV"},
		{"DVDRip", "DVD"},
		{"unknown-source", "UNKNOWN-SOURCE"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeSource(tt.in), "source %q", tt.in)
	}
}

func TestNormalizeResolution(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"2160p", "2160p"},
		{"4K", "2160p"},
		{"UHD", "2160p"},
		{"FHD", "1080p"},
		{"1080P", "1080p"},
		{"HD", "720p"},
		{"480p", "480p"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeResolution(tt.in), "resolution %q", tt.in)
	}
}

func TestResolutionRank(t *testing.T) {
	t.Parallel()

	order := []string{"2160p", "1080p", "720p"}

	assert.Equal(t, 0, ResolutionRank("2160p", order))
	assert.Equal(t, 0, ResolutionRank("4k", order), "aliases compare equal")
	assert.Equal(t, 1, ResolutionRank("1080p", order))
	assert.Equal(t, 3, ResolutionRank("480p", order), "unlisted resolutions sort last")
	assert.Equal(t, 0, ResolutionRank("x", nil))
}

func TestParseSeasonPackFullSeason(t *testing.T) {
	t.Parallel()

	info, ok := ParseSeasonPack("Some.Show.S02.1080p.WEB-DL.DDP5.1.H.264-GRP")
	require.True(t, ok)
	assert.True(t, info.FullSeason)
	assert.Equal(t, 2, info.Season)
	assert.True(t, info.Covers(1))
	assert.True(t, info.Covers(24))
}

func TestParseSeasonPackEpisodeRange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		title string
		first int
		last  int
	}{
		{"SxxExx-Exx", "Some.Show.S01E01-E08.1080p.WEB-DL-GRP", 1, 8},
		{"SxxExx-xx", "Some.Show.S01E01-08.1080p.WEB-DL-GRP", 1, 8},
		{"spaced range", "Some.Show.S03E05 - E09.720p.HDTV-GRP", 5, 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			info, ok := ParseSeasonPack(tt.title)
			require.True(t, ok)
			assert.False(t, info.FullSeason)
			assert.Equal(t, tt.first, info.FirstEpisode)
			assert.Equal(t, tt.last, info.LastEpisode)

			assert.True(t, info.Covers(tt.first))
			assert.True(t, info.Covers(tt.last))
			assert.False(t, info.Covers(tt.last+1))
			if tt.first > 1 {
				assert.False(t, info.Covers(tt.first-1))
			}
		})
	}
}

func TestParseSeasonPackSingleEpisodeIsNotAPack(t *testing.T) {
	t.Parallel()

	_, ok := ParseSeasonPack("Some.Show.S01E05.1080p.WEB-DL-GRP")
	assert.False(t, ok)
}

func TestParseSeasonPackMovieIsNotAPack(t *testing.T) {
	t.Parallel()

	_, ok := ParseSeasonPack("Some.Movie.2023.1080p.BluRay.x264-GRP")
	assert.False(t, ok)
}
