// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package scoring turns matched custom formats and profile policy into a
// single numeric release score. Scoring is deterministic and side-effect
// free: the same (release, formats, profile) triple always yields the same
// ScoredRelease.
package scoring

import (
	"github.com/autobrr/fetcharr/internal/models"
	"github.com/autobrr/fetcharr/internal/services/formats"
)

// Size-bound rejection reasons, distinct from score rejection.
const (
	ReasonSizeBelowMinimum = "size_below_minimum"
	ReasonSizeAboveMaximum = "size_above_maximum"
)

// Media type selects which size bounds apply.
type MediaType int

const (
	MediaTypeMovie MediaType = iota
	MediaTypeEpisode
)

const (
	bytesPerGB = int64(1024 * 1024 * 1024)
	bytesPerMB = int64(1024 * 1024)
)

// Score evaluates a candidate against the compiled formats and resolved
// profile. The returned ScoredRelease carries a RejectionReason when the
// release's declared size falls outside the profile's bounds; banned formats
// set IsBanned without short-circuiting the sum so callers still see the
// would-be score.
func Score(candidate models.ReleaseCandidate, allFormats []*models.CompiledFormat, profile *models.ResolvedProfile, mediaType MediaType) models.ScoredRelease {
	attrs := models.ParseReleaseAttributes(candidate)
	matched := formats.Match(attrs, allFormats)

	scored := models.ScoredRelease{
		Candidate:      candidate,
		Resolution:     attrs.Resolution,
		MatchedFormats: make([]models.FormatMatch, 0, len(matched)),
	}

	for _, format := range matched {
		score, ok := profile.FormatScores[format.ID]
		if !ok {
			score = format.DefaultScore
		}
		scored.TotalScore += score
		scored.MatchedFormats = append(scored.MatchedFormats, models.FormatMatch{
			FormatID: format.ID,
			Name:     format.Name,
			Score:    score,
		})

		// Hard block: the explicit flag, or the legacy encoding of a
		// banned-category format whose effective score is zero.
		if format.HardBlock || (format.Category == models.FormatCategoryBanned && score == 0) {
			scored.IsBanned = true
		}
	}

	if reason := checkSizeBounds(candidate.Size, profile, mediaType); reason != "" {
		scored.RejectionReason = reason
	}
	return scored
}

func checkSizeBounds(size int64, profile *models.ResolvedProfile, mediaType MediaType) string {
	if size <= 0 {
		// Providers that don't report size are not rejected on it.
		return ""
	}

	var minBytes, maxBytes int64
	switch mediaType {
	case MediaTypeMovie:
		minBytes = int64(profile.MinMovieSizeGB * float64(bytesPerGB))
		maxBytes = int64(profile.MaxMovieSizeGB * float64(bytesPerGB))
	case MediaTypeEpisode:
		minBytes = int64(profile.MinEpisodeSizeMB * float64(bytesPerMB))
		maxBytes = int64(profile.MaxEpisodeSizeMB * float64(bytesPerMB))
	}

	if minBytes > 0 && size < minBytes {
		return ReasonSizeBelowMinimum
	}
	if maxBytes > 0 && size > maxBytes {
		return ReasonSizeAboveMaximum
	}
	return ""
}
