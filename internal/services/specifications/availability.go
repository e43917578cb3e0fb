// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package specifications

import (
	"time"

	"github.com/autobrr/fetcharr/internal/models"
)

// Release-window heuristics for current-year movies. The system does not
// store authoritative release dates, so time-since-added stands in for them.
// Keep this behind CurrentAvailability so it can be replaced by real data
// without touching the chain.
const (
	inCinemasAfter = 30 * 24 * time.Hour
	releasedAfter  = 120 * 24 * time.Hour
)

// CurrentAvailability derives a movie's release-window level from its year
// and when it was added to the library:
//
//   - year in the future: announced
//   - year in the past: released
//   - year is the current year: inCinemas when added 30–120 days ago,
//     released when added more than 120 days ago, otherwise conservatively
//     inCinemas.
//
// Returns "" when the year is unknown.
func CurrentAvailability(now time.Time, year int, addedAt time.Time) string {
	if year <= 0 {
		return ""
	}
	switch {
	case year > now.Year():
		return models.AvailabilityAnnounced
	case year < now.Year():
		return models.AvailabilityReleased
	}

	age := now.Sub(addedAt)
	if age > releasedAfter {
		return models.AvailabilityReleased
	}
	return models.AvailabilityInCinemas
}

func availabilityRank(level string) int {
	return models.AvailabilityRank(level)
}
