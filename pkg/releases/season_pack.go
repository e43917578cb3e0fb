// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package releases

import (
	"regexp"
	"strconv"

	"github.com/moistari/rls"
)

// episodeRangeRe matches explicit episode ranges such as "S01E01-E08",
// "S01E01-08" or "E01-E08" in a release name.
var episodeRangeRe = regexp.MustCompile(`(?i)\bS?\d{0,2}E(\d{1,3})\s*-\s*E?(\d{1,3})\b`)

// SeasonPackInfo describes which episodes of a season a release covers.
type SeasonPackInfo struct {
	Season int
	// FullSeason is set when the name carries a season marker with no
	// episode marker (e.g. "Show.S02.1080p"), meaning every episode.
	FullSeason bool
	// FirstEpisode/LastEpisode bound the covered range when the name names
	// an explicit range. Zero when FullSeason or not a pack.
	FirstEpisode int
	LastEpisode  int
}

// ParseSeasonPack inspects a release name and reports season-pack coverage.
// Returns ok=false when the name is a single-episode or non-TV release.
func ParseSeasonPack(name string) (SeasonPackInfo, bool) {
	r := rls.ParseString(name)

	if m := episodeRangeRe.FindStringSubmatch(name); m != nil {
		first, _ := strconv.Atoi(m[1])
		last, _ := strconv.Atoi(m[2])
		if first > 0 && last >= first {
			return SeasonPackInfo{
				Season:       r.Series,
				FirstEpisode: first,
				LastEpisode:  last,
			}, true
		}
	}

	if r.Series > 0 && r.Episode == 0 {
		return SeasonPackInfo{Season: r.Series, FullSeason: true}, true
	}
	return SeasonPackInfo{}, false
}

// Covers reports whether the pack includes the given episode number.
func (p SeasonPackInfo) Covers(episode int) bool {
	if p.FullSeason {
		return true
	}
	return episode >= p.FirstEpisode && episode <= p.LastEpisode
}
