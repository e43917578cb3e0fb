// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package decision turns a score comparison into a grab/skip/upgrade
// verdict. Decide is total: every (existing, candidate, profile) triple
// yields exactly one Decision.
package decision

import (
	"sort"

	"github.com/autobrr/fetcharr/internal/models"
	"github.com/autobrr/fetcharr/pkg/releases"
)

// Verdicts.
const (
	VerdictGrab    = "grab"
	VerdictSkip    = "skip"
	VerdictUpgrade = "upgrade"
)

// Skip reasons.
const (
	ReasonBanned              = "banned"
	ReasonBelowMinimum        = "below_minimum"
	ReasonUpgradesNotAllowed  = "upgrades_not_allowed"
	ReasonAlreadyAtCutoff     = "already_at_cutoff"
	ReasonImprovementTooSmall = "improvement_too_small"
)

// Decision is the verdict for one candidate release.
type Decision struct {
	Verdict string `json:"verdict"`
	Reason  string `json:"reason,omitempty"`
}

func grab() Decision              { return Decision{Verdict: VerdictGrab} }
func skip(reason string) Decision { return Decision{Verdict: VerdictSkip, Reason: reason} }
func upgrade() Decision           { return Decision{Verdict: VerdictUpgrade} }

// Decide compares a scored candidate against the existing file (nil when the
// item has none) under the profile's upgrade policy. Rules are evaluated in
// order; the first that applies wins.
func Decide(existing *models.ScoredRelease, candidate models.ScoredRelease, profile *models.ResolvedProfile) Decision {
	if candidate.IsBanned {
		return skip(ReasonBanned)
	}
	if candidate.TotalScore < profile.MinScore {
		return skip(ReasonBelowMinimum)
	}
	if existing == nil {
		return grab()
	}
	if !profile.UpgradesAllowed {
		return skip(ReasonUpgradesNotAllowed)
	}
	if profile.UpgradeUntilScore != models.UnboundedUpgradeScore && existing.TotalScore >= profile.UpgradeUntilScore {
		return skip(ReasonAlreadyAtCutoff)
	}
	if candidate.TotalScore-existing.TotalScore < profile.MinScoreIncrement {
		return skip(ReasonImprovementTooSmall)
	}
	return upgrade()
}

// Rank orders candidates best-first: higher score wins, equal scores break
// on the profile's resolution order (earlier tag preferred), and candidates
// still tied keep their discovery order. The sort is stable so unlisted
// resolutions are never reordered.
func Rank(candidates []models.ScoredRelease, profile *models.ResolvedProfile) []models.ScoredRelease {
	ranked := append([]models.ScoredRelease(nil), candidates...)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].TotalScore != ranked[j].TotalScore {
			return ranked[i].TotalScore > ranked[j].TotalScore
		}
		ri := releases.ResolutionRank(ranked[i].Resolution, profile.ResolutionOrder)
		rj := releases.ResolutionRank(ranked[j].Resolution, profile.ResolutionOrder)
		return ri < rj
	})
	return ranked
}
