// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package formats evaluates custom format conditions against release
// attributes. Matching is a pure function of its inputs; patterns are
// pre-compiled at load time by the format store.
package formats

import (
	"strings"

	"github.com/autobrr/fetcharr/internal/models"
)

// Match evaluates every format against the release attributes and returns the
// matched formats in input order. A format matches when all its required
// conditions find a pattern match, none of its negate conditions do, and, if
// it carries optional (non-required, non-negate) conditions, at least one of
// those matches. A format with zero compiled conditions never matches.
func Match(attrs models.ReleaseAttributes, formats []*models.CompiledFormat) []*models.CompiledFormat {
	var matched []*models.CompiledFormat
	for _, format := range formats {
		if matchesFormat(attrs, format) {
			matched = append(matched, format)
		}
	}
	return matched
}

func matchesFormat(attrs models.ReleaseAttributes, format *models.CompiledFormat) bool {
	if len(format.Compiled) == 0 {
		return false
	}

	optionalSeen := false
	optionalHit := false

	for _, cond := range format.Compiled {
		hit := conditionMatches(attrs, cond)
		switch {
		case cond.Negate:
			// A negate condition must find no match, e.g. "MAX but
			// not HMAX" excludes the more specific overlapping term.
			if hit {
				return false
			}
		case cond.Required:
			if !hit {
				return false
			}
		default:
			optionalSeen = true
			if hit {
				optionalHit = true
			}
		}
	}

	if optionalSeen && !optionalHit {
		return false
	}
	return true
}

func conditionMatches(attrs models.ReleaseAttributes, cond models.CompiledCondition) bool {
	switch cond.Type {
	case models.ConditionTypeReleaseTitle:
		return cond.Matcher.MatchString(attrs.Title)
	case models.ConditionTypeReleaseGroup:
		return attrs.Group != "" && cond.Matcher.MatchString(attrs.Group)
	case models.ConditionTypeIndexer:
		return attrs.Indexer != "" && cond.Matcher.MatchString(attrs.Indexer)
	case models.ConditionTypeResolution:
		return attrs.Resolution != "" && cond.Matcher.MatchString(attrs.Resolution)
	case models.ConditionTypeSource:
		return attrs.Source != "" && cond.Matcher.MatchString(attrs.Source)
	case models.ConditionTypeCodec:
		for _, codec := range attrs.Codecs {
			if cond.Matcher.MatchString(codec) {
				return true
			}
		}
		return false
	default:
		// Unknown types are rejected at load time; treat a stray one as
		// non-matching rather than failing the whole evaluation.
		return false
	}
}

// MatchedIDs returns the ids of matched formats, joined for logging.
func MatchedIDs(matched []*models.CompiledFormat) string {
	if len(matched) == 0 {
		return ""
	}
	ids := make([]string, 0, len(matched))
	for _, f := range matched {
		ids = append(ids, f.ID)
	}
	return strings.Join(ids, ",")
}
