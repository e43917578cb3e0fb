// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models

import (
	"github.com/moistari/rls"

	"github.com/autobrr/fetcharr/pkg/releases"
)

// ReleaseCandidate is a raw release as reported by a search provider.
type ReleaseCandidate struct {
	Title       string `json:"title"`
	Size        int64  `json:"size"`
	Quality     string `json:"quality,omitempty"`
	IndexerID   string `json:"indexerId"`
	InfoHash    string `json:"infoHash,omitempty"`
	DownloadURL string `json:"downloadUrl"`
}

// ReleaseAttributes are the derived attributes custom format conditions are
// matched against, parsed once per candidate.
type ReleaseAttributes struct {
	Title      string
	Group      string
	Indexer    string
	Resolution string
	Source     string
	Codecs     []string
	Season     int
	Episode    int
}

// ParseReleaseAttributes derives match attributes from a candidate's title.
func ParseReleaseAttributes(c ReleaseCandidate) ReleaseAttributes {
	r := rls.ParseString(c.Title)

	codecs := make([]string, 0, len(r.Codec))
	for _, codec := range r.Codec {
		codecs = append(codecs, releases.NormalizeVideoCodec(codec))
	}

	return ReleaseAttributes{
		Title:      c.Title,
		Group:      r.Group,
		Indexer:    c.IndexerID,
		Resolution: releases.NormalizeResolution(r.Resolution),
		Source:     releases.NormalizeSource(r.Source),
		Codecs:     codecs,
		Season:     r.Series,
		Episode:    r.Episode,
	}
}

// FormatMatch records one matched custom format and its score contribution.
type FormatMatch struct {
	FormatID string `json:"formatId"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
}

// ScoredRelease is a candidate plus its computed score. RejectionReason is
// set when the evaluator rejected the release outside of scoring (size
// bounds); such releases never reach the decision service.
type ScoredRelease struct {
	Candidate       ReleaseCandidate `json:"candidate"`
	Resolution      string           `json:"resolution"`
	TotalScore      int              `json:"totalScore"`
	MatchedFormats  []FormatMatch    `json:"matchedFormats"`
	IsBanned        bool             `json:"isBanned"`
	RejectionReason string           `json:"rejectionReason,omitempty"`
}
