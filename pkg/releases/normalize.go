// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package releases provides release-name normalization helpers on top of the
// rls parser so equivalent tags compare equal.
package releases

import (
	"strings"
)

// videoCodecAliases maps equivalent video codec names to a canonical form.
// x264, H.264, H264, and AVC all refer to the same underlying codec (AVC);
// x265, H.265, H265, and HEVC all refer to HEVC.
var videoCodecAliases = map[string]string{
	"X264":  "AVC",
	"H.264": "AVC",
	"H264":  "AVC",
	"AVC":   "AVC",
	"X265":  "HEVC",
	"H.265": "HEVC",
	"H265":  "HEVC",
	"HEVC":  "HEVC",
}

// NormalizeVideoCodec converts a video codec string to its canonical form.
// Returns the original (uppercased) string if no alias mapping exists.
func NormalizeVideoCodec(codec string) string {
	upper := strings.ToUpper(strings.TrimSpace(codec))
	if canonical, ok := videoCodecAliases[upper]; ok {
		return canonical
	}
	return upper
}

// sourceAliases maps source names to a canonical form for comparison.
// WEB-DL variants normalize to WEBDL, WEBRip variants to WEBRIP.
var sourceAliases = map[string]string{
	"WEB-DL":  "WEBDL",
	"WEBDL":   "WEBDL",
	"WEB DL":  "WEBDL",
	"WEBRIP":  "WEBRIP",
	"WEB-RIP": "WEBRIP",
	"BLURAY":  "BLURAY",
	"BLU-RAY": "BLURAY",
	"BDRIP":   "BLURAY",
	"BRRIP":   "BLURAY",
	"HDTV":    "HDTV",
	"DVDRIP":  "DVD",
	"DVD":     "DVD",
}

// NormalizeSource converts a source string to its canonical form.
func NormalizeSource(source string) string {
	upper := strings.ToUpper(strings.TrimSpace(source))
	if canonical, ok := sourceAliases[upper]; ok {
		return canonical
	}
	return upper
}

// NormalizeResolution lowercases a resolution tag and maps common aliases so
// profile resolution orders match parser output ("4k" and "2160p" compare
// equal).
func NormalizeResolution(resolution string) string {
	lower := strings.ToLower(strings.TrimSpace(resolution))
	switch lower {
	case "4k", "uhd":
		return "2160p"
	case "fhd":
		return "1080p"
	case "hd":
		return "720p"
	}
	return lower
}

// ResolutionRank returns the index of resolution within order (both
// normalized), or len(order) when absent so unlisted resolutions sort last.
func ResolutionRank(resolution string, order []string) int {
	norm := NormalizeResolution(resolution)
	for i, candidate := range order {
		if NormalizeResolution(candidate) == norm {
			return i
		}
	}
	return len(order)
}
