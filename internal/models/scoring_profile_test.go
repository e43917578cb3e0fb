// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int           { return &v }
func boolPtr(v bool) *bool        { return &v }
func floatPtr(v float64) *float64 { return &v }

func TestResolveDefaults(t *testing.T) {
	t.Parallel()

	p := &ScoringProfile{ID: "p", Name: "Plain"}
	resolved, err := p.Resolve(nil)
	require.NoError(t, err)

	assert.True(t, resolved.UpgradesAllowed)
	assert.Equal(t, UnboundedUpgradeScore, resolved.UpgradeUntilScore)
	assert.Zero(t, resolved.MinScore)
	assert.Zero(t, resolved.MinScoreIncrement)
	assert.NotNil(t, resolved.FormatScores)
}

func TestResolveInheritsFromBase(t *testing.T) {
	t.Parallel()

	base := &ScoringProfile{
		ID:                "base",
		Name:              "Base",
		ResolutionOrder:   []string{"2160p", "1080p"},
		FormatScores:      map[string]int{"remux": 50, "web": 10},
		MinScore:          intPtr(20),
		UpgradeUntilScore: intPtr(100),
		MinScoreIncrement: intPtr(5),
		MinMovieSizeGB:    floatPtr(1),
	}
	p := &ScoringProfile{
		ID:            "child",
		Name:          "Child",
		BaseProfileID: "base",
		FormatScores:  map[string]int{"web": 30},
		MinScore:      intPtr(40),
	}

	resolved, err := p.Resolve(base)
	require.NoError(t, err)

	// Own values win, base fills the gaps.
	assert.Equal(t, 40, resolved.MinScore)
	assert.Equal(t, 100, resolved.UpgradeUntilScore)
	assert.Equal(t, 5, resolved.MinScoreIncrement)
	assert.Equal(t, []string{"2160p", "1080p"}, resolved.ResolutionOrder)
	assert.Equal(t, 1.0, resolved.MinMovieSizeGB)

	// Format score maps merge per entry.
	assert.Equal(t, 30, resolved.FormatScores["web"])
	assert.Equal(t, 50, resolved.FormatScores["remux"])
}

func TestResolveRejectsChainedInheritance(t *testing.T) {
	t.Parallel()

	base := &ScoringProfile{ID: "mid", Name: "Mid", BaseProfileID: "root"}
	p := &ScoringProfile{ID: "child", Name: "Child", BaseProfileID: "mid"}

	_, err := p.Resolve(base)
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "child", cfgErr.ID)
}

func TestResolveMissingBase(t *testing.T) {
	t.Parallel()

	p := &ScoringProfile{ID: "child", Name: "Child", BaseProfileID: "gone"}
	_, err := p.Resolve(nil)
	var cfgErr *ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestResolveSelfInheritance(t *testing.T) {
	t.Parallel()

	p := &ScoringProfile{ID: "p", Name: "P", BaseProfileID: "p"}
	_, err := p.Resolve(p)
	assert.Error(t, err)
}

func TestResolveInvariants(t *testing.T) {
	t.Parallel()

	t.Run("negative increment", func(t *testing.T) {
		t.Parallel()
		p := &ScoringProfile{ID: "p", Name: "P", MinScoreIncrement: intPtr(-1)}
		_, err := p.Resolve(nil)
		assert.Error(t, err)
	})

	t.Run("cutoff below minimum", func(t *testing.T) {
		t.Parallel()
		p := &ScoringProfile{ID: "p", Name: "P", MinScore: intPtr(50), UpgradeUntilScore: intPtr(40)}
		_, err := p.Resolve(nil)
		assert.Error(t, err)
	})

	t.Run("unbounded cutoff is exempt", func(t *testing.T) {
		t.Parallel()
		p := &ScoringProfile{ID: "p", Name: "P", MinScore: intPtr(50), UpgradeUntilScore: intPtr(UnboundedUpgradeScore)}
		resolved, err := p.Resolve(nil)
		require.NoError(t, err)
		assert.Equal(t, UnboundedUpgradeScore, resolved.UpgradeUntilScore)
	})

	t.Run("cutoff invariant applies after inheritance", func(t *testing.T) {
		t.Parallel()
		base := &ScoringProfile{ID: "base", Name: "Base", UpgradeUntilScore: intPtr(40)}
		p := &ScoringProfile{ID: "child", Name: "Child", BaseProfileID: "base", MinScore: intPtr(50)}
		_, err := p.Resolve(base)
		assert.Error(t, err)
	})
}

func TestResolveUpgradesAllowedOverride(t *testing.T) {
	t.Parallel()

	base := &ScoringProfile{ID: "base", Name: "Base", UpgradesAllowed: boolPtr(false)}
	p := &ScoringProfile{ID: "child", Name: "Child", BaseProfileID: "base"}

	resolved, err := p.Resolve(base)
	require.NoError(t, err)
	assert.False(t, resolved.UpgradesAllowed, "base's explicit false survives")

	p.UpgradesAllowed = boolPtr(true)
	resolved, err = p.Resolve(base)
	require.NoError(t, err)
	assert.True(t, resolved.UpgradesAllowed)
}

func TestCustomFormatValidate(t *testing.T) {
	t.Parallel()

	valid := CustomFormat{
		ID:       "f",
		Name:     "F",
		Category: FormatCategoryQuality,
		Conditions: []FormatCondition{
			{Type: ConditionTypeReleaseTitle, Pattern: `\bremux\b`},
		},
	}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(f *CustomFormat)
	}{
		{"missing id", func(f *CustomFormat) { f.ID = "" }},
		{"missing name", func(f *CustomFormat) { f.Name = " " }},
		{"unknown category", func(f *CustomFormat) { f.Category = "bogus" }},
		{"zero conditions", func(f *CustomFormat) { f.Conditions = nil }},
		{"unknown condition type", func(f *CustomFormat) { f.Conditions[0].Type = "bogus" }},
		{"empty pattern", func(f *CustomFormat) { f.Conditions[0].Pattern = "" }},
		{"invalid regex", func(f *CustomFormat) { f.Conditions[0].Pattern = "(" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := valid
			f.Conditions = append([]FormatCondition(nil), valid.Conditions...)
			tt.mutate(&f)
			assert.Error(t, f.Validate())
		})
	}
}

func TestCustomFormatCompile(t *testing.T) {
	t.Parallel()

	f := CustomFormat{
		ID:       "f",
		Name:     "F",
		Category: FormatCategoryQuality,
		Conditions: []FormatCondition{
			{Type: ConditionTypeReleaseTitle, Pattern: `REMUX`, Required: true},
		},
	}
	compiled, err := f.Compile()
	require.NoError(t, err)
	require.Len(t, compiled.Compiled, 1)

	// Patterns compile case-insensitively.
	assert.True(t, compiled.Compiled[0].Matcher.MatchString("remux"))
	assert.True(t, compiled.Compiled[0].Required)

	f.Conditions[0].Pattern = "("
	_, err = f.Compile()
	var cfgErr *ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}
