// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/autobrr/fetcharr/internal/dbinterface"
)

// UnboundedUpgradeScore disables the upgrade cutoff: upgrade searches keep
// running no matter how good the existing file already is.
const UnboundedUpgradeScore = -1

// ScoringProfile is a named bundle of scoring and acceptance policy. Nil
// pointer fields fall back to the base profile (single level only) or to the
// built-in defaults when no base is set.
type ScoringProfile struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	BaseProfileID string `json:"baseProfileId,omitempty"`

	// ResolutionOrder lists resolution tags best-first; it breaks ties
	// between equally scored releases.
	ResolutionOrder []string       `json:"resolutionOrder,omitempty"`
	FormatScores    map[string]int `json:"formatScores,omitempty"`

	UpgradesAllowed   *bool `json:"upgradesAllowed,omitempty"`
	MinScore          *int  `json:"minScore,omitempty"`
	UpgradeUntilScore *int  `json:"upgradeUntilScore,omitempty"`
	MinScoreIncrement *int  `json:"minScoreIncrement,omitempty"`

	MinMovieSizeGB   *float64 `json:"minMovieSizeGb,omitempty"`
	MaxMovieSizeGB   *float64 `json:"maxMovieSizeGb,omitempty"`
	MinEpisodeSizeMB *float64 `json:"minEpisodeSizeMb,omitempty"`
	MaxEpisodeSizeMB *float64 `json:"maxEpisodeSizeMb,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ResolvedProfile is a ScoringProfile with inheritance applied and every
// policy field concrete. The engine only ever sees resolved profiles.
type ResolvedProfile struct {
	ID              string
	Name            string
	ResolutionOrder []string
	FormatScores    map[string]int

	UpgradesAllowed   bool
	MinScore          int
	UpgradeUntilScore int
	MinScoreIncrement int

	// Size bounds; zero means unset.
	MinMovieSizeGB   float64
	MaxMovieSizeGB   float64
	MinEpisodeSizeMB float64
	MaxEpisodeSizeMB float64
}

// Validate checks the fields that do not require inheritance resolution.
func (p *ScoringProfile) Validate() error {
	if p == nil {
		return errors.New("scoring profile is nil")
	}
	if strings.TrimSpace(p.ID) == "" {
		return errors.New("scoring profile id is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("scoring profile name is required")
	}
	if p.BaseProfileID == p.ID {
		return errors.New("scoring profile cannot inherit from itself")
	}
	if p.MinScoreIncrement != nil && *p.MinScoreIncrement < 0 {
		return fmt.Errorf("minScoreIncrement must be >= 0, got %d", *p.MinScoreIncrement)
	}
	return nil
}

// Resolve applies single-level inheritance and returns a concrete profile.
// base may be nil when the profile has no BaseProfileID. A base that itself
// inherits is a configuration error: chains never go more than one level.
func (p *ScoringProfile) Resolve(base *ScoringProfile) (*ResolvedProfile, error) {
	if err := p.Validate(); err != nil {
		return nil, &ConfigurationError{Entity: "scoring profile", ID: p.ID, Err: err}
	}
	if p.BaseProfileID != "" {
		if base == nil {
			return nil, &ConfigurationError{Entity: "scoring profile", ID: p.ID, Err: fmt.Errorf("base profile %q not found", p.BaseProfileID)}
		}
		if base.BaseProfileID != "" {
			return nil, &ConfigurationError{Entity: "scoring profile", ID: p.ID, Err: fmt.Errorf("base profile %q must not itself inherit", base.BaseProfileID)}
		}
	} else {
		base = nil
	}

	resolved := &ResolvedProfile{
		ID:                p.ID,
		Name:              p.Name,
		UpgradesAllowed:   true,
		UpgradeUntilScore: UnboundedUpgradeScore,
	}

	// Base values first, then the profile's own overrides.
	for _, src := range []*ScoringProfile{base, p} {
		if src == nil {
			continue
		}
		if src.ResolutionOrder != nil {
			resolved.ResolutionOrder = append([]string(nil), src.ResolutionOrder...)
		}
		if src.UpgradesAllowed != nil {
			resolved.UpgradesAllowed = *src.UpgradesAllowed
		}
		if src.MinScore != nil {
			resolved.MinScore = *src.MinScore
		}
		if src.UpgradeUntilScore != nil {
			resolved.UpgradeUntilScore = *src.UpgradeUntilScore
		}
		if src.MinScoreIncrement != nil {
			resolved.MinScoreIncrement = *src.MinScoreIncrement
		}
		if src.MinMovieSizeGB != nil {
			resolved.MinMovieSizeGB = *src.MinMovieSizeGB
		}
		if src.MaxMovieSizeGB != nil {
			resolved.MaxMovieSizeGB = *src.MaxMovieSizeGB
		}
		if src.MinEpisodeSizeMB != nil {
			resolved.MinEpisodeSizeMB = *src.MinEpisodeSizeMB
		}
		if src.MaxEpisodeSizeMB != nil {
			resolved.MaxEpisodeSizeMB = *src.MaxEpisodeSizeMB
		}
	}

	// Format scores merge: base first, own entries win.
	merged := make(map[string]int)
	if base != nil {
		for id, score := range base.FormatScores {
			merged[id] = score
		}
	}
	for id, score := range p.FormatScores {
		merged[id] = score
	}
	resolved.FormatScores = merged

	if resolved.MinScoreIncrement < 0 {
		return nil, &ConfigurationError{Entity: "scoring profile", ID: p.ID, Err: fmt.Errorf("minScoreIncrement must be >= 0, got %d", resolved.MinScoreIncrement)}
	}
	if resolved.UpgradeUntilScore != UnboundedUpgradeScore && resolved.UpgradeUntilScore < resolved.MinScore {
		return nil, &ConfigurationError{Entity: "scoring profile", ID: p.ID, Err: fmt.Errorf("upgradeUntilScore %d is below minScore %d", resolved.UpgradeUntilScore, resolved.MinScore)}
	}
	return resolved, nil
}

// ScoringProfileStore handles persistence for scoring profiles.
type ScoringProfileStore struct {
	db dbinterface.Querier
}

// NewScoringProfileStore returns a new ScoringProfileStore backed by db.
func NewScoringProfileStore(db dbinterface.Querier) *ScoringProfileStore {
	return &ScoringProfileStore{db: db}
}

const scoringProfileColumns = `
	id, name, base_profile_id, resolution_order, format_scores,
	upgrades_allowed, min_score, upgrade_until_score, min_score_increment,
	min_movie_size_gb, max_movie_size_gb, min_episode_size_mb, max_episode_size_mb,
	created_at, updated_at
`

func scanScoringProfile(scan func(dest ...any) error) (*ScoringProfile, error) {
	var p ScoringProfile
	var baseID sql.NullString
	var resolutionJSON sql.NullString
	var formatScoresJSON string
	var upgradesAllowed sql.NullBool
	var minScore, upgradeUntil, minIncrement sql.NullInt64
	var minMovieGB, maxMovieGB, minEpisodeMB, maxEpisodeMB sql.NullFloat64

	if err := scan(
		&p.ID, &p.Name, &baseID, &resolutionJSON, &formatScoresJSON,
		&upgradesAllowed, &minScore, &upgradeUntil, &minIncrement,
		&minMovieGB, &maxMovieGB, &minEpisodeMB, &maxEpisodeMB,
		&p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if baseID.Valid {
		p.BaseProfileID = baseID.String
	}
	if resolutionJSON.Valid {
		if err := json.Unmarshal([]byte(resolutionJSON.String), &p.ResolutionOrder); err != nil {
			return nil, fmt.Errorf("unmarshal resolution_order: %w", err)
		}
	}
	if err := json.Unmarshal([]byte(formatScoresJSON), &p.FormatScores); err != nil {
		return nil, fmt.Errorf("unmarshal format_scores: %w", err)
	}
	if upgradesAllowed.Valid {
		v := upgradesAllowed.Bool
		p.UpgradesAllowed = &v
	}
	if minScore.Valid {
		v := int(minScore.Int64)
		p.MinScore = &v
	}
	if upgradeUntil.Valid {
		v := int(upgradeUntil.Int64)
		p.UpgradeUntilScore = &v
	}
	if minIncrement.Valid {
		v := int(minIncrement.Int64)
		p.MinScoreIncrement = &v
	}
	if minMovieGB.Valid {
		p.MinMovieSizeGB = &minMovieGB.Float64
	}
	if maxMovieGB.Valid {
		p.MaxMovieSizeGB = &maxMovieGB.Float64
	}
	if minEpisodeMB.Valid {
		p.MinEpisodeSizeMB = &minEpisodeMB.Float64
	}
	if maxEpisodeMB.Valid {
		p.MaxEpisodeSizeMB = &maxEpisodeMB.Float64
	}
	return &p, nil
}

// List returns all scoring profiles ordered by name.
func (s *ScoringProfileStore) List(ctx context.Context) ([]*ScoringProfile, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+scoringProfileColumns+` FROM scoring_profiles ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []*ScoringProfile
	for rows.Next() {
		p, err := scanScoringProfile(rows.Scan)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return profiles, nil
}

// Get returns the scoring profile with the given id, or sql.ErrNoRows.
func (s *ScoringProfileStore) Get(ctx context.Context, id string) (*ScoringProfile, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+scoringProfileColumns+` FROM scoring_profiles WHERE id = ?`, id)
	return scanScoringProfile(row.Scan)
}

// GetResolved loads a profile, its base (when set), and resolves inheritance.
func (s *ScoringProfileStore) GetResolved(ctx context.Context, id string) (*ResolvedProfile, error) {
	profile, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	var base *ScoringProfile
	if profile.BaseProfileID != "" {
		base, err = s.Get(ctx, profile.BaseProfileID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, &ConfigurationError{Entity: "scoring profile", ID: id, Err: fmt.Errorf("base profile %q not found", profile.BaseProfileID)}
			}
			return nil, err
		}
	}
	return profile.Resolve(base)
}

func (s *ScoringProfileStore) writeArgs(p *ScoringProfile) ([]any, error) {
	var resolutionJSON any
	if p.ResolutionOrder != nil {
		b, err := json.Marshal(p.ResolutionOrder)
		if err != nil {
			return nil, fmt.Errorf("marshal resolution_order: %w", err)
		}
		resolutionJSON = string(b)
	}
	formatScores := p.FormatScores
	if formatScores == nil {
		formatScores = map[string]int{}
	}
	scoresJSON, err := json.Marshal(formatScores)
	if err != nil {
		return nil, fmt.Errorf("marshal format_scores: %w", err)
	}

	var baseID any
	if p.BaseProfileID != "" {
		baseID = p.BaseProfileID
	}

	return []any{
		strings.TrimSpace(p.Name), baseID, resolutionJSON, string(scoresJSON),
		toNullable(p.UpgradesAllowed), toNullable(p.MinScore), toNullable(p.UpgradeUntilScore), toNullable(p.MinScoreIncrement),
		toNullable(p.MinMovieSizeGB), toNullable(p.MaxMovieSizeGB), toNullable(p.MinEpisodeSizeMB), toNullable(p.MaxEpisodeSizeMB),
	}, nil
}

func toNullable[T any](v *T) any {
	if v == nil {
		return nil
	}
	return *v
}

// Create inserts a new scoring profile.
func (s *ScoringProfileStore) Create(ctx context.Context, p *ScoringProfile) (*ScoringProfile, error) {
	if err := p.Validate(); err != nil {
		return nil, &ConfigurationError{Entity: "scoring profile", ID: p.ID, Err: err}
	}
	args, err := s.writeArgs(p)
	if err != nil {
		return nil, err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO scoring_profiles (
			id, name, base_profile_id, resolution_order, format_scores,
			upgrades_allowed, min_score, upgrade_until_score, min_score_increment,
			min_movie_size_gb, max_movie_size_gb, min_episode_size_mb, max_episode_size_mb
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, append([]any{p.ID}, args...)...)
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, p.ID)
}

// Update replaces the mutable fields of an existing scoring profile.
func (s *ScoringProfileStore) Update(ctx context.Context, p *ScoringProfile) (*ScoringProfile, error) {
	if err := p.Validate(); err != nil {
		return nil, &ConfigurationError{Entity: "scoring profile", ID: p.ID, Err: err}
	}
	args, err := s.writeArgs(p)
	if err != nil {
		return nil, err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE scoring_profiles
		SET name = ?, base_profile_id = ?, resolution_order = ?, format_scores = ?,
			upgrades_allowed = ?, min_score = ?, upgrade_until_score = ?, min_score_increment = ?,
			min_movie_size_gb = ?, max_movie_size_gb = ?, min_episode_size_mb = ?, max_episode_size_mb = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, append(args, p.ID)...)
	if err != nil {
		return nil, err
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return nil, sql.ErrNoRows
	}
	return s.Get(ctx, p.ID)
}

// Delete removes the scoring profile with the given id.
func (s *ScoringProfileStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM scoring_profiles WHERE id = ?`, id)
	return err
}
