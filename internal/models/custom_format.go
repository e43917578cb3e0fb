// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/autobrr/fetcharr/internal/dbinterface"
)

// Format categories. Banned formats combined with a zero effective score (or
// an explicit hard_block flag) reject a release outright.
const (
	FormatCategoryBanned    = "banned"
	FormatCategoryStreaming = "streaming"
	FormatCategoryQuality   = "quality"
	FormatCategoryAudio     = "audio"
	FormatCategoryRelease   = "release"
)

// Condition types name the release attribute a pattern is tested against.
const (
	ConditionTypeReleaseTitle = "release_title"
	ConditionTypeReleaseGroup = "release_group"
	ConditionTypeIndexer      = "indexer"
	ConditionTypeResolution   = "resolution"
	ConditionTypeSource       = "source"
	ConditionTypeCodec        = "codec"
)

var knownConditionTypes = map[string]struct{}{
	ConditionTypeReleaseTitle: {},
	ConditionTypeReleaseGroup: {},
	ConditionTypeIndexer:      {},
	ConditionTypeResolution:   {},
	ConditionTypeSource:       {},
	ConditionTypeCodec:        {},
}

var knownFormatCategories = map[string]struct{}{
	FormatCategoryBanned:    {},
	FormatCategoryStreaming: {},
	FormatCategoryQuality:   {},
	FormatCategoryAudio:     {},
	FormatCategoryRelease:   {},
}

// FormatCondition is a single pattern rule inside a custom format.
type FormatCondition struct {
	// Type is one of the ConditionType* constants.
	Type string `json:"type"`
	// Pattern is a regular expression, compiled case-insensitively.
	Pattern  string `json:"pattern"`
	Required bool   `json:"required"`
	Negate   bool   `json:"negate"`
}

// CustomFormat is a named, pattern-based rule set that tags and scores a
// release. A format matches when all required conditions find a match and all
// negate conditions find none.
type CustomFormat struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Category     string            `json:"category"`
	Tags         []string          `json:"tags"`
	DefaultScore int               `json:"defaultScore"`
	// HardBlock marks the format as an unconditional reject. The legacy
	// encoding (category=banned with effective score 0) is still honored.
	HardBlock  bool              `json:"hardBlock"`
	Conditions []FormatCondition `json:"conditions"`
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}

// ConfigurationError marks malformed format or profile definitions. It is
// raised at load time; matching and scoring assume validated inputs.
type ConfigurationError struct {
	Entity string
	ID     string
	Err    error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %v", e.Entity, e.ID, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// Validate returns a non-nil error if the format definition is unusable.
func (f *CustomFormat) Validate() error {
	if f == nil {
		return errors.New("custom format is nil")
	}
	if strings.TrimSpace(f.ID) == "" {
		return errors.New("custom format id is required")
	}
	if strings.TrimSpace(f.Name) == "" {
		return errors.New("custom format name is required")
	}
	if _, ok := knownFormatCategories[f.Category]; !ok {
		return fmt.Errorf("unknown category %q", f.Category)
	}
	if len(f.Conditions) == 0 {
		return errors.New("custom format must have at least one condition")
	}
	for i, cond := range f.Conditions {
		if _, ok := knownConditionTypes[cond.Type]; !ok {
			return fmt.Errorf("condition %d has unknown type %q", i, cond.Type)
		}
		if strings.TrimSpace(cond.Pattern) == "" {
			return fmt.Errorf("condition %d has no pattern", i)
		}
		if _, err := regexp.Compile("(?i)" + cond.Pattern); err != nil {
			return fmt.Errorf("condition %d pattern %q does not compile: %w", i, cond.Pattern, err)
		}
	}
	return nil
}

// CompiledCondition is a FormatCondition with its pattern pre-compiled.
type CompiledCondition struct {
	Type     string
	Required bool
	Negate   bool
	Matcher  *regexp.Regexp
}

// CompiledFormat is a CustomFormat ready for matching.
type CompiledFormat struct {
	CustomFormat
	Compiled []CompiledCondition
}

// Compile validates the format and pre-compiles its patterns. A failure is a
// ConfigurationError; the matcher never sees uncompiled patterns.
func (f *CustomFormat) Compile() (*CompiledFormat, error) {
	if err := f.Validate(); err != nil {
		return nil, &ConfigurationError{Entity: "custom format", ID: f.ID, Err: err}
	}
	compiled := make([]CompiledCondition, 0, len(f.Conditions))
	for _, cond := range f.Conditions {
		re, err := regexp.Compile("(?i)" + cond.Pattern)
		if err != nil {
			return nil, &ConfigurationError{Entity: "custom format", ID: f.ID, Err: err}
		}
		compiled = append(compiled, CompiledCondition{
			Type:     cond.Type,
			Required: cond.Required,
			Negate:   cond.Negate,
			Matcher:  re,
		})
	}
	return &CompiledFormat{CustomFormat: *f, Compiled: compiled}, nil
}

// CustomFormatStore handles persistence for custom formats.
type CustomFormatStore struct {
	db dbinterface.Querier
}

// NewCustomFormatStore returns a new CustomFormatStore backed by db.
func NewCustomFormatStore(db dbinterface.Querier) *CustomFormatStore {
	return &CustomFormatStore{db: db}
}

func scanCustomFormat(dest *CustomFormat, tagsJSON, conditionsJSON string) error {
	if err := json.Unmarshal([]byte(tagsJSON), &dest.Tags); err != nil {
		return fmt.Errorf("unmarshal tags: %w", err)
	}
	if err := json.Unmarshal([]byte(conditionsJSON), &dest.Conditions); err != nil {
		return fmt.Errorf("unmarshal conditions: %w", err)
	}
	if dest.Tags == nil {
		dest.Tags = []string{}
	}
	return nil
}

// List returns all custom formats ordered by name.
func (s *CustomFormatStore) List(ctx context.Context) ([]*CustomFormat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, category, tags, default_score, hard_block, conditions, created_at, updated_at
		FROM custom_formats
		ORDER BY name ASC, id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var formats []*CustomFormat
	for rows.Next() {
		var f CustomFormat
		var tagsJSON, conditionsJSON string
		if err := rows.Scan(&f.ID, &f.Name, &f.Category, &tagsJSON, &f.DefaultScore, &f.HardBlock, &conditionsJSON, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, err
		}
		if err := scanCustomFormat(&f, tagsJSON, conditionsJSON); err != nil {
			return nil, fmt.Errorf("custom format %s: %w", f.ID, err)
		}
		formats = append(formats, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return formats, nil
}

// ListCompiled returns all custom formats validated and pattern-compiled,
// ready for the matcher. A single malformed row fails the whole load so
// misconfiguration surfaces immediately instead of silently skipping formats.
func (s *CustomFormatStore) ListCompiled(ctx context.Context) ([]*CompiledFormat, error) {
	formats, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	compiled := make([]*CompiledFormat, 0, len(formats))
	for _, f := range formats {
		cf, err := f.Compile()
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, cf)
	}
	return compiled, nil
}

// Get returns the custom format with the given id, or sql.ErrNoRows.
func (s *CustomFormatStore) Get(ctx context.Context, id string) (*CustomFormat, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, category, tags, default_score, hard_block, conditions, created_at, updated_at
		FROM custom_formats
		WHERE id = ?
	`, id)

	var f CustomFormat
	var tagsJSON, conditionsJSON string
	if err := row.Scan(&f.ID, &f.Name, &f.Category, &tagsJSON, &f.DefaultScore, &f.HardBlock, &conditionsJSON, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return nil, err
	}
	if err := scanCustomFormat(&f, tagsJSON, conditionsJSON); err != nil {
		return nil, fmt.Errorf("custom format %s: %w", f.ID, err)
	}
	return &f, nil
}

// Create inserts a new custom format.
func (s *CustomFormatStore) Create(ctx context.Context, f *CustomFormat) (*CustomFormat, error) {
	if err := f.Validate(); err != nil {
		return nil, &ConfigurationError{Entity: "custom format", ID: f.ID, Err: err}
	}

	tagsJSON, err := json.Marshal(f.Tags)
	if err != nil {
		return nil, fmt.Errorf("marshal tags: %w", err)
	}
	conditionsJSON, err := json.Marshal(f.Conditions)
	if err != nil {
		return nil, fmt.Errorf("marshal conditions: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO custom_formats (id, name, category, tags, default_score, hard_block, conditions)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, f.ID, strings.TrimSpace(f.Name), f.Category, string(tagsJSON), f.DefaultScore, f.HardBlock, string(conditionsJSON))
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, f.ID)
}

// Update replaces the mutable fields of an existing custom format.
func (s *CustomFormatStore) Update(ctx context.Context, f *CustomFormat) (*CustomFormat, error) {
	if err := f.Validate(); err != nil {
		return nil, &ConfigurationError{Entity: "custom format", ID: f.ID, Err: err}
	}

	tagsJSON, err := json.Marshal(f.Tags)
	if err != nil {
		return nil, fmt.Errorf("marshal tags: %w", err)
	}
	conditionsJSON, err := json.Marshal(f.Conditions)
	if err != nil {
		return nil, fmt.Errorf("marshal conditions: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE custom_formats
		SET name = ?, category = ?, tags = ?, default_score = ?, hard_block = ?, conditions = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, strings.TrimSpace(f.Name), f.Category, string(tagsJSON), f.DefaultScore, f.HardBlock, string(conditionsJSON), f.ID)
	if err != nil {
		return nil, err
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return nil, sql.ErrNoRows
	}
	return s.Get(ctx, f.ID)
}

// Delete removes the custom format with the given id.
func (s *CustomFormatStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM custom_formats WHERE id = ?`, id)
	return err
}
