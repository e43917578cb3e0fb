// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/autobrr/fetcharr/internal/dbinterface"
)

// SearchProviderRecord is a configured release provider. The actual client
// is an external collaborator; this record only carries identity and routing
// state.
type SearchProviderRecord struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"createdAt"`
}

// ProviderStore handles persistence for search providers.
type ProviderStore struct {
	db dbinterface.Querier
}

// NewProviderStore returns a new ProviderStore backed by db.
func NewProviderStore(db dbinterface.Querier) *ProviderStore {
	return &ProviderStore{db: db}
}

// List returns all providers ordered by name.
func (s *ProviderStore) List(ctx context.Context) ([]*SearchProviderRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, enabled, created_at FROM providers ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var providers []*SearchProviderRecord
	for rows.Next() {
		var p SearchProviderRecord
		if err := rows.Scan(&p.ID, &p.Name, &p.Enabled, &p.CreatedAt); err != nil {
			return nil, err
		}
		providers = append(providers, &p)
	}
	return providers, rows.Err()
}

// Get returns the provider with the given id.
func (s *ProviderStore) Get(ctx context.Context, id string) (*SearchProviderRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, name, enabled, created_at FROM providers WHERE id = ?`, id)
	var p SearchProviderRecord
	if err := row.Scan(&p.ID, &p.Name, &p.Enabled, &p.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Upsert creates or updates a provider record.
func (s *ProviderStore) Upsert(ctx context.Context, p *SearchProviderRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO providers (id, name, enabled) VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET name = excluded.name, enabled = excluded.enabled
	`, p.ID, p.Name, p.Enabled)
	return err
}
