// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/autobrr/fetcharr/internal/models"
)

// Query describes one search request. Season/Episode are zero for movie
// searches; Episode is zero for season-pack searches.
type Query struct {
	Text    string
	Season  int
	Episode int
}

// Provider is the abstract search capability. Implementations live outside
// this core (indexer network clients); the engine only sees candidates.
type Provider interface {
	ID() string
	Search(ctx context.Context, query Query) ([]models.ReleaseCandidate, error)
}

// GrabHandle identifies a submitted download at the download client.
type GrabHandle struct {
	ID string `json:"id"`
}

// Grabber is the abstract download-submission capability.
type Grabber interface {
	Submit(ctx context.Context, candidate models.ReleaseCandidate) (GrabHandle, error)
}

// ErrCircuitOpen is the short-circuit outcome for a provider whose circuit
// is open. It is a routing outcome, not a provider failure: callers record
// it separately and never feed it back into the failure counters.
var ErrCircuitOpen = errors.New("provider circuit open")

// ProviderError wraps a genuine search or parse failure from one provider.
type ProviderError struct {
	ProviderID string
	Err        error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.ProviderID, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// GrabError wraps a failed download submission.
type GrabError struct {
	Title string
	Err   error
}

func (e *GrabError) Error() string {
	return fmt.Sprintf("grab %q: %v", e.Title, e.Err)
}

func (e *GrabError) Unwrap() error { return e.Err }
