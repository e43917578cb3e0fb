// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/autobrr/fetcharr/internal/models"
	"github.com/autobrr/fetcharr/internal/services/decision"
)

// DecisionHandler exposes the decision service for the scheduler/UI layer:
// given an existing score, a candidate score and a profile, what would the
// engine do.
type DecisionHandler struct {
	profiles *models.ScoringProfileStore
}

// NewDecisionHandler returns a ready-to-use handler.
func NewDecisionHandler(profiles *models.ScoringProfileStore) *DecisionHandler {
	return &DecisionHandler{profiles: profiles}
}

// Routes mounts the handler.
func (h *DecisionHandler) Routes(r chi.Router) {
	r.Post("/evaluate", h.Evaluate)
}

type decisionRequest struct {
	// ExistingScore is nil when the item has no file yet.
	ExistingScore  *int   `json:"existingScore"`
	CandidateScore int    `json:"candidateScore"`
	ProfileID      string `json:"profileId"`
	// Banned marks the candidate as carrying a hard-blocked format.
	Banned bool `json:"banned,omitempty"`
}

// Evaluate handles POST /api/decisions/evaluate
func (h *DecisionHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	var req decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.ProfileID == "" {
		http.Error(w, "profileId is required", http.StatusBadRequest)
		return
	}

	profile, err := h.profiles.GetResolved(r.Context(), req.ProfileID)
	if err != nil {
		var cfgErr *models.ConfigurationError
		switch {
		case errors.Is(err, sql.ErrNoRows):
			http.Error(w, "Scoring profile not found", http.StatusNotFound)
		case errors.As(err, &cfgErr):
			http.Error(w, cfgErr.Error(), http.StatusUnprocessableEntity)
		default:
			log.Error().Err(err).Str("profile", req.ProfileID).Msg("decisions: failed to resolve profile")
			http.Error(w, "Failed to resolve scoring profile", http.StatusInternalServerError)
		}
		return
	}

	var existing *models.ScoredRelease
	if req.ExistingScore != nil {
		existing = &models.ScoredRelease{TotalScore: *req.ExistingScore}
	}
	candidate := models.ScoredRelease{TotalScore: req.CandidateScore, IsBanned: req.Banned}

	respondJSON(w, http.StatusOK, decision.Decide(existing, candidate, profile))
}
