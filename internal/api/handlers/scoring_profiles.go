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
)

// ScoringProfileHandler serves CRUD endpoints for scoring profiles.
type ScoringProfileHandler struct {
	store *models.ScoringProfileStore
}

// NewScoringProfileHandler returns a ready-to-use handler.
func NewScoringProfileHandler(store *models.ScoringProfileStore) *ScoringProfileHandler {
	return &ScoringProfileHandler{store: store}
}

// Routes mounts the handler.
func (h *ScoringProfileHandler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Get("/{id}/resolved", h.GetResolved)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

// List handles GET /api/scoring-profiles
func (h *ScoringProfileHandler) List(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.store.List(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("scoring profiles: failed to list")
		http.Error(w, "Failed to list scoring profiles", http.StatusInternalServerError)
		return
	}
	if profiles == nil {
		profiles = []*models.ScoringProfile{}
	}
	respondJSON(w, http.StatusOK, profiles)
}

// Get handles GET /api/scoring-profiles/{id}
func (h *ScoringProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	profile, err := h.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Scoring profile not found", http.StatusNotFound)
			return
		}
		log.Error().Err(err).Str("id", id).Msg("scoring profiles: failed to get")
		http.Error(w, "Failed to get scoring profile", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

// GetResolved handles GET /api/scoring-profiles/{id}/resolved and returns
// the profile with inheritance applied, as the engine sees it.
func (h *ScoringProfileHandler) GetResolved(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	resolved, err := h.store.GetResolved(r.Context(), id)
	if err != nil {
		var cfgErr *models.ConfigurationError
		switch {
		case errors.Is(err, sql.ErrNoRows):
			http.Error(w, "Scoring profile not found", http.StatusNotFound)
		case errors.As(err, &cfgErr):
			http.Error(w, cfgErr.Error(), http.StatusUnprocessableEntity)
		default:
			log.Error().Err(err).Str("id", id).Msg("scoring profiles: failed to resolve")
			http.Error(w, "Failed to resolve scoring profile", http.StatusInternalServerError)
		}
		return
	}
	respondJSON(w, http.StatusOK, resolved)
}

// Create handles POST /api/scoring-profiles
func (h *ScoringProfileHandler) Create(w http.ResponseWriter, r *http.Request) {
	var profile models.ScoringProfile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	created, err := h.store.Create(r.Context(), &profile)
	if err != nil {
		var cfgErr *models.ConfigurationError
		if errors.As(err, &cfgErr) {
			http.Error(w, cfgErr.Error(), http.StatusBadRequest)
			return
		}
		log.Error().Err(err).Str("id", profile.ID).Msg("scoring profiles: failed to create")
		http.Error(w, "Failed to create scoring profile", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

// Update handles PUT /api/scoring-profiles/{id}
func (h *ScoringProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	var profile models.ScoringProfile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	profile.ID = chi.URLParam(r, "id")
	updated, err := h.store.Update(r.Context(), &profile)
	if err != nil {
		var cfgErr *models.ConfigurationError
		switch {
		case errors.As(err, &cfgErr):
			http.Error(w, cfgErr.Error(), http.StatusBadRequest)
		case errors.Is(err, sql.ErrNoRows):
			http.Error(w, "Scoring profile not found", http.StatusNotFound)
		default:
			log.Error().Err(err).Str("id", profile.ID).Msg("scoring profiles: failed to update")
			http.Error(w, "Failed to update scoring profile", http.StatusInternalServerError)
		}
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/scoring-profiles/{id}
func (h *ScoringProfileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.Delete(r.Context(), id); err != nil {
		log.Error().Err(err).Str("id", id).Msg("scoring profiles: failed to delete")
		http.Error(w, "Failed to delete scoring profile", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
