// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/autobrr/fetcharr/internal/health"
	"github.com/autobrr/fetcharr/internal/models"
)

// ProviderHandler exposes provider records and their circuit health.
type ProviderHandler struct {
	store   *models.ProviderStore
	breaker *health.Registry
}

// NewProviderHandler returns a ready-to-use handler.
func NewProviderHandler(store *models.ProviderStore, breaker *health.Registry) *ProviderHandler {
	return &ProviderHandler{store: store, breaker: breaker}
}

// Routes mounts the handler.
func (h *ProviderHandler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/status", h.AllStatuses)
	r.Get("/{id}/status", h.Status)
	r.Post("/{id}/reset", h.Reset)
}

// List handles GET /api/providers
func (h *ProviderHandler) List(w http.ResponseWriter, r *http.Request) {
	providers, err := h.store.List(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("providers: failed to list")
		http.Error(w, "Failed to list providers", http.StatusInternalServerError)
		return
	}
	if providers == nil {
		providers = []*models.SearchProviderRecord{}
	}
	respondJSON(w, http.StatusOK, providers)
}

// AllStatuses handles GET /api/providers/status
func (h *ProviderHandler) AllStatuses(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, h.breaker.Statuses())
}

// Status handles GET /api/providers/{id}/status. Reading status never
// mutates circuit state.
func (h *ProviderHandler) Status(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	respondJSON(w, http.StatusOK, h.breaker.Status(id))
}

// Reset handles POST /api/providers/{id}/reset
func (h *ProviderHandler) Reset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	reset := h.breaker.Reset(id)
	respondJSON(w, http.StatusOK, map[string]bool{"reset": reset})
}
