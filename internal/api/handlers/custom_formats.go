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

// CustomFormatHandler serves CRUD endpoints for custom formats. Formats are
// validated (patterns compiled) on every write so the matcher never sees a
// broken pattern.
type CustomFormatHandler struct {
	store *models.CustomFormatStore
}

// NewCustomFormatHandler returns a ready-to-use handler.
func NewCustomFormatHandler(store *models.CustomFormatStore) *CustomFormatHandler {
	return &CustomFormatHandler{store: store}
}

// Routes mounts the handler.
func (h *CustomFormatHandler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

// List handles GET /api/custom-formats
func (h *CustomFormatHandler) List(w http.ResponseWriter, r *http.Request) {
	formats, err := h.store.List(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("custom formats: failed to list")
		http.Error(w, "Failed to list custom formats", http.StatusInternalServerError)
		return
	}
	if formats == nil {
		formats = []*models.CustomFormat{}
	}
	respondJSON(w, http.StatusOK, formats)
}

// Get handles GET /api/custom-formats/{id}
func (h *CustomFormatHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	format, err := h.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Custom format not found", http.StatusNotFound)
			return
		}
		log.Error().Err(err).Str("id", id).Msg("custom formats: failed to get")
		http.Error(w, "Failed to get custom format", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, format)
}

// Create handles POST /api/custom-formats
func (h *CustomFormatHandler) Create(w http.ResponseWriter, r *http.Request) {
	var format models.CustomFormat
	if err := json.NewDecoder(r.Body).Decode(&format); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	created, err := h.store.Create(r.Context(), &format)
	if err != nil {
		var cfgErr *models.ConfigurationError
		if errors.As(err, &cfgErr) {
			http.Error(w, cfgErr.Error(), http.StatusBadRequest)
			return
		}
		log.Error().Err(err).Str("id", format.ID).Msg("custom formats: failed to create")
		http.Error(w, "Failed to create custom format", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

// Update handles PUT /api/custom-formats/{id}
func (h *CustomFormatHandler) Update(w http.ResponseWriter, r *http.Request) {
	var format models.CustomFormat
	if err := json.NewDecoder(r.Body).Decode(&format); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	format.ID = chi.URLParam(r, "id")
	updated, err := h.store.Update(r.Context(), &format)
	if err != nil {
		var cfgErr *models.ConfigurationError
		switch {
		case errors.As(err, &cfgErr):
			http.Error(w, cfgErr.Error(), http.StatusBadRequest)
		case errors.Is(err, sql.ErrNoRows):
			http.Error(w, "Custom format not found", http.StatusNotFound)
		default:
			log.Error().Err(err).Str("id", format.ID).Msg("custom formats: failed to update")
			http.Error(w, "Failed to update custom format", http.StatusInternalServerError)
		}
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/custom-formats/{id}
func (h *CustomFormatHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.Delete(r.Context(), id); err != nil {
		log.Error().Err(err).Str("id", id).Msg("custom formats: failed to delete")
		http.Error(w, "Failed to delete custom format", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
