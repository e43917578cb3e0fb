// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/autobrr/fetcharr/internal/models"
	"github.com/autobrr/fetcharr/internal/services/specifications"
)

// LibraryHandler exposes the gating check: does an item currently qualify
// for automated search. Evaluation only, no search is triggered.
type LibraryHandler struct {
	engine *specifications.Engine
}

// NewLibraryHandler returns a ready-to-use handler.
func NewLibraryHandler(engine *specifications.Engine) *LibraryHandler {
	return &LibraryHandler{engine: engine}
}

// Routes mounts the handler.
func (h *LibraryHandler) Routes(r chi.Router) {
	r.Get("/movies/{id}/evaluate", h.EvaluateMovie)
	r.Get("/episodes/{id}/evaluate", h.EvaluateEpisode)
}

// EvaluateMovie handles GET /api/library/movies/{id}/evaluate
func (h *LibraryHandler) EvaluateMovie(w http.ResponseWriter, r *http.Request) {
	id, ok := urlParamInt64(w, r, "id")
	if !ok {
		return
	}
	result, err := h.engine.EvaluateMovieItem(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			http.Error(w, "Movie not found", http.StatusNotFound)
			return
		}
		log.Error().Err(err).Int64("id", id).Msg("library: failed to evaluate movie")
		http.Error(w, "Failed to evaluate movie", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// EvaluateEpisode handles GET /api/library/episodes/{id}/evaluate
func (h *LibraryHandler) EvaluateEpisode(w http.ResponseWriter, r *http.Request) {
	id, ok := urlParamInt64(w, r, "id")
	if !ok {
		return
	}
	result, err := h.engine.EvaluateEpisodeItem(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			http.Error(w, "Episode not found", http.StatusNotFound)
			return
		}
		log.Error().Err(err).Int64("id", id).Msg("library: failed to evaluate episode")
		http.Error(w, "Failed to evaluate episode", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, result)
}
