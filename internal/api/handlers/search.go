// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/autobrr/fetcharr/internal/models"
	"github.com/autobrr/fetcharr/internal/services/search"
)

// SearchHandler triggers searches and returns their summaries. Batch
// operations return a per-item summary instead of failing wholesale; partial
// success is the normal completion mode.
type SearchHandler struct {
	service *search.Service
}

// NewSearchHandler returns a ready-to-use handler.
func NewSearchHandler(service *search.Service) *SearchHandler {
	return &SearchHandler{service: service}
}

// Routes mounts the handler.
func (h *SearchHandler) Routes(r chi.Router) {
	r.Post("/series/{id}", h.SearchSeries)
	r.Post("/movies/{id}", h.SearchMovie)
}

// SearchSeries handles POST /api/search/series/{id}
func (h *SearchHandler) SearchSeries(w http.ResponseWriter, r *http.Request) {
	id, ok := urlParamInt64(w, r, "id")
	if !ok {
		return
	}
	summary, err := h.service.RunSeriesSearch(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, search.ErrAlreadyRunning):
			http.Error(w, "A search for this series is already running", http.StatusConflict)
		case errors.Is(err, models.ErrNotFound):
			http.Error(w, "Series not found", http.StatusNotFound)
		default:
			log.Error().Err(err).Int64("series", id).Msg("search: cascade failed")
			http.Error(w, "Search failed", http.StatusInternalServerError)
		}
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// SearchMovie handles POST /api/search/movies/{id}
func (h *SearchHandler) SearchMovie(w http.ResponseWriter, r *http.Request) {
	id, ok := urlParamInt64(w, r, "id")
	if !ok {
		return
	}
	result, err := h.service.RunMovieSearch(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, search.ErrAlreadyRunning):
			http.Error(w, "A search for this movie is already running", http.StatusConflict)
		case errors.Is(err, models.ErrNotFound):
			http.Error(w, "Movie not found", http.StatusNotFound)
		default:
			log.Error().Err(err).Int64("movie", id).Msg("search: movie search failed")
			http.Error(w, "Search failed", http.StatusInternalServerError)
		}
		return
	}
	respondJSON(w, http.StatusOK, result)
}
