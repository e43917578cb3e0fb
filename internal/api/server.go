// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package api wires the chi router for the engine's JSON API.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	"github.com/autobrr/fetcharr/internal/api/handlers"
	"github.com/autobrr/fetcharr/internal/buildinfo"
	"github.com/autobrr/fetcharr/internal/domain"
	"github.com/autobrr/fetcharr/internal/health"
	"github.com/autobrr/fetcharr/internal/models"
	"github.com/autobrr/fetcharr/internal/services/search"
	"github.com/autobrr/fetcharr/internal/services/specifications"
)

// Deps collects everything the API serves.
type Deps struct {
	Config        *domain.Config
	FormatStore   *models.CustomFormatStore
	ProfileStore  *models.ScoringProfileStore
	ProviderStore *models.ProviderStore
	SpecEngine    *specifications.Engine
	SearchService *search.Service
	Breaker       *health.Registry
}

// Server is the HTTP front of the engine.
type Server struct {
	cfg  *domain.Config
	http *http.Server
}

// NewServer builds the router and returns an unstarted server.
func NewServer(deps Deps) *Server {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)

	c := cors.New(cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	})
	r.Use(c.Handler)

	r.Get("/api/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Get("/api/version", func(w http.ResponseWriter, _ *http.Request) {
		payload, err := buildinfo.JSON()
		if err != nil {
			http.Error(w, "Failed to encode version", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(payload)
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/custom-formats", handlers.NewCustomFormatHandler(deps.FormatStore).Routes)
		r.Route("/scoring-profiles", handlers.NewScoringProfileHandler(deps.ProfileStore).Routes)
		r.Route("/library", handlers.NewLibraryHandler(deps.SpecEngine).Routes)
		r.Route("/search", handlers.NewSearchHandler(deps.SearchService).Routes)
		r.Route("/decisions", handlers.NewDecisionHandler(deps.ProfileStore).Routes)
		r.Route("/providers", handlers.NewProviderHandler(deps.ProviderStore, deps.Breaker).Routes)
	})

	addr := fmt.Sprintf("%s:%d", deps.Config.Host, deps.Config.Port)
	return &Server{
		cfg: deps.Config,
		http: &http.Server{
			Addr:              addr,
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// ListenAndServe blocks until the server stops.
func (s *Server) ListenAndServe() error {
	log.Info().Str("addr", s.http.Addr).Msg("api: listening")
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
