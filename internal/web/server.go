// Package web provides the JSON HTTP API for loading and searching CSV files.
package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/JonMunkholm/csvsearch/internal/config"
	"github.com/JonMunkholm/csvsearch/internal/core"
	"github.com/JonMunkholm/csvsearch/internal/logging"
	mw "github.com/JonMunkholm/csvsearch/internal/web/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// errRateLimited is mapped to RATE001 by core.MapError.
var errRateLimited = errors.New("rate limit exceeded")

// Server is the HTTP server for the CSV search API.
type Server struct {
	service *core.Service
	cfg     *config.Config
	router  *chi.Mux
	server  *http.Server

	limiters []*mw.RateLimiter
}

// NewServer creates a new Server instance.
func NewServer(service *core.Service, cfg *config.Config) *Server {
	s := &Server{
		service: service,
		cfg:     cfg,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	if s.cfg.Server.RequestTimeout > 0 {
		s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
	}
	s.router.Use(mw.CORS(s.cfg.Server.CORSOrigins))

	if s.cfg.Rate.Enabled {
		s.router.Use(s.newRateLimiter(s.cfg.Rate.RequestsPerMinute).Middleware)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	// Load is rate limited separately since it reads files from disk.
	s.router.Group(func(r chi.Router) {
		if s.cfg.Rate.Enabled {
			r.Use(s.newRateLimiter(s.cfg.Rate.LoadLimit).Middleware)
		}
		r.Get("/loadcsv", s.handleLoadCSV)
	})

	s.router.Get("/viewcsv", s.handleViewCSV)
	s.router.Get("/searchcsv", s.handleSearchCSV)
	s.router.Get("/broadband", s.handleBroadband)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(&s.cfg.Security))

		r.Get("/datasets", s.handleListDatasets)
		r.Get("/datasets/{id}", s.handleGetDataset)
		r.Delete("/datasets/{id}", s.handleDeleteDataset)
		r.Get("/history", s.handleHistory)
	})

	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondMessage(w, r, core.UserMessage{
			Message:  "No such endpoint",
			Action:   "Use /loadcsv, /viewcsv, /searchcsv or /broadband",
			Code:     "QRY001",
			Response: core.ResponseBadRequest,
			Status:   http.StatusNotFound,
		})
	})
}

func (s *Server) newRateLimiter(perMinute int) *mw.RateLimiter {
	rl := mw.NewRateLimiter(perMinute, time.Minute)
	rl.Deny = func(w http.ResponseWriter, r *http.Request) {
		s.respondError(w, r, errRateLimited)
	}
	s.limiters = append(s.limiters, rl)
	return rl
}

// Start begins listening for HTTP requests.
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	logging.FromContext(context.Background()).Info("starting server", "addr", addr)
	return s.server.ListenAndServe()
}

// Shutdown stops accepting requests, waits for in-flight ones and stops the
// rate limiter cleanup loops.
func (s *Server) Shutdown(ctx context.Context) error {
	for _, rl := range s.limiters {
		rl.Stop()
	}
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}
