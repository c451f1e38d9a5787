// internal/httpserver/server.go
//
// HTTP server wiring for the Station Guessr backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs, access log).
//   - Public endpoints: "/", "/health".
//   - Game endpoints (optional auth): mounted under /game (routes_game.go).
//   - Auth endpoints: /auth/* (auth.go).
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so cookies work).
//   - Optional auth decorates requests with user context when a valid token is present;
//     guests play under an anonymous cookie id but never get an outcome recorded.

package httpserver

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/rs/cors"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/stationguessr/go-server/internal/config"
	"github.com/stationguessr/go-server/internal/daily"
	"github.com/stationguessr/go-server/internal/outcome"
	"github.com/stationguessr/go-server/internal/stations"
	"github.com/stationguessr/go-server/internal/store"
)

// Server bundles the router and the game's collaborators.
type Server struct {
	r        *chi.Mux
	cfg      *config.Config
	db       *sqlx.DB
	daily    *daily.Store
	provider *daily.Provider
	catalog  *stations.Catalog
	rounds   store.Rounds
	bridge   *outcome.Bridge

	dayMu   sync.Mutex // guards liveDay
	liveDay string     // date of the rounds currently held in memory
}

// New constructs a Server, installs middleware, and registers routes.
func New(cfg *config.Config, db *sqlx.DB, catalog *stations.Catalog, rounds store.Rounds) *Server {
	ds := daily.NewStore(db)
	s := &Server{
		r:        chi.NewRouter(),
		cfg:      cfg,
		db:       db,
		daily:    ds,
		provider: daily.NewProvider(ds, catalog, cfg.DailySalt),
		catalog:  catalog,
		rounds:   rounds,
		bridge:   outcome.NewBridge(ds, cfg.Score),
	}

	corsMW := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.ClientOrigin},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	// --- middleware ---
	s.r.Use(chimw.RequestID)                 // add X-Request-ID
	s.r.Use(chimw.RealIP)                    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(hlog.NewHandler(log.Logger))     // request-scoped logger
	s.r.Use(accessLog)                       // one line per request
	s.r.Use(chimw.Recoverer)                 // recover from panics
	s.r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
	s.r.Use(jsonContentType)                 // default JSON responses
	s.r.Use(corsMW.Handler)                  // credentials-friendly CORS

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"service":   "stationguessr-go",
			"endpoints": []string{"/health", "GET /game/today", "POST /game/guess", "/auth/*"},
		})
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})

	s.mountGame(s.r.With(s.withOptionalAuth()))
	s.mountAuthRoutes()

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// accessLog writes one structured line per request.
var accessLog = hlog.AccessHandler(func(r *http.Request, status, size int, d time.Duration) {
	hlog.FromRequest(r).Info().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Int("size", size).
		Dur("duration", d).
		Str("req_id", chimw.GetReqID(r.Context())).
		Msg("request")
})

// ------------------------------- helpers -----------------------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}
