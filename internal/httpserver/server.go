// internal/httpserver/server.go
//
// HTTP server wiring for the game-data service.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs, access logs).
//   - Public endpoints: "/", "/health".
//   - Game endpoints: fetch by code, list published games, courses.
//   - Stats endpoints: submit-stats, count, guessdist, timedist.
//   - Instructor endpoints (require auth): upload, list own games, delete.
//   - Auth endpoints: /auth/signup, /auth/login, /auth/logout, /api/check_authenticated.
//   - Lifecycle: serve until the context is cancelled, then shut down gracefully.
//
// Notes:
//   - CORS is origin‑aware and credentials‑enabled (so cookies work).
//   - Trailing slashes are stripped before routing; the web client always
//     sends them ("/api/games/code/AB12CD/?format=json").

package httpserver

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"golang.org/x/sync/errgroup"

	"github.com/robalobadob/connections/internal/catalog"
	"github.com/robalobadob/connections/internal/stats"
)

// shutdownGrace bounds how long in-flight requests may run after shutdown starts.
const shutdownGrace = 10 * time.Second

// Server bundles router, DB handle, and the stores behind the handlers.
type Server struct {
	r       *chi.Mux
	db      *sql.DB
	catalog *catalog.Catalog
	stats   *stats.Store
	log     zerolog.Logger
}

// New constructs a Server, installs middleware, and registers routes.
func New(db *sql.DB, cat *catalog.Catalog, st *stats.Store, logger zerolog.Logger) *Server {
	s := &Server{r: chi.NewRouter(), db: db, catalog: cat, stats: st, log: logger}

	// --- middleware ---
	s.r.Use(chimw.RequestID)                 // add X-Request-ID
	s.r.Use(chimw.RealIP)                    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(hlog.NewHandler(logger))         // request-scoped logger
	s.r.Use(hlog.RemoteAddrHandler("ip"))    // log client address
	s.r.Use(requestIDLogger)                 // log chi's request ID
	s.r.Use(hlog.AccessHandler(accessLog))   // one line per request
	s.r.Use(chimw.Recoverer)                 // recover from panics
	s.r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
	s.r.Use(chimw.StripSlashes)              // "/api/x/" == "/api/x"
	s.r.Use(jsonContentType)                 // default JSON responses
	s.r.Use(corsFromEnv)                     // credentials-friendly CORS

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"connections","endpoints":["/health","/api/games","/api/games/code/{code}","POST /api/submit-stats","/auth/*"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	s.mountGameRoutes()
	s.mountStatsRoutes()
	s.mountAuthRoutes()

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
	})
	s.r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"method_not_allowed"}`, http.StatusMethodNotAllowed)
	})

	return s
}

// Start serves HTTP on addr until ctx is cancelled, then drains in-flight
// requests for up to shutdownGrace.
func (s *Server) Start(ctx context.Context, addr string) error {
	hs := &http.Server{
		Addr:              addr,
		Handler:           s.r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info().Str("addr", addr).Msg("listening")
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		s.log.Info().Msg("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return hs.Shutdown(sctx)
	})
	return g.Wait()
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

func accessLog(r *http.Request, status, size int, d time.Duration) {
	ev := hlog.FromRequest(r).Info()
	if status >= http.StatusInternalServerError {
		ev = hlog.FromRequest(r).Error()
	}
	ev.Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Int("size", size).
		Dur("duration", d).
		Msg("request")
}
