// internal/httpserver/routes_stats.go
//
// Play statistics routes.
//   - POST /api/submit-stats        → record a finished session
//   - GET  /api/count/{code}        → plays / wins
//   - GET  /api/guessdist/{code}    → most common guesses
//   - GET  /api/timedist/{code}     → mean seconds per guess index
//
// Reporting is anonymous: clients post stats without an account.

package httpserver

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/hlog"

	"github.com/robalobadob/connections/internal/catalog"
	"github.com/robalobadob/connections/internal/codes"
	"github.com/robalobadob/connections/internal/game"
	"github.com/robalobadob/connections/internal/stats"
)

func (s *Server) mountStatsRoutes() {
	s.r.Post("/api/submit-stats", s.handleSubmitStats)
	s.r.Get("/api/count/{code}", s.withKnownGame(func(w http.ResponseWriter, r *http.Request, code string) {
		c, err := s.stats.Count(r.Context(), code)
		s.respondStats(w, r, c, err)
	}))
	s.r.Get("/api/guessdist/{code}", s.withKnownGame(func(w http.ResponseWriter, r *http.Request, code string) {
		d, err := s.stats.GuessDistribution(r.Context(), code, stats.DefaultTopGuesses)
		s.respondStats(w, r, d, err)
	}))
	s.r.Get("/api/timedist/{code}", s.withKnownGame(func(w http.ResponseWriter, r *http.Request, code string) {
		d, err := s.stats.TimeDistribution(r.Context(), code)
		s.respondStats(w, r, d, err)
	}))
}

func (s *Server) handleSubmitStats(w http.ResponseWriter, r *http.Request) {
	var sum game.Summary
	if err := decodeJSON(w, r, &sum); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	sum.GameCode = codes.Normalize(sum.GameCode)

	err := s.stats.Record(r.Context(), sum)
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, map[string]bool{"ok": true})
	case errors.Is(err, stats.ErrUnknownGame):
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
	case errors.Is(err, stats.ErrEmpty), errors.Is(err, stats.ErrMismatch):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		hlog.FromRequest(r).Error().Err(err).Str("gameCode", sum.GameCode).Msg("record stats")
		http.Error(w, `{"error":"save_failed"}`, http.StatusInternalServerError)
	}
}

// withKnownGame resolves {code} and answers 404 for unknown games.
func (s *Server) withKnownGame(h func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := urlCode(r)
		if code == "" {
			http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
			return
		}
		if _, err := s.catalog.ByCode(r.Context(), code); err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
				return
			}
			hlog.FromRequest(r).Error().Err(err).Str("gameCode", code).Msg("load game")
			http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
			return
		}
		h(w, r, code)
	}
}

func (s *Server) respondStats(w http.ResponseWriter, r *http.Request, v any, err error) {
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("query stats")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, v)
}
