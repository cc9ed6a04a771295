// internal/httpserver/routes_games.go
//
// Game catalog routes.
//   - GET    /api/games/code/{code}         → puzzle document for play
//   - GET    /api/games?course=             → published games
//   - GET    /api/courses                   → course list
//   - POST   /api/upload                    → create a game (instructor)
//   - GET    /api/instructor/games          → own games (instructor)
//   - DELETE /api/instructor/games/{code}   → delete own game (instructor)

package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/robalobadob/connections/internal/catalog"
	"github.com/robalobadob/connections/internal/codes"
	"github.com/robalobadob/connections/internal/puzzle"
)

// gameItem is the list representation of a game.
type gameItem struct {
	ID        string          `json:"id"`
	GameCode  string          `json:"game_code"`
	Title     string          `json:"title"`
	Author    string          `json:"author"`
	Course    *catalog.Course `json:"course"`
	Published bool            `json:"published"`
	CreatedAt time.Time       `json:"created_at"`
}

func toItems(gs []catalog.Game) []gameItem {
	out := make([]gameItem, 0, len(gs))
	for _, g := range gs {
		it := gameItem{
			ID:        g.ID,
			GameCode:  g.Code,
			Title:     g.Title,
			Author:    g.Author,
			Published: g.Published,
			CreatedAt: g.CreatedAt,
		}
		if g.Course.ID != "" {
			c := g.Course
			it.Course = &c
		}
		out = append(out, it)
	}
	return out
}

func (s *Server) mountGameRoutes() {
	s.r.Get("/api/games/code/{code}", s.handleGameByCode)
	s.r.Get("/api/games", s.handleListGames)
	s.r.Get("/api/courses", s.handleCourses)

	s.r.Group(func(r chi.Router) {
		r.Use(s.requireAuth())
		r.Post("/api/upload", s.handleUpload)
		r.Get("/api/instructor/games", s.handleInstructorGames)
		r.Delete("/api/instructor/games/{code}", s.handleDeleteGame)
	})
}

// urlCode returns the normalized {code} parameter, or "" if it is malformed.
func urlCode(r *http.Request) string {
	code := codes.Normalize(chi.URLParam(r, "code"))
	if !codes.Valid(code) {
		return ""
	}
	return code
}

func (s *Server) handleGameByCode(w http.ResponseWriter, r *http.Request) {
	code := urlCode(r)
	if code == "" {
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
		return
	}
	g, err := s.catalog.ByCode(r.Context(), code)
	if errors.Is(err, catalog.ErrNotFound) {
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
		return
	}
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Str("gameCode", code).Msg("load game")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, puzzle.Encode(g.Puzzle))
}

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	gs, err := s.catalog.List(r.Context(), r.URL.Query().Get("course"))
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("list games")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toItems(gs))
}

func (s *Server) handleCourses(w http.ResponseWriter, r *http.Request) {
	cs, err := s.catalog.Courses(r.Context())
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("list courses")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, cs)
}

// handleUpload validates and stores a new game. Validation failures answer
// 400 {"message": ...}, which the creation form shows verbatim.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r)
	var doc puzzle.Document
	if err := decodeJSON(w, r, &doc); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid JSON: " + err.Error()})
		return
	}
	g, err := s.catalog.Create(r.Context(), me.ID, doc)
	if errors.Is(err, puzzle.ErrInvalid) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return
	}
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Str("user", me.ID).Msg("create game")
		http.Error(w, `{"error":"save_failed"}`, http.StatusInternalServerError)
		return
	}
	hlog.FromRequest(r).Info().Str("gameCode", g.Code).Str("user", me.ID).Msg("game created")
	writeJSON(w, http.StatusCreated, map[string]string{
		"message": fmt.Sprintf("Game created successfully. Your game code is: %s", g.Code),
		"code":    g.Code,
	})
}

func (s *Server) handleInstructorGames(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r)
	gs, err := s.catalog.ListByOwner(r.Context(), me.ID)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("list own games")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toItems(gs))
}

func (s *Server) handleDeleteGame(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r)
	code := urlCode(r)
	if code == "" {
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
		return
	}
	err := s.catalog.Delete(r.Context(), me.ID, code)
	if errors.Is(err, catalog.ErrNotFound) {
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
		return
	}
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Str("gameCode", code).Msg("delete game")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
