// internal/play/play.go
//
// Session bootstrap used by the terminal client.
// Responsibilities:
//   - Load the puzzle through the retrying loader.
//   - Resume from the stored checkpoint when it still matches the puzzle.
//   - Otherwise start from a clean slate and drop the unusable checkpoint.
//
// No session is returned when the puzzle cannot be loaded.

package play

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/robalobadob/connections/internal/game"
	"github.com/robalobadob/connections/internal/puzzle"
	"github.com/robalobadob/connections/internal/store"
)

// PuzzleLoader is satisfied by *client.Loader.
type PuzzleLoader interface {
	Load(ctx context.Context, code string) (*puzzle.Puzzle, error)
}

// Deps wires Open to its collaborators. Loader and Checkpoints are required.
type Deps struct {
	Loader      PuzzleLoader
	Checkpoints store.Store
	Reporter    game.Reporter
	Log         zerolog.Logger

	// Fresh ignores (and deletes) any stored checkpoint.
	Fresh bool
}

// Open returns a session for code, resumed when possible.
func Open(ctx context.Context, d Deps, code string) (*game.Session, error) {
	log := d.Log.With().Str("gameCode", code).Logger()

	p, err := d.Loader.Load(ctx, code)
	if err != nil {
		return nil, err
	}
	gd := game.Deps{Checkpoints: d.Checkpoints, Reporter: d.Reporter, Log: &log}

	if d.Fresh {
		if err := d.Checkpoints.Delete(ctx, code); err != nil {
			log.Warn().Err(err).Msg("delete checkpoint")
		}
		return game.New(p, gd), nil
	}

	snap, found, err := d.Checkpoints.Load(ctx, code)
	switch {
	case err != nil:
		log.Warn().Err(err).Msg("load checkpoint, starting fresh")
		return game.New(p, gd), nil
	case !found:
		return game.New(p, gd), nil
	}

	s, err := game.Resume(p, snap, gd)
	if err != nil {
		if errors.Is(err, game.ErrStaleSnapshot) {
			log.Info().Err(err).Msg("discarding checkpoint")
		} else {
			log.Warn().Err(err).Msg("resume failed")
		}
		if err := d.Checkpoints.Delete(ctx, code); err != nil {
			log.Warn().Err(err).Msg("delete checkpoint")
		}
		return game.New(p, gd), nil
	}
	log.Info().
		Str("status", string(s.Status())).
		Int("guesses", len(s.Guesses())).
		Msg("resumed from checkpoint")
	return s, nil
}
