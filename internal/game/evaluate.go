// internal/game/evaluate.go
//
// Guess evaluation against a puzzle's answer key.
//
// A candidate is correct when it equals some category's word set exactly
// (order irrelevant). An incorrect candidate is "one away" when at least one
// category shares all but one of its words with it; when several categories
// qualify the result is still a plain true. Single-word categories never
// report one-away.
//
// Evaluate is pure and safe to call concurrently on a shared *Puzzle.

package game

import (
	"fmt"

	"github.com/robalobadob/connections/internal/puzzle"
	"github.com/robalobadob/connections/internal/words"
)

// Evaluate checks candidate against p.
func Evaluate(candidate words.Set, p *puzzle.Puzzle) (Evaluation, error) {
	if candidate.Len() != p.CategorySize {
		return Evaluation{}, fmt.Errorf("%w: got %d, want %d", ErrInvalidSize, candidate.Len(), p.CategorySize)
	}
	var ev Evaluation
	for i := range p.Categories {
		c := &p.Categories[i]
		switch overlap := candidate.Overlap(c.WordSet()); {
		case overlap == p.CategorySize:
			return Evaluation{Correct: true, Category: c}, nil
		case p.CategorySize > 1 && overlap == p.CategorySize-1:
			ev.OneAway = true
		}
	}
	return ev, nil
}
