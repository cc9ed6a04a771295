// internal/game/types.go
//
// Core type definitions for the session engine.
// Defines:
//   - Status: coarse lifecycle state of a session (not_started → in_progress → won/lost).
//   - Evaluation: result of checking one candidate against the answer key.
//   - Summary: end-of-session report payload.
//   - Checkpointer / Reporter: collaborators the session writes through to.
//   - Sentinel errors surfaced by session operations.

package game

import (
	"context"
	"errors"

	"github.com/robalobadob/connections/internal/puzzle"
)

// Status is the lifecycle state of a session.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusWon        Status = "won"
	StatusLost       Status = "lost"
)

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool { return s == StatusWon || s == StatusLost }

var (
	// ErrInvalidSize means Evaluate got a candidate of the wrong cardinality.
	// The session never lets this happen; seeing it is a programming error.
	ErrInvalidSize = errors.New("candidate size does not match category size")

	// ErrRepeatedGuess rejects a guess already submitted as an unordered set.
	ErrRepeatedGuess = errors.New("guess already submitted")

	ErrNotInProgress   = errors.New("game is not in progress")
	ErrAlreadyStarted  = errors.New("game already started")
	ErrIncompleteGuess = errors.New("selection is not a full group")
	ErrUnknownWord     = errors.New("word is not part of this puzzle")
	ErrWordSolved      = errors.New("word belongs to a solved category")

	// ErrStaleSnapshot rejects a checkpoint that cannot be replayed on the puzzle.
	ErrStaleSnapshot = errors.New("checkpoint does not match puzzle")
)

// Evaluation is the outcome of checking a candidate.
type Evaluation struct {
	Correct  bool
	Category *puzzle.Category // set when Correct
	OneAway  bool             // incorrect, but one word from some category
}

// Summary is sent to the result collector when a session ends.
type Summary struct {
	GameCode         string     `json:"gameCode"`
	SubmittedGuesses [][]string `json:"submittedGuesses"`
	IsGameWon        bool       `json:"isGameWon"`
	TimeToGuess      []float64  `json:"timeToGuess"`
}

// Checkpointer persists session snapshots keyed by game code.
// Implementations should not block; the session logs and ignores errors.
type Checkpointer interface {
	Save(ctx context.Context, code string, snap Snapshot) error
}

// Reporter receives the end-of-session summary.
// Report must return promptly; delivery is best-effort.
type Reporter interface {
	Report(s Summary)
}
