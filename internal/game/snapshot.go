// internal/game/snapshot.go
//
// Checkpoint payload and resume logic.
//
// A Snapshot is what the Checkpointer stores after every recorded change. Its
// JSON keys match the local-storage layout the web client used, so existing
// checkpoints stay readable. Resume never trusts solvedGameData: it replays the
// stored guesses through Evaluate and re-derives status with the same terminal
// rules a live session uses.

package game

import (
	"fmt"
	"time"

	"github.com/robalobadob/connections/internal/puzzle"
	"github.com/robalobadob/connections/internal/words"
)

// Snapshot is a serializable copy of session progress.
type Snapshot struct {
	SubmittedGuesses [][]string        `json:"submittedGuesses"`
	SolvedGameData   []puzzle.Category `json:"solvedGameData"`
	GameData         []puzzle.Category `json:"gameData"`
	StartTime        int64             `json:"startTime"` // unix ms, 0 before Start
	TimeToGuess      []float64         `json:"timeToGuess"`
	GaveUp           bool              `json:"gaveUp,omitempty"`
}

// Snapshot captures the current progress. The result shares no memory with
// the session.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		SubmittedGuesses: copyGuesses(s.guesses),
		SolvedGameData:   s.Solved(),
		GameData:         append([]puzzle.Category(nil), s.p.Categories...),
		TimeToGuess:      s.Timestamps(),
		GaveUp:           s.gaveUp,
	}
	if !s.startedAt.IsZero() {
		snap.StartTime = s.startedAt.UnixMilli()
	}
	return snap
}

// Resume rebuilds a session for p from snap. It returns ErrStaleSnapshot when
// the snapshot was taken on a different answer key or cannot be replayed.
// A session resumed into won/lost counts as already reported.
func Resume(p *puzzle.Puzzle, snap Snapshot, deps Deps) (*Session, error) {
	if !sameAnswerKey(p, snap.GameData) {
		return nil, fmt.Errorf("%w: answer key changed", ErrStaleSnapshot)
	}
	if len(snap.TimeToGuess) != len(snap.SubmittedGuesses) {
		return nil, fmt.Errorf("%w: %d guesses but %d timestamps", ErrStaleSnapshot, len(snap.SubmittedGuesses), len(snap.TimeToGuess))
	}
	s := New(p, deps)
	if snap.StartTime == 0 {
		if len(snap.SubmittedGuesses) > 0 || snap.GaveUp {
			return nil, fmt.Errorf("%w: progress recorded before start", ErrStaleSnapshot)
		}
		return s, nil
	}
	s.startedAt = time.UnixMilli(snap.StartTime)
	s.status = StatusInProgress

	for i, g := range snap.SubmittedGuesses {
		if s.status.Terminal() {
			return nil, fmt.Errorf("%w: guess %d recorded after the game ended", ErrStaleSnapshot, i+1)
		}
		candidate := words.NewSet(g...)
		if candidate.Len() != p.CategorySize || len(g) != p.CategorySize {
			return nil, fmt.Errorf("%w: guess %d has %d distinct words", ErrStaleSnapshot, i+1, candidate.Len())
		}
		for w := range candidate {
			if s.solvedSet.Has(w) {
				return nil, fmt.Errorf("%w: guess %d reuses solved word %q", ErrStaleSnapshot, i+1, w)
			}
		}
		key := candidate.Key()
		if _, dup := s.guessKeys[key]; dup {
			return nil, fmt.Errorf("%w: guess %d is repeated", ErrStaleSnapshot, i+1)
		}
		ev, err := Evaluate(candidate, p)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStaleSnapshot, err)
		}
		s.guesses = append(s.guesses, append([]string(nil), g...))
		s.guessKeys[key] = struct{}{}
		s.times = append(s.times, snap.TimeToGuess[i])
		if ev.Correct {
			s.solve(*ev.Category)
		}
		s.settle()
	}
	if snap.GaveUp && !s.status.Terminal() {
		s.status = StatusLost
		s.gaveUp = true
	}
	s.reported = s.status.Terminal()
	return s, nil
}

// sameAnswerKey compares categories by name and word set, ignoring order.
func sameAnswerKey(p *puzzle.Puzzle, cats []puzzle.Category) bool {
	if len(cats) != p.NumCategories() {
		return false
	}
	for _, c := range cats {
		pc, ok := p.Category(c.Name)
		if !ok || !pc.WordSet().Equal(c.WordSet()) {
			return false
		}
	}
	return true
}
