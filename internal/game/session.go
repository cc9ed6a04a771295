// internal/game/session.go
//
// Session state machine for a single puzzle attempt.
// Responsibilities:
//   - Track the candidate selection, submitted guesses, solved categories and
//     per-guess timing.
//   - Validate transitions: not_started → in_progress → won/lost.
//   - Write through to the Checkpointer after every recorded change.
//   - Hand the end-of-session Summary to the Reporter exactly once.
//
// Notes:
//   - A Session is owned by one event loop and is not safe for concurrent use.
//   - Operations outside in_progress return ErrNotInProgress and change nothing,
//     so won/lost are final.
//   - Mistakes are guesses that did not solve a category. The game is lost once
//     mistakes exceed MaxMistakes (0 means the first wrong guess ends it).

package game

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/robalobadob/connections/internal/puzzle"
	"github.com/robalobadob/connections/internal/words"
)

// Deps are the collaborators of a Session. All fields are optional.
type Deps struct {
	Checkpoints Checkpointer
	Reporter    Reporter
	Now         func() time.Time
	Log         *zerolog.Logger
}

// Session holds the mutable state of one attempt at a puzzle.
type Session struct {
	p    *puzzle.Puzzle
	deps Deps
	log  zerolog.Logger

	selection []string // in click order
	guesses   [][]string
	guessKeys map[string]struct{}
	solved    []puzzle.Category
	solvedSet words.Set // words of solved categories
	startedAt time.Time
	times     []float64 // seconds since startedAt, one per guess
	status    Status
	gaveUp    bool
	reported  bool
}

// New creates a not-yet-started session for p. p must have passed Validate.
func New(p *puzzle.Puzzle, deps Deps) *Session {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	log := zerolog.Nop()
	if deps.Log != nil {
		log = *deps.Log
	}
	return &Session{
		p:         p,
		deps:      deps,
		log:       log.With().Str("gameCode", p.Code).Logger(),
		guessKeys: make(map[string]struct{}),
		solvedSet: make(words.Set),
		status:    StatusNotStarted,
	}
}

// Puzzle returns the shared, read-only puzzle definition.
func (s *Session) Puzzle() *puzzle.Puzzle { return s.p }

// Status returns the lifecycle state.
func (s *Session) Status() Status { return s.status }

// StartedAt is zero until Start.
func (s *Session) StartedAt() time.Time { return s.startedAt }

// Start begins the clock. Calling it again returns ErrAlreadyStarted and
// leaves the timer alone.
func (s *Session) Start() error {
	if s.status != StatusNotStarted {
		return ErrAlreadyStarted
	}
	s.status = StatusInProgress
	s.startedAt = s.deps.Now()
	s.log.Debug().Msg("session started")
	s.checkpoint()
	return nil
}

// Toggle selects word, or deselects it if already selected. When the
// selection is full an unselected word is ignored and Toggle returns false.
// The returned bool reports whether word is selected afterwards.
func (s *Session) Toggle(word string) (bool, error) {
	if s.status != StatusInProgress {
		return false, ErrNotInProgress
	}
	word = words.Normalize(word)
	if _, ok := s.p.CategoryOf(word); !ok {
		return false, ErrUnknownWord
	}
	if s.solvedSet.Has(word) {
		return false, ErrWordSolved
	}
	for i, w := range s.selection {
		if w == word {
			s.selection = append(s.selection[:i], s.selection[i+1:]...)
			return false, nil
		}
	}
	if len(s.selection) >= s.p.CategorySize {
		return false, nil
	}
	s.selection = append(s.selection, word)
	return true, nil
}

// Clear empties the selection.
func (s *Session) Clear() error {
	if s.status != StatusInProgress {
		return ErrNotInProgress
	}
	s.selection = s.selection[:0]
	return nil
}

// Submit records the current selection as a guess and evaluates it.
//
// A full selection is required. Resubmitting a previous guess returns
// ErrRepeatedGuess without recording anything. A correct guess solves its
// category and clears the selection; an incorrect one leaves the selection in
// place and reports OneAway.
func (s *Session) Submit() (Evaluation, error) {
	if s.status != StatusInProgress {
		return Evaluation{}, ErrNotInProgress
	}
	if len(s.selection) != s.p.CategorySize {
		return Evaluation{}, ErrIncompleteGuess
	}
	candidate := words.NewSet(s.selection...)
	key := candidate.Key()
	if _, dup := s.guessKeys[key]; dup {
		return Evaluation{}, ErrRepeatedGuess
	}
	ev, err := Evaluate(candidate, s.p)
	if err != nil {
		s.log.Error().Err(err).Strs("selection", s.selection).Msg("evaluate guess")
		return Evaluation{}, err
	}

	s.guesses = append(s.guesses, append([]string(nil), s.selection...))
	s.guessKeys[key] = struct{}{}
	s.times = append(s.times, s.deps.Now().Sub(s.startedAt).Seconds())

	if ev.Correct {
		s.solve(*ev.Category)
		s.selection = s.selection[:0]
	}
	s.settle()

	s.log.Debug().
		Bool("correct", ev.Correct).
		Bool("oneAway", ev.OneAway).
		Int("mistakes", s.Mistakes()).
		Str("status", string(s.status)).
		Msg("guess submitted")

	s.checkpoint()
	s.maybeReport()
	return ev, nil
}

// GiveUp ends the session as lost regardless of mistakes.
func (s *Session) GiveUp() error {
	if s.status != StatusInProgress {
		return ErrNotInProgress
	}
	s.status = StatusLost
	s.gaveUp = true
	s.log.Debug().Msg("gave up")
	s.checkpoint()
	s.maybeReport()
	return nil
}

// Mistakes is the number of guesses that did not solve a category.
func (s *Session) Mistakes() int { return len(s.guesses) - len(s.solved) }

// MistakesRemaining returns how many more wrong guesses are tolerated.
// limited is false for unlimited puzzles.
func (s *Session) MistakesRemaining() (n int, limited bool) {
	if s.p.Unlimited() {
		return 0, false
	}
	n = s.p.MaxMistakes - s.Mistakes()
	if n < 0 {
		n = 0
	}
	return n, true
}

// GaveUp reports whether the session ended through GiveUp.
func (s *Session) GaveUp() bool { return s.gaveUp }

// Selection returns a copy of the current selection in click order.
func (s *Session) Selection() []string { return append([]string(nil), s.selection...) }

// Selected reports whether word is currently selected.
func (s *Session) Selected(word string) bool {
	for _, w := range s.selection {
		if w == word {
			return true
		}
	}
	return false
}

// Guesses returns a copy of the submitted guesses in chronological order.
func (s *Session) Guesses() [][]string { return copyGuesses(s.guesses) }

// Timestamps returns the elapsed seconds recorded for each guess.
func (s *Session) Timestamps() []float64 { return append([]float64(nil), s.times...) }

// Solved returns the solved categories in the order they were found.
func (s *Session) Solved() []puzzle.Category { return append([]puzzle.Category(nil), s.solved...) }

// Remaining returns the words of unsolved categories in puzzle order.
func (s *Session) Remaining() []string {
	out := make([]string, 0, len(s.p.Categories)*s.p.CategorySize-s.solvedSet.Len())
	for _, w := range s.p.Words() {
		if !s.solvedSet.Has(w) {
			out = append(out, w)
		}
	}
	return out
}

// Unsolved returns the categories not yet found, in puzzle order.
func (s *Session) Unsolved() []puzzle.Category {
	var out []puzzle.Category
	for _, c := range s.p.Categories {
		if !s.solvedSet.Has(c.Words[0]) {
			out = append(out, c)
		}
	}
	return out
}

// Summary builds the end-of-session report payload.
func (s *Session) Summary() Summary {
	return Summary{
		GameCode:         s.p.Code,
		SubmittedGuesses: copyGuesses(s.guesses),
		IsGameWon:        s.status == StatusWon,
		TimeToGuess:      s.Timestamps(),
	}
}

func (s *Session) solve(c puzzle.Category) {
	s.solved = append(s.solved, c)
	for _, w := range c.Words {
		s.solvedSet.Add(w)
	}
}

// settle applies the terminal conditions after a guess.
func (s *Session) settle() {
	switch {
	case len(s.solved) == s.p.NumCategories():
		s.status = StatusWon
	case !s.p.Unlimited() && s.Mistakes() > s.p.MaxMistakes:
		s.status = StatusLost
	}
}

func (s *Session) checkpoint() {
	if s.deps.Checkpoints == nil {
		return
	}
	if err := s.deps.Checkpoints.Save(context.Background(), s.p.Code, s.Snapshot()); err != nil {
		s.log.Warn().Err(err).Msg("checkpoint")
	}
}

func (s *Session) maybeReport() {
	if !s.status.Terminal() || s.reported {
		return
	}
	s.reported = true
	s.log.Info().Bool("won", s.status == StatusWon).Int("guesses", len(s.guesses)).Msg("session finished")
	if s.deps.Reporter != nil {
		s.deps.Reporter.Report(s.Summary())
	}
}

func copyGuesses(in [][]string) [][]string {
	out := make([][]string, len(in))
	for i, g := range in {
		out[i] = append([]string(nil), g...)
	}
	return out
}

// IsUserError reports whether err is a rejection the player should see
// (as opposed to a programming or infrastructure error).
func IsUserError(err error) bool {
	return errors.Is(err, ErrRepeatedGuess) ||
		errors.Is(err, ErrIncompleteGuess) ||
		errors.Is(err, ErrNotInProgress) ||
		errors.Is(err, ErrWordSolved) ||
		errors.Is(err, ErrUnknownWord)
}
