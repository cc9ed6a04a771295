package game

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/robalobadob/connections/internal/puzzle"
)

func TestStartIsGuarded(t *testing.T) {
	h := newHarness(fourByFour(4))
	if h.s.Status() != StatusNotStarted {
		t.Fatalf("expected not_started, got %s", h.s.Status())
	}
	if _, err := h.s.Toggle("apple"); !errors.Is(err, ErrNotInProgress) {
		t.Fatalf("toggle before start: expected ErrNotInProgress, got %v", err)
	}
	if err := h.s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	first := h.s.StartedAt()
	h.clock.advance(time.Minute)
	if err := h.s.Start(); !errors.Is(err, ErrAlreadyStarted) {
		t.Fatalf("second start: expected ErrAlreadyStarted, got %v", err)
	}
	if !h.s.StartedAt().Equal(first) {
		t.Fatalf("second start reset the timer")
	}
	if len(h.cp.saves) != 1 || h.cp.codes[0] != "FRUITS" {
		t.Fatalf("expected one checkpoint keyed by code, got %v", h.cp.codes)
	}
}

func TestToggleTwiceRestoresSelection(t *testing.T) {
	h := newHarness(fourByFour(4)).started()
	if _, err := h.s.Toggle("apple"); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	before := h.s.Selection()

	for _, w := range []string{"pear", "apple"} {
		if _, err := h.s.Toggle(w); err != nil {
			t.Fatalf("toggle %s: %v", w, err)
		}
		if _, err := h.s.Toggle(w); err != nil {
			t.Fatalf("toggle %s: %v", w, err)
		}
		if got := h.s.Selection(); !reflect.DeepEqual(got, before) {
			t.Fatalf("selection changed: %v -> %v", before, got)
		}
	}
	if !h.s.Selected("apple") || len(h.s.Selection()) != 1 {
		t.Fatalf("expected only apple selected, got %v", h.s.Selection())
	}
}

func TestToggleIsCapacityBounded(t *testing.T) {
	h := newHarness(fourByFour(4)).started()
	for _, w := range []string{"apple", "pear", "plum", "fig"} {
		if sel, err := h.s.Toggle(w); err != nil || !sel {
			t.Fatalf("toggle %s: selected=%v err=%v", w, sel, err)
		}
	}
	sel, err := h.s.Toggle("red")
	if err != nil || sel {
		t.Fatalf("toggle on full selection should be a no-op, got selected=%v err=%v", sel, err)
	}
	if got := h.s.Selection(); !reflect.DeepEqual(got, []string{"apple", "pear", "plum", "fig"}) {
		t.Fatalf("full selection changed: %v", got)
	}
	if sel, err := h.s.Toggle("pear"); err != nil || sel {
		t.Fatalf("deselect on full selection: selected=%v err=%v", sel, err)
	}
}

func TestToggleRejectsUnknownAndSolvedWords(t *testing.T) {
	h := newHarness(fourByFour(4)).started()
	if _, err := h.s.Toggle("banana"); !errors.Is(err, ErrUnknownWord) {
		t.Fatalf("expected ErrUnknownWord, got %v", err)
	}
	h.mustGuess("apple", "pear", "plum", "fig")
	if _, err := h.s.Toggle("fig"); !errors.Is(err, ErrWordSolved) {
		t.Fatalf("expected ErrWordSolved, got %v", err)
	}
}

func TestClear(t *testing.T) {
	h := newHarness(fourByFour(4)).started()
	_, _ = h.s.Toggle("apple")
	_, _ = h.s.Toggle("red")
	if err := h.s.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if len(h.s.Selection()) != 0 {
		t.Fatalf("selection not cleared: %v", h.s.Selection())
	}
}

func TestSubmitRequiresFullSelection(t *testing.T) {
	h := newHarness(fourByFour(4)).started()
	_, _ = h.s.Toggle("apple")
	if _, err := h.s.Submit(); !errors.Is(err, ErrIncompleteGuess) {
		t.Fatalf("expected ErrIncompleteGuess, got %v", err)
	}
	if len(h.s.Guesses()) != 0 {
		t.Fatalf("incomplete guess was recorded")
	}
}

func TestRepeatedGuessIsRejected(t *testing.T) {
	h := newHarness(fourByFour(4)).started()
	if ev := h.mustGuess("apple", "pear", "plum", "red"); ev.Correct || !ev.OneAway {
		t.Fatalf("expected one-away miss, got %+v", ev)
	}
	saves := len(h.cp.saves)

	_, err := h.guess("red", "plum", "pear", "apple")
	if !errors.Is(err, ErrRepeatedGuess) {
		t.Fatalf("expected ErrRepeatedGuess, got %v", err)
	}
	if n := len(h.s.Guesses()); n != 1 {
		t.Fatalf("expected 1 recorded guess, got %d", n)
	}
	if h.s.Mistakes() != 1 || len(h.cp.saves) != saves {
		t.Fatalf("repeated guess mutated state: mistakes=%d saves=%d", h.s.Mistakes(), len(h.cp.saves))
	}
}

func TestIncorrectGuessKeepsSelection(t *testing.T) {
	h := newHarness(fourByFour(4)).started()
	h.mustGuess("apple", "pear", "red", "blue")
	if got := h.s.Selection(); len(got) != 4 {
		t.Fatalf("selection should survive a miss, got %v", got)
	}
}

func TestWinInAnyOrder(t *testing.T) {
	h := newHarness(fourByFour(4)).started()
	groups := [][]string{
		{"yew", "oak", "ash", "elm"},
		{"tin", "lead", "iron", "gold"},
		{"fig", "apple", "plum", "pear"},
		{"teal", "red", "green", "blue"},
	}
	for i, g := range groups {
		h.clock.advance(10 * time.Second)
		ev := h.mustGuess(g...)
		if !ev.Correct {
			t.Fatalf("group %d should be correct", i)
		}
		if len(h.s.Selection()) != 0 {
			t.Fatalf("selection should be cleared after a correct guess")
		}
	}
	if h.s.Status() != StatusWon {
		t.Fatalf("expected won, got %s", h.s.Status())
	}
	if len(h.s.Solved()) != 4 || len(h.s.Guesses()) != 4 || h.s.Mistakes() != 0 {
		t.Fatalf("unexpected totals: solved=%d guesses=%d mistakes=%d", len(h.s.Solved()), len(h.s.Guesses()), h.s.Mistakes())
	}
	if got := h.s.Timestamps(); !reflect.DeepEqual(got, []float64{10, 20, 30, 40}) {
		t.Fatalf("unexpected timestamps: %v", got)
	}
	if len(h.s.Remaining()) != 0 {
		t.Fatalf("no words should remain")
	}
	if len(h.rep.got) != 1 || !h.rep.got[0].IsGameWon || h.rep.got[0].GameCode != "FRUITS" {
		t.Fatalf("expected one winning report, got %+v", h.rep.got)
	}
}

func TestLossByMistakes(t *testing.T) {
	h := newHarness(fourByFour(1)).started()
	h.mustGuess("apple", "pear", "plum", "fig")
	h.mustGuess("red", "blue", "iron", "oak")
	if h.s.Status() != StatusInProgress {
		t.Fatalf("one mistake is tolerated, got %s", h.s.Status())
	}
	if n, limited := h.s.MistakesRemaining(); !limited || n != 0 {
		t.Fatalf("expected 0 remaining, got %d limited=%v", n, limited)
	}
	h.mustGuess("red", "blue", "iron", "ash")
	if h.s.Status() != StatusLost || h.s.Mistakes() != 2 {
		t.Fatalf("expected lost with 2 mistakes, got %s with %d", h.s.Status(), h.s.Mistakes())
	}
	if len(h.rep.got) != 1 || h.rep.got[0].IsGameWon {
		t.Fatalf("expected one losing report, got %+v", h.rep.got)
	}
}

func TestSuddenDeath(t *testing.T) {
	h := newHarness(fourByFour(0)).started()
	h.mustGuess("apple", "pear", "plum", "red")
	if h.s.Status() != StatusLost {
		t.Fatalf("first mistake should end a sudden-death game, got %s", h.s.Status())
	}
}

func TestUnlimitedMistakes(t *testing.T) {
	h := newHarness(fourByFour(puzzle.Unlimited)).started()
	misses := [][]string{
		{"apple", "red", "iron", "oak"}, {"apple", "red", "iron", "ash"}, {"apple", "red", "iron", "elm"},
		{"apple", "red", "iron", "yew"}, {"apple", "red", "gold", "oak"}, {"apple", "red", "gold", "ash"},
		{"apple", "red", "gold", "elm"}, {"apple", "red", "gold", "yew"}, {"apple", "red", "tin", "oak"},
		{"apple", "red", "tin", "ash"},
	}
	for _, g := range misses {
		h.mustGuess(g...)
	}
	if h.s.Status() != StatusInProgress || h.s.Mistakes() != 10 {
		t.Fatalf("expected in_progress with 10 mistakes, got %s with %d", h.s.Status(), h.s.Mistakes())
	}
	if _, limited := h.s.MistakesRemaining(); limited {
		t.Fatalf("unlimited puzzle reported a limit")
	}
	if err := h.s.GiveUp(); err != nil {
		t.Fatalf("give up: %v", err)
	}
	if h.s.Status() != StatusLost || !h.s.GaveUp() {
		t.Fatalf("expected lost after give up")
	}
}

func TestTerminalStatesAreFinal(t *testing.T) {
	h := newHarness(fourByFour(0)).started()
	_, _ = h.s.Toggle("apple")
	_, _ = h.s.Toggle("pear")
	_, _ = h.s.Toggle("plum")
	_, _ = h.s.Toggle("red")
	if _, err := h.s.Submit(); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if h.s.Status() != StatusLost {
		t.Fatalf("expected lost")
	}
	guesses, solved, saves := len(h.s.Guesses()), len(h.s.Solved()), len(h.cp.saves)

	if _, err := h.s.Toggle("fig"); !errors.Is(err, ErrNotInProgress) {
		t.Fatalf("toggle: expected ErrNotInProgress, got %v", err)
	}
	if _, err := h.s.Submit(); !errors.Is(err, ErrNotInProgress) {
		t.Fatalf("submit: expected ErrNotInProgress, got %v", err)
	}
	if err := h.s.GiveUp(); !errors.Is(err, ErrNotInProgress) {
		t.Fatalf("give up: expected ErrNotInProgress, got %v", err)
	}
	if err := h.s.Clear(); !errors.Is(err, ErrNotInProgress) {
		t.Fatalf("clear: expected ErrNotInProgress, got %v", err)
	}
	if h.s.Status() != StatusLost || len(h.s.Guesses()) != guesses || len(h.s.Solved()) != solved || len(h.cp.saves) != saves {
		t.Fatalf("terminal session mutated")
	}
	if len(h.rep.got) != 1 {
		t.Fatalf("expected exactly one report, got %d", len(h.rep.got))
	}
}

func TestCheckpointFailureIsSwallowed(t *testing.T) {
	h := newHarness(fourByFour(4))
	h.cp.err = errors.New("disk full")
	h.started()
	if _, err := h.guess("apple", "pear", "plum", "fig"); err != nil {
		t.Fatalf("checkpoint failure leaked into gameplay: %v", err)
	}
	if len(h.cp.saves) != 2 {
		t.Fatalf("expected a write per change, got %d", len(h.cp.saves))
	}
}

func TestCheckpointContents(t *testing.T) {
	h := newHarness(fourByFour(4)).started()
	h.clock.advance(1500 * time.Millisecond)
	h.mustGuess("apple", "pear", "plum", "fig")
	snap := h.cp.last()
	if snap.StartTime != 1_700_000_000_000 {
		t.Fatalf("unexpected start time %d", snap.StartTime)
	}
	if len(snap.SubmittedGuesses) != 1 || len(snap.SolvedGameData) != 1 || len(snap.GameData) != 4 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if !reflect.DeepEqual(snap.TimeToGuess, []float64{1.5}) {
		t.Fatalf("unexpected times %v", snap.TimeToGuess)
	}
	snap.SubmittedGuesses[0][0] = "mutated"
	if h.s.Guesses()[0][0] == "mutated" {
		t.Fatalf("snapshot aliases session state")
	}
}

func TestRemainingAndUnsolved(t *testing.T) {
	h := newHarness(fourByFour(4)).started()
	h.mustGuess("red", "blue", "green", "teal")
	if got := len(h.s.Remaining()); got != 12 {
		t.Fatalf("expected 12 remaining words, got %d", got)
	}
	for _, c := range h.s.Unsolved() {
		if c.Name == "colour" {
			t.Fatalf("solved category listed as unsolved")
		}
	}
}

func TestIsUserError(t *testing.T) {
	if !IsUserError(ErrRepeatedGuess) || IsUserError(ErrInvalidSize) {
		t.Fatalf("unexpected classification")
	}
}
