package game

import (
	"context"
	"errors"
	"time"

	"github.com/robalobadob/connections/internal/puzzle"
)

// fourByFour returns a validated 4x4 puzzle.
func fourByFour(maxMistakes int) *puzzle.Puzzle {
	p := &puzzle.Puzzle{
		Code:         "FRUITS",
		Title:        "test",
		CategorySize: 4,
		MaxMistakes:  maxMistakes,
		Categories: []puzzle.Category{
			{Name: "fruit", Words: []string{"apple", "pear", "plum", "fig"}, Difficulty: 1},
			{Name: "colour", Words: []string{"red", "blue", "green", "teal"}, Difficulty: 2},
			{Name: "metal", Words: []string{"iron", "gold", "tin", "lead"}, Difficulty: 3},
			{Name: "tree", Words: []string{"oak", "ash", "elm", "yew"}, Difficulty: 4},
		},
	}
	if err := p.Validate(); err != nil {
		panic(err)
	}
	return p
}

type fakeClock struct{ t time.Time }

func newClock() *fakeClock { return &fakeClock{t: time.UnixMilli(1_700_000_000_000)} }

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

type recordingCheckpoints struct {
	saves []Snapshot
	codes []string
	err   error
}

func (r *recordingCheckpoints) Save(_ context.Context, code string, snap Snapshot) error {
	r.saves = append(r.saves, snap)
	r.codes = append(r.codes, code)
	return r.err
}

func (r *recordingCheckpoints) last() Snapshot { return r.saves[len(r.saves)-1] }

type recordingReporter struct{ got []Summary }

func (r *recordingReporter) Report(s Summary) { r.got = append(r.got, s) }

type harness struct {
	s     *Session
	clock *fakeClock
	cp    *recordingCheckpoints
	rep   *recordingReporter
}

func newHarness(p *puzzle.Puzzle) *harness {
	h := &harness{clock: newClock(), cp: &recordingCheckpoints{}, rep: &recordingReporter{}}
	h.s = New(p, Deps{Checkpoints: h.cp, Reporter: h.rep, Now: h.clock.Now})
	return h
}

func (h *harness) started() *harness {
	if err := h.s.Start(); err != nil {
		panic(err)
	}
	return h
}

// guess selects ws and submits them.
func (h *harness) guess(ws ...string) (Evaluation, error) {
	if err := h.s.Clear(); err != nil {
		return Evaluation{}, err
	}
	for _, w := range ws {
		if _, err := h.s.Toggle(w); err != nil {
			return Evaluation{}, err
		}
	}
	return h.s.Submit()
}

func (h *harness) mustGuess(ws ...string) Evaluation {
	ev, err := h.guess(ws...)
	if err != nil {
		panic(errors.New("guess failed: " + err.Error()))
	}
	return ev
}
