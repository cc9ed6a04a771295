// internal/client/loader.go
//
// Bounded retry around FetchPuzzle.
//
// The loader makes 1 + MaxRetries attempts with a fixed delay between them.
// Cancelling ctx stops the loop immediately, including during the delay, so a
// caller that navigates away never receives a late puzzle. Documents that fail
// validation are not retried: the service would return the same bytes again.

package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/robalobadob/connections/internal/puzzle"
)

const (
	DefaultMaxRetries = 3
	DefaultRetryDelay = 2 * time.Second
)

// ErrLoadFailure is matched by every error Load returns after giving up.
var ErrLoadFailure = errors.New("failed to load puzzle")

// LoadError describes a terminal load failure.
type LoadError struct {
	Code     string
	Attempts int
	Err      error // last attempt's error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load puzzle %s: gave up after %d attempt(s): %v", e.Code, e.Attempts, e.Err)
}

func (e *LoadError) Unwrap() []error { return []error{ErrLoadFailure, e.Err} }

// Fetcher fetches a puzzle once.
type Fetcher interface {
	FetchPuzzle(ctx context.Context, code string) (*puzzle.Puzzle, error)
}

// Loader retries a Fetcher.
type Loader struct {
	Fetcher    Fetcher
	MaxRetries int
	Delay      time.Duration
	Log        zerolog.Logger
}

// NewLoader returns a Loader with the default retry policy.
func NewLoader(f Fetcher, log zerolog.Logger) *Loader {
	return &Loader{Fetcher: f, MaxRetries: DefaultMaxRetries, Delay: DefaultRetryDelay, Log: log}
}

// Load fetches the puzzle for code, retrying transient failures.
func (l *Loader) Load(ctx context.Context, code string) (*puzzle.Puzzle, error) {
	attempts := 0
	for {
		attempts++
		p, err := l.Fetcher.FetchPuzzle(ctx, code)
		if err == nil {
			return p, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if errors.Is(err, puzzle.ErrInvalid) || attempts > l.MaxRetries {
			l.Log.Error().Err(err).Str("gameCode", code).Int("attempts", attempts).Msg("puzzle load failed")
			return nil, &LoadError{Code: code, Attempts: attempts, Err: err}
		}
		l.Log.Warn().Err(err).Str("gameCode", code).Int("attempt", attempts).Dur("retryIn", l.Delay).Msg("puzzle fetch failed, retrying")

		t := time.NewTimer(l.Delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}
}
