// internal/client/reporter.go
//
// Fire-and-forget delivery of end-of-session summaries.
//
// Report returns at once and posts from a goroutine with its own timeout; the
// session has already ended, so failures are logged and never retried.
// Summaries without guesses are not sent.

package client

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/robalobadob/connections/internal/game"
)

const reportTimeout = 10 * time.Second

// StatsSubmitter posts one summary.
type StatsSubmitter interface {
	SubmitStats(ctx context.Context, s game.Summary) error
}

// Reporter implements game.Reporter on top of a StatsSubmitter.
type Reporter struct {
	sub StatsSubmitter
	log zerolog.Logger
	wg  sync.WaitGroup
}

// NewReporter returns a Reporter that posts through sub.
func NewReporter(sub StatsSubmitter, log zerolog.Logger) *Reporter {
	return &Reporter{sub: sub, log: log.With().Str("component", "reporter").Logger()}
}

// Report sends s in the background.
func (r *Reporter) Report(s game.Summary) {
	if len(s.SubmittedGuesses) == 0 {
		r.log.Debug().Str("gameCode", s.GameCode).Msg("skipping empty summary")
		return
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), reportTimeout)
		defer cancel()
		if err := r.sub.SubmitStats(ctx, s); err != nil {
			r.log.Warn().Err(err).Str("gameCode", s.GameCode).Msg("submit stats failed")
			return
		}
		r.log.Debug().Str("gameCode", s.GameCode).Msg("stats submitted")
	}()
}

// Wait blocks until in-flight reports finish.
func (r *Reporter) Wait() { r.wg.Wait() }
