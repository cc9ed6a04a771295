// internal/store/async.go
//
// Write-behind wrapper that makes checkpointing non-blocking.
//
// Save only records the snapshot in a pending map and wakes the writer
// goroutine; repeated saves for the same code before the writer runs collapse
// into the newest one. Write failures are logged and dropped: a missing
// checkpoint only costs the player the ability to resume.

package store

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/robalobadob/connections/internal/game"
)

const writeTimeout = 5 * time.Second

// Async wraps a Store so that Save never blocks on I/O.
type Async struct {
	inner Store
	log   zerolog.Logger

	mu      sync.Mutex
	pending map[string]game.Snapshot
	closed  bool

	writeMu sync.Mutex // orders batches so older snapshots never win
	wake    chan struct{}
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

// NewAsync starts the writer goroutine. Call Close to flush and stop it.
func NewAsync(inner Store, log zerolog.Logger) *Async {
	a := &Async{
		inner:   inner,
		log:     log.With().Str("component", "checkpoints").Logger(),
		pending: make(map[string]game.Snapshot),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go a.run()
	return a
}

// Save queues snap for code and returns immediately.
func (a *Async) Save(_ context.Context, code string, snap game.Snapshot) error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return ErrClosed
	}
	a.pending[code] = snap
	a.mu.Unlock()

	select {
	case a.wake <- struct{}{}:
	default:
	}
	return nil
}

// Load returns a queued snapshot if one is waiting, else reads through.
func (a *Async) Load(ctx context.Context, code string) (game.Snapshot, bool, error) {
	a.mu.Lock()
	snap, ok := a.pending[code]
	a.mu.Unlock()
	if ok {
		return snap, true, nil
	}
	return a.inner.Load(ctx, code)
}

// Delete drops any queued snapshot and deletes the stored one.
func (a *Async) Delete(ctx context.Context, code string) error {
	a.writeMu.Lock()
	defer a.writeMu.Unlock()
	a.mu.Lock()
	delete(a.pending, code)
	a.mu.Unlock()
	return a.inner.Delete(ctx, code)
}

// Flush writes everything queued so far.
func (a *Async) Flush() { a.drain() }

// Close flushes pending snapshots and stops the writer.
func (a *Async) Close() error {
	a.once.Do(func() {
		a.mu.Lock()
		a.closed = true
		a.mu.Unlock()
		close(a.done)
		<-a.stopped
	})
	return nil
}

func (a *Async) run() {
	defer close(a.stopped)
	for {
		select {
		case <-a.wake:
			a.drain()
		case <-a.done:
			a.drain()
			return
		}
	}
}

func (a *Async) drain() {
	a.writeMu.Lock()
	defer a.writeMu.Unlock()

	a.mu.Lock()
	batch := a.pending
	a.pending = make(map[string]game.Snapshot)
	a.mu.Unlock()

	for code, snap := range batch {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		if err := a.inner.Save(ctx, code, snap); err != nil {
			a.log.Warn().Err(err).Str("gameCode", code).Msg("checkpoint write failed")
		}
		cancel()
	}
}
