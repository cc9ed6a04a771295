// internal/stats/stats.go
//
// Play statistics reported by clients at the end of a session.
// Responsibilities:
//   - Record one play per POST /api/submit-stats (guesses and their timing).
//   - Serve the analytics views: play/win counts, most common guesses,
//     mean elapsed time per guess index.
//
// Guesses are stored as words.KeyOf keys so that the same set of words
// submitted in a different order counts as the same guess.

package stats

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/robalobadob/connections/internal/game"
	"github.com/robalobadob/connections/internal/words"
)

// DefaultTopGuesses is the size of the guess distribution.
const DefaultTopGuesses = 10

var (
	ErrEmpty       = errors.New("no guesses submitted")
	ErrMismatch    = errors.New("guesses and timestamps differ in length")
	ErrUnknownGame = errors.New("unknown game code")
)

// Counts summarises the plays of a game.
type Counts struct {
	Plays int `json:"plays"`
	Wins  int `json:"wins"`
}

// GuessCount is one row of the guess distribution.
type GuessCount struct {
	Guess []string `json:"guess"`
	Count int      `json:"count"`
}

// GuessTime is the mean elapsed time at one guess index (0-based).
type GuessTime struct {
	Index       int     `json:"index"`
	MeanSeconds float64 `json:"meanSeconds"`
	Samples     int     `json:"samples"`
}

type Store struct {
	db  *sql.DB
	now func() time.Time
}

func NewStore(db *sql.DB) *Store { return &Store{db: db, now: time.Now} }

// Record stores one finished session.
func (s *Store) Record(ctx context.Context, sum game.Summary) error {
	if len(sum.SubmittedGuesses) == 0 {
		return ErrEmpty
	}
	if len(sum.TimeToGuess) != len(sum.SubmittedGuesses) {
		return fmt.Errorf("%w: %d guesses, %d timestamps", ErrMismatch, len(sum.SubmittedGuesses), len(sum.TimeToGuess))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT 1 FROM games WHERE code=?`, sum.GameCode).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", ErrUnknownGame, sum.GameCode)
		}
		return err
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO plays (game_code, won, guesses, created_at) VALUES (?, ?, ?, ?)`,
		sum.GameCode, sum.IsGameWon, len(sum.SubmittedGuesses), s.now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert play: %w", err)
	}
	playID, err := res.LastInsertId()
	if err != nil {
		return err
	}
	for i, g := range sum.SubmittedGuesses {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO play_guesses (play_id, idx, guess_key, seconds) VALUES (?, ?, ?, ?)`,
			playID, i, words.KeyOf(g), sum.TimeToGuess[i],
		); err != nil {
			return fmt.Errorf("insert guess %d: %w", i, err)
		}
	}
	return tx.Commit()
}

// Count returns how often code was played and won.
func (s *Store) Count(ctx context.Context, code string) (Counts, error) {
	var c Counts
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(won), 0) FROM plays WHERE game_code=?`, code,
	).Scan(&c.Plays, &c.Wins)
	return c, err
}

// GuessDistribution returns the most frequent guesses for code, most common
// first. Ties are broken by key so the order is stable.
func (s *Store) GuessDistribution(ctx context.Context, code string, limit int) ([]GuessCount, error) {
	if limit <= 0 {
		limit = DefaultTopGuesses
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT pg.guess_key, COUNT(*) AS n
        FROM play_guesses pg JOIN plays p ON p.id = pg.play_id
        WHERE p.game_code=?
        GROUP BY pg.guess_key
        ORDER BY n DESC, pg.guess_key ASC
        LIMIT ?`, code, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]GuessCount, 0, limit)
	for rows.Next() {
		var (
			key string
			gc  GuessCount
		)
		if err := rows.Scan(&key, &gc.Count); err != nil {
			return nil, err
		}
		gc.Guess = words.Split(key)
		out = append(out, gc)
	}
	return out, rows.Err()
}

// TimeDistribution returns the mean elapsed seconds for each guess index.
func (s *Store) TimeDistribution(ctx context.Context, code string) ([]GuessTime, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT pg.idx, AVG(pg.seconds), COUNT(*)
        FROM play_guesses pg JOIN plays p ON p.id = pg.play_id
        WHERE p.game_code=?
        GROUP BY pg.idx
        ORDER BY pg.idx`, code,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []GuessTime{}
	for rows.Next() {
		var gt GuessTime
		if err := rows.Scan(&gt.Index, &gt.MeanSeconds, &gt.Samples); err != nil {
			return nil, err
		}
		out = append(out, gt)
	}
	return out, rows.Err()
}
