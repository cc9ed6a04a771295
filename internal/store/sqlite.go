// internal/store/sqlite.go
//
// SQLite-backed checkpoint store for the terminal client. Uses the pure-Go
// modernc driver so the client builds without cgo. Each snapshot is stored as
// a JSON document in a single row keyed by game code.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/robalobadob/connections/internal/game"

	_ "modernc.org/sqlite" // SQLite driver.
)

// SQLite is a Store backed by a local SQLite file.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens or creates the checkpoint database at path.
func OpenSQLite(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One writer at a time; Async already serializes writes.
	db.SetMaxOpenConns(1)
	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS checkpoints (
			game_code TEXT PRIMARY KEY,
			snapshot TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate checkpoints: %w", err)
		}
	}
	return nil
}

// Save upserts the snapshot for code.
func (s *SQLite) Save(ctx context.Context, code string, snap game.Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO checkpoints (game_code, snapshot, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(game_code) DO UPDATE SET snapshot = excluded.snapshot, updated_at = excluded.updated_at`,
		code, string(raw), time.Now().UTC().Format(time.RFC3339Nano),
	)
	return err
}

// Load returns the stored snapshot for code.
func (s *SQLite) Load(ctx context.Context, code string) (game.Snapshot, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT snapshot FROM checkpoints WHERE game_code = ?`, code).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return game.Snapshot{}, false, nil
	}
	if err != nil {
		return game.Snapshot{}, false, err
	}
	var snap game.Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return game.Snapshot{}, false, fmt.Errorf("decode snapshot %s: %w", code, err)
	}
	return snap, true, nil
}

// Delete removes the snapshot for code.
func (s *SQLite) Delete(ctx context.Context, code string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM checkpoints WHERE game_code = ?`, code)
	return err
}
