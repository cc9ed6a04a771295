// internal/catalog/catalog.go
//
// Published games and courses.
// Responsibilities:
//   - Create games from uploaded documents (validated, stored canonical).
//   - Assign each game a unique public code.
//   - Look up games by code, list them by course or owner, delete own games.
//   - Maintain the course list.
//
// Notes:
//   - Row IDs are UUIDs; codes come from codes.Generator and are retried on
//     collision.
//   - The stored document is puzzle.Encode of the validated puzzle, so reads
//     never see a document that fails puzzle.Validate.

package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/connections/internal/codes"
	"github.com/robalobadob/connections/internal/puzzle"
)

// maxCodeAttempts bounds collision retries when assigning a code.
const maxCodeAttempts = 8

var (
	ErrNotFound  = errors.New("game not found")
	ErrCodeTaken = errors.New("game code already in use")
)

// Game is a published puzzle with its catalog metadata.
type Game struct {
	ID        string
	Code      string
	OwnerID   string // empty for seeded games
	Course    Course
	Title     string
	Author    string
	Published bool
	CreatedAt time.Time
	Puzzle    *puzzle.Puzzle
}

// Course groups games on the home page.
type Course struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Catalog is the games/courses store.
type Catalog struct {
	db    *sql.DB
	codes *codes.Generator
	now   func() time.Time
}

func New(db *sql.DB, gen *codes.Generator) *Catalog {
	return &Catalog{db: db, codes: gen, now: time.Now}
}

// Create validates doc and stores it under a freshly assigned code.
// Validation failures wrap puzzle.ErrInvalid.
func (c *Catalog) Create(ctx context.Context, ownerID string, doc puzzle.Document) (Game, error) {
	id := uuid.NewString()
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		g, err := c.insert(ctx, id, c.codes.Code(id, attempt), ownerID, doc)
		if errors.Is(err, ErrCodeTaken) {
			log.Debug().Str("gameId", id).Int("attempt", attempt).Msg("game code collision")
			continue
		}
		return g, err
	}
	return Game{}, fmt.Errorf("assign code for %s: %w", id, ErrCodeTaken)
}

// CreateWithCode stores doc under a caller-chosen code (used for seeding).
func (c *Catalog) CreateWithCode(ctx context.Context, code, ownerID string, doc puzzle.Document) (Game, error) {
	code = codes.Normalize(code)
	if !codes.Valid(code) {
		return Game{}, fmt.Errorf("%w: bad game code %q", puzzle.ErrInvalid, code)
	}
	return c.insert(ctx, uuid.NewString(), code, ownerID, doc)
}

func (c *Catalog) insert(ctx context.Context, id, code, ownerID string, doc puzzle.Document) (Game, error) {
	if err := requireMetadata(doc); err != nil {
		return Game{}, err
	}
	p, err := puzzle.FromDocument(doc)
	if err != nil {
		return Game{}, err
	}
	p.Code = code
	stored := puzzle.Encode(p)
	stored.Course = ""
	body, err := json.Marshal(stored)
	if err != nil {
		return Game{}, err
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return Game{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var taken int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM games WHERE code=?`, code).Scan(&taken)
	if err == nil {
		return Game{}, ErrCodeTaken
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Game{}, err
	}

	course, err := ensureCourse(ctx, tx, strings.TrimSpace(doc.Course), c.now())
	if err != nil {
		return Game{}, err
	}
	now := c.now().UTC()
	if _, err := tx.ExecContext(ctx, `
        INSERT INTO games (id, code, owner_id, course_id, title, author, published, document, created_at)
        VALUES (?, ?, ?, ?, ?, ?, 1, ?, ?)`,
		id, code, nullable(ownerID), nullable(course.ID), p.Title, p.Author, string(body), now.Format(time.RFC3339),
	); err != nil {
		return Game{}, fmt.Errorf("insert game: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Game{}, err
	}

	p.Course = course.Name
	return Game{
		ID:        id,
		Code:      code,
		OwnerID:   ownerID,
		Course:    course,
		Title:     p.Title,
		Author:    p.Author,
		Published: true,
		CreatedAt: now,
		Puzzle:    p,
	}, nil
}

func requireMetadata(doc puzzle.Document) error {
	var missing []string
	if strings.TrimSpace(doc.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(doc.Author) == "" {
		missing = append(missing, "author")
	}
	if strings.TrimSpace(doc.Course) == "" {
		missing = append(missing, "course")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", puzzle.ErrInvalid, strings.Join(missing, ", "))
	}
	return nil
}

// ByCode returns the published game with the given code.
func (c *Catalog) ByCode(ctx context.Context, code string) (Game, error) {
	row := c.db.QueryRowContext(ctx, selectGame+` WHERE g.code=?`, codes.Normalize(code))
	g, err := scanGame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Game{}, ErrNotFound
	}
	return g, err
}

// List returns published games, newest first, optionally filtered by course name.
func (c *Catalog) List(ctx context.Context, course string) ([]Game, error) {
	q := selectGame + ` WHERE g.published=1`
	var args []any
	if course = strings.TrimSpace(course); course != "" {
		q += ` AND c.name=?`
		args = append(args, course)
	}
	q += ` ORDER BY g.created_at DESC, g.code ASC`
	return c.query(ctx, q, args...)
}

// ListByOwner returns the games uploaded by ownerID, newest first.
func (c *Catalog) ListByOwner(ctx context.Context, ownerID string) ([]Game, error) {
	return c.query(ctx, selectGame+` WHERE g.owner_id=? ORDER BY g.created_at DESC, g.code ASC`, ownerID)
}

// Delete removes a game owned by ownerID. Stats of the game go with it.
func (c *Catalog) Delete(ctx context.Context, ownerID, code string) error {
	res, err := c.db.ExecContext(ctx, `DELETE FROM games WHERE code=? AND owner_id=?`, codes.Normalize(code), ownerID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Courses lists all courses by name.
func (c *Catalog) Courses(ctx context.Context) ([]Course, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT id, name FROM courses ORDER BY name COLLATE NOCASE`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Course{}
	for rows.Next() {
		var cr Course
		if err := rows.Scan(&cr.ID, &cr.Name); err != nil {
			return nil, err
		}
		out = append(out, cr)
	}
	return out, rows.Err()
}

// Seed inserts documents keyed by game code, skipping codes already present.
// It returns how many games were added.
func (c *Catalog) Seed(ctx context.Context, docs map[string][]byte) (int, error) {
	added := 0
	for code, raw := range docs {
		doc, err := puzzle.DecodeDocument(raw)
		if err != nil {
			return added, fmt.Errorf("seed %s: %w", code, err)
		}
		_, err = c.CreateWithCode(ctx, code, "", doc)
		switch {
		case errors.Is(err, ErrCodeTaken):
			continue
		case err != nil:
			return added, fmt.Errorf("seed %s: %w", code, err)
		}
		added++
	}
	return added, nil
}

const selectGame = `
    SELECT g.id, g.code, COALESCE(g.owner_id, ''), COALESCE(c.id, ''), COALESCE(c.name, ''),
           g.title, g.author, g.published, g.document, g.created_at
    FROM games g LEFT JOIN courses c ON c.id = g.course_id`

type scanner interface {
	Scan(dest ...any) error
}

func scanGame(row scanner) (Game, error) {
	var (
		g       Game
		doc     string
		created string
	)
	if err := row.Scan(&g.ID, &g.Code, &g.OwnerID, &g.Course.ID, &g.Course.Name,
		&g.Title, &g.Author, &g.Published, &doc, &created); err != nil {
		return Game{}, err
	}
	g.CreatedAt, _ = time.Parse(time.RFC3339, created)
	p, err := puzzle.Decode([]byte(doc))
	if err != nil {
		return Game{}, fmt.Errorf("stored game %s: %w", g.Code, err)
	}
	p.Code = g.Code
	p.Course = g.Course.Name
	g.Puzzle = p
	return g, nil
}

func (c *Catalog) query(ctx context.Context, q string, args ...any) ([]Game, error) {
	rows, err := c.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Game{}
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// ensureCourse returns the course named name, creating it if needed.
func ensureCourse(ctx context.Context, tx *sql.Tx, name string, now time.Time) (Course, error) {
	if name == "" {
		return Course{}, nil
	}
	var cr Course
	err := tx.QueryRowContext(ctx, `SELECT id, name FROM courses WHERE name=?`, name).Scan(&cr.ID, &cr.Name)
	if err == nil {
		return cr, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Course{}, err
	}
	cr = Course{ID: uuid.NewString(), Name: name}
	if _, err := tx.ExecContext(ctx, `INSERT INTO courses (id, name, created_at) VALUES (?, ?, ?)`,
		cr.ID, cr.Name, now.UTC().Format(time.RFC3339)); err != nil {
		return Course{}, fmt.Errorf("insert course: %w", err)
	}
	return cr, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
