package catalog

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/robalobadob/connections/assets"
	"github.com/robalobadob/connections/internal/codes"
	"github.com/robalobadob/connections/internal/database"
	"github.com/robalobadob/connections/internal/puzzle"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.OpenMigrated(filepath.Join(t.TempDir(), "app.db"), assets.Migrations())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func addUser(t *testing.T, db *sql.DB, id string) {
	t.Helper()
	if _, err := db.Exec(`INSERT INTO users (id, username, password_hash, created_at) VALUES (?, ?, 'x', '2024-01-01T00:00:00Z')`, id, "user_"+id); err != nil {
		t.Fatal(err)
	}
}

func doc(course string) puzzle.Document {
	return puzzle.Document{
		Title:            "Pairs",
		Author:           "Ada",
		Course:           course,
		NumCategories:    2,
		WordsPerCategory: 2,
		Game: []puzzle.DocumentCategory{
			{Category: "vowels", Words: []string{"a", "e"}, Difficulty: 1},
			{Category: "consonants", Words: []string{"b", "c"}, Difficulty: 2},
		},
	}
}

func TestCreateAndFetch(t *testing.T) {
	db := openTestDB(t)
	addUser(t, db, "u1")
	c := New(db, codes.New("salt"))
	ctx := context.Background()

	g, err := c.Create(ctx, "u1", doc("CSC108"))
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Code) != codes.Length || g.Course.Name != "CSC108" {
		t.Fatalf("unexpected game %+v", g)
	}

	got, err := c.ByCode(ctx, " "+g.Code+" ")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != g.ID || got.OwnerID != "u1" || !got.Published {
		t.Fatalf("fetched %+v", got)
	}
	p := got.Puzzle
	if p.Code != g.Code || p.Course != "CSC108" || p.MaxMistakes != puzzle.DefaultMaxMistakes || p.NumCategories() != 2 {
		t.Fatalf("stored puzzle %+v", p)
	}

	if _, err := c.ByCode(ctx, "NOPE"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateRejectsInvalid(t *testing.T) {
	db := openTestDB(t)
	c := New(db, codes.New("salt"))
	ctx := context.Background()

	missing := doc("")
	if _, err := c.Create(ctx, "", missing); !errors.Is(err, puzzle.ErrInvalid) {
		t.Fatalf("missing course should be invalid, got %v", err)
	}
	dup := doc("CSC108")
	dup.Game[1].Words = []string{"a", "c"}
	if _, err := c.Create(ctx, "", dup); !errors.Is(err, puzzle.ErrInvalid) {
		t.Fatalf("duplicate word should be invalid, got %v", err)
	}
	courses, err := c.Courses(ctx)
	if err != nil || len(courses) != 0 {
		t.Fatalf("rejected uploads must not create courses: %v %v", courses, err)
	}
}

func TestCodeCollisionRetries(t *testing.T) {
	db := openTestDB(t)
	c := New(db, codes.New("salt"))
	ctx := context.Background()

	first, err := c.Create(ctx, "", doc("CSC108"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.CreateWithCode(ctx, first.Code, "", doc("CSC108")); !errors.Is(err, ErrCodeTaken) {
		t.Fatalf("expected ErrCodeTaken, got %v", err)
	}
}

func TestListAndCourses(t *testing.T) {
	db := openTestDB(t)
	c := New(db, codes.New("salt"))
	ctx := context.Background()

	for _, course := range []string{"CSC108", "CSC207", "csc108"} {
		if _, err := c.Create(ctx, "", doc(course)); err != nil {
			t.Fatal(err)
		}
	}
	courses, err := c.Courses(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(courses) != 2 || courses[0].Name != "CSC108" || courses[1].Name != "CSC207" {
		t.Fatalf("courses = %+v", courses)
	}

	all, err := c.List(ctx, "")
	if err != nil || len(all) != 3 {
		t.Fatalf("all = %d, err = %v", len(all), err)
	}
	intro, err := c.List(ctx, "csc108")
	if err != nil || len(intro) != 2 {
		t.Fatalf("csc108 = %d, err = %v", len(intro), err)
	}
}

func TestOwnerListAndDelete(t *testing.T) {
	db := openTestDB(t)
	addUser(t, db, "u1")
	addUser(t, db, "u2")
	c := New(db, codes.New("salt"))
	ctx := context.Background()

	mine, err := c.Create(ctx, "u1", doc("CSC108"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Create(ctx, "u2", doc("CSC108")); err != nil {
		t.Fatal(err)
	}

	list, err := c.ListByOwner(ctx, "u1")
	if err != nil || len(list) != 1 || list[0].Code != mine.Code {
		t.Fatalf("owner list = %+v, err = %v", list, err)
	}
	if err := c.Delete(ctx, "u2", mine.Code); !errors.Is(err, ErrNotFound) {
		t.Fatalf("deleting another owner's game: %v", err)
	}
	if err := c.Delete(ctx, "u1", mine.Code); err != nil {
		t.Fatal(err)
	}
	if _, err := c.ByCode(ctx, mine.Code); !errors.Is(err, ErrNotFound) {
		t.Fatalf("game should be gone, got %v", err)
	}
}

func TestSeedEmbeddedGames(t *testing.T) {
	db := openTestDB(t)
	c := New(db, codes.New("salt"))
	ctx := context.Background()

	docs, err := assets.SeedDocuments()
	if err != nil {
		t.Fatal(err)
	}
	n, err := c.Seed(ctx, docs)
	if err != nil {
		t.Fatal(err)
	}
	if n != len(docs) || n == 0 {
		t.Fatalf("seeded %d of %d", n, len(docs))
	}
	again, err := c.Seed(ctx, docs)
	if err != nil || again != 0 {
		t.Fatalf("reseed added %d, err = %v", again, err)
	}

	g, err := c.ByCode(ctx, "gobasics")
	if err != nil {
		t.Fatal(err)
	}
	if !g.Puzzle.Unlimited() || g.OwnerID != "" {
		t.Fatalf("seeded game %+v", g)
	}
}
