// internal/puzzle/puzzle.go
//
// Immutable puzzle definition shared read-only by the session engine.
// Defines:
//   - Category: a named group of answer words with rank and explanation.
//   - Puzzle: the full answer key plus metadata and the mistake limit.
//   - Validate: the construction invariant every loaded puzzle must satisfy.
//
// A Puzzle is never mutated after Validate succeeds; callers share pointers.

package puzzle

import (
	"errors"
	"fmt"

	"github.com/robalobadob/connections/internal/words"
)

const (
	// Unlimited disables loss-by-mistakes. It is also the wire value.
	Unlimited = -1

	// DefaultMaxMistakes applies when a document omits max_mistakes.
	DefaultMaxMistakes = 4
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid puzzle")

// Category is one answer group.
type Category struct {
	Name        string   `json:"category"`
	Words       []string `json:"words"`
	Difficulty  int      `json:"difficulty"`
	Explanation string   `json:"explanation"`
	ImageRef    string   `json:"imageSrc,omitempty"` // same key as DocumentCategory.ImageSrc
}

// WordSet returns the category words as a Set.
func (c Category) WordSet() words.Set { return words.NewSet(c.Words...) }

// Puzzle is the answer key and metadata for one game code.
type Puzzle struct {
	Code         string
	Title        string
	Author       string
	Course       string
	Language     string // syntax highlighting hint for code-valued words
	RelevantInfo string
	Categories   []Category
	CategorySize int
	MaxMistakes  int // >= 0, or Unlimited
}

// NumCategories is the number of groups to find.
func (p *Puzzle) NumCategories() int { return len(p.Categories) }

// Unlimited reports whether mistakes never end the game.
func (p *Puzzle) Unlimited() bool { return p.MaxMistakes == Unlimited }

// Words returns every word in category order.
func (p *Puzzle) Words() []string {
	out := make([]string, 0, len(p.Categories)*p.CategorySize)
	for _, c := range p.Categories {
		out = append(out, c.Words...)
	}
	return out
}

// Category looks up a category by name.
func (p *Puzzle) Category(name string) (Category, bool) {
	for _, c := range p.Categories {
		if c.Name == name {
			return c, true
		}
	}
	return Category{}, false
}

// CategoryOf returns the category that contains w.
func (p *Puzzle) CategoryOf(w string) (Category, bool) {
	for _, c := range p.Categories {
		for _, cw := range c.Words {
			if cw == w {
				return c, true
			}
		}
	}
	return Category{}, false
}

// Validate checks the construction invariant:
//   - at least one category and a positive category size;
//   - every category has a unique, non-empty name and exactly CategorySize words;
//   - words are non-empty and trimmed, and none repeats within or across categories;
//   - MaxMistakes is non-negative or Unlimited.
func (p *Puzzle) Validate() error {
	if len(p.Categories) == 0 {
		return fmt.Errorf("%w: no categories", ErrInvalid)
	}
	if p.CategorySize <= 0 {
		return fmt.Errorf("%w: category size must be positive, got %d", ErrInvalid, p.CategorySize)
	}
	if p.MaxMistakes < Unlimited {
		return fmt.Errorf("%w: max mistakes must be >= 0 or %d, got %d", ErrInvalid, Unlimited, p.MaxMistakes)
	}
	names := make(map[string]struct{}, len(p.Categories))
	seen := make(words.Set, len(p.Categories)*p.CategorySize)
	for i, c := range p.Categories {
		if c.Name == "" {
			return fmt.Errorf("%w: category %d has no name", ErrInvalid, i+1)
		}
		if _, dup := names[c.Name]; dup {
			return fmt.Errorf("%w: duplicate category name %q", ErrInvalid, c.Name)
		}
		names[c.Name] = struct{}{}
		if len(c.Words) != p.CategorySize {
			return fmt.Errorf("%w: category %q has %d words, want %d", ErrInvalid, c.Name, len(c.Words), p.CategorySize)
		}
		for _, w := range c.Words {
			if w == "" {
				return fmt.Errorf("%w: category %q has an empty word", ErrInvalid, c.Name)
			}
			if words.Normalize(w) != w {
				return fmt.Errorf("%w: word %q has surrounding whitespace", ErrInvalid, w)
			}
			if seen.Has(w) {
				return fmt.Errorf("%w: duplicate word %q", ErrInvalid, w)
			}
			seen.Add(w)
		}
	}
	return nil
}
