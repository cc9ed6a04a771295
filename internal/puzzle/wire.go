// internal/puzzle/wire.go
//
// JSON document format served by GET /api/games/code/{code} and accepted by
// POST /api/upload. The service sometimes wraps the object in a
// single-element array; Decode accepts both shapes.

package puzzle

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/robalobadob/connections/internal/words"
)

// Document is the wire shape of a puzzle.
type Document struct {
	Code               string             `json:"game_code,omitempty"`
	Title              string             `json:"title"`
	Author             string             `json:"author"`
	Course             string             `json:"course,omitempty"`
	NumCategories      int                `json:"num_categories"`
	WordsPerCategory   int                `json:"words_per_category"`
	MaxMistakes        *int               `json:"max_mistakes,omitempty"`
	SyntaxHighlighting string             `json:"syntax_highlighting"`
	RelevantInfo       string             `json:"relevant_info"`
	Game               []DocumentCategory `json:"game"`
}

// DocumentCategory is one entry of Document.Game.
type DocumentCategory struct {
	Category    string   `json:"category"`
	Words       []string `json:"words"`
	Difficulty  int      `json:"difficulty"`
	Explanation string   `json:"explanation"`
	ImageSrc    string   `json:"imageSrc,omitempty"` // camelCase, as in Category and stored checkpoints
}

// Decode parses and validates a puzzle document.
func Decode(data []byte) (*Puzzle, error) {
	doc, err := DecodeDocument(data)
	if err != nil {
		return nil, err
	}
	return FromDocument(doc)
}

// DecodeDocument parses a document without validating it.
func DecodeDocument(data []byte) (Document, error) {
	data = bytes.TrimSpace(data)
	var doc Document
	if len(data) > 0 && data[0] == '[' {
		var docs []Document
		if err := json.Unmarshal(data, &docs); err != nil {
			return Document{}, fmt.Errorf("%w: decode: %v", ErrInvalid, err)
		}
		if len(docs) == 0 {
			return Document{}, fmt.Errorf("%w: empty document list", ErrInvalid)
		}
		return docs[0], nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("%w: decode: %v", ErrInvalid, err)
	}
	return doc, nil
}

// FromDocument converts and validates a decoded document.
func FromDocument(doc Document) (*Puzzle, error) {
	p := &Puzzle{
		Code:         doc.Code,
		Title:        doc.Title,
		Author:       doc.Author,
		Course:       doc.Course,
		Language:     doc.SyntaxHighlighting,
		RelevantInfo: doc.RelevantInfo,
		CategorySize: doc.WordsPerCategory,
		MaxMistakes:  DefaultMaxMistakes,
	}
	if doc.MaxMistakes != nil {
		p.MaxMistakes = *doc.MaxMistakes
	}
	for _, dc := range doc.Game {
		c := Category{
			Name:        words.Normalize(dc.Category),
			Difficulty:  dc.Difficulty,
			Explanation: dc.Explanation,
			ImageRef:    dc.ImageSrc,
			Words:       make([]string, 0, len(dc.Words)),
		}
		for _, w := range dc.Words {
			c.Words = append(c.Words, words.Normalize(w))
		}
		p.Categories = append(p.Categories, c)
	}
	if p.CategorySize == 0 && len(p.Categories) > 0 {
		p.CategorySize = len(p.Categories[0].Words)
	}
	if doc.NumCategories != 0 && doc.NumCategories != len(p.Categories) {
		return nil, fmt.Errorf("%w: num_categories is %d but game has %d", ErrInvalid, doc.NumCategories, len(p.Categories))
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Encode produces the wire document for p.
func Encode(p *Puzzle) Document {
	mm := p.MaxMistakes
	doc := Document{
		Code:               p.Code,
		Title:              p.Title,
		Author:             p.Author,
		Course:             p.Course,
		NumCategories:      p.NumCategories(),
		WordsPerCategory:   p.CategorySize,
		MaxMistakes:        &mm,
		SyntaxHighlighting: p.Language,
		RelevantInfo:       p.RelevantInfo,
		Game:               make([]DocumentCategory, 0, len(p.Categories)),
	}
	for _, c := range p.Categories {
		doc.Game = append(doc.Game, DocumentCategory{
			Category:    c.Name,
			Words:       append([]string(nil), c.Words...),
			Difficulty:  c.Difficulty,
			Explanation: c.Explanation,
			ImageSrc:    c.ImageRef,
		})
	}
	return doc
}
