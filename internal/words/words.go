// internal/words/words.go
//
// Word-set helpers shared by the puzzle definition, the session engine and
// the analytics store.
//
// Responsibilities:
//   - Normalize raw words coming from puzzle documents, snapshots and UI input.
//   - Provide an unordered Set type with the comparisons the evaluator needs
//     (equality, overlap count).
//   - Produce a canonical Key for a word set so that guesses can be compared
//     regardless of selection order.
//
// Words keep their case: puzzles may contain code tokens where case matters.

package words

import (
	"sort"
	"strings"
)

// Set is an unordered collection of distinct words.
type Set map[string]struct{}

// Normalize trims surrounding whitespace from a word.
func Normalize(w string) string {
	return strings.TrimSpace(w)
}

// NewSet builds a Set from ws. Words are normalized; blanks are dropped.
func NewSet(ws ...string) Set {
	s := make(Set, len(ws))
	for _, w := range ws {
		if w = Normalize(w); w != "" {
			s[w] = struct{}{}
		}
	}
	return s
}

// Has reports whether w is in the set.
func (s Set) Has(w string) bool {
	_, ok := s[w]
	return ok
}

// Add inserts w.
func (s Set) Add(w string) { s[w] = struct{}{} }

// Remove deletes w.
func (s Set) Remove(w string) { delete(s, w) }

// Len returns the number of words.
func (s Set) Len() int { return len(s) }

// Overlap counts the words present in both s and other.
func (s Set) Overlap(other Set) int {
	small, big := s, other
	if len(big) < len(small) {
		small, big = big, small
	}
	n := 0
	for w := range small {
		if big.Has(w) {
			n++
		}
	}
	return n
}

// Equal reports set equality.
func (s Set) Equal(other Set) bool {
	return len(s) == len(other) && s.Overlap(other) == len(s)
}

// Sorted returns the words in lexical order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for w := range s {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}

// Clone returns an independent copy.
func (s Set) Clone() Set {
	c := make(Set, len(s))
	for w := range s {
		c[w] = struct{}{}
	}
	return c
}

// Key returns an order-independent identifier for the set.
func (s Set) Key() string {
	return strings.Join(s.Sorted(), keySep)
}

// keySep never appears in trimmed puzzle words.
const keySep = "\x1f"

// KeyOf is Key for a plain slice.
func KeyOf(ws []string) string {
	return NewSet(ws...).Key()
}

// Split reverses Key.
func Split(key string) []string {
	if key == "" {
		return nil
	}
	return strings.Split(key, keySep)
}
