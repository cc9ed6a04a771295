// Package codes derives short public game codes.
//
// A code is HMAC(salt, gameID|attempt) mapped onto an alphabet without
// look-alike characters, so codes are stable for a given salt and ID and
// hard to enumerate. Callers bump attempt on a collision.
package codes

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"strconv"
	"strings"
)

// Alphabet omits 0/O and 1/I/L.
const Alphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// Length of generated codes.
const Length = 6

// Generator derives codes for one salt.
type Generator struct {
	salt []byte
}

func New(salt string) *Generator {
	return &Generator{salt: []byte(salt)}
}

// Code returns the code for id on the given attempt (0-based).
func (g *Generator) Code(id string, attempt int) string {
	h := hmac.New(sha256.New, g.salt)
	h.Write([]byte(id))
	h.Write([]byte{'|'})
	h.Write([]byte(strconv.Itoa(attempt)))
	sum := h.Sum(nil)

	// first 8 bytes give plenty of entropy for 6 symbols of base 31
	n := binary.BigEndian.Uint64(sum[:8])
	base := uint64(len(Alphabet))
	var b strings.Builder
	b.Grow(Length)
	for i := 0; i < Length; i++ {
		b.WriteByte(Alphabet[n%base])
		n /= base
	}
	return b.String()
}

// Normalize uppercases and trims a user-supplied code.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Valid reports whether code is acceptable as a game code. Seeded games may
// use hand-picked codes, so any uppercase letter, digit, '-' or '_' is allowed.
func Valid(code string) bool {
	if code == "" || len(code) > 32 {
		return false
	}
	for i := 0; i < len(code); i++ {
		c := code[i]
		if !(c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '-' || c == '_') {
			return false
		}
	}
	return true
}
