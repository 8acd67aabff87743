// Package sessioncode generates and validates shareable board codes of the
// form OSRS-XXXXXX.
package sessioncode

import (
	"crypto/rand"
	"math/big"
	"regexp"
)

const (
	// Prefix tags every code with the game it belongs to.
	Prefix = "OSRS"
	// Length is the number of random symbols after the prefix.
	Length = 6
	// MaxAttempts bounds how many codes a creator may try before giving up.
	MaxAttempts = 10
)

// Alphabet leaves out symbols that are easy to misread: 0, O, 1, I and L.
const Alphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

var pattern = regexp.MustCompile(`^` + Prefix + `-[` + Alphabet + `]{6}$`)

var alphabetSize = big.NewInt(int64(len(Alphabet)))

// Generate returns a random code. Uniqueness is the caller's concern.
func Generate() string {
	buf := make([]byte, 0, len(Prefix)+1+Length)
	buf = append(buf, Prefix...)
	buf = append(buf, '-')
	for i := 0; i < Length; i++ {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			panic("sessioncode: crypto/rand unavailable: " + err.Error())
		}
		buf = append(buf, Alphabet[n.Int64()])
	}
	return string(buf)
}

// Validate reports whether code has the exact shareable format. Codes that
// contain excluded symbols are rejected even though they look alphanumeric.
func Validate(code string) bool {
	return pattern.MatchString(code)
}
