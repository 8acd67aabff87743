package sqlstore

import (
	"strconv"
	"strings"
)

// Dialect captures the few places where SQL backends disagree.
type Dialect interface {
	// Name identifies the backend in logs.
	Name() string
	// Rebind rewrites '?' placeholders into the backend's native form.
	Rebind(query string) string
	// IsUniqueViolation reports whether err is a unique constraint failure.
	IsUniqueViolation(err error) bool
}

// DollarRebind turns '?' placeholders into $1, $2, ... as PostgreSQL expects.
// Queries in this package never contain literal question marks.
func DollarRebind(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}
