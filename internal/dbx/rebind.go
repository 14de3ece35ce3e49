package dbx

import (
	"strconv"
	"strings"
)

// Rebind rewrites ? placeholders into $1, $2, ... for PostgreSQL. Queries for
// SQLite are returned unchanged. Question marks inside single-quoted literals
// are left alone.
func Rebind(dialect, query string) string {
	if dialect != DialectPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)

	n := 0
	inQuote := false
	for _, r := range query {
		switch {
		case r == '\'':
			inQuote = !inQuote
			b.WriteRune(r)
		case r == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
