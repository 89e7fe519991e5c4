// Package schema turns human-readable field labels into stable column
// identifiers. Everything here is pure; no function touches a database.
package schema

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/user/equipment-scraper/internal/repository"
)

// MaxIdentifierLen is the longest identifier produced, in bytes. It matches
// the PostgreSQL limit so that both backends see the same names.
const MaxIdentifierLen = 63

// fallbackName replaces labels that contain no letter or digit at all.
const fallbackName = "field"

// Normalize maps a field label to a column name: lower-cased, every run of
// characters that are not letters or digits collapsed to a single '_',
// leading and trailing separators trimmed, truncated to MaxIdentifierLen.
//
//	"Operating Weight" -> "operating_weight"
//	"Max. Torque (Nm)" -> "max_torque_nm"
func Normalize(label string) string {
	var b strings.Builder
	b.Grow(len(label))
	sep := false
	for _, r := range label {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if sep && b.Len() > 0 {
				b.WriteByte('_')
			}
			sep = false
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		sep = true
	}
	name := b.String()
	if name == "" {
		return fallbackName
	}
	return truncate(name, MaxIdentifierLen)
}

// NormalizeTable normalizes a dataset table name. Unlike field labels, a
// table name with no usable characters is an error.
func NormalizeTable(name string) (string, error) {
	if strings.IndexFunc(name, func(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) }) < 0 {
		return "", fmt.Errorf("%w: table name %q", repository.ErrInvalidIdentifier, name)
	}
	n := Normalize(name)
	if strings.HasPrefix(n, "sqlite_") {
		return "", fmt.Errorf("%w: table name %q uses a reserved prefix", repository.ErrInvalidIdentifier, name)
	}
	return n, nil
}

// ValidIdentifier reports whether name is already a normalized identifier
// and therefore safe to quote into DDL.
func ValidIdentifier(name string) bool {
	return name != "" && Normalize(name) == name
}

// QuoteIdent quotes a normalized identifier for SQL. Both SQLite and
// PostgreSQL accept ANSI double quotes.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// withSuffix appends "_n" to base, shortening base so the result still
// fits in MaxIdentifierLen.
func withSuffix(base string, n int) string {
	suffix := "_" + strconv.Itoa(n)
	return truncate(base, MaxIdentifierLen-len(suffix)) + suffix
}

// truncate cuts s to at most max bytes on a rune boundary and drops a
// trailing separator left by the cut.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return strings.TrimRight(s[:cut], "_")
}
