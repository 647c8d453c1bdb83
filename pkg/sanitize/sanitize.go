// Package sanitize is the mandatory boundary between client-supplied
// filenames and filesystem paths. Every operation that turns a request
// parameter into a path under the files directory must pass through it.
package sanitize

import (
	"strings"
	"unicode"
)

// Filename maps an arbitrary client-supplied name to a safe single path
// segment. It keeps letters, digits, '-', '_' and '.', drops everything
// else (path separators, NUL bytes, punctuation, separator look-alikes),
// and trims any leading run of dots so the result can never name a hidden
// file or a parent directory.
//
// The function is total and deterministic; it never fails. Distinct unsafe
// inputs may collapse to the same safe output, which callers resolve with
// last-writer-wins storage semantics. Joined to a fixed base directory the
// output cannot resolve outside that directory.
func Filename(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))

	for _, r := range raw {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '-' || r == '_' || r == '.':
			b.WriteRune(r)
		}
	}

	// "..name" or ".hidden" would still be dangerous after filtering.
	return strings.TrimLeft(b.String(), ".")
}
