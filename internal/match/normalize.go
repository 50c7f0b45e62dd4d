package match

import (
	"strings"
	"unicode"
)

// Normalize converts a title into its comparison form. The steps run in
// a fixed order:
//
//  1. standalone numeric tokens lose their leading zeros ("09" -> "9"),
//     so zero-padded season/part numbers compare equal across sources
//  2. everything that is not a letter, digit or whitespace is dropped
//  3. lowercase
//  4. whitespace is trimmed and interior runs collapse to one space
//
// Total function: whitespace-only input normalizes to "".
func Normalize(title string) string {
	tokens := strings.Fields(title)
	for i, tok := range tokens {
		tokens[i] = stripLeadingZeros(tok)
	}
	s := strings.Join(tokens, " ")

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}

	s = strings.ToLower(b.String())
	return strings.Join(strings.Fields(s), " ")
}

// stripLeadingZeros only touches tokens that are entirely digits;
// "09" becomes "9", "0" stays "0", "s01" is left alone.
func stripLeadingZeros(tok string) string {
	if tok == "" {
		return tok
	}
	for _, r := range tok {
		if r < '0' || r > '9' {
			return tok
		}
	}
	trimmed := strings.TrimLeft(tok, "0")
	if trimmed == "" {
		return "0"
	}
	return trimmed
}
