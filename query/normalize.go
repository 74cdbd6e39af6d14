package query

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

var punctuation = strings.NewReplacer(
	"–", "-", // en dash
	"—", "-", // em dash
	"’", "'",
	"_", " ",
)

// Normalize canonicalizes a term: NFKC, lowercase, unified dashes and
// quotes, underscores as spaces, whitespace runs collapsed.
func Normalize(s string) string {
	s = norm.NFKC.String(s)
	s = strings.ToLower(s)
	s = punctuation.Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// splitWords extracts word-like tokens from a normalized phrase. Letters,
// digits and the symbols + / . - stay inside a token so that forms such as
// "hs-ctn" and "0/1h" survive intact.
func splitWords(s string) []string {
	words := strings.FieldsFunc(s, func(r rune) bool {
		return !isWordRune(r)
	})
	out := words[:0]
	for _, w := range words {
		w = strings.Trim(w, ".")
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}

func isWordRune(r rune) bool {
	switch {
	case 'a' <= r && r <= 'z', 'A' <= r && r <= 'Z', '0' <= r && r <= '9':
		return true
	case r == '+' || r == '/' || r == '.' || r == '-':
		return true
	}
	return false
}
