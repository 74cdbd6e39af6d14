package lexical

import "strings"

// Boolean connectives that appear in expanded lexical queries. BM25 has no
// operator semantics, so they are dropped instead of being scored as terms.
var operators = map[string]bool{
	"and": true,
	"or":  true,
}

// Tokenize lowercases s and splits it into runs of ASCII letters and digits.
// Everything else, including hyphens and slashes, separates tokens.
func Tokenize(s string) []string {
	s = strings.ToLower(s)
	var tokens []string
	start := -1
	for i := 0; i < len(s); i++ {
		if isTokenByte(s[i]) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			tokens = append(tokens, s[start:i])
			start = -1
		}
	}
	if start >= 0 {
		tokens = append(tokens, s[start:])
	}
	return tokens
}

// QueryTokens tokenizes a boolean lexical query such as
// `(troponin OR "hs ctn") AND (ecg)` and drops the AND/OR connectives.
func QueryTokens(expr string) []string {
	tokens := Tokenize(expr)
	filtered := tokens[:0]
	for _, tok := range tokens {
		if !operators[tok] {
			filtered = append(filtered, tok)
		}
	}
	return filtered
}

func isTokenByte(b byte) bool {
	return ('a' <= b && b <= 'z') || ('0' <= b && b <= '9')
}
