package evidence

import (
	"regexp"
	"slices"
	"strings"
)

// MaxSnippetChars bounds the length of a card snippet, in characters.
const MaxSnippetChars = 220

// Clean collapses whitespace runs to single spaces, truncates to
// MaxSnippetChars characters and trims trailing whitespace.
func Clean(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if r := []rune(text); len(r) > MaxSnippetChars {
		text = string(r[:MaxSnippetChars])
	}
	return strings.TrimRight(text, " ")
}

// Highlight wraps case-insensitive occurrences of each keyword in ** **.
// The original casing of the snippet is kept. Longer keywords win where
// keywords overlap, and no span is wrapped twice.
func Highlight(snippet string, keywords []string) string {
	pattern := keywordPattern(keywords)
	if pattern == nil {
		return snippet
	}
	return pattern.ReplaceAllString(snippet, "**$0**")
}

func keywordPattern(keywords []string) *regexp.Regexp {
	var terms []string
	seen := make(map[string]bool)
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" || seen[strings.ToLower(kw)] {
			continue
		}
		seen[strings.ToLower(kw)] = true
		terms = append(terms, kw)
	}
	if len(terms) == 0 {
		return nil
	}
	slices.SortStableFunc(terms, func(a, b string) int { return len(b) - len(a) })
	for i, t := range terms {
		terms[i] = regexp.QuoteMeta(t)
	}
	return regexp.MustCompile(`(?i)` + strings.Join(terms, "|"))
}
