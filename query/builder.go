package query

import (
	"strings"

	"github.com/poiesic/evidentia/core"
)

// Expansion defaults.
const (
	DefaultMaxPerTerm = 6
	DefaultMaxTotal   = 40

	// FallbackNarrativeLength bounds how much of the HPI is used when the
	// summary yields no other terms.
	FallbackNarrativeLength = 140

	// DefaultFallbackPhrase is used when the summary is empty.
	DefaultFallbackPhrase = "primary care evaluation"
)

// Topic phrases contributed by summary flags, in query order.
var flagTopics = []struct {
	flag    string
	phrases []string
}{
	{core.FlagIschemicFeatures, []string{
		"chest pain", "ischemia", "ECG", "troponin", "risk stratification", "outpatient evaluation",
	}},
	{core.FlagDMFollowup, []string{
		"type 2 diabetes", "HbA1c frequency", "lipid management", "ADA standards",
	}},
}

// Terms repeated in the embedding string when their flag is set.
var keyTerms = map[string][]string{
	core.FlagIschemicFeatures: {"troponin", "ecg", "chest pain", "ischemia"},
}

// Queries is the output of Builder.Build.
type Queries struct {
	// Parts are the base phrases in construction order.
	Parts []string
	// Base is Parts joined with spaces.
	Base string
	// Terms are the normalized lookup terms derived from Parts.
	Terms []string
	// Embed is the synonym-expanded, key-term boosted embedding query.
	Embed string
	// Lexical is the boolean OR-group/AND query for the lexical index.
	Lexical string
}

// Builder builds Queries from summaries. It is safe for concurrent use.
type Builder struct {
	synonyms   Synonyms
	maxPerTerm int
	maxTotal   int
}

// Option configures a Builder.
type Option func(*Builder) error

// WithMaxPerTerm caps the alternatives used per term.
// Default is DefaultMaxPerTerm.
func WithMaxPerTerm(n int) Option {
	return func(b *Builder) error {
		if n <= 0 {
			return ErrInvalidLimit
		}
		b.maxPerTerm = n
		return nil
	}
}

// WithMaxTotal caps the number of expanded terms in the embedding query.
// Default is DefaultMaxTotal.
func WithMaxTotal(n int) Option {
	return func(b *Builder) error {
		if n <= 0 {
			return ErrInvalidLimit
		}
		b.maxTotal = n
		return nil
	}
}

// NewBuilder creates a Builder over syn. A nil table expands nothing.
func NewBuilder(syn Synonyms, opts ...Option) (*Builder, error) {
	if syn == nil {
		syn = Synonyms{}
	}
	b := &Builder{
		synonyms:   syn,
		maxPerTerm: DefaultMaxPerTerm,
		maxTotal:   DefaultMaxTotal,
	}
	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Build constructs the queries for s. The result depends only on the
// summary's flags, codes, chief complaint and HPI.
func (b *Builder) Build(s *core.Summary) Queries {
	parts := Parts(s)
	terms := b.terms(parts)
	expanded := b.expand(terms)

	return Queries{
		Parts:   parts,
		Base:    strings.Join(parts, " "),
		Terms:   terms,
		Embed:   strings.Join(boost(expanded, activeKeyTerms(s)), " "),
		Lexical: b.lexical(terms),
	}
}

// Parts returns the base phrases for s in construction order: flag topics,
// the first 3 diagnosis codes, the first 3 procedure codes, the first 5
// labels, then the chief complaint. An otherwise empty result falls back to
// the head of the HPI, then to DefaultFallbackPhrase.
func Parts(s *core.Summary) []string {
	var parts []string
	for _, topic := range flagTopics {
		if s.Flag(topic.flag) {
			parts = append(parts, topic.phrases...)
		}
	}
	parts = appendNonBlank(parts, head(s.Codes.Diagnosis, 3))
	parts = appendNonBlank(parts, head(s.Codes.Procedure, 3))
	parts = appendNonBlank(parts, head(s.Codes.Labels, 5))
	if cc := strings.TrimSpace(s.CC); cc != "" {
		parts = append(parts, cc)
	}

	if len(parts) == 0 {
		if hpi := truncateRunes(strings.TrimSpace(s.HPI), FallbackNarrativeLength); hpi != "" {
			return []string{hpi}
		}
		return []string{DefaultFallbackPhrase}
	}
	return parts
}

// terms maps phrases to lookup terms. A phrase with a synonym entry is kept
// whole; any other phrase is split into words, each looked up on its own.
// Duplicates are dropped.
func (b *Builder) terms(parts []string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(t string) {
		if t != "" && !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	for _, p := range parts {
		np := Normalize(p)
		if b.synonyms.Has(np) {
			add(np)
			continue
		}
		for _, w := range splitWords(np) {
			add(w)
		}
	}
	return out
}

// expand returns each term's alternatives, capped per term and in total,
// first occurrence wins.
func (b *Builder) expand(terms []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range terms {
		for _, alt := range b.alternatives(t) {
			if seen[alt] {
				continue
			}
			seen[alt] = true
			out = append(out, alt)
			if len(out) == b.maxTotal {
				return out
			}
		}
	}
	return out
}

func (b *Builder) lexical(terms []string) string {
	groups := make([]string, 0, len(terms))
	for _, t := range terms {
		alts := b.alternatives(t)
		quoted := make([]string, len(alts))
		for i, a := range alts {
			if strings.Contains(a, " ") {
				a = `"` + a + `"`
			}
			quoted[i] = a
		}
		groups = append(groups, "("+strings.Join(quoted, " OR ")+")")
	}
	return strings.Join(groups, " AND ")
}

func (b *Builder) alternatives(term string) []string {
	return head(b.synonyms.Lookup(term), b.maxPerTerm)
}

func activeKeyTerms(s *core.Summary) []string {
	var keys []string
	for flag, terms := range keyTerms {
		if s.Flag(flag) {
			keys = append(keys, terms...)
		}
	}
	return keys
}

// boost repeats every term that contains a key term.
func boost(terms, keys []string) []string {
	if len(keys) == 0 {
		return terms
	}
	out := make([]string, 0, len(terms)*2)
	for _, t := range terms {
		out = append(out, t)
		for _, k := range keys {
			if strings.Contains(t, k) {
				out = append(out, t)
				break
			}
		}
	}
	return out
}

func head(in []string, n int) []string {
	if len(in) > n {
		return in[:n]
	}
	return in
}

func appendNonBlank(dst, src []string) []string {
	for _, v := range src {
		if v = strings.TrimSpace(v); v != "" {
			dst = append(dst, v)
		}
	}
	return dst
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		return string(r[:n])
	}
	return s
}
