package query

import (
	_ "embed"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

//go:embed synonyms.yaml
var defaultSynonyms []byte

// Synonyms maps a normalized term to its sorted alternatives. Every entry
// contains its own key.
type Synonyms map[string][]string

// NewSynonyms normalizes raw keys and values, drops blank values and adds
// each key to its own list.
func NewSynonyms(raw map[string][]string) Synonyms {
	syn := make(Synonyms, len(raw))
	for k, vals := range raw {
		key := Normalize(k)
		if key == "" {
			continue
		}
		set := make(map[string]struct{}, len(vals)+1)
		for _, list := range [][]string{syn[key], vals} {
			for _, v := range list {
				if nv := Normalize(v); nv != "" {
					set[nv] = struct{}{}
				}
			}
		}
		set[key] = struct{}{}

		terms := make([]string, 0, len(set))
		for v := range set {
			terms = append(terms, v)
		}
		slices.Sort(terms)
		syn[key] = terms
	}
	return syn
}

// ParseSynonyms decodes a YAML or JSON mapping of term to alternatives.
func ParseSynonyms(data []byte) (Synonyms, error) {
	var raw map[string][]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSynonyms, err)
	}
	return NewSynonyms(raw), nil
}

// LoadSynonyms reads a synonym table from path.
func LoadSynonyms(path string) (Synonyms, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading synonyms: %w", err)
	}
	return ParseSynonyms(data)
}

// DefaultSynonyms returns the built-in clinical synonym table.
func DefaultSynonyms() Synonyms {
	syn, err := ParseSynonyms(defaultSynonyms)
	if err != nil {
		panic(fmt.Sprintf("embedded synonyms: %v", err))
	}
	return syn
}

// Lookup returns the alternatives for term, or the normalized term alone
// when it has no entry.
func (s Synonyms) Lookup(term string) []string {
	nt := Normalize(term)
	if alts, ok := s[nt]; ok {
		return alts
	}
	return []string{nt}
}

// Has reports whether term has an entry.
func (s Synonyms) Has(term string) bool {
	_, ok := s[Normalize(term)]
	return ok
}
