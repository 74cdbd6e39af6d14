package evidence

import (
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/poiesic/evidentia/core"
)

// DefaultMaxCards is the default cap on assembled cards.
const DefaultMaxCards = 2

// DefaultTitle is used for a retrieved chunk with neither title nor source.
const DefaultTitle = "Evidence"

// Options controls Assemble.
type Options struct {
	// MaxCards caps the output. Zero means DefaultMaxCards.
	MaxCards int
	// Keywords are highlighted in retrieved snippets.
	Keywords []string
}

// Assemble builds the final card list from retrievals and fallback cards.
func Assemble(rets []core.Retrieval, fallback []core.EvidenceCard, opts Options) []core.EvidenceCard {
	limit := opts.MaxCards
	if limit <= 0 {
		limit = DefaultMaxCards
	}

	ranked := slices.Clone(rets)
	slices.SortStableFunc(ranked, func(a, b core.Retrieval) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})

	candidates := make([]core.EvidenceCard, 0, len(ranked)+len(fallback))
	for _, r := range ranked {
		candidates = append(candidates, CardFromRetrieval(r, opts.Keywords))
	}
	candidates = append(candidates, fallback...)

	cards := Dedupe(candidates)
	if len(cards) > limit {
		cards = cards[:limit]
	}
	for i := range cards {
		cards[i].Rank = i + 1
	}
	return cards
}

// CardFromRetrieval renders one retrieval as a card. Title falls back to
// the source, then DefaultTitle; source falls back to the title.
func CardFromRetrieval(r core.Retrieval, keywords []string) core.EvidenceCard {
	c := r.Chunk
	title := strings.TrimSpace(c.Title)
	source := strings.TrimSpace(c.Source)

	card := core.EvidenceCard{
		Score:   r.Score,
		Title:   cmpOr(title, source, DefaultTitle),
		Snippet: Highlight(Clean(c.Text), keywords),
		Source:  cmpOr(source, title),
		Link:    c.URL,
		Section: c.Section,
	}
	if c.Year != 0 {
		card.Year = strconv.Itoa(c.Year)
	}
	if len(c.Tags) > 0 {
		card.Tags = maps.Clone(c.Tags)
	}
	return card
}

type dedupeKey struct {
	title, year, section string
}

func keyOf(c core.EvidenceCard) dedupeKey {
	return dedupeKey{
		title:   strings.ToLower(strings.TrimSpace(c.Title)),
		year:    c.Year,
		section: strings.ToLower(strings.TrimSpace(c.Section)),
	}
}

// Dedupe drops cards whose (title, year, section) key was already seen.
// Title and section compare case-insensitively. The first card wins.
func Dedupe(cards []core.EvidenceCard) []core.EvidenceCard {
	seen := make(map[dedupeKey]bool, len(cards))
	out := make([]core.EvidenceCard, 0, len(cards))
	for _, c := range cards {
		k := keyOf(c)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, c)
	}
	return out
}

// Keywords returns the highlight keywords for a summary: active flag names
// with underscores as spaces, then up to 3 diagnosis codes, 3 procedure
// codes and 5 labels.
func Keywords(s *core.Summary) []string {
	var kw []string
	for _, f := range s.ActiveFlags() {
		kw = append(kw, strings.ReplaceAll(f, "_", " "))
	}
	kw = append(kw, head(s.Codes.Diagnosis, 3)...)
	kw = append(kw, head(s.Codes.Procedure, 3)...)
	kw = append(kw, head(s.Codes.Labels, 5)...)
	return kw
}

func cmpOr(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func head(in []string, n int) []string {
	if len(in) > n {
		return in[:n]
	}
	return in
}
