package evidence

import (
	"fmt"
	"os"
	"slices"

	"github.com/poiesic/evidentia/core"
	"gopkg.in/yaml.v3"
)

// DefaultCatalogLimit caps the cards a catalog returns per summary.
const DefaultCatalogLimit = 3

// FallbackSource supplies static cards for a summary. Implementations must
// be cheap and must not block on I/O.
type FallbackSource interface {
	Cards(s *core.Summary) []core.EvidenceCard
}

// CatalogEntry lists the cards contributed when Flag is set.
type CatalogEntry struct {
	Flag  string              `yaml:"flag"`
	Cards []core.EvidenceCard `yaml:"cards"`
}

// Catalog is a FallbackSource selecting cards by summary flag. Entries are
// consulted in order. A Catalog is immutable and safe for concurrent use.
type Catalog struct {
	entries []CatalogEntry
	limit   int
}

var _ FallbackSource = (*Catalog)(nil)

// NewCatalog creates a catalog over entries. limit <= 0 means DefaultCatalogLimit.
func NewCatalog(entries []CatalogEntry, limit int) *Catalog {
	if limit <= 0 {
		limit = DefaultCatalogLimit
	}
	return &Catalog{entries: slices.Clone(entries), limit: limit}
}

// DefaultCatalog returns the built-in catalog: the ACC/AHA chest pain
// guideline for ischemic features and the ADA standards for diabetes
// follow-up.
func DefaultCatalog() *Catalog {
	return NewCatalog([]CatalogEntry{
		{
			Flag: core.FlagIschemicFeatures,
			Cards: []core.EvidenceCard{{
				Title:   "ACC/AHA Chest Pain Guideline (2021)",
				Snippet: "For suspected ischemic chest pain, obtain 12-lead ECG promptly and risk-stratify; consider serial troponin testing in appropriate settings.",
				Source:  "ACC/AHA 2021 Guideline",
			}},
		},
		{
			Flag: core.FlagDMFollowup,
			Cards: []core.EvidenceCard{{
				Title:   "ADA Standards of Care (2025)",
				Snippet: "Assess HbA1c at least twice yearly in patients meeting goals; quarterly if therapy changed or not at goal. Evaluate lipids as per cardiovascular risk.",
				Source:  "ADA 2025 Standards",
			}},
		},
	}, DefaultCatalogLimit)
}

// LoadCatalog reads a YAML list of catalog entries from path.
func LoadCatalog(path string, limit int) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	var entries []CatalogEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
	}
	return NewCatalog(entries, limit), nil
}

// Cards returns copies of the cards for every set flag, in catalog order,
// capped at the catalog limit.
func (c *Catalog) Cards(s *core.Summary) []core.EvidenceCard {
	var out []core.EvidenceCard
	for _, e := range c.entries {
		if !s.Flag(e.Flag) {
			continue
		}
		for _, card := range e.Cards {
			if len(out) == c.limit {
				return out
			}
			out = append(out, card)
		}
	}
	return out
}
