// Package brand resolves scraped products to canonical brands using alias matching.
package brand

import (
	"strings"

	"github.com/JakeFAU/catalog-ingest/internal/catalog"
)

// Confidence levels assigned by each resolution rule.
const (
	ConfidenceForced = 1.0
	ConfidenceRaw    = 0.95
	ConfidenceTitle  = 0.85
)

// Match is the outcome of a resolution attempt.
type Match struct {
	Brand      *string
	Confidence float64
}

// Accepted reports whether the match names a brand with enough confidence.
func (m Match) Accepted(threshold float64) bool {
	return m.Brand != nil && m.Confidence >= threshold
}

type alias struct {
	brand string
	value string
}

// Resolver matches raw brand strings and titles against an ordered alias table.
type Resolver struct {
	aliases []alias
}

// NewResolver builds a Resolver. Entry order is the matching order.
func NewResolver(entries []catalog.AliasEntry) *Resolver {
	aliases := make([]alias, 0, len(entries))
	for _, e := range entries {
		aliases = append(aliases, alias{brand: e.Brand, value: strings.ToLower(e.Alias)})
	}
	return &Resolver{aliases: aliases}
}

// Choose applies, in order: the forced brand, an exact alias match on the
// raw brand text, and the first alias contained in the title.
func (r *Resolver) Choose(rawBrand, title *string, forced string) Match {
	if forced != "" {
		return Match{Brand: &forced, Confidence: ConfidenceForced}
	}
	if rawBrand != nil {
		needle := strings.ToLower(strings.TrimSpace(*rawBrand))
		for _, a := range r.aliases {
			if needle == a.value {
				return Match{Brand: ptr(a.brand), Confidence: ConfidenceRaw}
			}
		}
	}
	if title != nil {
		haystack := strings.ToLower(*title)
		for _, a := range r.aliases {
			if strings.Contains(haystack, a.value) {
				return Match{Brand: ptr(a.brand), Confidence: ConfidenceTitle}
			}
		}
	}
	return Match{}
}

// Len returns the number of aliases loaded.
func (r *Resolver) Len() int {
	return len(r.aliases)
}

func ptr(s string) *string {
	return &s
}
