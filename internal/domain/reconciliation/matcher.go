package reconciliation

import (
	"sort"
	"strings"

	"github.com/agext/levenshtein"
	"github.com/cotador/backend/internal/domain/catalog"
	"github.com/google/uuid"
)

// MatchType identifies the strategy that produced a match candidate
type MatchType string

const (
	MatchCode      MatchType = "code"      // manufacturer part number equality
	MatchExact     MatchType = "exact"     // text similarity at or above the exact cutoff
	MatchReference MatchType = "reference" // secondary identifier (tax code, internal code) matched strongly
	MatchFuzzy     MatchType = "fuzzy"     // everything else
)

// priority orders match types for tie-breaking: Code > Exact > Reference > Fuzzy
func (t MatchType) priority() int {
	switch t {
	case MatchCode:
		return 0
	case MatchExact:
		return 1
	case MatchReference:
		return 2
	}
	return 3
}

// MatchCandidate is a ranked link between an extracted line and a catalog
// product. Candidates are transient; they are never persisted.
type MatchCandidate struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	ProductCode string    `json:"product_code"`
	Score       float64   `json:"score"` // normalized to [0,1]
	MatchType   MatchType `json:"match_type"`
}

// Default matcher thresholds
const (
	DefaultAcceptanceThreshold = 0.70
	DefaultExactCutoff         = 0.95

	// internalCodeWeight discounts similarity against the internal product
	// code relative to similarity against the product name.
	internalCodeWeight = 0.80
	// strongSecondary is the raw similarity an internal code must reach to
	// count as a reference match on its own.
	strongSecondary = 0.90
	// taxCodeScore is the fixed score assigned when only the NCM code matched.
	taxCodeScore = 0.75
)

// Matcher scores extracted line items against the product catalog. It is a
// pure function of its inputs; results are deterministic for a fixed catalog.
type Matcher struct {
	AcceptanceThreshold float64 // below this, candidates are excluded from auto-suggestion
	ExactCutoff         float64 // at or above this, a text match counts as exact
}

// NewMatcher creates a matcher with the default thresholds
func NewMatcher() *Matcher {
	return &Matcher{
		AcceptanceThreshold: DefaultAcceptanceThreshold,
		ExactCutoff:         DefaultExactCutoff,
	}
}

// NewMatcherWithThresholds creates a matcher with explicit thresholds;
// out-of-range values fall back to the defaults.
func NewMatcherWithThresholds(acceptance, exactCutoff float64) *Matcher {
	m := NewMatcher()
	if acceptance > 0 && acceptance <= 1 {
		m.AcceptanceThreshold = acceptance
	}
	if exactCutoff > 0 && exactCutoff <= 1 {
		m.ExactCutoff = exactCutoff
	}
	return m
}

// Score ranks catalog products against an extracted line. When the part
// number equals a product's manufacturer part number (case-insensitive), that
// single candidate is returned with score 1.0 and all other strategies are
// skipped. Otherwise candidates are ranked by fuzzy text similarity, ordered
// by score descending with stable tie-breaks (type priority, then product
// name). All non-zero candidates are returned; threshold filtering for the
// auto-suggest path is the session's responsibility so manual search can
// still reach weak matches.
func (m *Matcher) Score(description, partNumber, taxCode string, products []catalog.Product) []MatchCandidate {
	if code := m.matchByPartNumber(partNumber, products); code != nil {
		return []MatchCandidate{*code}
	}

	desc := normalizeText(description)
	if desc == "" {
		return nil
	}
	tax := strings.TrimSpace(taxCode)

	params := levenshtein.NewParams()
	candidates := make([]MatchCandidate, 0, len(products))
	for i := range products {
		p := &products[i]

		nameScore := levenshtein.Similarity(desc, normalizeText(p.Name), params)
		rawCodeScore := levenshtein.Similarity(desc, normalizeText(p.Code), params)
		codeScore := rawCodeScore * internalCodeWeight

		refScore := 0.0
		if tax != "" && p.TaxCode != "" && strings.EqualFold(tax, p.TaxCode) {
			refScore = taxCodeScore
		}
		if rawCodeScore >= strongSecondary && rawCodeScore > refScore {
			refScore = rawCodeScore
		}

		score := nameScore
		matchType := MatchFuzzy
		switch {
		case nameScore >= m.ExactCutoff:
			matchType = MatchExact
		case refScore > nameScore && refScore > codeScore:
			score = refScore
			matchType = MatchReference
		case codeScore > nameScore:
			score = codeScore
		}

		if score <= 0 {
			continue
		}
		candidates = append(candidates, MatchCandidate{
			ProductID:   p.ID,
			ProductName: p.Name,
			ProductCode: p.Code,
			Score:       score,
			MatchType:   matchType,
		})
	}

	sortCandidates(candidates)
	return candidates
}

// matchByPartNumber returns the code-equality candidate, if any. When several
// products share the part number the lexicographically first product name
// wins, keeping the result deterministic.
func (m *Matcher) matchByPartNumber(partNumber string, products []catalog.Product) *MatchCandidate {
	pn := strings.TrimSpace(partNumber)
	if pn == "" {
		return nil
	}

	var best *catalog.Product
	for i := range products {
		p := &products[i]
		if !p.MatchesPartNumber(pn) {
			continue
		}
		if best == nil || p.Name < best.Name {
			best = p
		}
	}
	if best == nil {
		return nil
	}
	return &MatchCandidate{
		ProductID:   best.ID,
		ProductName: best.Name,
		ProductCode: best.Code,
		Score:       1.0,
		MatchType:   MatchCode,
	}
}

// sortCandidates orders by score descending, then match type priority, then
// product name, then product code for full determinism.
func sortCandidates(candidates []MatchCandidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.MatchType.priority() != b.MatchType.priority() {
			return a.MatchType.priority() < b.MatchType.priority()
		}
		if a.ProductName != b.ProductName {
			return a.ProductName < b.ProductName
		}
		return a.ProductCode < b.ProductCode
	})
}

// normalizeText lower-cases and collapses whitespace for comparison
func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
