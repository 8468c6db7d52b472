package search

import (
	"sort"
	"strings"

	domcat "github.com/catalink/catalink/internal/domain/catalog"
	"github.com/catalink/catalink/internal/domain/search/outcome"
	"github.com/catalink/catalink/internal/domain/search/request"
)

// Per-term field weights. A term matching the product name outweighs the
// same term matching every lesser field combined, so ordering is stable
// across field combinations.
const (
	weightName        = 10.0
	weightSecondary   = 5.0
	weightCode        = 3.0
	weightDescription = 1.0

	perTermMax = weightName + weightSecondary + weightCode + weightDescription

	bonusNamePrefix = 8.0
	bonusStock      = 0.5
)

// exactMatchBonus guarantees a product whose name equals the full query
// outranks any product that merely matches every term in every field.
func exactMatchBonus(termCount int) float64 {
	return float64(termCount)*perTermMax + 10
}

// Score rates how well a product answers a search item. Higher is better.
func Score(p domcat.Product, item request.Item) float64 {
	name := strings.ToLower(p.Name)
	display := strings.ToLower(p.DisplayName)
	desc := strings.ToLower(p.Description)
	code := strings.ToLower(p.Code)
	joined := strings.ToLower(item.Joined())

	var score float64
	for _, term := range item.Terms() {
		t := strings.ToLower(term)
		if strings.Contains(name, t) {
			score += weightName
		}
		if strings.Contains(display, t) {
			score += weightSecondary
		}
		if strings.Contains(code, t) {
			score += weightCode
		}
		if strings.Contains(desc, t) {
			score += weightDescription
		}
	}

	if name == joined {
		score += exactMatchBonus(len(item.Terms()))
	} else if strings.HasPrefix(name, joined) {
		score += bonusNamePrefix
	}

	if p.QtyAvailable > 0 {
		score += bonusStock
	}

	return score
}

// rankCandidates scores every product, sorts descending, and keeps the top
// n. Sorting is stable so equal scores preserve catalog row order.
func rankCandidates(products []domcat.Product, item request.Item, n int) []outcome.Candidate {
	cands := make([]outcome.Candidate, 0, len(products))
	for _, p := range products {
		cands = append(cands, outcome.NewCandidate(p, Score(p, item)))
	}
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].Score() > cands[j].Score()
	})
	if len(cands) > n {
		cands = cands[:n]
	}
	return cands
}
