// Package outcome defines the per-item search result.
package outcome

import (
	"github.com/catalink/catalink/internal/domain/catalog"
	"github.com/catalink/catalink/internal/domain/search/request"
	"github.com/catalink/catalink/internal/domain/search/strategy"
)

// Candidate is one scored catalog match for an item.
type Candidate struct {
	product catalog.Product
	score   float64
}

// NewCandidate creates a scored candidate.
func NewCandidate(product catalog.Product, score float64) Candidate {
	return Candidate{product: product, score: score}
}

// Product returns the matched catalog record.
func (c Candidate) Product() catalog.Product { return c.product }

// Score returns the relevance score.
func (c Candidate) Score() float64 { return c.score }

// Outcome pairs one search item with its ranked candidates and the
// strategy tier that produced them. Candidate order is significant:
// descending score, catalog order on ties.
type Outcome struct {
	item       request.Item
	candidates []Candidate
	strategy   strategy.Strategy
}

// New creates an outcome.
func New(item request.Item, candidates []Candidate, s strategy.Strategy) Outcome {
	if candidates == nil {
		candidates = []Candidate{}
	}
	return Outcome{item: item, candidates: candidates, strategy: s}
}

// Item returns the originating search item, carrying the originally
// requested quantity.
func (o Outcome) Item() request.Item { return o.item }

// Candidates returns the ranked candidates (possibly empty, never nil).
func (o Outcome) Candidates() []Candidate { return o.candidates }

// Strategy returns the tier that produced the candidates (for an empty
// outcome, the last tier attempted).
func (o Outcome) Strategy() strategy.Strategy { return o.strategy }

// Empty reports whether the item found no candidates.
func (o Outcome) Empty() bool { return len(o.candidates) == 0 }
