// Package request defines the validated per-item search input.
package request

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxTerms bounds the number of description terms per item.
const MaxTerms = 16

// Item is one product request extracted from a natural-language query.
// Items are read-only once constructed; the orchestrator never mutates
// them.
type Item struct {
	terms        []string
	supplier     string
	priceCeiling decimal.NullDecimal
	quantity     int
}

// New validates and creates a search item. Terms are trimmed; at least one
// non-empty term is required. Quantity must be positive.
func New(terms []string, supplier string, priceCeiling decimal.NullDecimal, quantity int) (Item, error) {
	cleaned := make([]string, 0, len(terms))
	for _, t := range terms {
		if t = strings.TrimSpace(t); t != "" {
			cleaned = append(cleaned, t)
		}
	}
	if len(cleaned) == 0 {
		return Item{}, fmt.Errorf("at least one description term is required")
	}
	if len(cleaned) > MaxTerms {
		return Item{}, fmt.Errorf("too many description terms (max %d)", MaxTerms)
	}
	if quantity < 1 {
		return Item{}, fmt.Errorf("quantity must be positive, got %d", quantity)
	}
	if priceCeiling.Valid && priceCeiling.Decimal.Sign() <= 0 {
		return Item{}, fmt.Errorf("price ceiling must be positive")
	}
	return Item{
		terms:        cleaned,
		supplier:     strings.TrimSpace(supplier),
		priceCeiling: priceCeiling,
		quantity:     quantity,
	}, nil
}

// Terms returns the ordered description terms.
func (i Item) Terms() []string { return i.terms }

// Supplier returns the optional supplier filter ("" when absent).
func (i Item) Supplier() string { return i.supplier }

// PriceCeiling returns the optional unit price ceiling.
func (i Item) PriceCeiling() decimal.NullDecimal { return i.priceCeiling }

// Quantity returns the requested quantity.
func (i Item) Quantity() int { return i.quantity }

// Joined returns the description terms joined into one phrase.
func (i Item) Joined() string { return strings.Join(i.terms, " ") }

// SearchTerms returns every extracted term relevant for matching: the
// description terms plus the supplier filter when present.
func (i Item) SearchTerms() []string {
	if i.supplier == "" {
		return i.terms
	}
	out := make([]string, 0, len(i.terms)+1)
	out = append(out, i.terms...)
	return append(out, i.supplier)
}
