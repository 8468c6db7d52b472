// Package strategy enumerates the progressively looser search tiers.
package strategy

// Strategy is one tier of the per-item fallback ladder.
type Strategy string

// Tiers, strictest first. Each is used only when the previous one returned
// zero rows.
const (
	// AllTerms requires every extracted term to match a searchable field.
	AllTerms Strategy = "all_terms"
	// AnyTerm requires at least one extracted term to match.
	AnyTerm Strategy = "any_term"
	// SingleKeyword is the last resort: the joined description as one
	// substring filter on the primary name field.
	SingleKeyword Strategy = "single_keyword"
)

// First returns the strictest tier.
func First() Strategy { return AllTerms }

// Next returns the following looser tier, or false from the last one.
func (s Strategy) Next() (Strategy, bool) {
	switch s {
	case AllTerms:
		return AnyTerm, true
	case AnyTerm:
		return SingleKeyword, true
	}
	return "", false
}

// IsValid checks if the strategy is one of the supported tiers.
func (s Strategy) IsValid() bool {
	return s == AllTerms || s == AnyTerm || s == SingleKeyword
}
