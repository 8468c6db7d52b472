package strategy

import "testing"

func TestLadderOrder(t *testing.T) {
	tier := First()
	if tier != AllTerms {
		t.Fatalf("First() = %q", tier)
	}

	tier, ok := tier.Next()
	if !ok || tier != AnyTerm {
		t.Fatalf("after all_terms: %q, %v", tier, ok)
	}

	tier, ok = tier.Next()
	if !ok || tier != SingleKeyword {
		t.Fatalf("after any_term: %q, %v", tier, ok)
	}

	if _, ok = tier.Next(); ok {
		t.Fatal("single_keyword must be the last tier")
	}
}

func TestIsValid(t *testing.T) {
	for _, s := range []Strategy{AllTerms, AnyTerm, SingleKeyword} {
		if !s.IsValid() {
			t.Errorf("%q should be valid", s)
		}
	}
	if Strategy("fuzzy").IsValid() {
		t.Error("unknown strategy should be invalid")
	}
}
