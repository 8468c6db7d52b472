package search

import (
	"testing"

	"github.com/shopspring/decimal"

	domcat "github.com/catalink/catalink/internal/domain/catalog"
	"github.com/catalink/catalink/internal/domain/search/request"
)

func mustItem(t *testing.T, terms ...string) request.Item {
	t.Helper()
	item, err := request.New(terms, "", decimal.NullDecimal{}, 1)
	if err != nil {
		t.Fatalf("request.New: %v", err)
	}
	return item
}

func TestScore_MoreMatchedTermsScoreHigher(t *testing.T) {
	item := mustItem(t, "blue", "cotton", "shirt")

	all := domcat.Product{Name: "blue cotton shirt deluxe"}
	two := domcat.Product{Name: "blue shirt"}
	one := domcat.Product{Name: "shirt"}

	if Score(all, item) <= Score(two, item) {
		t.Fatalf("three matched terms should beat two: %v <= %v", Score(all, item), Score(two, item))
	}
	if Score(two, item) <= Score(one, item) {
		t.Fatalf("two matched terms should beat one: %v <= %v", Score(two, item), Score(one, item))
	}
}

func TestScore_NameOutweighsLesserFields(t *testing.T) {
	item := mustItem(t, "widget")

	// Padded name avoids the exact-match and prefix bonuses so only the
	// field weights compete.
	inName := domcat.Product{Name: "the widget kit"}
	everywhereElse := domcat.Product{
		Name:        "sprocket",
		DisplayName: "widget",
		Description: "widget",
		Code:        "widget",
	}

	if Score(inName, item) <= Score(everywhereElse, item) {
		t.Fatalf("name hit should dominate lesser fields combined: %v <= %v",
			Score(inName, item), Score(everywhereElse, item))
	}
}

func TestScore_ExactNameMatchDominates(t *testing.T) {
	item := mustItem(t, "blue", "shirt")

	exact := domcat.Product{Name: "blue shirt"}
	loaded := domcat.Product{
		Name:         "blue shirt classic",
		DisplayName:  "blue shirt classic",
		Description:  "blue shirt classic",
		Code:         "blue-shirt",
		QtyAvailable: 99,
	}

	if Score(exact, item) <= Score(loaded, item) {
		t.Fatalf("exact name match must outrank partial matches: %v <= %v",
			Score(exact, item), Score(loaded, item))
	}
}

func TestScore_PrefixBonusIsAdditive(t *testing.T) {
	item := mustItem(t, "blue", "shirt")

	prefix := domcat.Product{Name: "blue shirt xl"}
	infix := domcat.Product{Name: "my blue shirt xl"}

	got := Score(prefix, item) - Score(infix, item)
	if got != bonusNamePrefix {
		t.Fatalf("prefix bonus delta = %v, want %v", got, bonusNamePrefix)
	}
}

func TestScore_StockBreaksTies(t *testing.T) {
	item := mustItem(t, "shirt")

	stocked := domcat.Product{Name: "red shirt", QtyAvailable: 3}
	empty := domcat.Product{Name: "red shirt", QtyAvailable: 0}

	if Score(stocked, item) <= Score(empty, item) {
		t.Fatalf("in-stock product should edge out identical out-of-stock one")
	}
}

func TestRankCandidates_StableAndTruncated(t *testing.T) {
	item := mustItem(t, "shirt")
	products := []domcat.Product{
		{ID: 1, Name: "red shirt"},
		{ID: 2, Name: "red shirt"},
		{ID: 3, Name: "shirt"},
		{ID: 4, Name: "trousers"},
	}

	cands := rankCandidates(products, item, 3)
	if len(cands) != 3 {
		t.Fatalf("len = %d, want 3", len(cands))
	}
	// ID 3 earns the exact-match bonus; IDs 1 and 2 tie and keep row order.
	if cands[0].Product().ID != 3 {
		t.Fatalf("top candidate = %d, want 3", cands[0].Product().ID)
	}
	if cands[1].Product().ID != 1 || cands[2].Product().ID != 2 {
		t.Fatalf("tied candidates reordered: got %d, %d", cands[1].Product().ID, cands[2].Product().ID)
	}
}
