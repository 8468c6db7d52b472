package search

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/catalink/catalink/internal/domain"
	domcat "github.com/catalink/catalink/internal/domain/catalog"
	"github.com/catalink/catalink/internal/domain/search/request"
	"github.com/catalink/catalink/internal/domain/search/strategy"
)

// fakeFinder answers FindProducts from a script keyed by the first ilike
// pattern found in the filter, and records every filter it saw.
type fakeFinder struct {
	mu      sync.Mutex
	filters []domcat.Expr

	rows  map[string][]domcat.Product
	err   error
	errOn string
	delay map[string]time.Duration
}

func (f *fakeFinder) FindProducts(ctx context.Context, filter domcat.Expr, limit int) ([]domcat.Product, error) {
	f.mu.Lock()
	f.filters = append(f.filters, filter)
	f.mu.Unlock()

	key := firstPattern(filter)
	if d, ok := f.delay[key]; ok {
		time.Sleep(d)
	}
	if f.err != nil && (f.errOn == "" || f.errOn == key) {
		return nil, f.err
	}
	return f.rows[key], nil
}

func firstPattern(e domcat.Expr) string {
	switch v := e.(type) {
	case domcat.Leaf:
		s, _ := v.Value.(string)
		return s
	case domcat.And:
		for _, c := range v.Children {
			if s := firstPattern(c); s != "" {
				return s
			}
		}
	case domcat.Or:
		for _, c := range v.Children {
			if s := firstPattern(c); s != "" {
				return s
			}
		}
	}
	return ""
}

func TestSearchAll_EmptyBatch(t *testing.T) {
	svc := New(&fakeFinder{}, nil)
	_, _, err := svc.SearchAll(context.Background(), nil)
	if !errors.Is(err, domain.ErrNoItems) {
		t.Fatalf("err = %v, want ErrNoItems", err)
	}
}

func TestSearchAll_OutcomesAlignWithItems(t *testing.T) {
	finder := &fakeFinder{
		rows: map[string][]domcat.Product{
			"alpha": {{ID: 1, Name: "alpha board"}},
			"beta":  {{ID: 2, Name: "beta board"}},
			"gamma": {{ID: 3, Name: "gamma board"}},
		},
		// The first item finishes last; its outcome must still come first.
		delay: map[string]time.Duration{"alpha": 50 * time.Millisecond},
	}
	svc := New(finder, nil)

	items := []request.Item{
		mustItem(t, "alpha"),
		mustItem(t, "beta"),
		mustItem(t, "gamma"),
	}
	outcomes, report, err := svc.SearchAll(context.Background(), items)
	if err != nil {
		t.Fatalf("SearchAll: %v", err)
	}
	if report.BatchID == "" {
		t.Fatal("report missing batch id")
	}
	if report.Items != 3 || report.Failed != 0 {
		t.Fatalf("report = %+v", report)
	}

	wantIDs := []int64{1, 2, 3}
	for i, out := range outcomes {
		if out.Empty() {
			t.Fatalf("outcome %d empty", i)
		}
		if got := out.Candidates()[0].Product().ID; got != wantIDs[i] {
			t.Fatalf("outcome %d product = %d, want %d", i, got, wantIDs[i])
		}
	}
}

func TestSearchAll_FallbackLadder(t *testing.T) {
	// Terms together never match, so the ladder must reach the single
	// keyword tier, which queries the joined phrase against the name.
	finder := &fakeFinder{
		rows: map[string][]domcat.Product{
			"purple elephant": {{ID: 7, Name: "purple elephant lamp"}},
		},
	}
	svc := New(finder, nil)

	outcomes, _, err := svc.SearchAll(context.Background(), []request.Item{mustItem(t, "purple", "elephant")})
	if err != nil {
		t.Fatalf("SearchAll: %v", err)
	}
	out := outcomes[0]
	if out.Strategy() != strategy.SingleKeyword {
		t.Fatalf("strategy = %q, want %q", out.Strategy(), strategy.SingleKeyword)
	}
	if out.Empty() || out.Candidates()[0].Product().ID != 7 {
		t.Fatalf("unexpected candidates: %+v", out.Candidates())
	}
	if len(finder.filters) != 3 {
		t.Fatalf("ladder ran %d queries, want 3", len(finder.filters))
	}
}

// tierFinder scripts responses by the filter's root shape, which tells the
// tiers apart for a multi-term item: And for all terms, Or for any term,
// Leaf for the single keyword.
type tierFinder struct {
	mu      sync.Mutex
	queries int
	rows    map[string][]domcat.Product
}

func (f *tierFinder) FindProducts(_ context.Context, filter domcat.Expr, _ int) ([]domcat.Product, error) {
	f.mu.Lock()
	f.queries++
	f.mu.Unlock()

	switch filter.(type) {
	case domcat.And:
		return f.rows["and"], nil
	case domcat.Or:
		return f.rows["or"], nil
	default:
		return f.rows["leaf"], nil
	}
}

func TestSearchAll_FallbackStopsAtAnyTerm(t *testing.T) {
	// All terms together match nothing, any single term matches one row.
	// The ladder must stop there and never reach the keyword tier.
	finder := &tierFinder{
		rows: map[string][]domcat.Product{
			"or":   {{ID: 4, Name: "steel hinge"}},
			"leaf": {{ID: 9, Name: "unreachable"}},
		},
	}
	svc := New(finder, nil)

	outcomes, _, err := svc.SearchAll(context.Background(), []request.Item{mustItem(t, "steel", "hinge")})
	if err != nil {
		t.Fatalf("SearchAll: %v", err)
	}
	out := outcomes[0]
	if out.Strategy() != strategy.AnyTerm {
		t.Fatalf("strategy = %q, want %q", out.Strategy(), strategy.AnyTerm)
	}
	if out.Empty() || out.Candidates()[0].Product().ID != 4 {
		t.Fatalf("unexpected candidates: %+v", out.Candidates())
	}
	if finder.queries != 2 {
		t.Fatalf("ladder ran %d queries, want 2", finder.queries)
	}
}

func TestSearchAll_ExhaustedLadderStaysEmpty(t *testing.T) {
	finder := &fakeFinder{}
	svc := New(finder, nil)

	outcomes, report, err := svc.SearchAll(context.Background(), []request.Item{mustItem(t, "nothing")})
	if err != nil {
		t.Fatalf("SearchAll: %v", err)
	}
	if !outcomes[0].Empty() {
		t.Fatal("want empty outcome")
	}
	if report.Failed != 0 {
		t.Fatalf("empty outcome is not a failure: %+v", report)
	}
}

func TestSearchAll_PartialFailureIsolated(t *testing.T) {
	finder := &fakeFinder{
		rows: map[string][]domcat.Product{
			"alpha": {{ID: 1, Name: "alpha board"}},
		},
		err:   errors.New("erp down"),
		errOn: "beta",
	}
	svc := New(finder, nil)

	items := []request.Item{mustItem(t, "alpha"), mustItem(t, "beta")}
	outcomes, report, err := svc.SearchAll(context.Background(), items)
	if err != nil {
		t.Fatalf("SearchAll: %v", err)
	}
	if outcomes[0].Empty() {
		t.Fatal("healthy item lost its candidates")
	}
	if !outcomes[1].Empty() {
		t.Fatal("failed item should carry no candidates")
	}
	if report.Failed != 1 || len(report.FailedItems) != 1 || report.FailedItems[0] != 1 {
		t.Fatalf("report = %+v", report)
	}
}

func TestSearchAll_TwoItemScenario(t *testing.T) {
	finder := &fakeFinder{
		rows: map[string][]domcat.Product{
			"blue": {
				{ID: 11, Name: "blue shirt", QtyAvailable: 4},
				{ID: 12, Name: "navy shirt", Description: "deep blue shirt"},
			},
			"red": {
				{ID: 21, Name: "red pants", QtyAvailable: 1},
			},
		},
	}
	svc := New(finder, nil).WithLimits(1, 0)

	items := []request.Item{
		mustItem(t, "blue", "shirt"),
		mustItem(t, "red", "pants"),
	}
	outcomes, _, err := svc.SearchAll(context.Background(), items)
	if err != nil {
		t.Fatalf("SearchAll: %v", err)
	}
	if got := outcomes[0].Candidates()[0].Product().ID; got != 11 {
		t.Fatalf("first item top candidate = %d, want 11", got)
	}
	if len(outcomes[0].Candidates()) != 1 {
		t.Fatalf("topN not applied: %d candidates", len(outcomes[0].Candidates()))
	}
	if got := outcomes[1].Candidates()[0].Product().ID; got != 21 {
		t.Fatalf("second item top candidate = %d, want 21", got)
	}
	for _, out := range outcomes {
		if out.Strategy() != strategy.AllTerms {
			t.Fatalf("strategy = %q, want %q", out.Strategy(), strategy.AllTerms)
		}
	}
}

func TestBuildFilter_PriceCeilingWrapsCore(t *testing.T) {
	ceiling := decimal.NewNullDecimal(decimal.NewFromInt(25))
	item, err := request.New([]string{"shirt"}, "", ceiling, 1)
	if err != nil {
		t.Fatalf("request.New: %v", err)
	}
	svc := New(&fakeFinder{}, nil)

	filter := svc.buildFilter(item, strategy.AllTerms)
	and, ok := filter.(domcat.And)
	if !ok || len(and.Children) != 2 {
		t.Fatalf("filter = %#v, want And with core and ceiling", filter)
	}
	leaf, ok := and.Children[1].(domcat.Leaf)
	if !ok || leaf.Field != fieldListPrice || leaf.Op != domcat.OpLessEq {
		t.Fatalf("ceiling leaf = %#v", and.Children[1])
	}
	if got := leaf.Value.(float64); got != 25 {
		t.Fatalf("ceiling value = %v, want 25", got)
	}
}

func TestBuildFilter_SupplierTermIncluded(t *testing.T) {
	item, err := request.New([]string{"shirt"}, "Acme", decimal.NullDecimal{}, 1)
	if err != nil {
		t.Fatalf("request.New: %v", err)
	}
	svc := New(&fakeFinder{}, nil)

	filter := svc.buildFilter(item, strategy.AnyTerm)
	or, ok := filter.(domcat.Or)
	if !ok {
		t.Fatalf("filter = %#v, want Or", filter)
	}
	var sawSupplier bool
	for _, c := range or.Children {
		if leaf, ok := c.(domcat.Leaf); ok {
			if s, _ := leaf.Value.(string); strings.EqualFold(s, "Acme") {
				sawSupplier = true
			}
		}
	}
	if !sawSupplier {
		t.Fatal("supplier term missing from any-term filter")
	}
}
