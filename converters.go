package catalink

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	domord "github.com/catalink/catalink/internal/domain/order"
	"github.com/catalink/catalink/internal/domain/search/outcome"
	"github.com/catalink/catalink/internal/domain/search/request"
	orderuc "github.com/catalink/catalink/internal/usecase/order"
	searchuc "github.com/catalink/catalink/internal/usecase/search"
)

// SearchItem describes one product to look for. MaxPrice zero means no
// price ceiling.
type SearchItem struct {
	Terms    []string
	Supplier string
	MaxPrice decimal.Decimal
	Quantity int
}

// Candidate is one ranked catalog product.
type Candidate struct {
	ID           int64
	Name         string
	DisplayName  string
	Description  string
	Code         string
	Price        decimal.Decimal
	Category     string
	QtyAvailable float64
	Score        float64
}

// Outcome is the result for one search item.
type Outcome struct {
	Query      string
	Strategy   string
	Failed     bool
	Candidates []Candidate
}

// SearchReport carries batch-level facts about one search call.
type SearchReport struct {
	BatchID     string
	Items       int
	Failed      int
	FailedItems []int
	Elapsed     time.Duration
}

// OrderLine is one requested purchase line.
type OrderLine struct {
	ProductID int64
	Name      string
	Supplier  string
	Quantity  int
}

// MOQ sources, as reported on adjusted lines.
const (
	SourceAuthoritative = string(domord.SourceAuthoritative)
	SourceDefault       = string(domord.SourceDefault)
	SourceDegraded      = string(domord.SourceDegraded)
)

// AdjustedLine is one purchase line after MOQ resolution.
type AdjustedLine struct {
	ProductID  int64
	Name       string
	Requested  int
	Adjusted   int
	MOQ        int
	MOQApplied bool
	UnitPrice  decimal.NullDecimal
	Source     string
}

func itemToInternal(it SearchItem) (request.Item, error) {
	ceiling := decimal.NullDecimal{}
	if it.MaxPrice.IsPositive() {
		ceiling = decimal.NewNullDecimal(it.MaxPrice)
	}
	quantity := it.Quantity
	if quantity < 1 {
		quantity = 1
	}
	return request.New(it.Terms, strings.TrimSpace(it.Supplier), ceiling, quantity)
}

// literalItem wraps the raw query in a single-term item, so every search
// tier matches the joined phrase and long queries never trip the term cap.
func literalItem(query string) (request.Item, error) {
	return request.New([]string{query}, "", decimal.NullDecimal{}, 1)
}

func outcomesFromInternal(outcomes []outcome.Outcome, report searchuc.Report) []Outcome {
	failed := make(map[int]struct{}, len(report.FailedItems))
	for _, i := range report.FailedItems {
		failed[i] = struct{}{}
	}

	out := make([]Outcome, len(outcomes))
	for i, o := range outcomes {
		cands := make([]Candidate, 0, len(o.Candidates()))
		for _, c := range o.Candidates() {
			p := c.Product()
			cands = append(cands, Candidate{
				ID:           p.ID,
				Name:         p.Name,
				DisplayName:  p.DisplayName,
				Description:  p.Description,
				Code:         p.Code,
				Price:        p.UnitPrice,
				Category:     p.Category.Label(),
				QtyAvailable: p.QtyAvailable,
				Score:        c.Score(),
			})
		}
		_, itemFailed := failed[i]
		out[i] = Outcome{
			Query:      o.Item().Joined(),
			Strategy:   string(o.Strategy()),
			Failed:     itemFailed,
			Candidates: cands,
		}
	}
	return out
}

func reportFromInternal(r searchuc.Report) SearchReport {
	return SearchReport{
		BatchID:     r.BatchID,
		Items:       r.Items,
		Failed:      r.Failed,
		FailedItems: r.FailedItems,
		Elapsed:     r.Elapsed,
	}
}

func lineToInternal(l OrderLine) orderuc.LineRequest {
	return orderuc.LineRequest{
		Product: domord.ProductRef{
			ID:       l.ProductID,
			Name:     l.Name,
			Supplier: l.Supplier,
		},
		Quantity: l.Quantity,
	}
}

func adjustedFromInternal(l domord.Line) AdjustedLine {
	return AdjustedLine{
		ProductID:  l.Product().ID,
		Name:       l.Product().Name,
		Requested:  l.Requested(),
		Adjusted:   l.Adjusted(),
		MOQ:        l.MOQ(),
		MOQApplied: l.MOQApplied(),
		UnitPrice:  l.UnitPrice(),
		Source:     string(l.Source()),
	}
}

func adjustedToInternal(lines []AdjustedLine) ([]domord.Line, error) {
	out := make([]domord.Line, 0, len(lines))
	for _, l := range lines {
		if l.ProductID <= 0 {
			return nil, fmt.Errorf("catalink: line %q has no product id", l.Name)
		}
		source := domord.Source(l.Source)
		switch source {
		case domord.SourceAuthoritative, domord.SourceDefault, domord.SourceDegraded:
		case "":
			source = domord.SourceDefault
		default:
			return nil, fmt.Errorf("catalink: line %q has unknown source %q", l.Name, l.Source)
		}
		rec := domord.NewMOQRecord(
			domord.ProductRef{ID: l.ProductID, Name: l.Name},
			l.MOQ, "", l.UnitPrice, source,
		)
		out = append(out, domord.NewLine(rec, l.Requested))
	}
	return out, nil
}
