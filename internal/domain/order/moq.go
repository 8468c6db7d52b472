// Package order defines minimum-order-quantity records and adjusted
// purchase lines.
package order

import "github.com/shopspring/decimal"

// Source tags where an MOQ number came from.
type Source string

const (
	// SourceAuthoritative means a matching supplier record declared the minimum.
	SourceAuthoritative Source = "authoritative"
	// SourceDefault means the lookup succeeded but no record matched.
	SourceDefault Source = "default"
	// SourceDegraded means the lookup call itself failed.
	SourceDegraded Source = "degraded"
)

// ProductRef identifies a product being ordered.
type ProductRef struct {
	ID       int64
	Name     string
	Supplier string
}

// SupplierEntry is one row of the supplier-information source. Plain
// fields: entries cross the cache boundary as JSON.
type SupplierEntry struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	MinQty      float64         `json:"min_qty"`
	Supplier    string          `json:"supplier,omitempty"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// MOQRecord is the resolved minimum order quantity for one product.
// The minimum is always at least 1, whatever the source.
type MOQRecord struct {
	product   ProductRef
	moq       int
	supplier  string
	unitPrice decimal.NullDecimal
	source    Source
}

// NewMOQRecord creates a record, clamping the minimum to 1.
func NewMOQRecord(
	product ProductRef, moq int, supplier string,
	unitPrice decimal.NullDecimal, source Source,
) MOQRecord {
	if moq < 1 {
		moq = 1
	}
	return MOQRecord{
		product:   product,
		moq:       moq,
		supplier:  supplier,
		unitPrice: unitPrice,
		source:    source,
	}
}

// Product returns the product reference.
func (r MOQRecord) Product() ProductRef { return r.product }

// MOQ returns the minimum order quantity (>= 1).
func (r MOQRecord) MOQ() int { return r.moq }

// Supplier returns the declaring supplier ("" when none matched).
func (r MOQRecord) Supplier() string { return r.supplier }

// UnitPrice returns the supplier's declared unit price, when known.
func (r MOQRecord) UnitPrice() decimal.NullDecimal { return r.unitPrice }

// Source reports where the minimum came from.
func (r MOQRecord) Source() Source { return r.source }

// Line is one finalized, MOQ-adjusted order line. Lines are computed once
// and never mutated; changed inputs produce a new Line.
type Line struct {
	product   ProductRef
	requested int
	adjusted  int
	moq       int
	applied   bool
	unitPrice decimal.NullDecimal
	source    Source
}

// NewLine adjusts a requested quantity against a resolved MOQ record.
// The adjusted quantity is never below the requested one.
func NewLine(rec MOQRecord, requested int) Line {
	if requested < 1 {
		requested = 1
	}
	adjusted := requested
	if rec.moq > adjusted {
		adjusted = rec.moq
	}
	return Line{
		product:   rec.product,
		requested: requested,
		adjusted:  adjusted,
		moq:       rec.moq,
		applied:   adjusted > requested,
		unitPrice: rec.unitPrice,
		source:    rec.source,
	}
}

// Product returns the product reference.
func (l Line) Product() ProductRef { return l.product }

// Requested returns the originally requested quantity.
func (l Line) Requested() int { return l.requested }

// Adjusted returns max(moq, requested).
func (l Line) Adjusted() int { return l.adjusted }

// MOQ returns the minimum applied to this line.
func (l Line) MOQ() int { return l.moq }

// MOQApplied reports whether the adjustment raised the quantity.
func (l Line) MOQApplied() bool { return l.applied }

// UnitPrice returns the supplier unit price, when known.
func (l Line) UnitPrice() decimal.NullDecimal { return l.unitPrice }

// Source reports where the minimum came from.
func (l Line) Source() Source { return l.source }
