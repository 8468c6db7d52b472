package catalog

import "github.com/shopspring/decimal"

// Reference is a normalized many-to-one link. The ERP overloads the wire
// representation of an unset reference as the boolean false versus an
// [id, label] pair; rows are normalized into this union immediately after
// decode so nothing downstream branches on raw booleans.
type Reference struct {
	id    int64
	label string
	set   bool
}

// ResolvedRef creates a set reference.
func ResolvedRef(id int64, label string) Reference {
	return Reference{id: id, label: label, set: true}
}

// UnsetRef creates an unset reference.
func UnsetRef() Reference { return Reference{} }

// ID returns the referenced record id (0 when unset).
func (r Reference) ID() int64 { return r.id }

// Label returns the display label ("" when unset).
func (r Reference) Label() string { return r.label }

// IsSet reports whether the reference points at a record.
func (r Reference) IsSet() bool { return r.set }

// Product is one normalized catalog record.
type Product struct {
	ID           int64
	Name         string
	DisplayName  string
	Description  string
	UnitPrice    decimal.Decimal
	Category     Reference
	Code         string
	QtyAvailable float64
}
