// Package catalog holds the domain model of the external product catalog:
// filter expressions, normalized references, and product records.
package catalog

import "fmt"

// Comparison operators the catalog filter grammar uses.
const (
	OpILike     = "ilike"
	OpEq        = "="
	OpLessEq    = "<="
	OpGreaterEq = ">="
)

// Expr is a boolean filter over catalog rows, built as a small expression
// tree and serialized to the ERP's prefix-notation domain format only at
// the RPC boundary. Building the tree in native code removes the
// operator-count bookkeeping that string-assembled domains require.
type Expr interface {
	isExpr()
	// Validate checks the subtree for structural soundness.
	Validate() error
}

// And requires every child expression to hold.
type And struct {
	Children []Expr
}

func (And) isExpr() {}

// Validate rejects empty groups; an empty group has no wire representation.
func (a And) Validate() error {
	if len(a.Children) == 0 {
		return fmt.Errorf("empty AND group")
	}
	for _, c := range a.Children {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Or requires at least one child expression to hold.
type Or struct {
	Children []Expr
}

func (Or) isExpr() {}

func (o Or) Validate() error {
	if len(o.Children) == 0 {
		return fmt.Errorf("empty OR group")
	}
	for _, c := range o.Children {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Leaf is one (field, operator, value) condition. Value may be a string,
// bool, integer, or float.
type Leaf struct {
	Field string
	Op    string
	Value any
}

func (Leaf) isExpr() {}

func (l Leaf) Validate() error {
	if l.Field == "" {
		return fmt.Errorf("filter field is required")
	}
	if l.Op == "" {
		return fmt.Errorf("filter operator is required for field %q", l.Field)
	}
	switch l.Value.(type) {
	case string, bool, int, int64, float64:
		return nil
	}
	return fmt.Errorf("unsupported filter value type %T for field %q", l.Value, l.Field)
}
