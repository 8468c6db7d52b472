package catalog

import (
	"fmt"

	domcat "github.com/catalink/catalink/internal/domain/catalog"
	"github.com/catalink/catalink/internal/xrpc"
)

// filterToWire serializes an expression tree into the ERP's prefix
// notation: an n-way group emits n-1 operator markers followed by its
// children, a leaf emits one [field, operator, value] triple. A nil
// expression serializes to an empty domain (select all).
func filterToWire(e domcat.Expr) ([]xrpc.Value, error) {
	if e == nil {
		return []xrpc.Value{}, nil
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return appendExpr(nil, e)
}

func appendExpr(out []xrpc.Value, e domcat.Expr) ([]xrpc.Value, error) {
	switch n := e.(type) {
	case domcat.And:
		return appendGroup(out, "&", n.Children)
	case domcat.Or:
		return appendGroup(out, "|", n.Children)
	case domcat.Leaf:
		v, err := leafValue(n.Value)
		if err != nil {
			return nil, err
		}
		return append(out, xrpc.ListValue(
			xrpc.StringValue(n.Field),
			xrpc.StringValue(n.Op),
			v,
		)), nil
	}
	return nil, fmt.Errorf("unknown expression node %T", e)
}

func appendGroup(out []xrpc.Value, op string, children []domcat.Expr) ([]xrpc.Value, error) {
	for i := 1; i < len(children); i++ {
		out = append(out, xrpc.StringValue(op))
	}
	for _, c := range children {
		var err error
		if out, err = appendExpr(out, c); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func leafValue(v any) (xrpc.Value, error) {
	switch x := v.(type) {
	case string:
		return xrpc.StringValue(x), nil
	case bool:
		return xrpc.BoolValue(x), nil
	case int:
		return xrpc.IntValue(int64(x)), nil
	case int64:
		return xrpc.IntValue(x), nil
	case float64:
		return xrpc.FloatValue(x), nil
	}
	return xrpc.Value{}, fmt.Errorf("unsupported filter value type %T", v)
}
