package catalog

import "testing"

func TestValidate_Groups(t *testing.T) {
	leaf := Leaf{Field: "name", Op: OpILike, Value: "shirt"}

	ok := And{Children: []Expr{leaf, Or{Children: []Expr{leaf, leaf}}}}
	if err := ok.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := (And{}).Validate(); err == nil {
		t.Error("empty AND should be invalid")
	}
	if err := (Or{}).Validate(); err == nil {
		t.Error("empty OR should be invalid")
	}

	nested := And{Children: []Expr{Or{}}}
	if err := nested.Validate(); err == nil {
		t.Error("invalid child should fail the group")
	}
}

func TestValidate_Leaf(t *testing.T) {
	if err := (Leaf{Field: "", Op: OpEq, Value: 1}).Validate(); err == nil {
		t.Error("missing field should be invalid")
	}
	if err := (Leaf{Field: "name", Op: "", Value: 1}).Validate(); err == nil {
		t.Error("missing operator should be invalid")
	}
	if err := (Leaf{Field: "name", Op: OpEq, Value: []int{1}}).Validate(); err == nil {
		t.Error("unsupported value type should be invalid")
	}
	for _, v := range []any{"s", true, 1, int64(1), 1.5} {
		if err := (Leaf{Field: "name", Op: OpEq, Value: v}).Validate(); err != nil {
			t.Errorf("value %T should be valid: %v", v, err)
		}
	}
}
