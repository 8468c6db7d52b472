// Package xrpc implements the text wire protocol spoken by the ERP's
// object-search API: a tag-delimited tree encoding with entity-escaped
// text, an HTTP call transport, and an authenticating session.
//
// The codec is hand-rolled on purpose. Only the value grammar and the two
// method shapes the ERP actually serves (authenticate, execute_kw) are
// supported; there is no introspection, streaming, or binary payload
// support.
package xrpc

// Kind tags the variants of a wire Value.
type Kind int

// Value kinds.
const (
	Nil Kind = iota
	Bool
	Int
	Float
	String
	List
	Struct
)

func (k Kind) String() string {
	switch k {
	case Nil:
		return "nil"
	case Bool:
		return "boolean"
	case Int:
		return "int"
	case Float:
		return "double"
	case String:
		return "string"
	case List:
		return "array"
	case Struct:
		return "struct"
	}
	return "unknown"
}

// Value is one node of the wire value tree.
type Value struct {
	kind    Kind
	b       bool
	i       int64
	f       float64
	s       string
	items   []Value
	members []Member
}

// Member is one named field of a Struct value. Member order is preserved
// through encode and decode.
type Member struct {
	Name  string
	Value Value
}

// NilValue returns the nil wire value.
func NilValue() Value { return Value{kind: Nil} }

// BoolValue wraps a boolean.
func BoolValue(b bool) Value { return Value{kind: Bool, b: b} }

// IntValue wraps an integer. The ERP convention caps integers at 32 bits;
// values outside that range decode back as Float.
func IntValue(i int64) Value { return Value{kind: Int, i: i} }

// FloatValue wraps a float.
func FloatValue(f float64) Value { return Value{kind: Float, f: f} }

// StringValue wraps a text leaf.
func StringValue(s string) Value { return Value{kind: String, s: s} }

// ListValue wraps an ordered sequence of values.
func ListValue(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: List, items: items}
}

// StructValue wraps an ordered sequence of named members.
func StructValue(members ...Member) Value {
	if members == nil {
		members = []Member{}
	}
	return Value{kind: Struct, members: members}
}

// Kind returns the variant tag.
func (v Value) Kind() Kind { return v.kind }

// Bool returns the boolean payload (false for other kinds).
func (v Value) Bool() bool { return v.kind == Bool && v.b }

// Int returns the integer payload (0 for other kinds).
func (v Value) Int() int64 { return v.i }

// Float returns the float payload (0 for other kinds).
func (v Value) Float() float64 { return v.f }

// Text returns the string payload ("" for other kinds).
func (v Value) Text() string { return v.s }

// Number returns the numeric payload of an Int or Float value.
func (v Value) Number() float64 {
	if v.kind == Int {
		return float64(v.i)
	}
	return v.f
}

// Items returns the list payload (nil for other kinds).
func (v Value) Items() []Value { return v.items }

// Members returns the struct payload in wire order (nil for other kinds).
func (v Value) Members() []Member { return v.members }

// Field returns the first struct member with the given name.
func (v Value) Field(name string) (Value, bool) {
	for _, m := range v.members {
		if m.Name == name {
			return m.Value, true
		}
	}
	return Value{}, false
}

// IsTruthy reports whether the value counts as "set" under the ERP's
// loose-typing rules. The authentication endpoint returns a falsy value
// (false, 0, empty) instead of an error on bad credentials.
func (v Value) IsTruthy() bool {
	switch v.kind {
	case Nil:
		return false
	case Bool:
		return v.b
	case Int:
		return v.i != 0
	case Float:
		return v.f != 0
	case String:
		return v.s != ""
	case List:
		return len(v.items) > 0
	case Struct:
		return len(v.members) > 0
	}
	return false
}

// Equal reports structural equality, including member order.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case Nil:
		return true
	case Bool:
		return v.b == o.b
	case Int:
		return v.i == o.i
	case Float:
		return v.f == o.f
	case String:
		return v.s == o.s
	case List:
		if len(v.items) != len(o.items) {
			return false
		}
		for i := range v.items {
			if !v.items[i].Equal(o.items[i]) {
				return false
			}
		}
		return true
	case Struct:
		if len(v.members) != len(o.members) {
			return false
		}
		for i := range v.members {
			if v.members[i].Name != o.members[i].Name {
				return false
			}
			if !v.members[i].Value.Equal(o.members[i].Value) {
				return false
			}
		}
		return true
	}
	return false
}
