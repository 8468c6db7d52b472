package xrpc

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Decode parses a single wire element. The input must contain exactly one
// value; trailing non-whitespace is an error.
func Decode(text string) (Value, error) {
	d := &decoder{src: text}
	d.skipProlog()
	v, err := d.parseValue()
	if err != nil {
		return Value{}, err
	}
	d.skipSpace()
	if d.pos != len(d.src) {
		return Value{}, d.errf("trailing data after value")
	}
	return v, nil
}

// DecodeResponse parses a response document. A fault-shaped response is
// raised as *Fault, never returned as a plain struct value. A response
// with an absent or empty parameter container decodes to an empty List so
// callers never see a nil result on success.
func DecodeResponse(text string) (Value, error) {
	d := &decoder{src: text}
	d.skipProlog()
	if err := d.expect("<methodResponse>"); err != nil {
		return Value{}, err
	}
	d.skipSpace()

	if d.tryConsume("<fault>") {
		d.skipSpace()
		payload, err := d.parseValue()
		if err != nil {
			return Value{}, err
		}
		d.skipSpace()
		if err := d.expect("</fault>"); err != nil {
			return Value{}, err
		}
		return Value{}, faultFromValue(payload, text)
	}

	result := ListValue()
	switch {
	case d.tryConsume("<params/>"):
	case d.tryConsume("<params>"):
		d.skipSpace()
		if !d.tryConsume("</params>") {
			if err := d.expect("<param>"); err != nil {
				return Value{}, err
			}
			v, err := d.parseValue()
			if err != nil {
				return Value{}, err
			}
			result = v
			d.skipSpace()
			if err := d.expect("</param>"); err != nil {
				return Value{}, err
			}
			d.skipSpace()
			if err := d.expect("</params>"); err != nil {
				return Value{}, err
			}
		}
	}

	d.skipSpace()
	if err := d.expect("</methodResponse>"); err != nil {
		return Value{}, err
	}
	return result, nil
}

// DecodeCall parses a call document into its method name and ordered
// parameter list. The client never receives calls; this is the server half
// used by in-process test doubles.
func DecodeCall(text string) (string, []Value, error) {
	d := &decoder{src: text}
	d.skipProlog()
	if err := d.expect("<methodCall>"); err != nil {
		return "", nil, err
	}
	d.skipSpace()
	if err := d.expect("<methodName>"); err != nil {
		return "", nil, err
	}
	raw, err := d.rawUntil("</methodName>")
	if err != nil {
		return "", nil, err
	}
	method, err := d.unescape(raw)
	if err != nil {
		return "", nil, err
	}

	params := []Value{}
	d.skipSpace()
	switch {
	case d.tryConsume("<params/>"):
	case d.tryConsume("<params>"):
		for {
			d.skipSpace()
			if d.tryConsume("</params>") {
				break
			}
			if err := d.expect("<param>"); err != nil {
				return "", nil, err
			}
			v, err := d.parseValue()
			if err != nil {
				return "", nil, err
			}
			d.skipSpace()
			if err := d.expect("</param>"); err != nil {
				return "", nil, err
			}
			params = append(params, v)
		}
	}

	d.skipSpace()
	if err := d.expect("</methodCall>"); err != nil {
		return "", nil, err
	}
	return method, params, nil
}

type decoder struct {
	src string
	pos int
}

func (d *decoder) errf(format string, args ...any) error {
	return &CodecError{Pos: d.pos, Msg: fmt.Sprintf(format, args...)}
}

func (d *decoder) skipSpace() {
	for d.pos < len(d.src) {
		switch d.src[d.pos] {
		case ' ', '\t', '\n', '\r':
			d.pos++
		default:
			return
		}
	}
}

// skipProlog consumes a leading <?xml ...?> declaration if present.
func (d *decoder) skipProlog() {
	d.skipSpace()
	if strings.HasPrefix(d.src[d.pos:], "<?") {
		end := strings.Index(d.src[d.pos:], "?>")
		if end < 0 {
			d.pos = len(d.src)
			return
		}
		d.pos += end + 2
	}
	d.skipSpace()
}

func (d *decoder) tryConsume(lit string) bool {
	if strings.HasPrefix(d.src[d.pos:], lit) {
		d.pos += len(lit)
		return true
	}
	return false
}

func (d *decoder) expect(lit string) error {
	if !d.tryConsume(lit) {
		return d.errf("expected %s", lit)
	}
	return nil
}

// rawUntil returns the raw text up to the given closing literal and
// consumes both.
func (d *decoder) rawUntil(close string) (string, error) {
	idx := strings.Index(d.src[d.pos:], close)
	if idx < 0 {
		return "", d.errf("missing %s", close)
	}
	raw := d.src[d.pos : d.pos+idx]
	d.pos += idx + len(close)
	return raw, nil
}

// openTag consumes "<name>" or "<name/>".
func (d *decoder) openTag() (string, bool, error) {
	if d.pos >= len(d.src) || d.src[d.pos] != '<' {
		return "", false, d.errf("expected element")
	}
	i := d.pos + 1
	for i < len(d.src) && d.src[i] != '>' && d.src[i] != '/' {
		i++
	}
	if i >= len(d.src) {
		return "", false, d.errf("unterminated element")
	}
	name := d.src[d.pos+1 : i]
	if name == "" || strings.ContainsAny(name, " \t\n\r<") {
		return "", false, d.errf("malformed element %q", name)
	}
	if d.src[i] == '/' {
		if i+1 >= len(d.src) || d.src[i+1] != '>' {
			return "", false, d.errf("unterminated element %q", name)
		}
		d.pos = i + 2
		return name, true, nil
	}
	d.pos = i + 1
	return name, false, nil
}

func (d *decoder) parseValue() (Value, error) {
	d.skipSpace()
	if d.tryConsume("<value/>") {
		return StringValue(""), nil
	}
	if err := d.expect("<value>"); err != nil {
		return Value{}, err
	}

	lt := strings.IndexByte(d.src[d.pos:], '<')
	if lt < 0 {
		return Value{}, d.errf("unterminated value")
	}
	raw := d.src[d.pos : d.pos+lt]
	d.pos += lt

	// A value with no inner element is an untagged string.
	if d.tryConsume("</value>") {
		s, err := d.unescape(raw)
		if err != nil {
			return Value{}, err
		}
		return StringValue(s), nil
	}
	if strings.TrimSpace(raw) != "" {
		return Value{}, d.errf("unexpected text before inner element")
	}

	v, err := d.parseTagged()
	if err != nil {
		return Value{}, err
	}
	d.skipSpace()
	if err := d.expect("</value>"); err != nil {
		return Value{}, err
	}
	return v, nil
}

func (d *decoder) parseTagged() (Value, error) {
	name, selfClosed, err := d.openTag()
	if err != nil {
		return Value{}, err
	}

	switch name {
	case "nil":
		if !selfClosed {
			if err := d.expect("</nil>"); err != nil {
				return Value{}, err
			}
		}
		return NilValue(), nil

	case "boolean":
		if selfClosed {
			return Value{}, d.errf("empty boolean")
		}
		raw, err := d.rawUntil("</boolean>")
		if err != nil {
			return Value{}, err
		}
		switch strings.TrimSpace(raw) {
		case "1":
			return BoolValue(true), nil
		case "0":
			return BoolValue(false), nil
		}
		return Value{}, d.errf("invalid boolean %q", raw)

	case "int", "i4":
		if selfClosed {
			return Value{}, d.errf("empty int")
		}
		raw, err := d.rawUntil("</" + name + ">")
		if err != nil {
			return Value{}, err
		}
		return d.parseNumber(raw)

	case "double":
		if selfClosed {
			return Value{}, d.errf("empty double")
		}
		raw, err := d.rawUntil("</double>")
		if err != nil {
			return Value{}, err
		}
		f, perr := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if perr != nil {
			return Value{}, d.errf("invalid double %q", raw)
		}
		return FloatValue(f), nil

	case "string":
		if selfClosed {
			return StringValue(""), nil
		}
		raw, err := d.rawUntil("</string>")
		if err != nil {
			return Value{}, err
		}
		s, err := d.unescape(raw)
		if err != nil {
			return Value{}, err
		}
		return StringValue(s), nil

	case "array":
		return d.parseArray(selfClosed)

	case "struct":
		return d.parseStruct(selfClosed)
	}
	return Value{}, d.errf("unknown wire tag %q", name)
}

// parseArray decodes an ordered container. An absent or self-closed data
// container decodes to an empty List, never Nil: downstream callers index
// into search results without re-checking the container shape.
func (d *decoder) parseArray(selfClosed bool) (Value, error) {
	if selfClosed {
		return ListValue(), nil
	}
	items := []Value{}
	d.skipSpace()
	switch {
	case d.tryConsume("<data/>"):
	case d.tryConsume("<data>"):
		for {
			d.skipSpace()
			if d.tryConsume("</data>") {
				break
			}
			v, err := d.parseValue()
			if err != nil {
				return Value{}, err
			}
			items = append(items, v)
		}
	}
	d.skipSpace()
	if err := d.expect("</array>"); err != nil {
		return Value{}, err
	}
	return ListValue(items...), nil
}

func (d *decoder) parseStruct(selfClosed bool) (Value, error) {
	if selfClosed {
		return StructValue(), nil
	}
	members := []Member{}
	for {
		d.skipSpace()
		if d.tryConsume("</struct>") {
			break
		}
		if err := d.expect("<member>"); err != nil {
			return Value{}, err
		}
		d.skipSpace()
		var name string
		if !d.tryConsume("<name/>") {
			if err := d.expect("<name>"); err != nil {
				return Value{}, err
			}
			raw, err := d.rawUntil("</name>")
			if err != nil {
				return Value{}, err
			}
			name, err = d.unescape(raw)
			if err != nil {
				return Value{}, err
			}
		}
		v, err := d.parseValue()
		if err != nil {
			return Value{}, err
		}
		d.skipSpace()
		if err := d.expect("</member>"); err != nil {
			return Value{}, err
		}
		members = append(members, Member{Name: name, Value: v})
	}
	return StructValue(members...), nil
}

// parseNumber applies the ERP's numeric convention: an integral lexical
// form within the 32-bit signed range is an Int, everything else a Float.
func (d *decoder) parseNumber(raw string) (Value, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Value{}, d.errf("empty number")
	}
	if isIntegral(s) {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil &&
			n >= math.MinInt32 && n <= math.MaxInt32 {
			return IntValue(n), nil
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Value{}, d.errf("invalid number %q", s)
	}
	return FloatValue(f), nil
}

func isIntegral(s string) bool {
	if s[0] == '+' || s[0] == '-' {
		s = s[1:]
	}
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// unescape resolves the five reserved entities plus numeric character
// references. Anything else fails decoding rather than passing through.
func (d *decoder) unescape(s string) (string, error) {
	if !strings.Contains(s, "&") {
		return s, nil
	}
	var b strings.Builder
	for i := 0; i < len(s); {
		c := s[i]
		if c != '&' {
			b.WriteByte(c)
			i++
			continue
		}
		semi := strings.IndexByte(s[i:], ';')
		if semi < 0 {
			return "", d.errf("unterminated entity")
		}
		ent := s[i : i+semi+1]
		switch ent {
		case "&amp;":
			b.WriteByte('&')
		case "&lt;":
			b.WriteByte('<')
		case "&gt;":
			b.WriteByte('>')
		case "&quot;":
			b.WriteByte('"')
		case "&apos;":
			b.WriteByte('\'')
		default:
			r, ok := numericRef(ent)
			if !ok {
				return "", d.errf("unknown entity %s", ent)
			}
			b.WriteRune(r)
		}
		i += len(ent)
	}
	return b.String(), nil
}

// numericRef parses "&#NN;" or "&#xHH;" references.
func numericRef(ent string) (rune, bool) {
	if !strings.HasPrefix(ent, "&#") || !strings.HasSuffix(ent, ";") {
		return 0, false
	}
	body := ent[2 : len(ent)-1]
	base := 10
	if strings.HasPrefix(body, "x") || strings.HasPrefix(body, "X") {
		body = body[1:]
		base = 16
	}
	n, err := strconv.ParseInt(body, base, 32)
	if err != nil || n < 0 || !utf8.ValidRune(rune(n)) {
		return 0, false
	}
	return rune(n), true
}

func faultFromValue(v Value, raw string) *Fault {
	f := &Fault{Message: "fault payload missing faultString", Raw: raw}
	if code, ok := v.Field("faultCode"); ok {
		f.Code = code.Int()
	}
	if msg, ok := v.Field("faultString"); ok {
		f.Message = msg.Text()
	}
	return f
}
