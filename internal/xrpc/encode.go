package xrpc

import (
	"strconv"
	"strings"
)

// escaper covers the five reserved markup characters. They must be
// entity-escaped in every text leaf and struct member name.
var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// Encode renders a value as a self-contained wire element.
func Encode(v Value) string {
	var b strings.Builder
	encodeValue(&b, v)
	return b.String()
}

// EncodeCall renders a full method call document with an ordered
// parameter list.
func EncodeCall(method string, params []Value) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0"?>`)
	b.WriteString("<methodCall><methodName>")
	b.WriteString(escaper.Replace(method))
	b.WriteString("</methodName><params>")
	for _, p := range params {
		b.WriteString("<param>")
		encodeValue(&b, p)
		b.WriteString("</param>")
	}
	b.WriteString("</params></methodCall>")
	return b.String()
}

// EncodeResponse renders a result document. The transport never sends
// responses; this is the server half used by in-process test doubles.
func EncodeResponse(v Value) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0"?>`)
	b.WriteString("<methodResponse><params><param>")
	encodeValue(&b, v)
	b.WriteString("</param></params></methodResponse>")
	return b.String()
}

// EncodeFault renders a fault document, the remote-error half of the
// protocol. Like EncodeResponse it exists for test doubles.
func EncodeFault(code int64, message string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0"?>`)
	b.WriteString("<methodResponse><fault>")
	encodeValue(&b, StructValue(
		Member{Name: "faultCode", Value: IntValue(code)},
		Member{Name: "faultString", Value: StringValue(message)},
	))
	b.WriteString("</fault></methodResponse>")
	return b.String()
}

func encodeValue(b *strings.Builder, v Value) {
	b.WriteString("<value>")
	switch v.kind {
	case Nil:
		b.WriteString("<nil/>")
	case Bool:
		if v.b {
			b.WriteString("<boolean>1</boolean>")
		} else {
			b.WriteString("<boolean>0</boolean>")
		}
	case Int:
		b.WriteString("<int>")
		b.WriteString(strconv.FormatInt(v.i, 10))
		b.WriteString("</int>")
	case Float:
		b.WriteString("<double>")
		b.WriteString(strconv.FormatFloat(v.f, 'g', -1, 64))
		b.WriteString("</double>")
	case String:
		b.WriteString("<string>")
		b.WriteString(escaper.Replace(v.s))
		b.WriteString("</string>")
	case List:
		b.WriteString("<array><data>")
		for _, item := range v.items {
			encodeValue(b, item)
		}
		b.WriteString("</data></array>")
	case Struct:
		b.WriteString("<struct>")
		for _, m := range v.members {
			b.WriteString("<member><name>")
			b.WriteString(escaper.Replace(m.Name))
			b.WriteString("</name>")
			encodeValue(b, m.Value)
			b.WriteString("</member>")
		}
		b.WriteString("</struct>")
	}
	b.WriteString("</value>")
}
