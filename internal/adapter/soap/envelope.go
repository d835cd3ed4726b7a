// Package soap holds the SOAP 1.1 plumbing shared by the XML supplier
// integrations: envelope construction, tolerant response decoding and fault
// detection.
package soap

import (
	"bytes"
	"encoding/xml"
)

const (
	EnvelopeNS = "http://schemas.xmlsoap.org/soap/envelope/"
	EncodingNS = "http://schemas.xmlsoap.org/soap/encoding/"
	XSINS      = "http://www.w3.org/2001/XMLSchema-instance"
	XSDNS      = "http://www.w3.org/2001/XMLSchema"
)

// Attr is a literal attribute; Name is written as given, prefix included.
type Attr struct {
	Name  string
	Value string
}

// Element is a node of a request body. Names carry their prefix verbatim so
// the produced bytes match what the remote service documents.
type Element struct {
	Name     string
	Attrs    []Attr
	Text     string
	Children []Element
}

// Leaf builds a text-only element
func Leaf(name, text string) Element {
	return Element{Name: name, Text: text}
}

func (e Element) write(buf *bytes.Buffer) {
	buf.WriteByte('<')
	buf.WriteString(e.Name)
	for _, attr := range e.Attrs {
		buf.WriteByte(' ')
		buf.WriteString(attr.Name)
		buf.WriteString(`="`)
		_ = xml.EscapeText(buf, []byte(attr.Value))
		buf.WriteByte('"')
	}
	if e.Text == "" && len(e.Children) == 0 {
		buf.WriteString("/>")
		return
	}
	buf.WriteByte('>')
	_ = xml.EscapeText(buf, []byte(e.Text))
	for _, child := range e.Children {
		child.write(buf)
	}
	buf.WriteString("</")
	buf.WriteString(e.Name)
	buf.WriteByte('>')
}

// Marshal renders a single element without envelope
func (e Element) Marshal() []byte {
	var buf bytes.Buffer
	e.write(&buf)
	return buf.Bytes()
}

// Envelope wraps body elements into a SOAP 1.1 envelope. envPrefix is the
// prefix bound to the envelope namespace; namespaces are extra xmlns
// declarations placed on the Envelope element.
func Envelope(envPrefix string, namespaces []Attr, body ...Element) []byte {
	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)

	envelope := Element{
		Name:  envPrefix + ":Envelope",
		Attrs: append([]Attr{{Name: "xmlns:" + envPrefix, Value: EnvelopeNS}}, namespaces...),
		Children: []Element{
			{Name: envPrefix + ":Header"},
			{Name: envPrefix + ":Body", Children: body},
		},
	}
	envelope.write(&buf)
	return buf.Bytes()
}
