package soap

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// ErrElementNotFound is returned when a response lacks the expected element
var ErrElementNotFound = errors.New("soap element not found")

// Text decodes an element whether it is sent as a bare scalar or as an
// element carrying attributes (xsi:type and friends) next to its value.
type Text struct {
	Value string     `xml:",chardata"`
	Attrs []xml.Attr `xml:",any,attr"`
}

// String returns the trimmed text value
func (t Text) String() string {
	return strings.TrimSpace(t.Value)
}

// Fault is a SOAP 1.1 fault
type Fault struct {
	Code   string `xml:"faultcode"`
	String string `xml:"faultstring"`
	Detail string `xml:"detail"`
}

func (f *Fault) Error() string {
	if f.String != "" {
		return "soap fault: " + f.String
	}
	return "soap fault: " + f.Code
}

// NewDecoder returns an xml.Decoder that understands the single-byte
// charsets used by the legacy services.
func NewDecoder(r io.Reader) *xml.Decoder {
	decoder := xml.NewDecoder(r)
	decoder.CharsetReader = charsetReader
	return decoder
}

func charsetReader(label string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "utf-8", "utf8", "us-ascii", "ascii":
		return input, nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252.NewDecoder().Reader(input), nil
	case "iso-8859-1", "latin1", "iso8859-1":
		return charmap.ISO8859_1.NewDecoder().Reader(input), nil
	}
	return nil, fmt.Errorf("unsupported charset %q", label)
}

// FindElement decodes into v the first element whose local name is one of
// names, at any depth. Namespace prefixes are ignored.
func FindElement(data []byte, v interface{}, names ...string) error {
	decoder := NewDecoder(bytes.NewReader(data))
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			return ErrElementNotFound
		}
		if err != nil {
			return fmt.Errorf("decode xml: %w", err)
		}
		start, ok := token.(xml.StartElement)
		if !ok {
			continue
		}
		for _, name := range names {
			if start.Name.Local == name {
				if err := decoder.DecodeElement(v, &start); err != nil {
					return fmt.Errorf("decode %s: %w", name, err)
				}
				return nil
			}
		}
	}
}

// CheckFault returns the fault carried by data, or nil
func CheckFault(data []byte) *Fault {
	var fault Fault
	if err := FindElement(data, &fault, "Fault"); err != nil {
		return nil
	}
	return &fault
}
