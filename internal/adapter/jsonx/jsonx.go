// Package jsonx decodes the loosely typed scalars the JSON suppliers send,
// where one field may arrive as a string, a number or a boolean.
package jsonx

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ComprasSanchez/pedidos-sucursales/pkg/utils"
)

// String accepts a JSON string, number, boolean or null
type String string

func (s *String) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*s = ""
		return nil
	}
	switch trimmed[0] {
	case '"':
		var v string
		if err := json.Unmarshal(trimmed, &v); err != nil {
			return err
		}
		*s = String(strings.TrimSpace(v))
		return nil
	case '{', '[':
		return fmt.Errorf("unexpected composite value %s", utils.Truncate(string(trimmed), 64))
	}
	*s = String(trimmed)
	return nil
}

// Int parses the value as an integer
func (s String) Int() (int, bool) {
	return utils.ParseInt(string(s))
}

// Decimal parses the value as a decimal, stripping thousands separators
func (s String) Decimal() decimal.NullDecimal {
	return utils.ParseNullDecimal(string(s))
}

// IsTrue reports "true", "1", "si" or "yes", case-insensitively
func (s String) IsTrue() bool {
	switch strings.ToLower(strings.TrimSpace(string(s))) {
	case "true", "1", "si", "sí", "yes":
		return true
	}
	return false
}

func (s String) String() string {
	return string(s)
}
