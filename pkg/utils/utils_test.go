package utils

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestValidateBarcode(t *testing.T) {
	assert.True(t, ValidateBarcode("7791234560012"))
	assert.True(t, ValidateBarcode(" 12345678 "))
	assert.False(t, ValidateBarcode("1234567"))
	assert.False(t, ValidateBarcode("779123456001A"))
	assert.False(t, ValidateBarcode(""))
}

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		raw   string
		want  string
		valid bool
	}{
		{"1,234.50", "1234.5", true},
		{" 850.40 ", "850.4", true},
		{"0", "0", true},
		{"", "", false},
		{"n/a", "", false},
	}
	for _, tt := range tests {
		value, ok := ParseDecimal(tt.raw)
		assert.Equal(t, tt.valid, ok, tt.raw)
		if tt.valid {
			assert.True(t, value.Equal(decimal.RequireFromString(tt.want)), tt.raw)
		}
	}

	assert.False(t, ParseNullDecimal("abc").Valid)
	assert.True(t, ParseNullDecimal("12").Valid)
}

func TestParseInt(t *testing.T) {
	n, ok := ParseInt(" 3 ")
	assert.True(t, ok)
	assert.Equal(t, 3, n)

	n, ok = ParseInt("3.00")
	assert.True(t, ok)
	assert.Equal(t, 3, n)

	_, ok = ParseInt("tres")
	assert.False(t, ok)
}

func TestGenerateOrderReference(t *testing.T) {
	ref := GenerateOrderReference(" 25 ")
	assert.True(t, strings.HasPrefix(ref, "pedido-25-"), ref)
	assert.NotEqual(t, GenerateUUID(), GenerateUUID())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 3))
	assert.Equal(t, "ab…", Truncate("abc", 2))
}
