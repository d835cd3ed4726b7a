package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var barcodeRe = regexp.MustCompile(`^\d{8,14}$`)

// GenerateUUID generates a new UUID
func GenerateUUID() string {
	return uuid.New().String()
}

// GenerateOrderReference builds the client reference sent with supplier orders
func GenerateOrderReference(branchID string) string {
	return fmt.Sprintf("pedido-%s-%d", strings.TrimSpace(branchID), time.Now().UnixMilli())
}

// ValidateBarcode checks an EAN/UPC style barcode
func ValidateBarcode(code string) bool {
	return barcodeRe.MatchString(strings.TrimSpace(code))
}

// ParseDecimal parses a supplier formatted number. Thousands separators
// (commas) are stripped; empty or non numeric input is reported as invalid.
func ParseDecimal(raw string) (decimal.Decimal, bool) {
	cleaned := strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	if cleaned == "" {
		return decimal.Decimal{}, false
	}
	value, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return value, true
}

// ParseNullDecimal is ParseDecimal returning a NullDecimal
func ParseNullDecimal(raw string) decimal.NullDecimal {
	value, ok := ParseDecimal(raw)
	if !ok {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(value)
}

// ParseInt parses a supplier integer, tolerating surrounding spaces and a
// trailing decimal part such as "3.00"
func ParseInt(raw string) (int, bool) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(cleaned); err == nil {
		return n, true
	}
	value, ok := ParseDecimal(cleaned)
	if !ok {
		return 0, false
	}
	return int(value.IntPart()), true
}

// Truncate shortens s for log output
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
