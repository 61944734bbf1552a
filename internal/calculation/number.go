package calculation

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseNumber reads a user-entered number. Blank or malformed input is 0.
func ParseNumber(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ParseNumberOr is ParseNumber with a fallback for blank input.
func ParseNumberOr(s string, fallback decimal.Decimal) decimal.Decimal {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return ParseNumber(s)
}

// NumberFrom coerces a decoded JSON value to a decimal; anything that is
// not a number or numeric string is 0.
func NumberFrom(v any) decimal.Decimal {
	switch n := v.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return n
	case float64:
		return decimal.NewFromFloat(n)
	case float32:
		return decimal.NewFromFloat32(n)
	case int:
		return decimal.NewFromInt(int64(n))
	case int64:
		return decimal.NewFromInt(n)
	case int32:
		return decimal.NewFromInt32(n)
	case json.Number:
		return ParseNumber(n.String())
	case string:
		return ParseNumber(n)
	case bool:
		if n {
			return decimal.NewFromInt(1)
		}
		return decimal.Zero
	default:
		return decimal.Zero
	}
}

// IsNumeric reports whether v is a JSON number.
func IsNumeric(v any) bool {
	switch v.(type) {
	case float64, float32, int, int64, int32, json.Number, decimal.Decimal:
		return true
	default:
		return false
	}
}
