package core

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// DecimalFromCents returns the major-unit decimal value of cents, exactly.
func DecimalFromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// CentsFromDecimal converts a major-unit decimal into cents. Digits past the
// second fractional place are truncated toward zero, matching ParseBRLToCents.
func CentsFromDecimal(d decimal.Decimal) int64 {
	return d.Shift(2).Truncate(0).IntPart()
}

// CentsFromJSONNumber converts a major-unit JSON number such as 12.5 into
// cents without passing through float64. Decode with UseNumber to keep the
// original digits.
func CentsFromJSONNumber(n json.Number) (int64, error) {
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, n.String())
	}
	return CentsFromDecimal(d), nil
}
