// Package core provides money parsing and handling utilities.
//
// This file contains the BRL money codec: sanitizing amounts while they are
// typed, parsing display strings into exact cents and formatting cents back
// into display strings. All arithmetic stays on int64 cents.
package core

import (
	"math"
	"strconv"
	"strings"
)

// Literal tokens of the BRL display format.
const (
	CurrencyPrefix     = "R$ "
	DecimalSeparator   = ","
	ThousandsSeparator = "."
)

// moneyParts splits a free-text amount into its integer and fractional digit
// strings. Anything other than digits, commas and dots is discarded.
//
// When a comma is present it is the decimal separator and dots in the integer
// part are thousands separators. Without a comma the last dot is taken as the
// decimal separator, so "12.50" typed on an english keyboard still works.
// hasSep reports whether a decimal separator was found at all.
func moneyParts(value string) (intPart, fracPart string, hasSep bool) {
	var b strings.Builder
	for _, r := range value {
		if (r >= '0' && r <= '9') || r == ',' || r == '.' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		return "", "", false
	}

	if i := strings.Index(cleaned, DecimalSeparator); i >= 0 {
		intPart = cleaned[:i]
		fracPart = cleaned[i+1:]
		// Only the segment up to a second comma counts as the fraction.
		if j := strings.Index(fracPart, DecimalSeparator); j >= 0 {
			fracPart = fracPart[:j]
		}
		return digitsOnly(intPart), digitsOnly(fracPart), true
	}

	if i := strings.LastIndex(cleaned, ThousandsSeparator); i >= 0 {
		return digitsOnly(cleaned[:i]), cleaned[i+1:], true
	}

	return cleaned, "", false
}

func digitsOnly(s string) string {
	if !strings.ContainsAny(s, ".,") {
		return s
	}
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SanitizeInputMoney normalizes a partially typed amount so the field never
// holds an unparsable or over-precise value. It is meant to run on every
// keystroke and is idempotent.
//
// Examples:
//
//	SanitizeInputMoney("0012,345") -> "12,34"
//	SanitizeInputMoney("1.234,5")  -> "1234,5"
//	SanitizeInputMoney("000")      -> "0"
//	SanitizeInputMoney(",5")       -> "0,5"
//	SanitizeInputMoney("abc")      -> ""
func SanitizeInputMoney(raw string) string {
	intPart, fracPart, hasSep := moneyParts(raw)

	hadDigits := intPart != ""
	intPart = strings.TrimLeft(intPart, "0")
	if intPart == "" && (hasSep || hadDigits) {
		intPart = "0"
	}
	if len(fracPart) > 2 {
		fracPart = fracPart[:2]
	}

	if !hasSep {
		return intPart
	}
	return intPart + DecimalSeparator + fracPart
}

// ParseBRLToCents converts a display amount into cents. It is total: empty,
// malformed or out of range input yields 0. The fraction is padded to two
// digits and anything past the second digit is truncated, never rounded.
// A minus sign before the first digit makes the result negative, so the
// output of FormatCentsToBRL parses back to the same value.
//
// Examples:
//
//	ParseBRLToCents("R$ 12.345,67") -> 1234567
//	ParseBRLToCents("1,5")          -> 150
//	ParseBRLToCents("1,999")        -> 199
//	ParseBRLToCents("R$ -1,50")     -> -150
//	ParseBRLToCents(",")            -> 0
func ParseBRLToCents(raw string) int64 {
	intPart, fracPart, _ := moneyParts(raw)
	if intPart == "" {
		intPart = "0"
	}
	for len(fracPart) < 2 {
		fracPart += "0"
	}
	fracPart = fracPart[:2]

	u, err := strconv.ParseUint(intPart+fracPart, 10, 64)
	if err != nil {
		return 0
	}

	if !isNegative(raw) {
		if u > math.MaxInt64 {
			return 0
		}
		return int64(u)
	}
	switch {
	case u == 1<<63:
		return math.MinInt64
	case u > math.MaxInt64:
		return 0
	default:
		return -int64(u)
	}
}

// isNegative reports whether a minus sign appears before the first digit.
func isNegative(raw string) bool {
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			return false
		}
		if r == '-' {
			return true
		}
	}
	return false
}

// FormatCentsToBRL renders cents as "R$ 12.345,67". Negative values keep the
// sign right after the currency prefix: -150 renders as "R$ -1,50".
func FormatCentsToBRL(cents int64) string {
	sign := ""
	abs := uint64(cents)
	if cents < 0 {
		sign = "-"
		abs = uint64(-(cents + 1)) + 1
	}

	whole := strconv.FormatUint(abs/100, 10)
	rem := abs % 100

	var b strings.Builder
	b.WriteString(CurrencyPrefix)
	b.WriteString(sign)
	b.WriteString(groupThousands(whole))
	b.WriteString(DecimalSeparator)
	if rem < 10 {
		b.WriteByte('0')
	}
	b.WriteString(strconv.FormatUint(rem, 10))
	return b.String()
}

// FormatCentsToBRLFloat formats a cents value that arrived as a float, e.g.
// from a loosely typed payload. Non-finite input formats as zero and the
// fractional part of the cents value is truncated.
func FormatCentsToBRLFloat(cents float64) string {
	if math.IsNaN(cents) || math.IsInf(cents, 0) {
		return FormatCentsToBRL(0)
	}
	t := math.Trunc(cents)
	switch {
	case t >= math.MaxInt64:
		return FormatCentsToBRL(math.MaxInt64)
	case t <= math.MinInt64:
		return FormatCentsToBRL(math.MinInt64)
	}
	return FormatCentsToBRL(int64(t))
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteString(ThousandsSeparator)
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
