package core

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestSanitizeInputMoney(t *testing.T) {
	cases := []struct {
		in  string
		out string
	}{
		{"", ""},
		{"abc", ""},
		{"0", "0"},
		{"000", "0"},
		{"007", "7"},
		{"12", "12"},
		{"12,", "12,"},
		{",", "0,"},
		{",5", "0,5"},
		{"0012,345", "12,34"},
		{"1.234,5", "1234,5"},
		{"1.234.567,891", "1234567,89"},
		{"12.50", "12,50"},
		{"R$ 12,3", "12,3"},
		{"1,2,3", "1,2"},
		{"00,07", "0,07"},
	}
	for _, tc := range cases {
		if got := SanitizeInputMoney(tc.in); got != tc.out {
			t.Fatalf("SanitizeInputMoney(%q) = %q, want %q", tc.in, got, tc.out)
		}
	}
}

func TestSanitizeInputMoneyIdempotent(t *testing.T) {
	inputs := []string{
		"", ",", ",,", "0", "0,0", "12,", "1.", ".5", "000123,4567", "1.234.567,8",
		"R$ -9,99", "abc12def,3", "12.345.678", "0.0.0", "9,99999", "  42 ",
	}
	for _, in := range inputs {
		once := SanitizeInputMoney(in)
		twice := SanitizeInputMoney(once)
		if once != twice {
			t.Fatalf("not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestSanitizedOutputParses(t *testing.T) {
	inputs := []string{"12,34", "0012,3", "1.234,56", "7", "0,01", "12,", "99.999,999"}
	for _, in := range inputs {
		s := SanitizeInputMoney(in)
		cents := ParseBRLToCents(s)
		if cents == 0 {
			t.Fatalf("sanitized %q (from %q) parsed to 0", s, in)
		}
	}
	for _, zero := range []string{"", "0", "0,", "0,00", "000"} {
		if got := ParseBRLToCents(SanitizeInputMoney(zero)); got != 0 {
			t.Fatalf("%q expected 0, got %d", zero, got)
		}
	}
}

func TestParseBRLToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
	}{
		{"", 0},
		{",", 0},
		{"abc", 0},
		{"0", 0},
		{"1", 100},
		{"1,5", 150},
		{"1,50", 150},
		{"1,999", 199}, // truncated, not rounded
		{",5", 50},
		{"12.345,67", 1234567},
		{"R$ 12.345,67", 1234567},
		{"R$ -1,50", -150},
		{"-R$ 1,50", -150},
		{"12.5", 1250},
		{"99999999999999999999", 0}, // overflow
	}
	for _, tc := range cases {
		if got := ParseBRLToCents(tc.in); got != tc.out {
			t.Fatalf("ParseBRLToCents(%q) = %d, want %d", tc.in, got, tc.out)
		}
	}
}

func TestFormatCentsToBRL(t *testing.T) {
	cases := []struct {
		in  int64
		out string
	}{
		{0, "R$ 0,00"},
		{5, "R$ 0,05"},
		{100, "R$ 1,00"},
		{-150, "R$ -1,50"},
		{99999, "R$ 999,99"},
		{100000, "R$ 1.000,00"},
		{1234567, "R$ 12.345,67"},
		{-123456789, "R$ -1.234.567,89"},
		{math.MaxInt64, "R$ 92.233.720.368.547.758,07"},
		{math.MinInt64, "R$ -92.233.720.368.547.758,08"},
	}
	for _, tc := range cases {
		if got := FormatCentsToBRL(tc.in); got != tc.out {
			t.Fatalf("FormatCentsToBRL(%d) = %q, want %q", tc.in, got, tc.out)
		}
	}
}

func TestFormatCentsToBRLFloat(t *testing.T) {
	cases := []struct {
		in  float64
		out string
	}{
		{math.NaN(), "R$ 0,00"},
		{math.Inf(1), "R$ 0,00"},
		{math.Inf(-1), "R$ 0,00"},
		{150.9, "R$ 1,50"},
		{-150.9, "R$ -1,50"},
	}
	for _, tc := range cases {
		if got := FormatCentsToBRLFloat(tc.in); got != tc.out {
			t.Fatalf("FormatCentsToBRLFloat(%v) = %q, want %q", tc.in, got, tc.out)
		}
	}
}

func TestFormatParseRoundTrip(t *testing.T) {
	values := []int64{
		0, 1, -1, 10, 99, 100, 101, -150, 1000, 123456, 1234567, -1234567,
		100000000, 999999999999, -999999999999, math.MaxInt64, math.MinInt64,
		math.MaxInt64 - 1, math.MinInt64 + 1,
	}
	for c := int64(-2500); c <= 2500; c += 7 {
		values = append(values, c)
	}
	for _, c := range values {
		formatted := FormatCentsToBRL(c)
		if got := ParseBRLToCents(formatted); got != c {
			t.Fatalf("round trip %d -> %q -> %d", c, formatted, got)
		}
		stripped := strings.TrimPrefix(formatted, CurrencyPrefix)
		if got := ParseBRLToCents(stripped); got != c {
			t.Fatalf("round trip without prefix %d -> %q -> %d", c, stripped, got)
		}
	}
}

func TestMoneyString(t *testing.T) {
	if got := (Money{Cents: 250}).String(); got != "R$ 2,50" {
		t.Fatalf("unexpected %q", got)
	}
}

func TestDecimalBoundary(t *testing.T) {
	if got := DecimalFromCents(1234567); !got.Equal(decimal.RequireFromString("12345.67")) {
		t.Fatalf("DecimalFromCents = %s", got)
	}
	if got := DecimalFromCents(-5); !got.Equal(decimal.RequireFromString("-0.05")) {
		t.Fatalf("DecimalFromCents(-5) = %s", got)
	}

	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"12.5", 1250, true},
		{"0.1", 10, true},
		{"0.29", 29, true},
		{"1.239", 123, true}, // truncated
		{"-1.239", -123, true},
		{"100", 10000, true},
		{"1e2", 10000, true},
		{"abc", 0, false},
	}
	for _, tc := range cases {
		got, err := CentsFromJSONNumber(json.Number(tc.in))
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}
