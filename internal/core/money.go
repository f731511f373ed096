// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts from strings
// and rendering decimals as currency.
package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// allocationTolerance is one minor currency unit.
var allocationTolerance = decimal.New(1, -2)

// ParseAmount converts a user-entered decimal string to a positive amount
// rounded to cents.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and rounds
// half away from zero on the third decimal place. Signs, exponents and
// grouping characters are rejected, as are zero and empty values.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34, nil
//	ParseAmount("12,345") -> 12.35, nil
//	ParseAmount("-1")     -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.Count(s, ".") > 1 {
		return decimal.Zero, ErrInvalidAmount
	}
	for _, r := range s {
		if r != '.' && !unicode.IsDigit(r) {
			return decimal.Zero, ErrInvalidAmount
		}
	}
	if s == "." {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	d = Round2(d)
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// Round2 rounds to two decimal places (currency minor units).
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// FormatCurrency renders an amount as dollars with thousands separators,
// e.g. "$1,234.50" or "-$12.00".
func FormatCurrency(d decimal.Decimal) string {
	neg := d.IsNegative()
	s := Round2(d.Abs()).StringFixed(2)
	whole, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := "$" + b.String() + "." + frac
	if neg {
		return "-" + out
	}
	return out
}
