// Package core provides money parsing and handling utilities.
//
// Amounts are decimal.Decimal values in currency units. Stored facts carry
// at most two fractional digits; derived values may carry more until they are
// rounded for presentation.
package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// Tolerance is the largest difference between a split's sum and its parent
// amount that still counts as balanced.
var Tolerance = decimal.RequireFromString("0.1")

// ParseAmount converts a user-entered decimal string to an amount rounded to
// cents.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and rounds
// half-up on the third decimal place. Only positive amounts are accepted.
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
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Zero, ErrInvalidAmount
	}
	if strings.Count(s, ".") > 1 {
		return decimal.Zero, ErrInvalidAmount
	}
	for _, r := range s {
		if r != '.' && !unicode.IsDigit(r) {
			return decimal.Zero, ErrInvalidAmount
		}
	}
	if strings.HasPrefix(s, ".") {
		s = "0" + s
	}
	if strings.HasSuffix(s, ".") {
		s += "0"
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	v = v.Round(2)
	if !v.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return v, nil
}

// Cents converts an amount to integer cents, rounding half away from zero.
func Cents(v decimal.Decimal) int64 {
	return v.Round(2).Shift(2).IntPart()
}

// SumSplit adds up the amounts of a split.
func SumSplit(entries []SplitEntry) decimal.Decimal {
	sum := decimal.Zero
	for _, e := range entries {
		sum = sum.Add(e.Amount)
	}
	return sum
}
