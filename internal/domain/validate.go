package domain

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var (
	minRating = decimal.NewFromInt(1)
	maxRating = decimal.NewFromInt(10)
	maxPrice  = decimal.RequireFromString("99999.99")
)

// CheckRating validates a 1.0–10.0 rating with at most one decimal place
func CheckRating(verr *ValidationError, field string, rating decimal.Decimal) {
	if rating.LessThan(minRating) || rating.GreaterThan(maxRating) {
		verr.Add(field, "rating must be between 1.0 and 10.0")
		return
	}
	if !rating.Equal(rating.Round(1)) {
		verr.Add(field, "rating accepts one decimal place")
	}
}

// CheckPrice validates an optional non-negative price with at most two decimal places
func CheckPrice(verr *ValidationError, field string, price *decimal.Decimal) {
	if price == nil {
		return
	}
	if price.IsNegative() {
		verr.Add(field, "price cannot be negative")
		return
	}
	if price.GreaterThan(maxPrice) {
		verr.Add(field, "price is too large")
		return
	}
	if !price.Equal(price.Round(2)) {
		verr.Add(field, "price accepts two decimal places")
	}
}

// NormalizeName trims value and rejects blank or over-long names
func NormalizeName(verr *ValidationError, field, value string, maxLen int) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		verr.Add(field, "this field may not be blank")
		return ""
	}
	if maxLen > 0 && len([]rune(trimmed)) > maxLen {
		verr.Add(field, "this field is too long")
	}
	return trimmed
}

// NameKey is the comparison form of a name: trimmed, Unicode case-folded and NFC-composed.
// Unique indexes and name lookups use it so "Éclair" and "éclair" collide on every driver.
func NameKey(name string) string {
	return norm.NFC.String(cases.Fold().String(strings.TrimSpace(name)))
}
