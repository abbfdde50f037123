// Package core holds the ledger domain: records, the numeric and date
// normalization rules for the spreadsheet feed, and the pure aggregation
// and filtering functions the dashboard views are derived from.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// The feed mixes three numeric encodings, depending on which client edited
// the sheet: dot-thousands with comma-decimal ("1.234,56"), comma-thousands
// with dot-decimal ("1,234.56"), and a bare separator that is only a decimal
// mark when it sits within two digits of the end ("4,51"). ParseAmount
// resolves them with a fixed decision table:
//
//   - both separators present: the one appearing last is the decimal mark,
//     the other is stripped as a grouping character
//   - a single separator repeated, or followed by exactly three digits with
//     a non-zero integer part: grouping, stripped
//   - otherwise: decimal mark
//
// Formula-error sentinels (#NAME?, #REF!, ...) and empty tokens report
// ok=false so callers can take their fallback path instead of reading a
// silent zero.
func ParseAmount(raw string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(raw)
	if s == "" || strings.HasPrefix(s, "#") {
		return decimal.Zero, false
	}
	s = strings.ReplaceAll(s, " ", "")

	neg := strings.HasPrefix(s, "-")
	if neg || strings.HasPrefix(s, "+") {
		s = s[1:]
	}
	if s == "" {
		return decimal.Zero, false
	}

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")

	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if isGrouping(s, ",") {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	case lastDot >= 0:
		if isGrouping(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
		}
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	if neg {
		d = d.Neg()
	}
	return d, true
}

// isGrouping reports whether the sole separator kind in s is a thousands
// grouping character rather than a decimal mark.
func isGrouping(s, sep string) bool {
	if strings.Count(s, sep) > 1 {
		return true
	}
	i := strings.Index(s, sep)
	// "0.511" and ".511" read as decimals; "4.511" as four thousand
	// five hundred eleven.
	if i == 0 || s[:i] == "0" {
		return false
	}
	return len(s)-i-1 == 3
}

// RoundGold materializes an exact decimal amount as whole gold, half-up.
// Rounding happens here, at ingestion, and nowhere in the aggregation path.
func RoundGold(d decimal.Decimal) int64 {
	return d.Round(0).IntPart()
}

// ParseGold parses a raw token straight to whole gold.
func ParseGold(raw string) (int64, bool) {
	d, ok := ParseAmount(raw)
	if !ok {
		return 0, false
	}
	return RoundGold(d), true
}
