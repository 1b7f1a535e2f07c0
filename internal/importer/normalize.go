package importer

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// codePrefix marks ledger rows in every export variant.
const codePrefix = "LCP-"

// ParseAmount converts an SAP-style amount ("110.000,00") to a decimal.
// Dots are thousands separators and the comma is the decimal mark. Empty or
// malformed input yields zero; callers treat a zero amount as "no financial
// effect" and skip the row.
func ParseAmount(raw string) decimal.Decimal {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero
	}
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// RootCode truncates an LCP code to its first two hyphen-separated segments:
// "LCP-130109-02-EX" becomes "LCP-130109". Input with fewer than two segments
// is returned unchanged; such degenerate codes never resolve to a project and
// fall out at reconciliation.
func RootCode(code string) string {
	parts := strings.Split(strings.TrimSpace(code), "-")
	if len(parts) < 2 {
		return strings.TrimSpace(code)
	}
	return parts[0] + "-" + parts[1]
}

// IsExpense reports whether the code carries the expense marker "-EX",
// anywhere in the code.
func IsExpense(code string) bool {
	return strings.Contains(strings.ToUpper(code), "-EX")
}

// ParseDate parses "DD.MM.YYYY" or "DD-MM-YYYY". The boolean is false for
// empty input or anything that does not resolve to a valid calendar date;
// callers drop the date, they do not fail the row.
func ParseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	s = strings.ReplaceAll(s, ".", "-")
	t, err := time.Parse("02-01-2006", s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
