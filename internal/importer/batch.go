package importer

import (
	"strings"

	"github.com/shopspring/decimal"
)

// chunkRows splits rows into batches of at most size elements. The last batch
// may be shorter; an empty input yields no batches.
func chunkRows[T any](rows []T, size int) [][]T {
	if len(rows) == 0 {
		return nil
	}
	batches := make([][]T, 0, (len(rows)+size-1)/size)
	for size < len(rows) {
		batches = append(batches, rows[:size])
		rows = rows[size:]
	}
	return append(batches, rows)
}

// amountKey renders an amount canonically for identity tuples, so 5.000,00
// and 5000 compare equal.
func amountKey(d decimal.Decimal) string {
	return d.String()
}

// identityKey joins tuple parts with an unprintable separator that cannot
// occur in tab-separated input.
func identityKey(parts ...string) string {
	return strings.Join(parts, "\x1f")
}
