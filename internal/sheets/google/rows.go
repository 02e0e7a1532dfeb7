package google

import (
	"fmt"
	"strings"
)

// a1 builds a quoted A1 range so tab names with spaces or quotes work.
func a1(sheet, rng string) string {
	return "'" + strings.ReplaceAll(sheet, "'", "''") + "'!" + rng
}

// rowRange is the A1 span of columns from..to on 1-based row n.
func rowRange(from, to string, n int) string {
	return fmt.Sprintf("%s%d:%s%d", from, n, to, n)
}

// findRow returns the 1-based sheet row whose leading cells satisfy match,
// or 0. Row 1 is the header and never matches.
func findRow(values [][]any, match func([]string) bool) int {
	for i, row := range values {
		if i == 0 {
			continue
		}
		if match(toStrings(row)) {
			return i + 1
		}
	}
	return 0
}

func transactionKey(id string) func([]string) bool {
	return func(cells []string) bool {
		return len(cells) > 0 && cells[0] == id
	}
}

func budgetKey(category, month string) func([]string) bool {
	return func(cells []string) bool {
		return len(cells) > 1 && cells[0] == category && cells[1] == month
	}
}

func transactionCacheKey(id string) string {
	return "tx\x00" + id
}

func budgetCacheKey(category, month string) string {
	return "budget\x00" + category + "\x00" + month
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}
