package format

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Price formats an amount in minor units as a dollar-prefixed value with two decimals.
// Example: Price(1999) => "$19.99"
func Price(minor int64) string {
	if minor < 0 {
		return "-$" + Decimal(-minor)
	}
	return "$" + Decimal(minor)
}

// Decimal formats an amount in minor units with two decimals and no currency sign.
// Example: Decimal(1475) => "14.75"
func Decimal(minor int64) string {
	if minor < 0 {
		return "-" + Decimal(-minor)
	}
	return fmt.Sprintf("%d.%02d", minor/100, minor%100)
}

// Truncate shortens s to at most max runes, cutting at a word boundary when one is close
// and appending an ellipsis.
func Truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	cut := string(runes[:max])
	if i := strings.LastIndexByte(cut, ' '); i > len(cut)/2 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + "…"
}
