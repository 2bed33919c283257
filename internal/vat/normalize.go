package vat

import "strings"

// Normalize collapses every run of Unicode whitespace, including
// non-breaking spaces and line breaks, into a single ASCII space.
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
