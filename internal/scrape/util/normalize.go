package util

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// CleanText collapses whitespace and composes accents (NFC), so "Sênior"
// typed or rendered either way compares equal.
func CleanText(s string) string {
	s = norm.NFC.String(s)
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(s)
}

func NormalizeLocation(loc string) string {
	loc = CleanText(loc)
	if loc == "" {
		return ""
	}

	loc = strings.TrimPrefix(loc, "Location:")
	loc = strings.TrimPrefix(loc, "Localização:")
	loc = strings.TrimSpace(loc)

	parts := strings.Split(loc, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = CleanText(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ", ")
}
