// Package util provides common helpers shared by the host bridge and the effect modules.
package util

import "strings"

// TrimQuotes removes leading and trailing double quotes from a string.
func TrimQuotes(s string) string {
	return strings.Trim(s, `"`)
}

// FixEscapeQuotes replaces escaped double quotes ("") with single double quotes (").
func FixEscapeQuotes(s string) string {
	return strings.ReplaceAll(s, `""`, `"`)
}

// SplitList splits a bracketed host list "[a,b,[c,d]]" into its top-level elements.
// Nested brackets are kept intact, surrounding whitespace is trimmed and
// quotes are stripped from each element. "[]" yields an empty slice.
// ok is false when s is not bracketed or brackets are unbalanced.
func SplitList(s string) (items []string, ok bool) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '[' || s[len(s)-1] != ']' {
		return nil, false
	}
	inner := s[1 : len(s)-1]
	if strings.TrimSpace(inner) == "" {
		return []string{}, true
	}

	depth := 0
	start := 0
	for i := 0; i < len(inner); i++ {
		switch inner[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth < 0 {
				return nil, false
			}
		case ',':
			if depth == 0 {
				items = append(items, cleanItem(inner[start:i]))
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, false
	}
	items = append(items, cleanItem(inner[start:]))
	return items, true
}

func cleanItem(s string) string {
	return FixEscapeQuotes(TrimQuotes(strings.TrimSpace(s)))
}
