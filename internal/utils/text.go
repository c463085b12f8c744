package utils

import (
	"strings"
	"unicode/utf8"
)

// CleanText drops invalid UTF-8 and NUL bytes, which PostgreSQL text columns reject, and
// trims surrounding whitespace. The bool reports whether anything other than trimming
// changed.
func CleanText(input string) (string, bool) {
	needsCleaning := strings.Contains(input, "\x00") || !utf8.ValidString(input)

	cleaned := input
	if needsCleaning {
		cleaned = strings.ToValidUTF8(cleaned, "")
		cleaned = strings.ReplaceAll(cleaned, "\x00", "")
	}

	return strings.TrimSpace(cleaned), needsCleaning
}

// CleanOptionalText applies CleanText to an optional field; blank results become nil.
func CleanOptionalText(input *string) *string {
	if input == nil {
		return nil
	}

	cleaned, _ := CleanText(*input)
	if cleaned == "" {
		return nil
	}
	return &cleaned
}
