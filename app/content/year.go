package content

import (
	"regexp"
	"strconv"
	"unicode/utf8"
)

// yearPattern accepts a year glued to letters, as in "Movie2023HD", but not
// one embedded in a longer number.
var yearPattern = regexp.MustCompile(`(?:^|\D)((?:19|20)\d{2})(?:\D|$)`)

// YearFromText returns the first plausible four-digit release year in s.
func YearFromText(s string) (int, bool) {
	match := yearPattern.FindStringSubmatch(s)
	if match == nil {
		return 0, false
	}
	year, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, false
	}
	return year, true
}

// YearFromTitle is YearFromText returning nil when no year is present.
func YearFromTitle(rawTitle string) *int {
	if year, ok := YearFromText(rawTitle); ok {
		return &year
	}
	return nil
}

// Truncate shortens s to at most limit runes, ending the result with "..." when cut.
func Truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}
