package content

import (
	"slices"
	"strings"
)

const genreSeparator = ", "

// CanonicalGenres trims, deduplicates and sorts genre names and joins them into
// the stored form.
func CanonicalGenres(genres []string) string {
	seen := make(map[string]struct{}, len(genres))
	unique := make([]string, 0, len(genres))
	for _, genre := range genres {
		genre = CollapseSpaces(genre)
		if genre == "" {
			continue
		}
		if _, ok := seen[genre]; ok {
			continue
		}
		seen[genre] = struct{}{}
		unique = append(unique, genre)
	}
	slices.Sort(unique)
	return strings.Join(unique, genreSeparator)
}

// SplitGenres is the inverse of CanonicalGenres.
func SplitGenres(canonical string) []string {
	if canonical == "" {
		return nil
	}
	return strings.Split(canonical, genreSeparator)
}
