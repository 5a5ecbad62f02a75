package content

import "strings"

type Category string

const (
	CategoryMovie  Category = "فيلم"
	CategorySeries Category = "مسلسل"
	CategoryAnime  Category = "أنمي"

	// HintMixed marks sources that publish several categories on one listing.
	HintMixed = "mixed"
)

var (
	seriesTitleKeywords = []string{"مسلسل"}
	seriesURLKeywords   = []string{"series", "مسلسلات", "/tv"}
	animeTitleKeywords  = []string{"انمي", "أنمي"}
	animeURLKeywords    = []string{"anime"}
)

// Classify returns the source-asserted hint when there is one, otherwise it
// guesses from keywords. Series keywords are checked before anime keywords, so
// a title that mentions both is a series. This is a best-effort heuristic.
func Classify(title, url, hint string) Category {
	if hint != "" && hint != HintMixed {
		return Category(hint)
	}

	titleLower := strings.ToLower(title)
	urlLower := strings.ToLower(url)

	if containsAny(titleLower, seriesTitleKeywords) || containsAny(urlLower, seriesURLKeywords) {
		return CategorySeries
	}
	if containsAny(titleLower, animeTitleKeywords) || containsAny(urlLower, animeURLKeywords) {
		return CategoryAnime
	}
	return CategoryMovie
}

// ParseCategory accepts either the stored Arabic label or an English alias.
func ParseCategory(s string) (Category, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "movie", "movies", string(CategoryMovie):
		return CategoryMovie, true
	case "series", "tv", string(CategorySeries):
		return CategorySeries, true
	case "anime", string(CategoryAnime), "انمي":
		return CategoryAnime, true
	}
	return "", false
}

// Slug is the English alias used in URLs.
func (c Category) Slug() string {
	switch c {
	case CategoryMovie:
		return "movie"
	case CategorySeries:
		return "series"
	case CategoryAnime:
		return "anime"
	}
	return string(c)
}

func containsAny(s string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(s, keyword) {
			return true
		}
	}
	return false
}
