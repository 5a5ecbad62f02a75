package content

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		url      string
		hint     string
		expected Category
	}{
		{"hint wins over series keyword", "مسلسل الحياة", "https://example.com/series/x", "فيلم", CategoryMovie},
		{"mixed falls back to series title", "مسلسل الحياة", "https://example.com/watch/1", HintMixed, CategorySeries},
		{"empty hint uses heuristic", "انمي ناروتو", "https://example.com/watch/2", "", CategoryAnime},
		{"series url keyword", "Dark", "https://example.com/Series/dark", HintMixed, CategorySeries},
		{"tv url keyword", "Show", "https://example.com/tv/show", HintMixed, CategorySeries},
		{"anime url keyword", "Naruto", "https://example.com/anime/naruto", HintMixed, CategoryAnime},
		{"series dominates anime", "مسلسل انمي", "https://example.com/anime/x", HintMixed, CategorySeries},
		{"default movie", "البحر", "https://example.com/watch/3", HintMixed, CategoryMovie},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Classify(tt.title, tt.url, tt.hint)
			if result != tt.expected {
				t.Errorf("Expected '%s', got '%s'", tt.expected, result)
			}
		})
	}
}

func TestClassify_HintReturnedVerbatim(t *testing.T) {
	if result := Classify("x", "y", "وثائقي"); result != Category("وثائقي") {
		t.Errorf("Expected hint to be returned verbatim, got '%s'", result)
	}
}

func TestParseCategory(t *testing.T) {
	tests := map[string]Category{
		"movie":  CategoryMovie,
		"Series": CategorySeries,
		"anime":  CategoryAnime,
		"فيلم":   CategoryMovie,
		"مسلسل":  CategorySeries,
		"أنمي":   CategoryAnime,
	}

	for input, expected := range tests {
		result, ok := ParseCategory(input)
		if !ok || result != expected {
			t.Errorf("ParseCategory(%q): expected '%s', got '%s' (ok=%t)", input, expected, result, ok)
		}
	}

	if _, ok := ParseCategory("documentary"); ok {
		t.Error("Expected unknown category to be rejected")
	}
}

func TestCategorySlug(t *testing.T) {
	if CategorySeries.Slug() != "series" {
		t.Errorf("Expected 'series', got '%s'", CategorySeries.Slug())
	}
	if CategoryMovie.Slug() != "movie" {
		t.Errorf("Expected 'movie', got '%s'", CategoryMovie.Slug())
	}
}
