package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lysyi3m/cima-comb/app/content"
)

func TestDefaultRegistry(t *testing.T) {
	registry := DefaultRegistry()

	if registry.Count() != 19 {
		t.Errorf("Expected 19 built-in sources, got %d", registry.Count())
	}

	akoam, ok := registry.Get("Akoam_TV")
	if !ok {
		t.Fatal("Expected Akoam_TV to be registered")
	}
	if akoam.CategoryHint != string(content.CategorySeries) {
		t.Errorf("Expected series hint, got %s", akoam.CategoryHint)
	}
	if len(akoam.GenreSelectors) != len(DefaultGenreSelectors) {
		t.Errorf("Expected default genre selectors, got %v", akoam.GenreSelectors)
	}

	for _, s := range registry.Sources() {
		if s.ExtractFunc() == nil {
			t.Errorf("Source %s has no extractor", s.Name)
		}
		if !s.Enabled {
			t.Errorf("Expected built-in source %s to be enabled", s.Name)
		}
	}
}

func TestRegistryAccessorsReturnCopies(t *testing.T) {
	registry := DefaultRegistry()

	sources := registry.Sources()
	sources[0].Name = "changed"
	sources[0].GenreSelectors[0] = "changed"

	got, ok := registry.Get("Wecima")
	if !ok {
		t.Fatal("Expected Wecima to stay registered")
	}
	got.GenreSelectors[0] = "changed again"

	for _, s := range registry.Enabled() {
		if s.Name == "changed" {
			t.Error("Expected registry names to be unaffected by callers")
		}
		if s.GenreSelectors[0] != DefaultGenreSelectors[0] {
			t.Errorf("Expected genre selectors to be unaffected, got %v", s.GenreSelectors)
		}
	}
	if DefaultGenreSelectors[0] == "changed" || DefaultGenreSelectors[0] == "changed again" {
		t.Error("Expected shared default selectors to be unaffected")
	}
}

func TestLoadRegistryMissingFile(t *testing.T) {
	registry, err := LoadRegistry(filepath.Join(t.TempDir(), "missing.yml"))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if registry.Count() != DefaultRegistry().Count() {
		t.Errorf("Expected built-in registry, got %d sources", registry.Count())
	}
}

func TestLoadRegistryFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yml")
	data := `sources:
  - name: Local
    url: https://local.example/recent/
    extractor: wecima
  - name: Feed
    url: https://feed.example/rss
    extractor: rss
    category_hint: مسلسل
    genre_selectors: ["span.genre a"]
    enabled: false
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("Failed to write sources file: %v", err)
	}

	registry, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if registry.Count() != 2 {
		t.Fatalf("Expected 2 sources, got %d", registry.Count())
	}

	local, _ := registry.Get("Local")
	if local.CategoryHint != content.HintMixed {
		t.Errorf("Expected mixed hint by default, got %s", local.CategoryHint)
	}
	if !local.Enabled {
		t.Error("Expected source to be enabled by default")
	}

	feed, _ := registry.Get("Feed")
	if feed.Enabled {
		t.Error("Expected Feed to be disabled")
	}
	if len(feed.GenreSelectors) != 1 || feed.GenreSelectors[0] != "span.genre a" {
		t.Errorf("Expected custom genre selectors, got %v", feed.GenreSelectors)
	}

	enabled := registry.Enabled()
	if len(enabled) != 1 || enabled[0].Name != "Local" {
		t.Errorf("Expected only Local enabled, got %v", enabled)
	}
}

func TestLoadRegistryValidation(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"unknown extractor", "sources:\n  - name: A\n    url: https://a.example\n    extractor: nope\n"},
		{"missing url", "sources:\n  - name: A\n    extractor: rss\n"},
		{"duplicate name", "sources:\n  - name: A\n    url: https://a.example\n    extractor: rss\n  - name: A\n    url: https://b.example\n    extractor: rss\n"},
		{"empty", "sources: []\n"},
		{"bad yaml", "sources: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "sources.yml")
			if err := os.WriteFile(path, []byte(tt.data), 0644); err != nil {
				t.Fatalf("Failed to write sources file: %v", err)
			}
			if _, err := LoadRegistry(path); err == nil {
				t.Error("Expected error, got nil")
			}
		})
	}
}
