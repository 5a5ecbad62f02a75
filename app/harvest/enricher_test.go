package harvest

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/lysyi3m/cima-comb/app/source"
)

func newDetailServer(t *testing.T, pages map[string]string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestEnrich(t *testing.T) {
	metaText := strings.TrimSpace(strings.Repeat("قصة طويلة ", 15))
	storyText := strings.TrimSpace(strings.Repeat("رجل يحلم بالسفر ", 5))
	shortMeta := "رجل يسافر عبر الصحراء بحثا عن اخيه المفقود منذ سنوات طويلة"
	article := strings.Repeat("<p>The harbor town woke slowly, fishermen mending nets, children running to school, and the old lighthouse keeper counting boats as they left.</p>", 8)

	server := newDetailServer(t, map[string]string{
		"/meta": `<html><head><meta name="description" content="` + metaText + `"></head>
			<body><span class="year">2019</span>
			<a href="/genre/drama">دراما</a><a href="/genre/action">اكشن</a><a href="/genre/action">اكشن</a></body></html>`,
		"/boilerplate": `<html><head><meta name="description" content="مشاهدة وتحميل ` + metaText + `"></head>
			<body><div class="story">` + storyText + `</div>
			<div class="MovieInfo__Details__item">سنة الإصدار : 2015</div></body></html>`,
		"/readable":              `<html><head><title>harbor</title></head><body><nav>menu</nav><article><h1>harbor</h1>` + article + `</article></body></html>`,
		"/meta-only-boilerplate": `<html><head><meta name="description" content="مشاهدة وتحميل ` + shortMeta + `"></head><body><div>x</div></body></html>`,
		"/meta-only-short":       `<html><head><meta name="description" content="` + shortMeta + `"></head><body><div>x</div></body></html>`,
		"/custom":                `<html><body><span class="genre"><a>كوميديا</a></span><a href="/genre/x">ignored</a></body></html>`,
	})

	enricher := NewEnricher(newTestClient(), map[string][]string{"Custom": {"span.genre a"}})
	ctx := context.Background()

	t.Run("meta description, year and genres", func(t *testing.T) {
		got := enricher.Enrich(ctx, source.Candidate{URL: server.URL + "/meta", Source: "S"}, "")
		if !got.OK {
			t.Fatalf("Expected OK, got error %v", got.Err)
		}
		if got.Description != metaText {
			t.Errorf("Expected meta description, got %q", got.Description)
		}
		if got.ReleaseYear == nil || *got.ReleaseYear != 2019 {
			t.Errorf("Expected year 2019, got %v", got.ReleaseYear)
		}
		if got.Genres != "اكشن, دراما" {
			t.Errorf("Expected sorted unique genres, got %q", got.Genres)
		}
	})

	t.Run("boilerplate meta falls back to story selector", func(t *testing.T) {
		got := enricher.Enrich(ctx, source.Candidate{URL: server.URL + "/boilerplate", Source: "S"}, "")
		if got.Description != storyText {
			t.Errorf("Expected story text, got %q", got.Description)
		}
		if got.ReleaseYear == nil || *got.ReleaseYear != 2015 {
			t.Errorf("Expected labeled year 2015, got %v", got.ReleaseYear)
		}
		if got.Genres != "" {
			t.Errorf("Expected no genres, got %q", got.Genres)
		}
	})

	t.Run("readability fallback", func(t *testing.T) {
		got := enricher.Enrich(ctx, source.Candidate{URL: server.URL + "/readable", Title: "harbor 1999", Source: "S"}, "")
		if got.Description == "" {
			t.Fatal("Expected description from article text")
		}
		if n := utf8.RuneCountInString(got.Description); n > MaxDescriptionLength {
			t.Errorf("Expected at most %d runes, got %d", MaxDescriptionLength, n)
		}
		if got.ReleaseYear == nil || *got.ReleaseYear != 1999 {
			t.Errorf("Expected year from raw title, got %v", got.ReleaseYear)
		}
	})

	t.Run("rejected meta description is not reused", func(t *testing.T) {
		for _, path := range []string{"/meta-only-boilerplate", "/meta-only-short"} {
			got := enricher.Enrich(ctx, source.Candidate{URL: server.URL + path, Source: "S"}, "")
			if !got.OK {
				t.Fatalf("Expected OK for %s, got error %v", path, got.Err)
			}
			if got.Description != "" {
				t.Errorf("Expected empty description for %s, got %q", path, got.Description)
			}
		}
	})

	t.Run("per-source genre selectors", func(t *testing.T) {
		got := enricher.Enrich(ctx, source.Candidate{URL: server.URL + "/custom", Source: "Custom"}, "")
		if got.Genres != "كوميديا" {
			t.Errorf("Expected custom selector genres, got %q", got.Genres)
		}
	})

	t.Run("fetch failure", func(t *testing.T) {
		got := enricher.Enrich(ctx, source.Candidate{URL: server.URL + "/missing", Title: "فيلم 2001", Source: "S"}, "")
		if got.OK || got.Err == nil {
			t.Fatalf("Expected failed enrichment, got %+v", got)
		}
		if got.Description != "" || got.ReleaseYear != nil || got.Genres != "" {
			t.Errorf("Expected empty fields on failure, got %+v", got)
		}
	})
}

func TestFetchDecodesCharset(t *testing.T) {
	// "مرحبا" in windows-1256
	body := []byte{0xE3, 0xD1, 0xCD, 0xC8, 0xC7}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=windows-1256")
		w.Write([]byte("<html><body><p>"))
		w.Write(body)
		w.Write([]byte("</p></body></html>"))
	}))
	defer server.Close()

	page, err := newTestClient().Fetch(context.Background(), server.URL, DetailTimeout)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got := page.Doc.Find("p").Text(); got != "مرحبا" {
		t.Errorf("Expected decoded text, got %q", got)
	}
}

func TestProbe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("Expected HEAD request, got %s", r.Method)
		}
		if r.Header.Get("User-Agent") != "test-agent" {
			t.Errorf("Expected user agent header, got %q", r.Header.Get("User-Agent"))
		}
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := newTestClient()
	result := client.Probe(context.Background(), server.URL)
	if !result.Reachable || result.StatusCode != http.StatusForbidden {
		t.Errorf("Expected reachable 403, got %+v", result)
	}

	down := client.Probe(context.Background(), "http://127.0.0.1:1/")
	if down.Reachable || down.Error == "" {
		t.Errorf("Expected unreachable result with error, got %+v", down)
	}
}
