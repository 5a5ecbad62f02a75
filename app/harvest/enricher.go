package harvest

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"github.com/lysyi3m/cima-comb/app/content"
	"github.com/lysyi3m/cima-comb/app/source"
)

const maxGenreLength = 50

var descriptionSelectors = []string{
	"div.story",
	"div.Description",
	"div.single-text",
	"div#plot",
	"p.movie-description",
	"div.entry-content p",
	"div.BlockItemFull p",
	"div.post-story p",
	"div.MovieContent__Details__Story",
	"div.MovieInfo__Details__Story",
}

var yearLabels = []string{"سنة الإصدار", "Year"}

// Details holds what a detail page added to a candidate. OK is false when the
// page could not be fetched; every field is then empty.
type Details struct {
	Description string
	ReleaseYear *int
	Genres      string
	OK          bool
	Err         error
}

type Enricher struct {
	client         *Client
	genreSelectors map[string][]string
}

// NewEnricher takes genre selectors per source name; sources without an entry
// use source.DefaultGenreSelectors.
func NewEnricher(client *Client, genreSelectors map[string][]string) *Enricher {
	return &Enricher{client: client, genreSelectors: genreSelectors}
}

// Enrich fetches the candidate's detail page. Fields that cannot be extracted are left empty.
func (e *Enricher) Enrich(ctx context.Context, c source.Candidate, normalizedTitle string) Details {
	page, err := e.client.Fetch(ctx, c.URL, DetailTimeout)
	if err != nil {
		slog.Warn("Detail fetch failed", "source", c.Source, "url", c.URL, "error", err)
		detailFetches.WithLabelValues("error").Inc()
		return Details{Err: err}
	}
	detailFetches.WithLabelValues("success").Inc()

	details := Details{OK: true}
	if raw := findDescription(page); raw != "" {
		details.Description = CleanDescription(raw, normalizedTitle)
	}
	details.ReleaseYear = findYear(page.Doc)
	if details.ReleaseYear == nil {
		details.ReleaseYear = content.YearFromTitle(c.Title)
	}
	details.Genres = content.CanonicalGenres(findGenres(page.Doc, e.selectorsFor(c.Source)))

	return details
}

func (e *Enricher) selectorsFor(sourceName string) []string {
	if selectors, ok := e.genreSelectors[sourceName]; ok && len(selectors) > 0 {
		return selectors
	}
	return source.DefaultGenreSelectors
}

func findDescription(page *source.Page) string {
	meta := strings.TrimSpace(page.Doc.Find(`meta[name="description"]`).First().AttrOr("content", ""))
	if utf8.RuneCountInString(meta) >= minMetaDescription && !strings.Contains(meta, boilerplateMetaMatch) {
		return meta
	}

	for _, selector := range descriptionSelectors {
		tag := page.Doc.Find(selector).First()
		if tag.Length() == 0 {
			continue
		}
		text := selectionText(tag)
		if withinSelectorBounds(text) {
			return text
		}
	}

	return readableText(page, meta)
}

// readableText is the last resort for pages whose story block matches none of
// the known selectors. The article excerpt is never used since it is built
// from the same meta description that was already rejected above.
func readableText(page *source.Page, rejectedMeta string) string {
	article, err := readability.FromReader(bytes.NewReader(page.Body), page.URL)
	if err != nil {
		slog.Debug("Readability extraction failed", "url", page.URL.String(), "error", err)
		return ""
	}

	text := content.CollapseSpaces(article.TextContent)
	if meta := content.CollapseSpaces(rejectedMeta); meta != "" && strings.HasPrefix(text, meta) {
		return ""
	}
	if withinSelectorBounds(text) {
		return text
	}
	return ""
}

func withinSelectorBounds(text string) bool {
	n := utf8.RuneCountInString(text)
	return n >= minSelectorText && n <= maxSelectorText
}

// selectionText joins the text nodes of sel with single spaces.
func selectionText(sel *goquery.Selection) string {
	var parts []string
	sel.Contents().Each(func(_ int, node *goquery.Selection) {
		if goquery.NodeName(node) == "#text" {
			parts = append(parts, node.Text())
		} else {
			parts = append(parts, selectionText(node))
		}
	})
	return content.CollapseSpaces(strings.Join(parts, " "))
}

func findYear(doc *goquery.Document) *int {
	if tag := doc.Find("span.year").First(); tag.Length() > 0 {
		if year, ok := content.YearFromText(tag.Text()); ok {
			return &year
		}
	}

	var found *int
	doc.Find("div.MovieInfo__Details__item").EachWithBreak(func(_ int, item *goquery.Selection) bool {
		text := item.Text()
		if !containsLabel(text) {
			return true
		}
		if year, ok := content.YearFromText(text); ok {
			found = &year
			return false
		}
		return true
	})
	return found
}

func containsLabel(text string) bool {
	for _, label := range yearLabels {
		if strings.Contains(text, label) {
			return true
		}
	}
	return false
}

func findGenres(doc *goquery.Document, selectors []string) []string {
	for _, selector := range selectors {
		var genres []string
		doc.Find(selector).Each(func(_ int, tag *goquery.Selection) {
			text := content.CollapseSpaces(tag.Text())
			if text != "" && utf8.RuneCountInString(text) < maxGenreLength {
				genres = append(genres, text)
			}
		})
		if len(genres) > 0 {
			return genres
		}
	}
	return nil
}
