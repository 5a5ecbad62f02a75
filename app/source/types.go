package source

import (
	"bytes"
	"fmt"
	"net/url"

	"github.com/PuerkitoBio/goquery"
)

// PlaceholderImage is used for candidates whose listing card has no usable image.
const PlaceholderImage = "https://placehold.co/200x300/cccccc/333333?text=No+Image"

// Candidate is a raw record taken from a listing page, before enrichment.
type Candidate struct {
	Title        string // raw, not normalized
	URL          string
	ImageURL     string
	Source       string
	CategoryHint string
}

// Page is a fetched listing page. Doc is parsed once by the fetcher and shared
// by the extractor; Body keeps the raw bytes for extractors that are not HTML based.
type Page struct {
	URL  *url.URL
	Body []byte
	Doc  *goquery.Document
}

// NewPage parses body as HTML. A body that is not HTML still yields a usable
// document, so feed extractors can rely on Body alone.
func NewPage(rawURL string, body []byte) (*Page, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page URL: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	return &Page{URL: parsedURL, Body: body, Doc: doc}, nil
}

// Extractor maps a listing page to candidates. Implementations skip malformed
// items instead of failing the page and must not keep state between calls.
type Extractor func(p *Page) []Candidate

type Source struct {
	Name           string
	URL            string
	Extractor      string
	CategoryHint   string
	GenreSelectors []string
	Enabled        bool
}
