package source

import (
	"bytes"
	"log/slog"
	"strings"

	"github.com/lysyi3m/cima-comb/app/content"
	"github.com/mmcdole/gofeed"
)

// Extractors is the compile-time table of listing extractors keyed by the ID
// used in the registry.
var Extractors = map[string]Extractor{
	"wecima":     extractWecima,
	"topcinema":  extractTopCinema,
	"cimaclub":   extractCimaClub,
	"tuktukcima": extractTukTukCima,
	"egybest":    extractEgyBest,
	"mycima":     extractMyCima,
	"akoam":      extractAkoam,
	"shahid4u":   extractShahid4u,
	"aflamco":    extractAflamco,
	"cima4u":     extractCima4u,
	"fushaar":    extractFushaar,
	"aflaam":     extractAflaam,
	"egydead":    extractEgyDead,
	"rss":        extractFeed,
}

var defaultImageAttrs = []string{"data-src", "src"}

func extractWecima(p *Page) []Candidate {
	return cardLayout{
		site:       "Wecima",
		item:       "div.GridItem",
		link:       "a",
		titles:     []string{"strong.hasyear", "img"},
		background: "span.BG--GridItem",
		image:      "img",
		imageAttrs: defaultImageAttrs,
	}.extract(p)
}

func extractTopCinema(p *Page) []Candidate {
	return cardLayout{
		site:       "TopCinema",
		item:       "div.col-lg-2.col-md-3.col-sm-4.col-xs-6.col-6.MovieBlock",
		link:       "a",
		titles:     []string{"h2.Title"},
		image:      "img",
		imageAttrs: defaultImageAttrs,
	}.extract(p)
}

func extractCimaClub(p *Page) []Candidate {
	return cardLayout{
		site:       "CimaClub",
		item:       "div.Small--Box",
		link:       "a.recent--block",
		titles:     []string{".inner--title h2", "div.Poster img"},
		titleAttr:  true,
		image:      "div.Poster img",
		imageAttrs: defaultImageAttrs,
	}.extract(p)
}

func extractTukTukCima(p *Page) []Candidate {
	return cardLayout{
		site:       "TukTukCima",
		item:       "div.Blocks ul li.MovieBlock",
		link:       "a",
		titles:     []string{"h2.Title"},
		image:      "img",
		imageAttrs: defaultImageAttrs,
	}.extract(p)
}

func extractEgyBest(p *Page) []Candidate {
	return cardLayout{
		site:       "EgyBest",
		item:       "div.Blocks ul.MovieList div.movie-box",
		link:       "a",
		titles:     []string{"img"},
		image:      "img",
		imageAttrs: defaultImageAttrs,
	}.extract(p)
}

func extractMyCima(p *Page) []Candidate {
	return cardLayout{
		site:       "MyCima",
		item:       "div.GridItem",
		link:       "a",
		titles:     []string{"strong.hasyear", "img"},
		background: "span.BG--GridItem",
		image:      "img",
		imageAttrs: defaultImageAttrs,
	}.extract(p)
}

func extractAkoam(p *Page) []Candidate {
	return cardLayout{
		site:       "Akoam",
		item:       "div.movie-box",
		link:       "a",
		titles:     []string{"h2.Title", "img"},
		image:      "img",
		imageAttrs: defaultImageAttrs,
	}.extract(p)
}

func extractShahid4u(p *Page) []Candidate {
	return cardLayout{
		site:       "Shahid4u",
		item:       "div.GridItem",
		link:       "a.MovieBlock",
		titles:     []string{"h2.MovieTitle"},
		image:      "img",
		imageAttrs: []string{"src"},
	}.extract(p)
}

func extractAflamco(p *Page) []Candidate {
	return cardLayout{
		site:       "Aflamco",
		item:       "div.ModuleItem",
		link:       "a",
		titles:     []string{"h2.ModuleTitle"},
		image:      "img",
		imageAttrs: defaultImageAttrs,
	}.extract(p)
}

func extractCima4u(p *Page) []Candidate {
	return cardLayout{
		site:       "Cima4u",
		item:       "div.MovieBlock",
		link:       "a",
		titles:     []string{"h2.Title"},
		image:      "img",
		imageAttrs: defaultImageAttrs,
	}.extract(p)
}

func extractFushaar(p *Page) []Candidate {
	return cardLayout{
		site:       "Fushaar",
		item:       "div.Blocks .MovieBlock",
		link:       "a",
		titles:     []string{"h2.Title"},
		image:      "img",
		imageAttrs: []string{"data-lazy-src", "src"},
	}.extract(p)
}

func extractAflaam(p *Page) []Candidate {
	return cardLayout{
		site:       "Aflaam",
		item:       "div.movies-list-grid div.item",
		link:       "a.box",
		titles:     []string{"h3.entry-title"},
		image:      "picture img.lazy",
		imageAttrs: defaultImageAttrs,
	}.extract(p)
}

func extractEgyDead(p *Page) []Candidate {
	return cardLayout{
		site:       "EgyDead",
		item:       "div.movie-box, div.GridItem",
		link:       "a",
		titles:     []string{"h2.Title", "strong.hasyear", "img"},
		image:      "img",
		imageAttrs: defaultImageAttrs,
	}.extract(p)
}

// extractFeed reads listing URLs that publish RSS or Atom instead of HTML.
func extractFeed(p *Page) []Candidate {
	if p == nil || len(p.Body) == 0 {
		return nil
	}

	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(p.Body))
	if err != nil {
		slog.Warn("Failed to parse listing feed", "error", err)
		return nil
	}

	candidates := make([]Candidate, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		link := strings.TrimSpace(item.Link)
		if link == "" {
			slog.Debug("Skipping feed item without link", "guid", item.GUID)
			continue
		}

		image := ""
		if item.Image != nil {
			image = item.Image.URL
		}
		if image == "" {
			for _, enclosure := range item.Enclosures {
				if enclosure != nil && strings.HasPrefix(enclosure.Type, "image/") {
					image = enclosure.URL
					break
				}
			}
		}
		if image == "" {
			image = PlaceholderImage
		}

		title := strings.TrimSpace(item.Title)
		if title == "" {
			title = content.UntitledPlaceholder
		}

		candidates = append(candidates, Candidate{
			Title:    title,
			URL:      resolveURL(p.URL, link),
			ImageURL: resolveURL(p.URL, image),
		})
	}
	return candidates
}
