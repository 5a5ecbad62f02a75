package source

import (
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/lysyi3m/cima-comb/app/content"
)

var backgroundURLPattern = regexp.MustCompile(`url\((.*?)\)`)

// cardLayout describes where a site keeps the pieces of a listing card.
type cardLayout struct {
	site       string
	item       string
	link       string
	titles     []string // tried in order; an img match yields its alt text
	titleAttr  bool     // fall back to the link's title attribute
	image      string
	imageAttrs []string
	background string // element whose data-lazy-style/style carries url(...)
}

func (l cardLayout) extract(p *Page) []Candidate {
	if p == nil || p.Doc == nil {
		return nil
	}

	var candidates []Candidate
	p.Doc.Find(l.item).Each(func(_ int, item *goquery.Selection) {
		candidate, ok := l.card(p, item)
		if ok {
			candidates = append(candidates, candidate)
		}
	})
	return candidates
}

func (l cardLayout) card(p *Page, item *goquery.Selection) (Candidate, bool) {
	linkTag := item.Find(l.link).First()
	href, _ := linkTag.Attr("href")
	href = strings.TrimSpace(href)
	if href == "" {
		slog.Debug("Skipping listing item without link", "site", l.site)
		return Candidate{}, false
	}
	link := resolveURL(p.URL, href)

	title := l.title(item)
	if title == "" && l.titleAttr {
		title = strings.TrimSpace(linkTag.AttrOr("title", ""))
	}
	if title == "" || title == "N/A" {
		slog.Debug("Title not found on listing item", "site", l.site, "url", link)
		title = content.UntitledPlaceholder
	}

	image := ""
	if l.background != "" {
		image = backgroundImage(item.Find(l.background).First())
	}
	if image == "" && l.image != "" {
		image = firstAttr(item.Find(l.image).First(), l.imageAttrs...)
	}
	if image == "" {
		slog.Debug("Image not found on listing item", "site", l.site, "url", link)
		image = PlaceholderImage
	} else {
		image = resolveURL(p.URL, image)
	}

	return Candidate{Title: title, URL: link, ImageURL: image}, true
}

func (l cardLayout) title(item *goquery.Selection) string {
	for _, selector := range l.titles {
		tag := item.Find(selector).First()
		if tag.Length() == 0 {
			continue
		}
		var text string
		if goquery.NodeName(tag) == "img" {
			text = tag.AttrOr("alt", "")
		} else {
			text = tag.Text()
		}
		if text = content.CollapseSpaces(text); text != "" {
			return text
		}
	}
	return ""
}

func firstAttr(sel *goquery.Selection, attrs ...string) string {
	if sel.Length() == 0 {
		return ""
	}
	for _, attr := range attrs {
		if value := strings.TrimSpace(sel.AttrOr(attr, "")); value != "" {
			return value
		}
	}
	return ""
}

func backgroundImage(sel *goquery.Selection) string {
	style := firstAttr(sel, "data-lazy-style", "style")
	if style == "" {
		return ""
	}
	match := backgroundURLPattern.FindStringSubmatch(style)
	if match == nil {
		return ""
	}
	return strings.Trim(strings.TrimSpace(match[1]), `'"`)
}

func resolveURL(base *url.URL, ref string) string {
	if base == nil {
		return ref
	}
	parsed, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(parsed).String()
}
