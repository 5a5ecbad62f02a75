package feed

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"html"
	"mime"
	"net/url"
	"path"
	"time"

	"github.com/lysyi3m/cima-comb/app/cfg"
	"github.com/lysyi3m/cima-comb/app/content"
	"github.com/lysyi3m/cima-comb/app/database"
	"github.com/lysyi3m/cima-comb/app/source"
)

var channelTitles = map[content.Category]string{
	content.CategoryMovie:  "أفلام جديدة",
	content.CategorySeries: "مسلسلات جديدة",
	content.CategoryAnime:  "أنمي جديد",
}

const allTitle = "كل الجديد"

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Run renders items as an RSS 2.0 channel. An empty category means all items.
func (g *Generator) Run(category content.Category, items []database.Item) (string, error) {
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0" xmlns:atom="http://www.w3.org/2005/Atom">`)
	buf.WriteString("\n  <channel>\n")

	title := allTitle
	slug := "all"
	if category != "" {
		title = channelTitles[category]
		slug = category.Slug()
	}

	selfLink := g.baseURL() + "/feeds/" + slug

	g.writeElement(&buf, "title", "Cima Comb: "+title, 4)
	g.writeElement(&buf, "link", g.baseURL(), 4)
	g.writeElement(&buf, "description", fmt.Sprintf("%s من مواقع السينما العربية", title), 4)
	buf.WriteString(fmt.Sprintf("    <atom:link href=\"%s\" rel=\"self\" type=\"application/rss+xml\" />\n",
		html.EscapeString(selfLink)))

	lastBuildDate := time.Now().In(time.Local)
	if len(items) > 0 && !items[0].LastUpdated.IsZero() {
		lastBuildDate = items[0].LastUpdated.In(time.Local)
	}

	g.writeElement(&buf, "lastBuildDate", lastBuildDate.Format(time.RFC1123Z), 4)
	g.writeElement(&buf, "generator", fmt.Sprintf("Cima-Comb/%s", cfg.Get().Version), 4)
	g.writeElement(&buf, "language", "ar", 4)

	for _, item := range items {
		g.writeItem(&buf, item)
	}

	buf.WriteString("  </channel>\n</rss>")

	return buf.String(), nil
}

func (g *Generator) baseURL() string {
	if cfg.Get().BaseUrl != "" {
		return cfg.Get().BaseUrl
	}
	return fmt.Sprintf("http://localhost:%s", cfg.Get().Port)
}

func (g *Generator) writeItem(buf *bytes.Buffer, item database.Item) {
	buf.WriteString("    <item>\n")

	buf.WriteString("      <guid isPermaLink=\"true\">")
	xml.EscapeText(buf, []byte(item.URL))
	buf.WriteString("</guid>\n")

	title := item.Title
	if item.ReleaseYear != nil {
		title = fmt.Sprintf("%s (%d)", title, *item.ReleaseYear)
	}
	g.writeElement(buf, "title", title, 6)
	if g.isURL(item.URL) {
		g.writeElement(buf, "link", item.URL, 6)
	}

	description := item.Description
	if description == "" {
		description = "لا يوجد وصف متاح"
	}
	g.writeElement(buf, "description", description, 6)

	if !item.LastUpdated.IsZero() {
		g.writeElement(buf, "pubDate", item.LastUpdated.In(time.Local).Format(time.RFC1123Z), 6)
	}

	g.writeElement(buf, "source", item.Source, 6)
	g.writeElement(buf, "category", item.Category, 6)
	for _, genre := range content.SplitGenres(item.Genres) {
		g.writeElement(buf, "category", genre, 6)
	}

	if item.ImageURL != "" && item.ImageURL != source.PlaceholderImage {
		buf.WriteString(fmt.Sprintf("      <enclosure url=\"%s\" length=\"0\" type=\"%s\" />\n",
			html.EscapeString(item.ImageURL),
			html.EscapeString(imageType(item.ImageURL))))
	}

	buf.WriteString("    </item>\n")
}

func (g *Generator) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}

	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}

func (g *Generator) isURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// imageType guesses the enclosure type from the file extension.
func imageType(imageURL string) string {
	if u, err := url.Parse(imageURL); err == nil {
		if t := mime.TypeByExtension(path.Ext(u.Path)); t != "" {
			return t
		}
	}
	return "image/jpeg"
}
