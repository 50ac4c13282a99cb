package feed

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/lysyi3m/ioc-comb/app/database"
)

// Generator republishes stored artifacts of a source as an RSS 2.0 feed.
type Generator struct {
	baseURL string
	version string
}

func NewGenerator(baseURL, version string) *Generator {
	return &Generator{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		version: version,
	}
}

func (g *Generator) Run(source database.Source, artifacts []database.Artifact) (string, error) {
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0" xmlns:atom="http://www.w3.org/2005/Atom">`)
	buf.WriteString("\n  <channel>\n")

	g.writeElement(&buf, "title", fmt.Sprintf("Indicators from %s", source.Name), 4)
	g.writeElement(&buf, "link", source.FeedURL, 4)
	g.writeElement(&buf, "description", fmt.Sprintf("URL and domain indicators collected from %s (%s mode)", source.FeedURL, source.FeedType), 4)

	if g.baseURL != "" {
		selfLink := fmt.Sprintf("%s/sources/%s/feed", g.baseURL, source.Name)
		buf.WriteString(fmt.Sprintf("    <atom:link href=\"%s\" rel=\"self\" type=\"application/rss+xml\" />\n",
			html.EscapeString(selfLink)))
	}

	lastBuildDate := time.Now().UTC()
	if source.LastCollectedAt != nil {
		lastBuildDate = *source.LastCollectedAt
	}
	if len(artifacts) > 0 && !artifacts[0].CreatedAt.IsZero() {
		lastBuildDate = artifacts[0].CreatedAt
	}

	g.writeElement(&buf, "lastBuildDate", lastBuildDate.Format(time.RFC1123Z), 4)
	g.writeElement(&buf, "generator", fmt.Sprintf("IOC-Comb/%s", g.version), 4)

	for _, artifact := range artifacts {
		g.writeItem(&buf, artifact)
	}

	buf.WriteString("  </channel>\n</rss>")

	return buf.String(), nil
}

func (g *Generator) writeItem(buf *bytes.Buffer, artifact database.Artifact) {
	buf.WriteString("    <item>\n")

	if artifact.ID != "" {
		buf.WriteString("      <guid isPermaLink=\"false\">")
		xml.EscapeText(buf, []byte(artifact.ID))
		buf.WriteString("</guid>\n")
	}

	g.writeElement(buf, "title", fmt.Sprintf("%s: %s", artifact.Kind, artifact.Value), 6)
	g.writeElement(buf, "link", artifact.ReferenceLink, 6)
	g.writeElement(buf, "description", artifact.Value, 6)

	if !artifact.CreatedAt.IsZero() {
		g.writeElement(buf, "pubDate", artifact.CreatedAt.Format(time.RFC1123Z), 6)
	}

	g.writeElement(buf, "category", artifact.Kind, 6)

	buf.WriteString("    </item>\n")
}

func (g *Generator) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	buf.WriteString(strings.Repeat(" ", indent))
	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}
