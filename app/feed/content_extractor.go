package feed

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-shiori/go-readability"

	"github.com/lysyi3m/ioc-comb/app/ioc"
)

type ContentExtractor struct{}

func NewContentExtractor() *ContentExtractor {
	return &ContentExtractor{}
}

func (e *ContentExtractor) Run(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("HTML data is empty")
	}

	article, err := readability.FromReader(bytes.NewReader(data), nil)
	if err != nil {
		return "", fmt.Errorf("failed to extract content: %w", err)
	}

	if article.Content == "" {
		return "", fmt.Errorf("no content extracted from HTML data")
	}

	slog.Debug("Content extracted successfully",
		"title", article.Title,
		"content_length", len(article.Content))

	return article.Content, nil
}

var _ ioc.Parser = (*EnrichingParser)(nil)

// EnrichingParser fills in the body of linked items that arrive with
// neither content nor summary by extracting the article behind the link.
// Extraction failures leave the item untouched.
type EnrichingParser struct {
	parser    ioc.Parser
	fetcher   *Fetcher
	extractor *ContentExtractor
}

func NewEnrichingParser(parser ioc.Parser, fetcher *Fetcher, extractor *ContentExtractor) *EnrichingParser {
	return &EnrichingParser{
		parser:    parser,
		fetcher:   fetcher,
		extractor: extractor,
	}
}

func (p *EnrichingParser) Parse(ctx context.Context, data []byte) ([]ioc.FeedItem, error) {
	items, err := p.parser.Parse(ctx, data)
	if err != nil {
		return nil, err
	}

	for i := range items {
		if items[i].Link == "" || items[i].Text() != "" {
			continue
		}

		content, err := p.extractArticle(ctx, items[i].Link)
		if err != nil {
			slog.Warn("Failed to extract content for item", "guid", items[i].GUID, "url", items[i].Link, "error", err)
			continue
		}
		items[i].Content = content
	}

	return items, nil
}

func (p *EnrichingParser) extractArticle(ctx context.Context, link string) (string, error) {
	data, contentType, err := p.fetcher.get(ctx, link)
	if err != nil {
		return "", fmt.Errorf("failed to fetch article content: %w", err)
	}

	if !strings.Contains(strings.ToLower(contentType), "text/html") {
		return "", fmt.Errorf("content type is not HTML: %s", contentType)
	}

	return p.extractor.Run(data)
}
