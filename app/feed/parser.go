package feed

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/lysyi3m/ioc-comb/app/ioc"
)

var _ ioc.Parser = (*Parser)(nil)

type Parser struct {
	gofeedParser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
	}
}

// Parse turns RSS, Atom or JSON feed bytes into items in document order.
func (p *Parser) Parse(ctx context.Context, data []byte) ([]ioc.FeedItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	feed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	items := make([]ioc.FeedItem, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		items = append(items, p.normalizeItem(item))
	}

	return items, nil
}

func (p *Parser) normalizeItem(item *gofeed.Item) ioc.FeedItem {
	return ioc.FeedItem{
		GUID:      cmp.Or(item.GUID, item.Link),
		Title:     strings.TrimSpace(item.Title),
		Link:      strings.TrimSpace(item.Link),
		Summary:   item.Description,
		Content:   item.Content,
		Published: strings.TrimSpace(cmp.Or(item.Published, item.Updated)),
	}
}
