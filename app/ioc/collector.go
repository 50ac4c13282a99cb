package ioc

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
)

type Option func(*Collector)

// WithName labels the collector in log output. Defaults to the feed URL.
func WithName(name string) Option {
	return func(c *Collector) {
		c.name = name
	}
}

// Collector extracts URL and domain indicators from one syndication feed.
// It holds no state between runs; the cursor is passed in and returned by
// value, so one Collector may serve concurrent runs.
type Collector struct {
	name         string
	feedURL      string
	fetcher      Fetcher
	parser       Parser
	selector     *Selector
	deobfuscator *Deobfuscator
	extractor    *Extractor
}

func NewCollector(feedURL string, mode string, fetcher Fetcher, parser Parser, opts ...Option) (*Collector, error) {
	if feedURL == "" {
		return nil, &ConfigError{Field: "url", Value: feedURL, Err: fmt.Errorf("feed URL is required")}
	}
	if fetcher == nil || parser == nil {
		return nil, fmt.Errorf("fetcher and parser are required")
	}

	m, err := ParseMode(mode)
	if err != nil {
		return nil, err
	}
	policy, err := PolicyFor(m)
	if err != nil {
		return nil, err
	}

	c := &Collector{
		feedURL:      feedURL,
		fetcher:      fetcher,
		parser:       parser,
		selector:     NewSelector(),
		deobfuscator: NewDeobfuscator(),
		extractor:    NewExtractor(policy),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.name = cmp.Or(c.name, feedURL)

	return c, nil
}

func (c *Collector) FeedURL() string {
	return c.feedURL
}

func (c *Collector) Mode() Mode {
	return c.extractor.Mode()
}

// Run fetches the feed and returns the next cursor together with the
// artifacts found in items newer than cursor. An empty cursor selects every
// item. Fetch and parse failures abort the run and are returned as
// *FetchError and *ParseError.
func (c *Collector) Run(ctx context.Context, cursor string) (string, []Artifact, error) {
	data, err := c.fetcher.Fetch(ctx, c.feedURL)
	if err != nil {
		return "", nil, &FetchError{URL: c.feedURL, Err: err}
	}

	items, err := c.parser.Parse(ctx, data)
	if err != nil {
		return "", nil, &ParseError{URL: c.feedURL, Err: err}
	}

	selected, next := c.selector.Run(items, cursor)

	builder := NewBuilder(c.feedURL)
	skipped := 0
	for _, item := range selected {
		tokens := c.extractor.Run(item, c.deobfuscator.Run(item.Text()))
		if tokens == nil {
			skipped++
			continue
		}
		builder.Add(item, tokens)
	}

	artifacts := builder.Artifacts()
	slog.Debug("Collector run finished",
		"source", c.name,
		"mode", string(c.Mode()),
		"items", len(items),
		"selected", len(selected),
		"without_tokens", skipped,
		"artifacts", len(artifacts),
		"cursor", next)

	return next, artifacts, nil
}
