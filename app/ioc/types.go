package ioc

import (
	"context"
	"fmt"
	"strings"
)

type Kind string

const (
	KindURL    Kind = "url"
	KindDomain Kind = "domain"
)

type Mode string

const (
	ModeMessy    Mode = "messy"
	ModeClean    Mode = "clean"
	ModeAfterIOC Mode = "afterioc"
)

// ParseMode maps a feed_type tag to a Mode. Tags are case-insensitive.
func ParseMode(value string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(value))) {
	case ModeMessy:
		return ModeMessy, nil
	case ModeClean:
		return ModeClean, nil
	case ModeAfterIOC:
		return ModeAfterIOC, nil
	default:
		return "", &ConfigError{Field: "feed_type", Value: value, Err: ErrUnknownMode}
	}
}

// FeedItem is one entry produced by a Parser. Empty strings mean the
// optional field was absent from the feed.
type FeedItem struct {
	Title     string
	Link      string
	Summary   string
	Content   string
	Published string // feed-native timestamp, e.g. RFC 1123 for RSS
	GUID      string
}

// Text returns the item body used for extraction: full content wins over
// the summary.
func (i FeedItem) Text() string {
	if i.Content != "" {
		return i.Content
	}
	return i.Summary
}

type Artifact struct {
	Value         string
	Kind          Kind
	ReferenceLink string
}

func (a Artifact) String() string {
	return a.Value
}

type Token struct {
	Kind  Kind
	Value string
}

func (t Token) key() string {
	return fmt.Sprintf("%s|%s", t.Kind, t.Value)
}

// Fetcher retrieves raw feed bytes. Retries and timeouts belong to the
// implementation.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

type Parser interface {
	Parse(ctx context.Context, data []byte) ([]FeedItem, error)
}

type FetcherFunc func(ctx context.Context, url string) ([]byte, error)

func (f FetcherFunc) Fetch(ctx context.Context, url string) ([]byte, error) {
	return f(ctx, url)
}

type ParserFunc func(ctx context.Context, data []byte) ([]FeedItem, error)

func (f ParserFunc) Parse(ctx context.Context, data []byte) ([]FeedItem, error) {
	return f(ctx, data)
}
