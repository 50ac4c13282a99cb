package ioc

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Selector splits a fetched feed into new and already-seen items.
type Selector struct{}

func NewSelector() *Selector {
	return &Selector{}
}

// Run returns the items published strictly after cursor and the cursor for
// the next run. Items come newest first, so the next cursor is always the
// first item's timestamp whether or not that item was selected.
func (s *Selector) Run(items []FeedItem, cursor string) ([]FeedItem, string) {
	if len(items) == 0 {
		return nil, cursor
	}
	next := items[0].Published

	if cursor == "" {
		return items, next
	}

	since, err := parseTimestamp(cursor)
	if err != nil {
		slog.Warn("Unparseable cursor, selecting all items", "cursor", cursor, "error", err)
		return items, next
	}

	selected := make([]FeedItem, 0, len(items))
	for _, item := range items {
		published, err := parseTimestamp(item.Published)
		if err != nil {
			// Fail open.
			slog.Warn("Unparseable item timestamp, treating as new",
				"guid", item.GUID,
				"published", item.Published,
				"error", err)
			selected = append(selected, item)
			continue
		}
		if published.After(since) {
			selected = append(selected, item)
		}
	}

	return selected, next
}

func parseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	return dateparse.ParseAny(value)
}
