package ioc

import (
	"strings"
)

const iocMarker = "Indicators of Compromise"

// Policy decides which items are scanned and which part of their text.
type Policy interface {
	Mode() Mode
	Eligible(item FeedItem) bool
	Region(text string) string
}

func PolicyFor(mode Mode) (Policy, error) {
	switch mode {
	case ModeClean:
		return cleanPolicy{}, nil
	case ModeMessy:
		return messyPolicy{}, nil
	case ModeAfterIOC:
		return afterIOCPolicy{}, nil
	default:
		return nil, &ConfigError{Field: "feed_type", Value: string(mode), Err: ErrUnknownMode}
	}
}

type cleanPolicy struct{}

func (cleanPolicy) Mode() Mode                  { return ModeClean }
func (cleanPolicy) Eligible(item FeedItem) bool { return true }
func (cleanPolicy) Region(text string) string   { return text }

// messyPolicy trusts only items that link back to a bulletin page.
type messyPolicy struct{}

func (messyPolicy) Mode() Mode                  { return ModeMessy }
func (messyPolicy) Eligible(item FeedItem) bool { return item.Link != "" }
func (messyPolicy) Region(text string) string   { return text }

type afterIOCPolicy struct{}

func (afterIOCPolicy) Mode() Mode                  { return ModeAfterIOC }
func (afterIOCPolicy) Eligible(item FeedItem) bool { return true }

// Region returns the text after the last marker line, or all of it when the
// marker is missing.
func (afterIOCPolicy) Region(text string) string {
	lines := strings.SplitAfter(text, "\n")
	offset := 0
	start := -1
	for _, line := range lines {
		offset += len(line)
		if strings.TrimSpace(line) == iocMarker {
			start = offset
		}
	}
	if start < 0 {
		return text
	}
	return text[start:]
}
