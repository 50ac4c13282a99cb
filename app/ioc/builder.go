package ioc

// Builder turns tokens into artifacts and drops repeats within one run.
// A Builder must not be shared between runs.
type Builder struct {
	feedURL   string
	seen      map[string]bool
	artifacts []Artifact
}

func NewBuilder(feedURL string) *Builder {
	return &Builder{
		feedURL: feedURL,
		seen:    make(map[string]bool),
	}
}

// Add records the tokens of one item. The item's link becomes the
// reference link, falling back to the feed URL.
func (b *Builder) Add(item FeedItem, tokens []Token) int {
	link := item.Link
	if link == "" {
		link = b.feedURL
	}

	added := 0
	for _, token := range tokens {
		if b.seen[token.key()] {
			continue
		}
		b.seen[token.key()] = true
		b.artifacts = append(b.artifacts, Artifact{
			Value:         token.Value,
			Kind:          token.Kind,
			ReferenceLink: link,
		})
		added++
	}
	return added
}

func (b *Builder) Artifacts() []Artifact {
	return b.artifacts
}
