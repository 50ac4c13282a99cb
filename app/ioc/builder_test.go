package ioc

import (
	"testing"
)

func TestBuilder_Add_DeduplicatesAcrossItems(t *testing.T) {
	b := NewBuilder(testFeedURL)

	first := FeedItem{Link: "https://bulletins.test/1"}
	second := FeedItem{}

	added := b.Add(first, []Token{
		{Kind: KindURL, Value: "http://evil.test/a"},
		{Kind: KindDomain, Value: "evil.test"},
	})
	if added != 2 {
		t.Errorf("Expected 2 artifacts added, got %d", added)
	}

	added = b.Add(second, []Token{
		{Kind: KindURL, Value: "http://evil.test/b"},
		{Kind: KindDomain, Value: "evil.test"},
	})
	if added != 1 {
		t.Errorf("Expected only the new URL to be added, got %d", added)
	}

	artifacts := b.Artifacts()
	if len(artifacts) != 3 {
		t.Fatalf("Expected 3 artifacts, got %d", len(artifacts))
	}
	if artifacts[1].ReferenceLink != "https://bulletins.test/1" {
		t.Errorf("Expected first-seen reference link to win, got '%s'", artifacts[1].ReferenceLink)
	}
	if artifacts[2].ReferenceLink != testFeedURL {
		t.Errorf("Expected feed URL fallback, got '%s'", artifacts[2].ReferenceLink)
	}
}

func TestBuilder_Add_KindIsPartOfKey(t *testing.T) {
	b := NewBuilder(testFeedURL)
	b.Add(FeedItem{}, []Token{
		{Kind: KindURL, Value: "same"},
		{Kind: KindDomain, Value: "same"},
	})
	if len(b.Artifacts()) != 2 {
		t.Errorf("Expected tokens of different kinds to both be kept, got %d", len(b.Artifacts()))
	}
}

func TestArtifact_String(t *testing.T) {
	a := Artifact{Value: "example.com", Kind: KindDomain, ReferenceLink: testFeedURL}
	if a.String() != "example.com" {
		t.Errorf("Expected raw value, got '%s'", a.String())
	}
}

func TestParseMode(t *testing.T) {
	for input, expected := range map[string]Mode{
		"messy":     ModeMessy,
		"Clean":     ModeClean,
		" afterioc": ModeAfterIOC,
	} {
		got, err := ParseMode(input)
		if err != nil {
			t.Errorf("Unexpected error for %q: %v", input, err)
		}
		if got != expected {
			t.Errorf("Expected %s for %q, got %s", expected, input, got)
		}
	}

	if _, err := ParseMode(""); err == nil {
		t.Error("Expected error for empty mode")
	}
}
