package feed

import (
	"strings"
	"testing"

	"github.com/lysyi3m/ioc-comb/app/ioc"
)

func sampleArtifacts() []ioc.Artifact {
	return []ioc.Artifact{
		{Value: "http://evil.example/payload.exe", Kind: ioc.KindURL, ReferenceLink: "https://blog.example.com/1"},
		{Value: "evil.example", Kind: ioc.KindDomain, ReferenceLink: "https://blog.example.com/1"},
		{Value: "https://github.com/vendor/advisory", Kind: ioc.KindURL, ReferenceLink: "https://blog.example.com/1"},
		{Value: "github.com", Kind: ioc.KindDomain, ReferenceLink: "https://blog.example.com/1"},
	}
}

func values(artifacts []ioc.Artifact) []string {
	result := make([]string, 0, len(artifacts))
	for _, artifact := range artifacts {
		result = append(result, artifact.Value)
	}
	return result
}

func TestFilterer_Run_NoFilters(t *testing.T) {
	filterer := NewFilterer()

	result := filterer.Run(sampleArtifacts(), &Config{Name: "test"})

	if len(result) != 4 {
		t.Errorf("Expected 4 artifacts, got %d", len(result))
	}
}

func TestFilterer_Run_ExcludeAnyKind(t *testing.T) {
	filterer := NewFilterer()

	sourceConfig := &Config{
		Name: "test",
		Filters: []ConfigFilter{
			{Excludes: []string{"GITHUB.COM"}},
		},
	}

	result := filterer.Run(sampleArtifacts(), sourceConfig)

	expected := "http://evil.example/payload.exe,evil.example"
	if got := strings.Join(values(result), ","); got != expected {
		t.Errorf("Expected %s, got %s", expected, got)
	}
}

func TestFilterer_Run_KindScopedInclude(t *testing.T) {
	filterer := NewFilterer()

	sourceConfig := &Config{
		Name: "test",
		Filters: []ConfigFilter{
			{Kind: "url", Includes: []string{".exe"}},
		},
	}

	result := filterer.Run(sampleArtifacts(), sourceConfig)

	// Domain artifacts are outside the filter's kind and pass through.
	expected := "http://evil.example/payload.exe,evil.example,github.com"
	if got := strings.Join(values(result), ","); got != expected {
		t.Errorf("Expected %s, got %s", expected, got)
	}
}

func TestFilterer_Run_MultipleFilters(t *testing.T) {
	filterer := NewFilterer()

	sourceConfig := &Config{
		Name: "test",
		Filters: []ConfigFilter{
			{Kind: "domain", Excludes: []string{"github.com"}},
			{Kind: "url", Excludes: []string{"github.com"}},
		},
	}

	result := filterer.Run(sampleArtifacts(), sourceConfig)

	if len(result) != 2 {
		t.Fatalf("Expected 2 artifacts, got %d", len(result))
	}
	if result[0].Kind != ioc.KindURL || result[1].Kind != ioc.KindDomain {
		t.Errorf("Expected original order to be kept, got %v", values(result))
	}
}

func TestFilterer_ApplyFilters_Reason(t *testing.T) {
	filterer := NewFilterer()

	artifact := ioc.Artifact{Value: "evil.example", Kind: ioc.KindDomain}

	isFiltered, reason := filterer.applyFilters(artifact, []ConfigFilter{
		{Kind: "domain", Includes: []string{"malware"}},
	})
	if !isFiltered {
		t.Fatal("Expected artifact to be filtered")
	}
	if !strings.Contains(reason, "does not contain any of") {
		t.Errorf("Expected include reason, got '%s'", reason)
	}

	isFiltered, reason = filterer.applyFilters(artifact, []ConfigFilter{
		{Excludes: []string{"evil"}},
	})
	if !isFiltered {
		t.Fatal("Expected artifact to be filtered")
	}
	if !strings.Contains(reason, "Excluded by artifact filter: contains 'evil'") {
		t.Errorf("Expected exclude reason, got '%s'", reason)
	}
}
