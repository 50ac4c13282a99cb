package feed

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/lysyi3m/ioc-comb/app/ioc"
)

type Filterer struct{}

func NewFilterer() *Filterer {
	return &Filterer{}
}

// Run drops artifacts rejected by the source's filters and keeps the order
// of the rest.
func (f *Filterer) Run(artifacts []ioc.Artifact, sourceConfig *Config) []ioc.Artifact {
	if len(sourceConfig.Filters) == 0 {
		return artifacts
	}

	kept := make([]ioc.Artifact, 0, len(artifacts))
	for _, artifact := range artifacts {
		if isFiltered, reason := f.applyFilters(artifact, sourceConfig.Filters); isFiltered {
			slog.Debug("Artifact filtered", "source", sourceConfig.Name, "value", artifact.Value, "reason", reason)
			continue
		}
		kept = append(kept, artifact)
	}

	return kept
}

func (f *Filterer) applyFilters(artifact ioc.Artifact, filters []ConfigFilter) (bool, string) {
	for _, filter := range filters {
		if filter.Kind != "" && filter.Kind != string(artifact.Kind) {
			continue
		}

		for _, exclude := range filter.Excludes {
			if f.matchesFilter(artifact.Value, exclude) {
				return true, fmt.Sprintf("Excluded by %s filter: contains '%s'", f.label(filter), exclude)
			}
		}

		if len(filter.Includes) > 0 {
			matched := false
			for _, include := range filter.Includes {
				if f.matchesFilter(artifact.Value, include) {
					matched = true
					break
				}
			}
			if !matched {
				return true, fmt.Sprintf("Excluded by %s filter: does not contain any of %v", f.label(filter), filter.Includes)
			}
		}
	}

	return false, ""
}

func (f *Filterer) matchesFilter(value, pattern string) bool {
	return strings.Contains(strings.ToLower(value), strings.ToLower(pattern))
}

func (f *Filterer) label(filter ConfigFilter) string {
	if filter.Kind == "" {
		return "artifact"
	}
	return filter.Kind
}
