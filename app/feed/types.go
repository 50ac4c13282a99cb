package feed

// Source configuration types, one YAML file per source.

type Config struct {
	Name     string         // Derived from filename (without .yml extension)
	URL      string         `yaml:"url"`
	FeedType string         `yaml:"feed_type"` // messy, clean or afterioc
	Settings ConfigSettings `yaml:"settings"`
	Filters  []ConfigFilter `yaml:"filters"`
}

type ConfigSettings struct {
	Enabled         bool `yaml:"enabled"`
	RefreshInterval int  `yaml:"refresh_interval"` // seconds
	Timeout         int  `yaml:"timeout"`          // seconds
	ExtractContent  bool `yaml:"extract_content"`  // fetch linked pages for items without text
}

// ConfigFilter narrows the artifacts kept for a source. Kind limits the
// filter to url or domain artifacts; empty applies to both.
type ConfigFilter struct {
	Kind     string   `yaml:"kind"`
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}
