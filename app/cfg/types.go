package cfg

type Cfg struct {
	// Storage
	DBPath     string
	SourcesDir string

	// HTTP API and scheduling
	Port              string
	BaseUrl           string
	WorkerCount       int
	SchedulerInterval int
	APIAccessKey      string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
