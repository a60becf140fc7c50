package cfg

import (
	"strings"
	"time"
)

type Cfg struct {
	// Storage configuration
	DBPath string

	// Application configuration
	ClientsDir        string
	Port              string
	WorkerCount       int
	SchedulerInterval int
	APIAccessKey      string

	// Collection configuration
	SearchWindowDays   int
	MaxResultsPerQuery int
	CacheTTLMinutes    int
	CollectorRPM       int
	JobTimeoutMinutes  int

	// Triage configuration
	MinRelevance        float64
	NotifyThreshold     float64
	SimilarityThreshold float64
	RecencyWindowDays   int
	ReputableSources    string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}

// ReputableSourceSet parses the comma-separated source list into the
// lower-cased lookup set the relevance scorer expects.
func (c *Cfg) ReputableSourceSet() map[string]bool {
	set := make(map[string]bool)
	for _, source := range strings.Split(c.ReputableSources, ",") {
		source = strings.ToLower(strings.TrimSpace(source))
		if source != "" {
			set[source] = true
		}
	}
	return set
}

func (c *Cfg) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLMinutes) * time.Minute
}

func (c *Cfg) RecencyWindow() time.Duration {
	return time.Duration(c.RecencyWindowDays) * 24 * time.Hour
}

func (c *Cfg) JobTimeout() time.Duration {
	return time.Duration(c.JobTimeoutMinutes) * time.Minute
}
