package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage configuration
	DBPath string `long:"db-path" env:"DB_PATH" default:"./clientpulse.db" description:"SQLite database path"`

	// Application configuration
	ClientsDir        string `long:"clients-dir" env:"CLIENTS_DIR" default:"./clients" description:"Directory containing client configuration files"`
	Port              string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	WorkerCount       int    `long:"worker-count" env:"WORKER_COUNT" default:"5" description:"Number of background workers for job processing"`
	SchedulerInterval int    `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"30" description:"Scheduler poll interval in seconds"`
	APIAccessKey      string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// Collection configuration
	SearchWindowDays   int `long:"search-window-days" env:"SEARCH_WINDOW_DAYS" default:"7" description:"How far back collector searches reach"`
	MaxResultsPerQuery int `long:"max-results" env:"MAX_RESULTS_PER_QUERY" default:"20" description:"Maximum raw results kept per search query"`
	CacheTTLMinutes    int `long:"cache-ttl" env:"CACHE_TTL_MINUTES" default:"60" description:"Search cache TTL in minutes"`
	CollectorRPM       int `long:"collector-rpm" env:"COLLECTOR_RPM" default:"30" description:"Collector request budget per minute"`
	JobTimeoutMinutes  int `long:"job-timeout" env:"JOB_TIMEOUT_MINUTES" default:"5" description:"Per-job execution timeout in minutes"`

	// Triage configuration
	MinRelevance        float64 `long:"min-relevance" env:"MIN_RELEVANCE" default:"0.3" description:"Minimum relevance score for an event to be kept"`
	NotifyThreshold     float64 `long:"notify-threshold" env:"NOTIFY_THRESHOLD" default:"0.7" description:"Relevance score above which saved events are announced"`
	SimilarityThreshold float64 `long:"similarity-threshold" env:"SIMILARITY_THRESHOLD" default:"0.85" description:"Title similarity ratio treated as a duplicate"`
	RecencyWindowDays   int     `long:"recency-window-days" env:"RECENCY_WINDOW_DAYS" default:"7" description:"Event age in days that still earns the freshness bonus"`
	ReputableSources    string  `long:"reputable-sources" env:"REPUTABLE_SOURCES" default:"techcrunch,reuters,bloomberg,forbes,wall street journal,financial times,the verge,wired" description:"Comma-separated sources that earn the reputation bonus"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"ClientPulse/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:              raw.DBPath,
		ClientsDir:          raw.ClientsDir,
		Port:                raw.Port,
		WorkerCount:         raw.WorkerCount,
		SchedulerInterval:   raw.SchedulerInterval,
		APIAccessKey:        raw.APIAccessKey,
		SearchWindowDays:    raw.SearchWindowDays,
		MaxResultsPerQuery:  raw.MaxResultsPerQuery,
		CacheTTLMinutes:     raw.CacheTTLMinutes,
		CollectorRPM:        raw.CollectorRPM,
		JobTimeoutMinutes:   raw.JobTimeoutMinutes,
		MinRelevance:        raw.MinRelevance,
		NotifyThreshold:     raw.NotifyThreshold,
		SimilarityThreshold: raw.SimilarityThreshold,
		RecencyWindowDays:   raw.RecencyWindowDays,
		ReputableSources:    raw.ReputableSources,
		UserAgent:           raw.UserAgent,
		Timezone:            raw.Timezone,
		Debug:               raw.Debug,
		Version:             GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
