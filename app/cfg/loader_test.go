package cfg

import (
	"testing"
	"time"
)

func TestGetVersion(t *testing.T) {
	if GetVersion() == "" {
		t.Error("GetVersion should never return empty string")
	}
}

func TestReputableSourceSet(t *testing.T) {
	cfg := &Cfg{ReputableSources: "TechCrunch, Reuters , ,bloomberg"}

	set := cfg.ReputableSourceSet()
	if len(set) != 3 {
		t.Errorf("Expected 3 sources, got %d: %v", len(set), set)
	}
	for _, source := range []string{"techcrunch", "reuters", "bloomberg"} {
		if !set[source] {
			t.Errorf("Expected %q in reputable source set", source)
		}
	}
	if set[""] {
		t.Error("Empty entries should be dropped")
	}
}

func TestDurationHelpers(t *testing.T) {
	cfg := &Cfg{
		CacheTTLMinutes:   60,
		RecencyWindowDays: 7,
		JobTimeoutMinutes: 5,
	}

	if cfg.CacheTTL() != time.Hour {
		t.Errorf("Expected cache TTL 1h, got %v", cfg.CacheTTL())
	}
	if cfg.RecencyWindow() != 7*24*time.Hour {
		t.Errorf("Expected recency window 168h, got %v", cfg.RecencyWindow())
	}
	if cfg.JobTimeout() != 5*time.Minute {
		t.Errorf("Expected job timeout 5m, got %v", cfg.JobTimeout())
	}
}
