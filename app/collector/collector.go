package collector

import (
	"context"
	"time"
)

// RawResult is an unprocessed search hit returned by a collector. Results
// are ephemeral: they live for one collection cycle and are never persisted
// directly.
type RawResult struct {
	Title       string
	Snippet     string
	URL         string
	Source      string
	PublishedAt time.Time
}

// Collector is the external search collaborator. Implementations apply
// their own rate limiting and are safe to retry; callers do not retry a
// failed search within one job run.
type Collector interface {
	Search(ctx context.Context, query string, from time.Time, maxResults int) ([]RawResult, error)
}
