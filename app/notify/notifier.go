package notify

import (
	"context"
	"log/slog"

	"github.com/clientpulse/clientpulse/app/intel"
)

// Notifier receives high-relevance events as they are discovered.
type Notifier interface {
	Notify(ctx context.Context, entityName string, event intel.Event) error
}

// LogNotifier emits structured log records for notable events. It is the
// default sink; alternative implementations can deliver to chat or email.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Notify(_ context.Context, entityName string, event intel.Event) error {
	slog.Info("Notable event detected",
		"entity", entityName,
		"title", event.Title,
		"category", string(event.Category),
		"sentiment", string(event.Sentiment),
		"relevance", event.RelevanceScore,
		"url", event.URL)
	return nil
}
