// Package channel provides the message-ingestion contract and its
// transport implementations.
package channel

import (
	"context"
	"fmt"

	"github.com/rcliao/sidekick/internal/config"
	"github.com/rcliao/sidekick/internal/model"
)

// Channel is a single chat transport.
type Channel interface {
	// Name identifies the transport for diagnostics and reply routing.
	Name() string

	// Send delivers one outbound message to destination. There is no
	// built-in retry; callers that need reliability retry above.
	Send(ctx context.Context, message, destination string) error

	// Listen polls the transport and emits deduplicated, chronologically
	// ordered messages into out. It returns nil when ctx is canceled
	// and an error only for non-retryable setup problems; transient
	// fetch and parse failures are logged and retried forever.
	Listen(ctx context.Context, out chan<- model.ChannelMessage) error

	// HealthCheck reports transport liveness, collapsing any failure
	// to false.
	HealthCheck(ctx context.Context) bool
}

// New builds the channel named by kind. Unlike the memory factory there
// is no safe fallback transport, so unknown kinds are an error.
func New(kind string, cfg *config.Config) (Channel, error) {
	switch kind {
	case "slack":
		return NewSlackChannel(cfg.Channels.Slack.BotToken, cfg.Channels.Slack.ChannelID), nil
	default:
		return nil, fmt.Errorf("unknown channel %q", kind)
	}
}
