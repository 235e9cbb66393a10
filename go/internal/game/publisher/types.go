package publisher

import (
	"context"

	"github.com/mcdev12/binaryquiz/go/internal/game/events"
)

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// LogPublisher only logs events. It is used when no NATS server is configured.
type LogPublisher struct{}

func (LogPublisher) Publish(ctx context.Context, event events.Event) error {
	logEvent(event).Msg("game event")
	return nil
}
