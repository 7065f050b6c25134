package events

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// EventHandler processes one decoded event
type EventHandler func(ctx context.Context, event *Event) error

// AuditSubscriber routes every published topic to a handler. The default
// handler writes one structured log line per event.
type AuditSubscriber struct {
	router *message.Router
	logger *slog.Logger
}

func NewAuditSubscriber(subscriber message.Subscriber, logger *slog.Logger, handler EventHandler) (*AuditSubscriber, error) {
	router, err := message.NewRouter(message.RouterConfig{}, watermill.NewSlogLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create event router: %w", err)
	}

	if handler == nil {
		handler = LogEventHandler(logger)
	}

	for _, eventType := range AllEventTypes {
		topic := string(eventType)
		router.AddNoPublisherHandler("audit."+topic, topic, subscriber, func(msg *message.Message) error {
			event, err := DecodeEvent(msg)
			if err != nil {
				// Poison message, drop it
				logger.Error("Dropping undecodable event", "error", err, "topic", topic)
				return nil
			}
			return handler(msg.Context(), event)
		})
	}

	return &AuditSubscriber{router: router, logger: logger}, nil
}

// Run blocks until ctx is cancelled or Close is called
func (s *AuditSubscriber) Run(ctx context.Context) error {
	return s.router.Run(ctx)
}

// Running is closed once handlers are subscribed
func (s *AuditSubscriber) Running() chan struct{} {
	return s.router.Running()
}

func (s *AuditSubscriber) Close() error {
	return s.router.Close()
}

func LogEventHandler(logger *slog.Logger) EventHandler {
	return func(ctx context.Context, event *Event) error {
		logger.InfoContext(ctx, "Audit event",
			"event_id", event.ID,
			"event_type", event.Type,
			"timestamp", event.Timestamp,
			"data", event.Data)
		return nil
	}
}
