package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/lms-service/internal/events"
	"github.com/SAP-F-2025/lms-service/internal/metrics"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// normalizePage clamps 1-based page/size and returns the matching offset
func normalizePage(page, size int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return page, size, (page - 1) * size
}

// eventEmitter publishes domain events without failing the calling operation
type eventEmitter struct {
	publisher events.EventPublisher
	logger    *slog.Logger
}

func (e eventEmitter) emit(ctx context.Context, event *events.Event) {
	if e.publisher == nil {
		return
	}
	if err := e.publisher.Publish(ctx, event); err != nil {
		metrics.EventPublishFailures.WithLabelValues(string(event.Type)).Inc()
		e.logger.WarnContext(ctx, "Failed to publish event",
			"event_type", event.Type,
			"event_id", event.ID,
			"error", err)
	}
}

// isEnrolled reports whether userID has an enrollment in courseID
func isEnrolled(ctx context.Context, repo repositories.Repository, userID, courseID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	_, err := repo.Enrollment().Get(ctx, userID, courseID)
	if err == nil {
		return true, nil
	}
	if repositories.IsNotFoundError(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to get enrollment: %w", err)
}
