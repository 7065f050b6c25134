package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// SafeInvalidatePattern invalidates a pattern, logging instead of failing
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete deletes keys, logging instead of failing
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

func CourseDetailKey(courseID string) string {
	return fmt.Sprintf("detail:%s", courseID)
}

func CourseListKey(publishedOnly bool, query string, limit, offset int) string {
	return fmt.Sprintf("list:%t:%d:%d:%s", publishedOnly, limit, offset, query)
}

const PlatformStatsKey = "platform"

// InvalidateCourseCache drops a course's detail entry, every catalog page and
// the platform totals
func InvalidateCourseCache(ctx context.Context, cm *CacheManager, courseID string) {
	if cm == nil {
		return
	}
	if courseID != "" {
		SafeDelete(ctx, cm.Course, CourseDetailKey(courseID))
	}
	SafeInvalidatePattern(ctx, cm.Course, "list:*")
	SafeDelete(ctx, cm.Stats, PlatformStatsKey)
}
