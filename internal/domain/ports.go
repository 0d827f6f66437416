package domain

import (
	"context"
	"time"
)

type ActivityRepository interface {
	// Write paths
	UpsertActivities(ctx context.Context, as []Activity) error
	LogMiss(ctx context.Context, source string, status int, reason string) error
	SavePlan(ctx context.Context, sp SavedPlan) error

	// Read paths
	ListActivities(ctx context.Context, q ActivityQuery) ([]Activity, error)
	ListSavedPlans(ctx context.Context, userID string, limit int) ([]SavedPlan, error)
}

// FeedSource yields raw listing records; app mappers turn them into Activities.
type FeedSource interface {
	Name() string
	Fetch(ctx context.Context, from, to time.Time) ([]map[string]any, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
	DelPrefix(ctx context.Context, prefix string) error
}
