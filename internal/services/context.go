package services

import (
	"context"
	"time"
)

const (
	defaultReportTimeout = 3 * time.Second
	defaultNotifyTimeout = 30 * time.Second
)

// withTimeout bounds ctx by d. A non-positive d leaves ctx unbounded.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// detached keeps ctx values but not its deadline or cancellation, and bounds the result by d.
// Best-effort side calls run on it after the primary work is done.
func detached(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return withTimeout(context.WithoutCancel(ctx), d)
}
