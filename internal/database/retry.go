package database

import (
	"context"
	"time"

	"github.com/inkpress/inkpress/backend/blog-service/pkg/logger"
)

// Retry calls connect up to attempts times, doubling the wait between
// tries, to tolerate dependencies that start after the service.
func Retry[T any](ctx context.Context, name string, attempts int, backoff time.Duration, connect func(context.Context) (T, error)) (T, error) {
	var (
		v   T
		err error
	)
	for attempt := 1; attempt <= attempts; attempt++ {
		v, err = connect(ctx)
		if err == nil {
			return v, nil
		}
		logger.Warnf("attempt %d/%d: failed to connect to %s: %v", attempt, attempts, name, err)
		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return v, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return v, err
}
