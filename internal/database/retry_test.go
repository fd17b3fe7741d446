package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRetry(t *testing.T) {
	calls := 0
	v, err := Retry(context.Background(), "flaky", 3, time.Millisecond, func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("not yet")
		}
		return "up", nil
	})
	require.NoError(t, err)
	require.Equal(t, "up", v)
	require.Equal(t, 3, calls)

	calls = 0
	_, err = Retry(context.Background(), "down", 2, time.Millisecond, func(context.Context) (int, error) {
		calls++
		return 0, errors.New("refused")
	})
	require.EqualError(t, err, "refused")
	require.Equal(t, 2, calls)
}

func TestRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Retry(ctx, "cancelled", 5, time.Hour, func(context.Context) (int, error) {
		return 0, errors.New("refused")
	})
	require.ErrorIs(t, err, context.Canceled)
}
