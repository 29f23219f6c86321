package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portal-client/internal/domain"
)

func apiErr(status int) error {
	return domain.NewAPIError(status, "", nil)
}

func TestDefaultQueryRetry(t *testing.T) {
	tests := []struct {
		name         string
		failureCount int
		err          error
		want         bool
	}{
		{"400 never", 0, apiErr(400), false},
		{"401 never", 0, apiErr(401), false},
		{"403 never", 0, apiErr(403), false},
		{"404 never", 0, apiErr(404), false},
		{"500 first", 0, apiErr(500), true},
		{"502 second", 1, apiErr(502), true},
		{"500 third", 2, apiErr(500), false},
		{"network first", 0, domain.NewNetworkError(errors.New("eof")), true},
		{"429 not retried", 0, apiErr(429), false},
		{"non api error", 0, errors.New("decode"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultQueryRetry(tt.failureCount, tt.err))
		})
	}
}

func TestDefaultMutationRetry(t *testing.T) {
	for _, status := range []int{0, 400, 401, 403, 500} {
		assert.False(t, DefaultMutationRetry(0, apiErr(status)))
	}
}

func TestRetryUnlessAndLimited(t *testing.T) {
	check := RetryUnless(2, 401, 403)
	assert.False(t, check(0, apiErr(401)))
	assert.False(t, check(0, apiErr(403)))
	assert.True(t, check(1, apiErr(500)))
	assert.False(t, check(2, apiErr(500)))

	appConfig := RetryLimited(403, 1, RetryUnless(2))
	assert.True(t, appConfig(0, apiErr(403)))
	assert.False(t, appConfig(1, apiErr(403)))
	assert.True(t, appConfig(1, apiErr(500)))
}

func TestBackoffDelay(t *testing.T) {
	b := DefaultBackoff
	assert.Equal(t, time.Second, b.Delay(0))
	assert.Equal(t, 2*time.Second, b.Delay(1))
	assert.Equal(t, 4*time.Second, b.Delay(2))
	assert.Equal(t, 16*time.Second, b.Delay(4))
	assert.Equal(t, 30*time.Second, b.Delay(5))
	assert.Equal(t, 30*time.Second, b.Delay(10))
}

func TestMutation_ExactlyOneCallback(t *testing.T) {
	var calls, successes, failures atomic.Int32

	m := Mutation[string, string]{
		Fn: func(_ context.Context, in string) (string, error) {
			calls.Add(1)
			if in == "bad" {
				return "", apiErr(401)
			}
			return "ok:" + in, nil
		},
		OnSuccess: func(_ context.Context, out string, _ string) {
			successes.Add(1)
			assert.Equal(t, "ok:good", out)
		},
		OnError: func(_ context.Context, err error, _ string) {
			failures.Add(1)
			assert.ErrorIs(t, err, domain.ErrUnauthorized)
		},
	}

	_, err := m.Run(context.Background(), "good")
	require.NoError(t, err)
	_, err = m.Run(context.Background(), "bad")
	require.Error(t, err)

	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, int32(1), successes.Load())
	assert.Equal(t, int32(1), failures.Load())
}

func TestMutation_WithRetryPolicy(t *testing.T) {
	var calls atomic.Int32
	m := Mutation[int, int]{
		Fn: func(context.Context, int) (int, error) {
			if calls.Add(1) < 3 {
				return 0, apiErr(503)
			}
			return 1, nil
		},
		Retry:   RetryUnless(2, 401, 403),
		Backoff: fastBackoff,
	}

	out, err := m.Run(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, out)
	assert.Equal(t, int32(3), calls.Load())
}
