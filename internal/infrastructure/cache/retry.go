package cache

import (
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"

	"portal-client/internal/domain"
)

// RetryFunc decides whether to retry after a failure. failureCount is the number
// of failures before this one, so the first failure is evaluated with 0.
type RetryFunc func(failureCount int, err error) bool

const defaultMaxRetries = 2

// DefaultQueryRetry never retries client errors (400, 401, 403, 404) and retries
// server and network failures up to twice.
func DefaultQueryRetry(failureCount int, err error) bool {
	apiErr, ok := domain.AsAPIError(err)
	if !ok {
		return false
	}
	switch apiErr.Status {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return false
	}
	if apiErr.Status == 0 || apiErr.Status >= http.StatusInternalServerError {
		return failureCount < defaultMaxRetries
	}
	return false
}

// DefaultMutationRetry never retries; the failure goes straight to OnError.
func DefaultMutationRetry(int, error) bool {
	return false
}

// RetryUnless never retries the listed statuses and otherwise allows up to
// maxRetries retries of backend errors.
func RetryUnless(maxRetries int, statuses ...int) RetryFunc {
	return func(failureCount int, err error) bool {
		apiErr, ok := domain.AsAPIError(err)
		if !ok {
			return false
		}
		for _, s := range statuses {
			if apiErr.Status == s {
				return false
			}
		}
		return failureCount < maxRetries
	}
}

// RetryLimited caps retries for one status and defers to next for everything else.
func RetryLimited(status, limit int, next RetryFunc) RetryFunc {
	return func(failureCount int, err error) bool {
		if domain.StatusOf(err) == status {
			return failureCount < limit
		}
		return next(failureCount, err)
	}
}

// Backoff computes retry delays as min(Base * 2^n, Max).
type Backoff struct {
	Base time.Duration
	Max  time.Duration
}

// DefaultBackoff starts at one second and caps at thirty.
var DefaultBackoff = Backoff{Base: time.Second, Max: 30 * time.Second}

func (b Backoff) normalized() Backoff {
	if b.Base <= 0 {
		b.Base = DefaultBackoff.Base
	}
	if b.Max < b.Base {
		b.Max = b.Base
	}
	return b
}

// New returns a fresh deterministic exponential policy.
func (b Backoff) New() *backoff.ExponentialBackOff {
	b = b.normalized()
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = b.Base
	bo.MaxInterval = b.Max
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	bo.Reset()
	return bo
}

// Delay returns the wait before retry n (zero-based).
func (b Backoff) Delay(n int) time.Duration {
	bo := b.New()
	d := bo.NextBackOff()
	for i := 0; i < n; i++ {
		d = bo.NextBackOff()
	}
	return d
}
