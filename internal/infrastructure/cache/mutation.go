package cache

import (
	"context"
	"log/slog"
	"time"
)

// Mutation is a state-changing call with exactly one settle callback per run.
type Mutation[In, Out any] struct {
	Name string
	Fn   func(ctx context.Context, in In) (Out, error)

	// Retry defaults to DefaultMutationRetry.
	Retry   RetryFunc
	Backoff Backoff

	OnSuccess func(ctx context.Context, out Out, in In)
	OnError   func(ctx context.Context, err error, in In)

	Logger *slog.Logger
}

// Run performs the call and then invokes exactly one of OnSuccess or OnError.
func (m Mutation[In, Out]) Run(ctx context.Context, in In) (Out, error) {
	retry := m.Retry
	if retry == nil {
		retry = DefaultMutationRetry
	}
	logger := m.Logger
	if logger == nil {
		logger = slog.Default()
	}
	policy := m.Backoff.New()

	var (
		out      Out
		err      error
		failures int
	)
	for {
		out, err = m.Fn(ctx, in)
		if err == nil || !retry(failures, err) || ctx.Err() != nil {
			break
		}
		delay := policy.NextBackOff()
		logger.DebugContext(ctx, "mutation failed, retrying", "mutation", m.Name, "failure_count", failures+1, "retry_in", delay)
		failures++

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
			continue
		case <-ctx.Done():
			timer.Stop()
		}
		break
	}

	if err != nil {
		logger.DebugContext(ctx, "mutation failed", "mutation", m.Name, "error", err)
		if m.OnError != nil {
			m.OnError(ctx, err, in)
		}
		return out, err
	}
	if m.OnSuccess != nil {
		m.OnSuccess(ctx, out, in)
	}
	return out, nil
}
