package usecase

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"portal-client/internal/domain"
	"portal-client/internal/infrastructure/cache"
)

// DefaultAuthCheckInterval is how often the session is re-verified.
const DefaultAuthCheckInterval = 5 * time.Minute

// AuthChecker periodically confirms the backend still accepts the session.
type AuthChecker struct {
	d        Deps
	session  *Session
	interval time.Duration
}

// NewAuthChecker creates a new AuthChecker.
func NewAuthChecker(d Deps, session *Session, interval time.Duration) *AuthChecker {
	if interval <= 0 {
		interval = DefaultAuthCheckInterval
	}
	return &AuthChecker{d: d, session: session, interval: interval}
}

// Check calls GET /auth/check/ while an identity is cached.
// A 401 expires the local session and sends the user to the login route.
func (uc *AuthChecker) Check(ctx context.Context) error {
	if !uc.session.State().IsAuthenticated() {
		return domain.ErrNotAuthenticated
	}

	_, err := cache.Fetch(ctx, uc.d.Cache, cache.Query[bool]{
		Key: KeyAuthCheck,
		Fn: func(ctx context.Context) (bool, error) {
			if _, err := uc.d.API.Do(ctx, domain.RequestDescriptor{Path: "/auth/check/", Method: http.MethodGet}); err != nil {
				return false, err
			}
			return true, nil
		},
		StaleTime:      time.Nanosecond,
		Retry:          cache.RetryUnless(2, http.StatusUnauthorized, http.StatusForbidden),
		Backoff:        uc.d.Backoff,
		RefetchOnError: true,
	})
	if err == nil {
		return nil
	}

	if domain.StatusOf(err) == http.StatusUnauthorized {
		uc.expire(ctx)
		return fmt.Errorf("%w: %w", domain.ErrSessionExpired, err)
	}
	uc.d.logger().WarnContext(ctx, "auth check failed", "error", err)
	return err
}

func (uc *AuthChecker) expire(ctx context.Context) {
	uc.d.logger().InfoContext(ctx, "session expired, clearing identity")
	uc.d.Cache.Remove(KeyAuthCheck)
	uc.d.Cache.Remove(KeySelf)
	uc.d.warn(MsgSessionExpired)
	uc.d.navigate(domain.RouteLogin)
}

// Run checks immediately and then on every interval until ctx is done.
// Ticks are skipped while no identity is cached.
func (uc *AuthChecker) Run(ctx context.Context) error {
	ticker := time.NewTicker(uc.interval)
	defer ticker.Stop()

	for {
		if uc.session.State().IsAuthenticated() {
			_ = uc.Check(ctx)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
