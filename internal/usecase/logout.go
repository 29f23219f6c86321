package usecase

import (
	"context"
	"net/http"

	"portal-client/internal/domain"
	"portal-client/internal/infrastructure/cache"
)

// Logout ends the session. Local state is always cleared, whatever the backend says.
type Logout struct {
	d Deps
}

// NewLogout creates a new Logout usecase.
func NewLogout(d Deps) *Logout {
	return &Logout{d: d}
}

// Execute posts /auth/logout/ and then resets the cache. It never fails.
func (uc *Logout) Execute(ctx context.Context) error {
	m := cache.Mutation[struct{}, *domain.Result]{
		Name: "logout",
		Fn: func(ctx context.Context, _ struct{}) (*domain.Result, error) {
			res, err := uc.d.API.Do(ctx, domain.RequestDescriptor{Path: "/auth/logout/", Method: http.MethodPost})
			if status := domain.StatusOf(err); status == http.StatusUnauthorized || status == http.StatusForbidden {
				uc.d.logger().InfoContext(ctx, "logout rejected by backend, treating as success", "status", status)
				return &domain.Result{Status: status}, nil
			}
			return res, err
		},
		OnSuccess: func(ctx context.Context, _ *domain.Result, _ struct{}) {
			uc.clearLocal()
		},
		OnError: func(ctx context.Context, err error, _ struct{}) {
			uc.d.logger().WarnContext(ctx, "logout request failed, clearing local session anyway", "error", err)
			uc.clearLocal()
		},
		Logger: uc.d.Logger,
	}
	_, _ = m.Run(ctx, struct{}{})
	return nil
}

func (uc *Logout) clearLocal() {
	uc.d.Cache.Reset(KeySelf)
	uc.d.Cache.Reset(KeyAuthCheck)
	uc.d.Cache.Clear()
	uc.d.success(MsgLoggedOut)
	uc.d.navigate(domain.RouteLogin)
}
