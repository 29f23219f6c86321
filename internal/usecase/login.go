package usecase

import (
	"context"
	"net/http"

	"portal-client/internal/domain"
	"portal-client/internal/infrastructure/cache"
)

// LoginInput is the POST /auth/login/ body.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login signs a user in.
type Login struct {
	d Deps
}

// NewLogin creates a new Login usecase.
func NewLogin(d Deps) *Login {
	return &Login{d: d}
}

// Execute posts the credentials. On success the identity queries are invalidated
// and the user is sent home; failures become a single error notification.
func (uc *Login) Execute(ctx context.Context, in LoginInput) error {
	m := cache.Mutation[LoginInput, *domain.Result]{
		Name: "login",
		Fn: func(ctx context.Context, in LoginInput) (*domain.Result, error) {
			uc.d.logger().InfoContext(ctx, "attempting login", "email", in.Email)
			return uc.d.API.Do(ctx, domain.RequestDescriptor{Path: "/auth/login/", Method: http.MethodPost, JSON: in})
		},
		OnSuccess: func(ctx context.Context, _ *domain.Result, _ LoginInput) {
			uc.d.Cache.Invalidate(KeyAppConfig)
			uc.d.Cache.Invalidate(KeySelf)
			uc.d.Cache.Invalidate(KeyAuthCheck)
			uc.d.navigate(domain.RouteHome)
			uc.d.success(MsgLoggedIn)
		},
		OnError: func(ctx context.Context, err error, _ LoginInput) {
			switch domain.StatusOf(err) {
			case http.StatusBadRequest:
				uc.d.fail(MsgInvalidCredentials)
			case http.StatusForbidden:
				uc.d.fail(MsgCSRFError)
			case http.StatusTooManyRequests:
				uc.d.fail(MsgTooManyLogins)
			default:
				uc.d.fail(MsgLoginFailed)
			}
		},
		Logger: uc.d.Logger,
	}
	_, err := m.Run(ctx, in)
	return err
}
