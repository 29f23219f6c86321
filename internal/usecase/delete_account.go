package usecase

import (
	"context"
	"net/http"

	"portal-client/internal/domain"
	"portal-client/internal/infrastructure/cache"
)

// DeleteAccount removes the signed-in user's account.
type DeleteAccount struct {
	d Deps
}

// NewDeleteAccount creates a new DeleteAccount usecase.
func NewDeleteAccount(d Deps) *DeleteAccount {
	return &DeleteAccount{d: d}
}

// Execute sends DELETE /self/account/.
func (uc *DeleteAccount) Execute(ctx context.Context) error {
	m := cache.Mutation[struct{}, *domain.Result]{
		Name: "delete_account",
		Fn: func(ctx context.Context, _ struct{}) (*domain.Result, error) {
			return uc.d.API.Do(ctx, domain.RequestDescriptor{Path: "/self/account/", Method: http.MethodDelete})
		},
		OnSuccess: func(context.Context, *domain.Result, struct{}) {
			uc.d.Cache.Invalidate(KeySelf)
			uc.d.Cache.Remove(KeySelf)
			uc.d.success(MsgAccountDeleted)
			uc.d.navigate(domain.RouteLogin)
		},
		OnError: func(_ context.Context, err error, _ struct{}) {
			switch domain.StatusOf(err) {
			case http.StatusUnauthorized:
				uc.d.fail(MsgSessionExpired)
			case http.StatusForbidden:
				uc.d.fail(MsgNoDeletePermission)
			default:
				uc.d.fail(MsgSomethingWrong)
			}
		},
		Logger: uc.d.Logger,
	}
	_, err := m.Run(ctx, struct{}{})
	return err
}
