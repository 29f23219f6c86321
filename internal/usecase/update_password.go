package usecase

import (
	"context"
	"net/http"

	"portal-client/internal/domain"
	"portal-client/internal/infrastructure/cache"
)

// UpdatePasswordInput is the PUT /self/password/ body.
type UpdatePasswordInput struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// UpdatePassword changes the signed-in user's password.
type UpdatePassword struct {
	d Deps
}

// NewUpdatePassword creates a new UpdatePassword usecase.
func NewUpdatePassword(d Deps) *UpdatePassword {
	return &UpdatePassword{d: d}
}

// Execute sends the change request.
func (uc *UpdatePassword) Execute(ctx context.Context, in UpdatePasswordInput) error {
	m := cache.Mutation[UpdatePasswordInput, *domain.Result]{
		Name: "update_password",
		Fn: func(ctx context.Context, in UpdatePasswordInput) (*domain.Result, error) {
			return uc.d.API.Do(ctx, domain.RequestDescriptor{Path: "/self/password/", Method: http.MethodPut, JSON: in})
		},
		OnSuccess: func(context.Context, *domain.Result, UpdatePasswordInput) {
			uc.d.success(MsgPasswordUpdated)
		},
		OnError: func(_ context.Context, err error, _ UpdatePasswordInput) {
			apiErr, _ := domain.AsAPIError(err)
			switch domain.StatusOf(err) {
			case http.StatusBadRequest:
				switch {
				case apiErr.HasField("current_password"):
					uc.d.fail(MsgInvalidCurrentPass)
				case apiErr.HasField("new_password"):
					uc.d.fail(MsgPasswordTooWeak)
				default:
					uc.d.fail(MsgPasswordUpdateFailed)
				}
			case http.StatusUnauthorized:
				uc.d.fail(MsgSessionExpired)
			case http.StatusForbidden:
				uc.d.fail(MsgNoPasswordPermission)
			default:
				uc.d.fail(MsgSomethingWrong)
			}
		},
		Logger: uc.d.Logger,
	}
	_, err := m.Run(ctx, in)
	return err
}
