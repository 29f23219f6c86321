package usecase

import (
	"context"
	"net/http"

	"portal-client/internal/domain"
	"portal-client/internal/infrastructure/cache"
)

// PasswordResetInput is the POST /auth/password-reset/ body.
type PasswordResetInput struct {
	Email string `json:"email"`
}

// PasswordResetConfirmInput is the POST /auth/password-reset-confirm/ body.
type PasswordResetConfirmInput struct {
	UID         string `json:"uid"`
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// PasswordReset requests a reset email and completes a reset.
type PasswordReset struct {
	d Deps
}

// NewPasswordReset creates a new PasswordReset usecase.
func NewPasswordReset(d Deps) *PasswordReset {
	return &PasswordReset{d: d}
}

// Request asks the backend to email a reset link.
func (uc *PasswordReset) Request(ctx context.Context, in PasswordResetInput) error {
	m := cache.Mutation[PasswordResetInput, *domain.Result]{
		Name: "password_reset",
		Fn: func(ctx context.Context, in PasswordResetInput) (*domain.Result, error) {
			return uc.d.API.Do(ctx, domain.RequestDescriptor{Path: "/auth/password-reset/", Method: http.MethodPost, JSON: in})
		},
		OnSuccess: func(context.Context, *domain.Result, PasswordResetInput) {
			uc.d.success(MsgResetEmailSent)
		},
		OnError: func(_ context.Context, err error, _ PasswordResetInput) {
			uc.failWithFields(err, "email")
		},
		Logger: uc.d.Logger,
	}
	_, err := m.Run(ctx, in)
	return err
}

// Confirm sets a new password using the emailed uid and token.
func (uc *PasswordReset) Confirm(ctx context.Context, in PasswordResetConfirmInput) error {
	m := cache.Mutation[PasswordResetConfirmInput, *domain.Result]{
		Name: "password_reset_confirm",
		Fn: func(ctx context.Context, in PasswordResetConfirmInput) (*domain.Result, error) {
			return uc.d.API.Do(ctx, domain.RequestDescriptor{Path: "/auth/password-reset-confirm/", Method: http.MethodPost, JSON: in})
		},
		OnSuccess: func(context.Context, *domain.Result, PasswordResetConfirmInput) {
			uc.d.success(MsgPasswordReset)
			uc.d.navigate(domain.RouteLogin)
		},
		OnError: func(_ context.Context, err error, _ PasswordResetConfirmInput) {
			uc.failWithFields(err, "error", "new_password", "token", "uid")
		},
		Logger: uc.d.Logger,
	}
	_, err := m.Run(ctx, in)
	return err
}

// failWithFields shows the first backend message found among fields for a 400,
// and a generic message otherwise.
func (uc *PasswordReset) failWithFields(err error, fields ...string) {
	apiErr, ok := domain.AsAPIError(err)
	if !ok || apiErr.Status != http.StatusBadRequest {
		uc.d.fail(MsgSomethingWrong)
		return
	}
	for _, f := range fields {
		if msg, ok := apiErr.FieldError(f); ok {
			uc.d.failRaw(msg)
			return
		}
	}
	uc.d.fail(MsgSomethingWrong)
}
