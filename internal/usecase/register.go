package usecase

import (
	"context"
	"net/http"

	"portal-client/internal/domain"
	"portal-client/internal/infrastructure/cache"
)

// RegisterInput is the POST /auth/register/ body.
type RegisterInput struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// RegisterOption configures Register.
type RegisterOption func(*Register)

// WithEmailErrorHandler routes the "email already used" failure to fn instead of a notification.
func WithEmailErrorHandler(fn func(msg string)) RegisterOption {
	return func(r *Register) { r.onEmailError = fn }
}

// Register creates an account.
type Register struct {
	d            Deps
	onEmailError func(msg string)
}

// NewRegister creates a new Register usecase.
func NewRegister(d Deps, opts ...RegisterOption) *Register {
	r := &Register{d: d}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Execute posts the registration form.
func (uc *Register) Execute(ctx context.Context, in RegisterInput) error {
	m := cache.Mutation[RegisterInput, *domain.Result]{
		Name: "register",
		Fn: func(ctx context.Context, in RegisterInput) (*domain.Result, error) {
			return uc.d.API.Do(ctx, domain.RequestDescriptor{Path: "/auth/register/", Method: http.MethodPost, JSON: in})
		},
		OnSuccess: func(context.Context, *domain.Result, RegisterInput) {
			uc.d.Cache.Invalidate(KeyAppConfig)
			uc.d.Cache.Invalidate(KeySelf)
			uc.d.success(MsgAccountCreated)
			uc.d.navigate(domain.RouteHome)
		},
		OnError: func(_ context.Context, err error, _ RegisterInput) {
			uc.onError(err)
		},
		Logger: uc.d.Logger,
	}
	_, err := m.Run(ctx, in)
	return err
}

func (uc *Register) onError(err error) {
	apiErr, ok := domain.AsAPIError(err)
	if !ok || apiErr.Status != http.StatusBadRequest {
		uc.d.fail(MsgSomethingWrong)
		return
	}

	if msg, ok := apiErr.FieldError("email"); ok {
		if msg == MsgEmailTaken && uc.onEmailError != nil {
			uc.onEmailError(msg)
			return
		}
		uc.d.failRaw(msg)
		return
	}
	for _, field := range []string{"password", "confirmPassword"} {
		if msg, ok := apiErr.FieldError(field); ok {
			uc.d.failRaw(msg)
			return
		}
	}
	uc.d.fail(MsgRegistrationFailed)
}
