package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"portal-client/internal/domain"
)

// RegisterInput is the POST /auth/register/ body.
type RegisterInput struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// Register creates an account and signs it in.
type Register struct {
	users  domain.UserStore
	issuer domain.SessionIssuer
	logger *slog.Logger
}

// NewRegister creates a new Register usecase.
func NewRegister(users domain.UserStore, issuer domain.SessionIssuer, l *slog.Logger) *Register {
	return &Register{users: users, issuer: issuer, logger: l}
}

// Execute validates in, creates the account and issues a session.
func (uc *Register) Execute(ctx context.Context, in RegisterInput) (*SignedIn, error) {
	verr := &domain.ValidationError{}
	checkEmail(verr, in.Email)
	if _, ok := verr.Fields["email"]; !ok {
		if _, err := uc.users.GetByEmail(ctx, in.Email); err == nil {
			verr.Add("email", domain.ErrEmailTaken.Error())
		}
	}
	if in.Password == "" {
		verr.Add("password", msgRequired)
	} else {
		for _, p := range ValidatePassword(in.Password, in.Email) {
			verr.Add("password", p)
		}
	}
	switch {
	case in.ConfirmPassword == "":
		verr.Add("confirmPassword", "Confirm password is required")
	case in.Password != in.ConfirmPassword:
		verr.Add("confirmPassword", "Passwords do not match")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	account, err := uc.users.Create(ctx, in.Email, in.Password)
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return nil, domain.NewValidationError("email", domain.ErrEmailTaken.Error())
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	session, err := uc.issuer.Issue(account)
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}
	uc.logger.InfoContext(ctx, "account registered", "user_id", account.ID)
	return &SignedIn{Account: account, Session: session}, nil
}
