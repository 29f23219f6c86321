package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"portal-client/internal/domain"
)

// Field messages shared by the account usecases.
const (
	msgRequired     = "This field is required."
	msgInvalidEmail = "Enter a valid email address."
)

// NonFieldErrors is the field holding errors not tied to one input.
const NonFieldErrors = "non_field_errors"

// LoginInput is the POST /auth/login/ body.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignedIn is an authenticated account with its new session token.
type SignedIn struct {
	Account *domain.Account
	Session string
}

// Login checks credentials and opens a session.
type Login struct {
	users  domain.UserStore
	issuer domain.SessionIssuer
	logger *slog.Logger
}

// NewLogin creates a new Login usecase.
func NewLogin(users domain.UserStore, issuer domain.SessionIssuer, l *slog.Logger) *Login {
	return &Login{users: users, issuer: issuer, logger: l}
}

// Execute returns a *domain.ValidationError for missing fields or wrong credentials.
func (uc *Login) Execute(ctx context.Context, in LoginInput) (*SignedIn, error) {
	verr := &domain.ValidationError{}
	checkEmail(verr, in.Email)
	if in.Password == "" {
		verr.Add("password", msgRequired)
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	account, err := uc.users.Authenticate(ctx, in.Email, in.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			uc.logger.InfoContext(ctx, "login rejected", "email_prefix", prefix(in.Email))
			return nil, domain.NewValidationError(NonFieldErrors, "Invalid credentials")
		}
		return nil, err
	}

	session, err := uc.issuer.Issue(account)
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}
	uc.logger.InfoContext(ctx, "user logged in", "user_id", account.ID)
	return &SignedIn{Account: account, Session: session}, nil
}

func checkEmail(verr *domain.ValidationError, email string) {
	switch {
	case strings.TrimSpace(email) == "":
		verr.Add("email", msgRequired)
	case !validEmail(email):
		verr.Add("email", msgInvalidEmail)
	}
}

// prefix returns the first 8 characters of s for logging.
func prefix(s string) string {
	if len(s) > 8 {
		return s[:8]
	}
	return s
}
