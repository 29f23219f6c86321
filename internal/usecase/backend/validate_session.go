package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"portal-client/internal/domain"
)

// ValidateSession resolves a sessionid cookie to the account it was issued for.
type ValidateSession struct {
	issuer domain.SessionIssuer
	users  domain.UserStore
	logger *slog.Logger
}

// NewValidateSession creates a new ValidateSession usecase.
func NewValidateSession(issuer domain.SessionIssuer, users domain.UserStore, l *slog.Logger) *ValidateSession {
	return &ValidateSession{issuer: issuer, users: users, logger: l}
}

// Execute validates cookieValue and loads the account.
func (uc *ValidateSession) Execute(ctx context.Context, cookieValue string) (*domain.Account, error) {
	if cookieValue == "" {
		return nil, domain.ErrNotAuthenticated
	}

	id, err := uc.issuer.Parse(cookieValue)
	if err != nil {
		return nil, err
	}

	account, err := uc.users.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			uc.logger.InfoContext(ctx, "session refers to a deleted account", "user_id", id)
			return nil, fmt.Errorf("%w: account gone", domain.ErrSessionInvalid)
		}
		return nil, err
	}
	return account, nil
}
