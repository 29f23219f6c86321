package backend

import (
	"context"
	"log/slog"

	"portal-client/internal/domain"
)

// UpdateAccountInput is the PUT /self/account/ body. Nil fields are left unchanged.
type UpdateAccountInput struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

const maxNameLength = 150

// ManageAccount edits and deletes the signed-in account.
type ManageAccount struct {
	users  domain.UserStore
	logger *slog.Logger
}

// NewManageAccount creates a new ManageAccount usecase.
func NewManageAccount(users domain.UserStore, l *slog.Logger) *ManageAccount {
	return &ManageAccount{users: users, logger: l}
}

// Update applies in to account id.
func (uc *ManageAccount) Update(ctx context.Context, id int, in UpdateAccountInput) (*domain.Account, error) {
	verr := &domain.ValidationError{}
	if in.FirstName != nil && len(*in.FirstName) > maxNameLength {
		verr.Add("first_name", "Ensure this field has no more than 150 characters.")
	}
	if in.LastName != nil && len(*in.LastName) > maxNameLength {
		verr.Add("last_name", "Ensure this field has no more than 150 characters.")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	return uc.users.Update(ctx, id, in.FirstName, in.LastName)
}

// Delete removes account id.
func (uc *ManageAccount) Delete(ctx context.Context, id int) error {
	if err := uc.users.Delete(ctx, id); err != nil {
		return err
	}
	uc.logger.InfoContext(ctx, "account deleted", "user_id", id)
	return nil
}
