package backend

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"portal-client/internal/domain"
)

// ChangePasswordInput is the PUT /self/password/ body.
type ChangePasswordInput struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ChangePassword updates the signed-in account's password.
type ChangePassword struct {
	users  domain.UserStore
	logger *slog.Logger
}

// NewChangePassword creates a new ChangePassword usecase.
func NewChangePassword(users domain.UserStore, l *slog.Logger) *ChangePassword {
	return &ChangePassword{users: users, logger: l}
}

// Execute checks the current password and stores the new one.
func (uc *ChangePassword) Execute(ctx context.Context, account *domain.Account, in ChangePasswordInput) error {
	verr := &domain.ValidationError{}
	switch {
	case in.CurrentPassword == "":
		verr.Add("current_password", msgRequired)
	case !uc.users.CheckPassword(ctx, account.ID, in.CurrentPassword):
		verr.Add("current_password", "Invalid password")
	}
	if in.NewPassword == "" {
		verr.Add("new_password", msgRequired)
	} else {
		for _, p := range ValidatePassword(in.NewPassword, account.Email) {
			verr.Add("new_password", p)
		}
	}
	if err := verr.OrNil(); err != nil {
		return err
	}

	if err := uc.users.SetPassword(ctx, account.ID, in.NewPassword); err != nil {
		return fmt.Errorf("set password: %w", err)
	}
	uc.logger.InfoContext(ctx, "password changed", "user_id", account.ID)
	return nil
}

// ResetRequestInput is the POST /auth/password-reset/ body.
type ResetRequestInput struct {
	Email string `json:"email"`
}

// ResetConfirmInput is the POST /auth/password-reset-confirm/ body.
type ResetConfirmInput struct {
	UID         string `json:"uid"`
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// Reset error messages.
const (
	msgInvalidResetLink = "Invalid reset link."
	fieldResetError     = "error"
)

// ResetPassword issues and redeems password-reset links.
type ResetPassword struct {
	users   domain.UserStore
	tokens  domain.ResetTokenGenerator
	mailer  domain.ResetMailer
	linkURL string
	logger  *slog.Logger
}

// NewResetPassword creates a new ResetPassword usecase. linkURL is the page the emailed link points to.
func NewResetPassword(users domain.UserStore, tokens domain.ResetTokenGenerator, mailer domain.ResetMailer, linkURL string, l *slog.Logger) *ResetPassword {
	return &ResetPassword{users: users, tokens: tokens, mailer: mailer, linkURL: linkURL, logger: l}
}

// Request mails a reset link. Unknown emails succeed silently.
func (uc *ResetPassword) Request(ctx context.Context, in ResetRequestInput) error {
	verr := &domain.ValidationError{}
	checkEmail(verr, in.Email)
	if err := verr.OrNil(); err != nil {
		return err
	}

	account, err := uc.users.GetByEmail(ctx, in.Email)
	if errors.Is(err, domain.ErrUserNotFound) {
		uc.logger.InfoContext(ctx, "password reset for unknown email", "email_prefix", prefix(in.Email))
		return nil
	}
	if err != nil {
		return err
	}

	token, err := uc.tokens.Make(account)
	if err != nil {
		return fmt.Errorf("make reset token: %w", err)
	}
	link := uc.link(EncodeUID(account.ID), token)
	if err := uc.mailer.SendReset(ctx, account.Email, link); err != nil {
		return fmt.Errorf("send reset email: %w", err)
	}
	return nil
}

// Confirm sets a new password when uid and token are valid.
func (uc *ResetPassword) Confirm(ctx context.Context, in ResetConfirmInput) error {
	verr := &domain.ValidationError{}
	for field, v := range map[string]string{"uid": in.UID, "token": in.Token, "new_password": in.NewPassword} {
		if v == "" {
			verr.Add(field, msgRequired)
		}
	}
	if err := verr.OrNil(); err != nil {
		return err
	}

	id, err := DecodeUID(in.UID)
	if err != nil {
		return domain.NewValidationError(fieldResetError, msgInvalidResetLink)
	}
	account, err := uc.users.Get(ctx, id)
	if errors.Is(err, domain.ErrUserNotFound) {
		return domain.NewValidationError(fieldResetError, msgInvalidResetLink)
	}
	if err != nil {
		return err
	}
	if !uc.tokens.Check(account, in.Token) {
		return domain.NewValidationError(fieldResetError, domain.ErrResetTokenInvalid.Error())
	}
	if problems := ValidatePassword(in.NewPassword, account.Email); len(problems) > 0 {
		return &domain.ValidationError{Fields: map[string][]string{"new_password": problems}}
	}

	if err := uc.users.SetPassword(ctx, account.ID, in.NewPassword); err != nil {
		return fmt.Errorf("set password: %w", err)
	}
	uc.logger.InfoContext(ctx, "password reset completed", "user_id", account.ID)
	return nil
}

func (uc *ResetPassword) link(uid, token string) string {
	q := url.Values{}
	q.Set("uid", uid)
	q.Set("token", token)
	return uc.linkURL + "?" + q.Encode()
}

// EncodeUID renders an account ID the way reset links carry it.
func EncodeUID(id int) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.Itoa(id)))
}

// DecodeUID reverses EncodeUID.
func DecodeUID(uid string) (int, error) {
	raw, err := base64.RawURLEncoding.DecodeString(uid)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(string(raw))
}
