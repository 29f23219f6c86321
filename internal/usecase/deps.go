package usecase

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"portal-client/internal/domain"
	"portal-client/internal/infrastructure/cache"
)

// Cache keys shared by queries and the mutations that invalidate them.
var (
	KeySelf      = cache.Key{"self"}
	KeyAppConfig = cache.Key{"appConfig"}
	KeyAuth      = cache.Key{"auth"}
	KeyAuthCheck = cache.Key{"auth", "check"}
	KeyDownloads = cache.Key{"downloads"}
	KeyProducts  = cache.Key{"products"}
)

// User-facing message keys. They are translated before reaching the Notifier.
const (
	MsgLoggedIn             = "Successfully logged in"
	MsgInvalidCredentials   = "Invalid email or password"
	MsgCSRFError            = "CSRF token error. Please refresh the page and try again."
	MsgTooManyLogins        = "Too many login attempts. Please try again later."
	MsgLoginFailed          = "Login failed. Please try again."
	MsgAccountCreated       = "Account created successfully"
	MsgRegistrationFailed   = "Registration failed"
	MsgEmailTaken           = "This email is already used"
	MsgSomethingWrong       = "Something went wrong"
	MsgLoggedOut            = "Logged out successfully"
	MsgSessionExpired       = "Your session has expired"
	MsgPasswordUpdated      = "Password updated"
	MsgInvalidCurrentPass   = "Invalid current password"
	MsgPasswordTooWeak      = "Password is too weak"
	MsgPasswordUpdateFailed = "Failed to update password"
	MsgNoPasswordPermission = "You are not authorized to update this password"
	MsgAccountDeleted       = "Your account has been deleted"
	MsgNoDeletePermission   = "You are not authorized to delete this account"
	MsgNoUpdatePermission   = "You are not authorized to update this account"
	MsgAccountUpdated       = "Account updated"
	MsgResetEmailSent       = "An email has been sent to reset your password"
	MsgPasswordReset        = "Your password has been reset"
	MsgDownloadFailed       = "Download failed"
)

// Deps bundles the collaborators every query and mutation uses.
// Navigator, Notifier and Translator may be nil.
type Deps struct {
	API        domain.Requester
	Cache      *cache.QueryCache
	Navigator  domain.Navigator
	Notifier   domain.Notifier
	Translator domain.Translator
	Logger     *slog.Logger
	Backoff    cache.Backoff
}

func (d Deps) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}

func (d Deps) t(key string) string {
	if d.Translator == nil {
		return key
	}
	return d.Translator.T(key)
}

func (d Deps) success(key string) {
	if d.Notifier != nil {
		d.Notifier.Success(d.t(key))
	}
}

func (d Deps) fail(key string) {
	if d.Notifier != nil {
		d.Notifier.Error(d.t(key))
	}
}

// failRaw shows a backend-provided message as is.
func (d Deps) failRaw(msg string) {
	if d.Notifier != nil {
		d.Notifier.Error(msg)
	}
}

func (d Deps) warn(key string) {
	if d.Notifier != nil {
		d.Notifier.Warning(d.t(key))
	}
}

func (d Deps) navigate(route string) {
	if d.Navigator != nil {
		d.Navigator.Navigate(route)
	}
}

func decode[T any](res *domain.Result, what string) (T, error) {
	var v T
	if err := res.Decode(&v); err != nil {
		return v, fmt.Errorf("decode %s: %w", what, err)
	}
	return v, nil
}

// decodeList accepts a bare JSON array or a paginated {"results": [...]} object.
func decodeList[T any](res *domain.Result, what string) ([]T, error) {
	var list []T
	if err := json.Unmarshal(res.Body, &list); err == nil {
		return list, nil
	}
	var page struct {
		Results []T `json:"results"`
	}
	if err := json.Unmarshal(res.Body, &page); err != nil {
		return nil, fmt.Errorf("decode %s: %w", what, err)
	}
	return page.Results, nil
}
