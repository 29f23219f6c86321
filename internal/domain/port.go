package domain

import (
	"context"
	"encoding/json"
	"io"
)

// Route paths the core may navigate to.
const (
	RouteHome  = "/"
	RouteLogin = "/login"
)

// Result is a successful backend response. Body is "{}" when the response was not JSON.
type Result struct {
	Status int
	Body   json.RawMessage
}

// Decode unmarshals the body into v.
func (r *Result) Decode(v any) error {
	if r == nil || len(r.Body) == 0 {
		return nil
	}
	return json.Unmarshal(r.Body, v)
}

// Requester sends backend calls and returns either a Result or an *APIError.
type Requester interface {
	Do(ctx context.Context, req RequestDescriptor) (*Result, error)
	Download(ctx context.Context, path string, w io.Writer) (string, error)
}

// CSRFSource provides the token attached to state-changing requests.
type CSRFSource interface {
	Acquire(ctx context.Context) (string, bool)
	Store(token string)
	Invalidate()
}

// CookieSource reads cookies visible to the API origin.
type CookieSource interface {
	Cookie(name string) (string, bool)
}

// Navigator moves the UI to a route.
type Navigator interface {
	Navigate(route string)
}

// Notifier shows user-facing messages. Messages arrive already translated.
type Notifier interface {
	Success(msg string)
	Error(msg string)
	Warning(msg string)
}

// Translator maps a message key to the active locale.
type Translator interface {
	T(key string) string
}

// UserStore persists accounts for the development backend.
type UserStore interface {
	Create(ctx context.Context, email, password string) (*Account, error)
	Authenticate(ctx context.Context, email, password string) (*Account, error)
	Get(ctx context.Context, id int) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	Update(ctx context.Context, id int, firstName, lastName *string) (*Account, error)
	SetPassword(ctx context.Context, id int, password string) error
	CheckPassword(ctx context.Context, id int, password string) bool
	Delete(ctx context.Context, id int) error
}

// SessionIssuer signs and verifies development backend session cookies.
type SessionIssuer interface {
	Issue(account *Account) (string, error)
	Parse(token string) (int, error)
}

// CSRFTokenGenerator mints and verifies CSRF tokens for the development backend.
type CSRFTokenGenerator interface {
	Generate() (string, error)
	Verify(token string) bool
}

// ResetTokenGenerator mints one-time password-reset tokens bound to an account's current password.
type ResetTokenGenerator interface {
	Make(account *Account) (string, error)
	Check(account *Account, token string) bool
}

// ResetMailer delivers password-reset links.
type ResetMailer interface {
	SendReset(ctx context.Context, email, link string) error
}
