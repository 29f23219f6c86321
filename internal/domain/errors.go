package domain

import "errors"

// Request errors.
var (
	ErrConflictingBody = errors.New("request has both a JSON and a multipart body")
	ErrInvalidConfig   = errors.New("invalid configuration")
)

// CSRF errors.
var (
	ErrCSRFUnavailable   = errors.New("csrf token unavailable")
	ErrCSRFSecretMissing = errors.New("CSRF secret not configured")
	ErrCSRFMismatch      = errors.New("CSRF token missing or incorrect")
)

// Session errors.
var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrSessionExpired   = errors.New("session expired")
	ErrSessionInvalid   = errors.New("session token invalid")
)

// Status-class errors. *APIError matches these through errors.Is.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrRateLimited  = errors.New("rate limit exceeded")
	ErrServer       = errors.New("server error")
	ErrNetwork      = errors.New("network failure")
)

// Account errors raised by the development backend.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("This email is already used")
	ErrUserNotFound       = errors.New("user not found")
	ErrResetTokenInvalid  = errors.New("Invalid or expired token.")
)
