package output

import (
	"context"
	"errors"
	"fmt"

	"github.com/fatih/color"

	"portal-client/internal/domain"
)

// Exit code constants
const (
	ExitSuccess     = 0
	ExitGeneral     = 1
	ExitUsageError  = 2
	ExitAuthError   = 3
	ExitConfigError = 4
	ExitTimeout     = 5
	ExitBackend     = 6
)

// CLIError is a structured error with user-facing context
type CLIError struct {
	Summary    string
	Detail     string
	Suggestion string
	ExitCode   int
	// Reported is set when a notification already showed the failure.
	Reported bool
}

// Error implements the error interface, returning the summary
func (e *CLIError) Error() string {
	return e.Summary
}

// NotSignedIn is returned by commands that need a session.
func NotSignedIn() *CLIError {
	return &CLIError{
		Summary:    "not signed in",
		Suggestion: "portalctl login --email <email>",
		ExitCode:   ExitAuthError,
	}
}

// FromError classifies err for the exit status and the final message.
// reported marks failures a usecase already sent to the Notifier.
func FromError(err error, reported bool) *CLIError {
	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return cliErr
	}

	e := &CLIError{Summary: err.Error(), ExitCode: ExitGeneral, Reported: reported}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		e.Summary = "request timed out"
		e.ExitCode = ExitTimeout
	case errors.Is(err, domain.ErrInvalidConfig):
		e.ExitCode = ExitConfigError
	case errors.Is(err, domain.ErrNotAuthenticated),
		errors.Is(err, domain.ErrSessionExpired),
		errors.Is(err, domain.ErrUnauthorized):
		e.Summary = "not signed in"
		e.Suggestion = "portalctl login --email <email>"
		e.ExitCode = ExitAuthError
	case errors.Is(err, domain.ErrNetwork):
		e.Summary = "backend unreachable"
		e.Detail = err.Error()
		e.Suggestion = "check --api-url or PORTAL_API_URL"
		e.ExitCode = ExitBackend
	default:
		if apiErr, ok := domain.AsAPIError(err); ok {
			e.ExitCode = ExitBackend
			if msg, ok := apiErr.FirstMessage(); ok {
				e.Summary = msg
			}
			e.Detail = fmt.Sprintf("%d %s", apiErr.Status, apiErr.Text)
		}
	}
	return e
}

// FormatError prints a structured error message to stderr
func (p *Printer) FormatError(e *CLIError) {
	if p.useColors {
		color.New(color.FgRed, color.Bold).Fprintf(p.err, "Error: %s\n", e.Summary)
		if e.Detail != "" {
			fmt.Fprintf(p.err, "  Cause: %s\n", e.Detail)
		}
		if e.Suggestion != "" {
			color.New(color.FgCyan).Fprintf(p.err, "  Suggestion: %s\n", e.Suggestion)
		}
	} else {
		fmt.Fprintf(p.err, "[ERROR] %s\n", e.Summary)
		if e.Detail != "" {
			fmt.Fprintf(p.err, "  Cause: %s\n", e.Detail)
		}
		if e.Suggestion != "" {
			fmt.Fprintf(p.err, "  Suggestion: %s\n", e.Suggestion)
		}
	}
}
