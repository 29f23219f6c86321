package backend

import (
	"context"
	"fmt"
	"log/slog"

	"portal-client/internal/domain"
)

// GenerateCSRF hands out CSRF tokens, keeping a still-valid one where possible.
type GenerateCSRF struct {
	csrf   domain.CSRFTokenGenerator
	logger *slog.Logger
}

// NewGenerateCSRF creates a new GenerateCSRF usecase.
func NewGenerateCSRF(csrf domain.CSRFTokenGenerator, l *slog.Logger) *GenerateCSRF {
	return &GenerateCSRF{csrf: csrf, logger: l}
}

// Ensure returns current when it verifies, otherwise a fresh token.
// The boolean reports whether a new token was minted.
func (uc *GenerateCSRF) Ensure(ctx context.Context, current string) (string, bool, error) {
	if current != "" && uc.csrf.Verify(current) {
		return current, false, nil
	}
	token, err := uc.Rotate(ctx)
	if err != nil {
		return "", false, err
	}
	return token, true, nil
}

// Rotate always mints a fresh token.
func (uc *GenerateCSRF) Rotate(ctx context.Context) (string, error) {
	token, err := uc.csrf.Generate()
	if err != nil {
		uc.logger.ErrorContext(ctx, "failed to generate CSRF token", "error", err)
		return "", fmt.Errorf("generate csrf: %w", err)
	}
	return token, nil
}

// Check reports whether the header token matches the cookie token and carries a valid signature.
func (uc *GenerateCSRF) Check(cookieToken, headerToken string) error {
	if cookieToken == "" || headerToken == "" || cookieToken != headerToken {
		return domain.ErrCSRFMismatch
	}
	if !uc.csrf.Verify(headerToken) {
		return domain.ErrCSRFMismatch
	}
	return nil
}
