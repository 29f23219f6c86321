package handler

import (
	"errors"
	"net/http"

	"portal-client/internal/domain"
	"portal-client/internal/usecase/backend"

	"github.com/labstack/echo/v4"
)

// Login outcomes reported to LoginRecorder.
const (
	LoginSuccess  = "success"
	LoginRejected = "rejected"
	LoginError    = "error"
)

// LoginRecorder receives the outcome of every login attempt.
type LoginRecorder func(result string)

// AuthHandler serves the /auth/ endpoints.
type AuthHandler struct {
	csrf     *backend.GenerateCSRF
	login    *backend.Login
	register *backend.Register
	reset    *backend.ResetPassword
	sessions sessionReader
	cookies  CookieConfig
	record   LoginRecorder
}

// NewAuthHandler creates a new auth handler. record may be nil.
func NewAuthHandler(
	csrf *backend.GenerateCSRF,
	login *backend.Login,
	register *backend.Register,
	reset *backend.ResetPassword,
	validate *backend.ValidateSession,
	cookies CookieConfig,
	record LoginRecorder,
) *AuthHandler {
	cookies = cookies.withDefaults()
	if record == nil {
		record = func(string) {}
	}
	return &AuthHandler{
		csrf:     csrf,
		login:    login,
		register: register,
		reset:    reset,
		sessions: sessionReader{uc: validate, cookies: cookies},
		cookies:  cookies,
		record:   record,
	}
}

type signedInBody struct {
	Detail string   `json:"detail"`
	User   userBody `json:"user"`
}

// ensureCSRF keeps a valid CSRF cookie on the response, minting one when needed.
func (h *AuthHandler) ensureCSRF(c echo.Context) error {
	token, _, err := h.csrf.Ensure(c.Request().Context(), h.cookies.csrfValue(c))
	if err != nil {
		return mapDomainError(err)
	}
	h.cookies.setCSRF(c, token)
	return nil
}

// startSession sets the session cookie and rotates the CSRF token.
func (h *AuthHandler) startSession(c echo.Context, in *backend.SignedIn) error {
	token, err := h.csrf.Rotate(c.Request().Context())
	if err != nil {
		return mapDomainError(err)
	}
	h.cookies.setSession(c, in.Session)
	h.cookies.setCSRF(c, token)
	return nil
}

// CSRF handles GET /auth/csrf/.
func (h *AuthHandler) CSRF(c echo.Context) error {
	if err := h.ensureCSRF(c); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, detailBody{Detail: "CSRF cookie set"})
}

// Login handles POST /auth/login/. A successful login rotates the CSRF token;
// a failed one still leaves a valid CSRF cookie behind.
func (h *AuthHandler) Login(c echo.Context) error {
	var in backend.LoginInput
	if err := c.Bind(&in); err != nil {
		h.record(LoginRejected)
		return h.refuse(c, echo.NewHTTPError(http.StatusBadRequest, msgInvalidBody).SetInternal(err))
	}

	out, err := h.login.Execute(c.Request().Context(), in)
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			h.record(LoginRejected)
		} else {
			h.record(LoginError)
		}
		return h.refuse(c, mapDomainError(err))
	}
	if err := h.startSession(c, out); err != nil {
		h.record(LoginError)
		return err
	}
	h.record(LoginSuccess)
	return c.JSON(http.StatusOK, signedInBody{Detail: "Successfully logged in.", User: newUserBody(out.Account)})
}

// Register handles POST /auth/register/ and signs the new account in.
func (h *AuthHandler) Register(c echo.Context) error {
	var in backend.RegisterInput
	if err := c.Bind(&in); err != nil {
		return h.refuse(c, echo.NewHTTPError(http.StatusBadRequest, msgInvalidBody).SetInternal(err))
	}

	out, err := h.register.Execute(c.Request().Context(), in)
	if err != nil {
		return h.refuse(c, mapDomainError(err))
	}
	if err := h.startSession(c, out); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, signedInBody{Detail: "Successfully registered.", User: newUserBody(out.Account)})
}

// refuse returns he after making sure the CSRF cookie is set.
func (h *AuthHandler) refuse(c echo.Context, he *echo.HTTPError) error {
	if err := h.ensureCSRF(c); err != nil {
		return err
	}
	return he
}

// Logout handles POST /auth/logout/. Only a signed-in user may log out.
func (h *AuthHandler) Logout(c echo.Context) error {
	if _, err := h.sessions.account(c); err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, msgAuthRequired).SetInternal(err)
	}
	h.cookies.clearSession(c)
	return c.JSON(http.StatusOK, detailBody{Detail: "Successfully logged out."})
}

type checkBody struct {
	Authenticated bool     `json:"authenticated"`
	User          userBody `json:"user"`
}

// Check handles GET /auth/check/.
func (h *AuthHandler) Check(c echo.Context) error {
	account, err := h.sessions.account(c)
	if err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusOK, checkBody{Authenticated: true, User: newUserBody(account)})
}

// PasswordReset handles POST /auth/password-reset/. The answer is the same
// whether or not the email belongs to an account.
func (h *AuthHandler) PasswordReset(c echo.Context) error {
	var in backend.ResetRequestInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, msgInvalidBody).SetInternal(err)
	}
	if err := h.reset.Request(c.Request().Context(), in); err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusOK, detailBody{Detail: "Password reset email sent."})
}

// PasswordResetConfirm handles POST /auth/password-reset-confirm/.
func (h *AuthHandler) PasswordResetConfirm(c echo.Context) error {
	var in backend.ResetConfirmInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, msgInvalidBody).SetInternal(err)
	}
	if err := h.reset.Confirm(c.Request().Context(), in); err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusOK, detailBody{Detail: "Password reset successful."})
}
