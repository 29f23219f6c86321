package handler

import (
	"net/http"

	"portal-client/internal/usecase/backend"

	"github.com/labstack/echo/v4"
)

// SelfHandler serves the signed-in user's /self/ endpoints.
type SelfHandler struct {
	sessions sessionReader
	account  *backend.ManageAccount
	password *backend.ChangePassword
	cookies  CookieConfig
}

// NewSelfHandler creates a new self handler.
func NewSelfHandler(validate *backend.ValidateSession, account *backend.ManageAccount, password *backend.ChangePassword, cookies CookieConfig) *SelfHandler {
	cookies = cookies.withDefaults()
	return &SelfHandler{
		sessions: sessionReader{uc: validate, cookies: cookies},
		account:  account,
		password: password,
		cookies:  cookies,
	}
}

// GetAccount handles GET /self/account/.
func (h *SelfHandler) GetAccount(c echo.Context) error {
	account, err := h.sessions.account(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, msgNotAuthenticated).SetInternal(err)
	}
	return c.JSON(http.StatusOK, account.ToAPISelf())
}

// UpdateAccount handles PUT /self/account/. Absent fields are left unchanged.
func (h *SelfHandler) UpdateAccount(c echo.Context) error {
	account, err := h.sessions.account(c)
	if err != nil {
		return mapDomainError(err)
	}
	var in backend.UpdateAccountInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, msgInvalidBody).SetInternal(err)
	}
	updated, err := h.account.Update(c.Request().Context(), account.ID, in)
	if err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusOK, updated.ToAPISelf())
}

// DeleteAccount handles DELETE /self/account/ and ends the session.
func (h *SelfHandler) DeleteAccount(c echo.Context) error {
	account, err := h.sessions.account(c)
	if err != nil {
		return mapDomainError(err)
	}
	if err := h.account.Delete(c.Request().Context(), account.ID); err != nil {
		return mapDomainError(err)
	}
	h.cookies.clearSession(c)
	return c.NoContent(http.StatusNoContent)
}

// UpdatePassword handles PUT /self/password/.
func (h *SelfHandler) UpdatePassword(c echo.Context) error {
	account, err := h.sessions.account(c)
	if err != nil {
		return mapDomainError(err)
	}
	var in backend.ChangePasswordInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, msgInvalidBody).SetInternal(err)
	}
	if err := h.password.Execute(c.Request().Context(), account, in); err != nil {
		return mapDomainError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
