package handler

import (
	"strconv"

	"portal-client/internal/domain"
	"portal-client/internal/usecase/backend"
	"portal-client/utils/logger"

	"github.com/labstack/echo/v4"
)

// sessionReader resolves the request's session cookie to an account.
type sessionReader struct {
	uc      *backend.ValidateSession
	cookies CookieConfig
}

// account returns the signed-in account and tags the request context with its ID.
func (s sessionReader) account(c echo.Context) (*domain.Account, error) {
	account, err := s.uc.Execute(c.Request().Context(), s.cookies.sessionValue(c))
	if err != nil {
		return nil, err
	}
	ctx := logger.WithUserID(c.Request().Context(), strconv.Itoa(account.ID))
	c.SetRequest(c.Request().WithContext(ctx))
	return account, nil
}

// userBody is the account shape embedded in auth responses.
type userBody struct {
	ID        int    `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func newUserBody(a *domain.Account) userBody {
	return userBody{ID: a.ID, Email: a.Email, FirstName: a.FirstName, LastName: a.LastName}
}

type detailBody struct {
	Detail string `json:"detail"`
}
