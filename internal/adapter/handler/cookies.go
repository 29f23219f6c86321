package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Default cookie names.
const (
	DefaultSessionCookie = "sessionid"
	DefaultCSRFCookie    = "csrftoken"
	DefaultCSRFHeader    = "X-CSRFToken"
)

const csrfCookieAge = 365 * 24 * time.Hour

// CookieConfig names and scopes the session and CSRF cookies.
type CookieConfig struct {
	SessionName string
	CSRFName    string
	SessionTTL  time.Duration
	Secure      bool
}

func (cc CookieConfig) withDefaults() CookieConfig {
	if cc.SessionName == "" {
		cc.SessionName = DefaultSessionCookie
	}
	if cc.CSRFName == "" {
		cc.CSRFName = DefaultCSRFCookie
	}
	if cc.SessionTTL <= 0 {
		cc.SessionTTL = 14 * 24 * time.Hour
	}
	return cc
}

func (cc CookieConfig) setSession(c echo.Context, token string) {
	c.SetCookie(&http.Cookie{
		Name:     cc.SessionName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(cc.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   cc.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (cc CookieConfig) clearSession(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     cc.SessionName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   cc.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// The CSRF cookie stays readable by scripts so the token can be echoed in a header.
func (cc CookieConfig) setCSRF(c echo.Context, token string) {
	c.SetCookie(&http.Cookie{
		Name:     cc.CSRFName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(csrfCookieAge.Seconds()),
		Secure:   cc.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (cc CookieConfig) sessionValue(c echo.Context) string {
	if ck, err := c.Cookie(cc.SessionName); err == nil {
		return ck.Value
	}
	return ""
}

func (cc CookieConfig) csrfValue(c echo.Context) string {
	if ck, err := c.Cookie(cc.CSRFName); err == nil {
		return ck.Value
	}
	return ""
}
