package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"portal-client/internal/domain"
	"portal-client/internal/infrastructure/mail"
	"portal-client/internal/infrastructure/store"
	"portal-client/internal/infrastructure/token"
	"portal-client/internal/usecase/backend"
	appmiddleware "portal-client/middleware"
	"portal-client/utils/logger"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	testEmail    = "alice@example.com"
	testPassword = "Str0ng-passphrase"
	testSecret   = "test-session-secret-0123456789abcdef"
)

var testJWT = token.JWTConfig{
	Secret:   testSecret,
	Issuer:   "portal-devserver",
	Audience: "portal",
	TTL:      time.Hour,
}

type fixture struct {
	e       *echo.Echo
	users   *store.MemoryUsers
	catalog *store.Catalog
	outbox  *mail.Outbox
	account *domain.Account

	mu       sync.Mutex
	logins   []string
	rejected int
}

type fixtureOption func(*RouterDeps)

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()
	l := logger.Discard()
	ctx := context.Background()

	f := &fixture{
		users:   store.NewMemoryUsers(bcrypt.MinCost),
		catalog: store.NewCatalog(),
		outbox:  mail.NewOutbox(l),
	}
	f.catalog.Seed(time.Now())
	account, err := f.users.Create(ctx, testEmail, testPassword)
	require.NoError(t, err)
	f.account = account

	issuer := token.NewJWTIssuer(testJWT)
	csrfUC := backend.NewGenerateCSRF(token.NewHMACCSRFGenerator("test-csrf-secret"), l)
	validate := backend.NewValidateSession(issuer, f.users, l)
	reset := backend.NewResetPassword(f.users, token.NewResetTokenGenerator(testSecret, token.DefaultResetTimeout),
		f.outbox, "http://localhost:3000/password-reset/confirm", l)
	cookies := CookieConfig{SessionTTL: time.Hour}

	deps := RouterDeps{
		Auth: NewAuthHandler(csrfUC, backend.NewLogin(f.users, issuer, l), backend.NewRegister(f.users, issuer, l),
			reset, validate, cookies, func(result string) {
				f.mu.Lock()
				defer f.mu.Unlock()
				f.logins = append(f.logins, result)
			}),
		Self:    NewSelfHandler(validate, backend.NewManageAccount(f.users, l), backend.NewChangePassword(f.users, l), cookies),
		App:     NewAppHandler(domain.APIAppConfig{Debug: true, MediaURL: "/media/", StaticURL: "/static/", AppVersion: "1.2.3"}, csrfUC, cookies),
		Catalog: NewCatalogHandler(f.catalog),
		Health:  NewHealthHandler("portal-devserver", "1.2.3", "test"),
		CSRF:    csrfUC,
		Cookies: cookies,
		OnCSRFReject: func(echo.Context) {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.rejected++
		},
		Logger: l,
	}
	for _, opt := range opts {
		opt(&deps)
	}
	f.e = NewRouter(deps)
	return f
}

func withLoginLimit(t *testing.T, perMinute, burst int) fixtureOption {
	return func(d *RouterDeps) {
		d.LoginLimiter = appmiddleware.NewRateLimiter(t.Context(), appmiddleware.PerMinute(perMinute), burst)
	}
}

// browser keeps cookies between requests and echoes the CSRF cookie in the header.
type browser struct {
	t       *testing.T
	f       *fixture
	cookies map[string]string
	noCSRF  bool
}

func (f *fixture) browser(t *testing.T) *browser {
	return &browser{t: t, f: f, cookies: map[string]string{}}
}

func (b *browser) do(method, path string, body any) *httptest.ResponseRecorder {
	b.t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(b.t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, APIPrefix+path, r)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for name, value := range b.cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}
	if tok := b.cookies[DefaultCSRFCookie]; tok != "" && !b.noCSRF {
		req.Header.Set(DefaultCSRFHeader, tok)
	}

	rec := httptest.NewRecorder()
	b.f.e.ServeHTTP(rec, req)

	for _, ck := range rec.Result().Cookies() {
		if ck.MaxAge < 0 || ck.Value == "" {
			delete(b.cookies, ck.Name)
			continue
		}
		b.cookies[ck.Name] = ck.Value
	}
	return rec
}

// login fetches a CSRF cookie and signs in with the seeded account.
func (b *browser) login() {
	b.t.Helper()
	require.Equal(b.t, http.StatusOK, b.do(http.MethodGet, "/auth/csrf/", nil).Code)
	rec := b.do(http.MethodPost, "/auth/login/", map[string]string{"email": testEmail, "password": testPassword})
	require.Equal(b.t, http.StatusOK, rec.Code, rec.Body.String())
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}
