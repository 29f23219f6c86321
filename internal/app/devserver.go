package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"portal-client/config"
	"portal-client/internal/adapter/handler"
	"portal-client/internal/domain"
	"portal-client/internal/infrastructure/mail"
	"portal-client/internal/infrastructure/metrics"
	"portal-client/internal/infrastructure/store"
	"portal-client/internal/infrastructure/token"
	"portal-client/internal/usecase/backend"
	appmiddleware "portal-client/middleware"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	sessionIssuer   = "portal-devserver"
	sessionAudience = "portal"
	loginBurst      = 5
)

// DevServer is the assembled development backend.
type DevServer struct {
	Echo    *echo.Echo
	Users   *store.MemoryUsers
	Catalog *store.Catalog
	Outbox  *mail.Outbox
}

// DevServerOptions tunes NewDevServer beyond the environment configuration.
type DevServerOptions struct {
	Logger      *slog.Logger
	Tracing     bool
	ServiceName string
	// BcryptCost of 0 uses bcrypt.DefaultCost.
	BcryptCost int
	// Metrics exposes /metrics and records per-request metrics.
	Metrics      bool
	MetricsToken string
	Environment  string
}

// NewDevServer builds the development backend. Missing secrets are generated,
// so sessions do not survive a restart unless they are configured.
// The limiter sweep stops when ctx is done.
func NewDevServer(ctx context.Context, cfg *config.DevServerConfig, opts DevServerOptions) (*DevServer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	l := opts.Logger
	if l == nil {
		l = slog.Default()
	}

	sessionSecret, err := secretOrRandom(cfg.SessionSecret)
	if err != nil {
		return nil, err
	}
	csrfSecret, err := secretOrRandom(cfg.CSRFSecret)
	if err != nil {
		return nil, err
	}

	users := store.NewMemoryUsers(opts.BcryptCost)
	catalog := store.NewCatalog()
	catalog.Seed(time.Now())
	outbox := mail.NewOutbox(l)

	if cfg.SeedUserEmail != "" {
		if _, err := users.Create(ctx, cfg.SeedUserEmail, cfg.SeedUserPassword); err != nil {
			return nil, fmt.Errorf("seed user: %w", err)
		}
		l.InfoContext(ctx, "seed user created")
	}

	issuer := token.NewJWTIssuer(token.JWTConfig{
		Secret:   sessionSecret,
		Issuer:   sessionIssuer,
		Audience: sessionAudience,
		TTL:      cfg.SessionTTL,
	})
	csrfUC := backend.NewGenerateCSRF(token.NewHMACCSRFGenerator(csrfSecret), l)
	validate := backend.NewValidateSession(issuer, users, l)
	reset := backend.NewResetPassword(users, token.NewResetTokenGenerator(sessionSecret, token.DefaultResetTimeout),
		outbox, cfg.PasswordResetBase, l)
	cookies := handler.CookieConfig{SessionTTL: cfg.SessionTTL}

	deps := handler.RouterDeps{
		Auth: handler.NewAuthHandler(csrfUC,
			backend.NewLogin(users, issuer, l),
			backend.NewRegister(users, issuer, l),
			reset, validate, cookies, metrics.RecordLogin),
		Self: handler.NewSelfHandler(validate, backend.NewManageAccount(users, l), backend.NewChangePassword(users, l), cookies),
		App: handler.NewAppHandler(domain.APIAppConfig{
			Debug:      cfg.Debug,
			MediaURL:   "/media/",
			StaticURL:  "/static/",
			AppVersion: cfg.AppVersion,
		}, csrfUC, cookies),
		Catalog:      handler.NewCatalogHandler(catalog),
		Health:       handler.NewHealthHandler(serviceName(opts), cfg.AppVersion, opts.Environment),
		CSRF:         csrfUC,
		Cookies:      cookies,
		OnCSRFReject: func(echo.Context) { metrics.RecordCSRFRejection() },
		LoginLimiter: appmiddleware.NewRateLimiter(ctx, appmiddleware.PerMinute(cfg.LoginRatePerMin), min(loginBurst, cfg.LoginRatePerMin)),
		Tracing:      opts.Tracing,
		ServiceName:  serviceName(opts),
		Logger:       l,
	}
	if opts.Metrics {
		deps.Metrics = promhttp.Handler()
		deps.MetricsToken = opts.MetricsToken
		deps.RecordRequest = metrics.RecordRequest
	}

	return &DevServer{
		Echo:    handler.NewRouter(deps),
		Users:   users,
		Catalog: catalog,
		Outbox:  outbox,
	}, nil
}

func serviceName(opts DevServerOptions) string {
	if opts.ServiceName == "" {
		return "portal-devserver"
	}
	return opts.ServiceName
}

func secretOrRandom(secret string) (string, error) {
	if secret != "" {
		return secret, nil
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Join(domain.ErrCSRFSecretMissing, err)
	}
	return hex.EncodeToString(buf), nil
}
