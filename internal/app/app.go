// Package app wires the portal client core from configuration.
package app

import (
	"fmt"
	"log/slog"
	"net/http"

	"portal-client/config"
	"portal-client/internal/adapter/gateway"
	"portal-client/internal/domain"
	"portal-client/internal/infrastructure/cache"
	"portal-client/internal/infrastructure/csrf"
	"portal-client/internal/infrastructure/i18n"
	"portal-client/internal/usecase"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

// App is the process-wide client: one cookie jar, one CSRF manager, one query cache.
type App struct {
	Config     *config.Config
	HTTPClient *http.Client
	CSRF       *csrf.Manager
	Gateway    *gateway.Gateway
	Cache      *cache.QueryCache
	Translator *i18n.Translator

	Session        *usecase.Session
	AuthChecker    *usecase.AuthChecker
	Self           *usecase.GetSelf
	AppConfig      *usecase.GetAppConfig
	Login          *usecase.Login
	Register       *usecase.Register
	Logout         *usecase.Logout
	UpdatePassword *usecase.UpdatePassword
	DeleteAccount  *usecase.DeleteAccount
	UpdateSelf     *usecase.UpdateSelf
	PasswordReset  *usecase.PasswordReset
	Catalog        *usecase.Catalog
}

type options struct {
	jar          http.CookieJar
	navigator    domain.Navigator
	notifier     domain.Notifier
	logger       *slog.Logger
	tp           trace.TracerProvider
	onEmailError func(string)
}

// Option configures New.
type Option func(*options)

// WithCookieJar replaces the in-memory jar, for example with a persistent one.
func WithCookieJar(jar http.CookieJar) Option {
	return func(o *options) { o.jar = jar }
}

// WithNavigator sets where navigation requests go.
func WithNavigator(n domain.Navigator) Option {
	return func(o *options) { o.navigator = n }
}

// WithNotifier sets where user-facing messages go.
func WithNotifier(n domain.Notifier) Option {
	return func(o *options) { o.notifier = n }
}

// WithLogger sets the logger shared by every component.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithTracerProvider sets the provider for request spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.tp = tp }
}

// WithEmailErrorHandler routes the registration "email already used" message to fn.
func WithEmailErrorHandler(fn func(msg string)) Option {
	return func(o *options) { o.onEmailError = fn }
}

// New builds the client from cfg.
func New(cfg *config.Config, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	if o.jar == nil {
		jar, err := gateway.NewCookieJar()
		if err != nil {
			return nil, err
		}
		o.jar = jar
	}
	client := gateway.NewHTTPClient(cfg.RequestTimeout, o.jar)

	cookies, err := csrf.NewJarCookies(o.jar, cfg.RootURL()+"/")
	if err != nil {
		return nil, fmt.Errorf("scope cookies: %w", err)
	}
	manager := csrf.NewManager(csrf.Config{
		BootstrapURL: cfg.RootURL() + cfg.CSRFBootstrapPath,
		CookieNames:  cfg.CSRFCookieNames(),
	}, client, cookies, o.logger.With("component", "csrf"))

	gwOpts := []gateway.Option{
		gateway.WithLogger(o.logger.With("component", "gateway")),
		gateway.WithTracerProvider(o.tp),
	}
	if cfg.RateLimit > 0 {
		gwOpts = append(gwOpts, gateway.WithRateLimiter(rate.NewLimiter(rate.Limit(cfg.RateLimit), max(cfg.RateBurst, 1))))
	}
	gw := gateway.New(gateway.Config{
		RootURL:         cfg.RootURL(),
		APIPrefix:       cfg.APIPrefix,
		CSRFHeader:      cfg.CSRFHeader,
		CSRFCookieNames: cfg.CSRFCookieNames(),
	}, client, manager, gwOpts...)

	bo := cache.Backoff{Base: cfg.RetryBaseDelay, Max: cfg.RetryMaxDelay}
	qc := cache.New(
		cache.WithStaleTime(cfg.StaleTime),
		cache.WithBackoff(bo),
		cache.WithLogger(o.logger.With("component", "cache")),
	)
	tr := i18n.New(cfg.Locale)

	d := usecase.Deps{
		API:        gw,
		Cache:      qc,
		Navigator:  o.navigator,
		Notifier:   o.notifier,
		Translator: tr,
		Logger:     o.logger,
		Backoff:    bo,
	}

	var registerOpts []usecase.RegisterOption
	if o.onEmailError != nil {
		registerOpts = append(registerOpts, usecase.WithEmailErrorHandler(o.onEmailError))
	}

	self := usecase.NewGetSelf(d)
	session := usecase.NewSession(qc, self)
	return &App{
		Config:     cfg,
		HTTPClient: client,
		CSRF:       manager,
		Gateway:    gw,
		Cache:      qc,
		Translator: tr,

		Session:        session,
		AuthChecker:    usecase.NewAuthChecker(d, session, cfg.AuthCheckInterval),
		Self:           self,
		AppConfig:      usecase.NewGetAppConfig(d),
		Login:          usecase.NewLogin(d),
		Register:       usecase.NewRegister(d, registerOpts...),
		Logout:         usecase.NewLogout(d),
		UpdatePassword: usecase.NewUpdatePassword(d),
		DeleteAccount:  usecase.NewDeleteAccount(d),
		UpdateSelf:     usecase.NewUpdateSelf(d),
		PasswordReset:  usecase.NewPasswordReset(d),
		Catalog:        usecase.NewCatalog(d),
	}, nil
}
