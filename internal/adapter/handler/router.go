package handler

import (
	"log/slog"
	"net/http"

	appmiddleware "portal-client/middleware"
	"portal-client/utils/logger"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
)

// APIPrefix is the path every portal endpoint lives under.
const APIPrefix = "/api/v1"

// RouterDeps collects everything NewRouter wires together.
type RouterDeps struct {
	Auth    *AuthHandler
	Self    *SelfHandler
	App     *AppHandler
	Catalog *CatalogHandler
	Health  *HealthHandler

	CSRF       appmiddleware.CSRFChecker
	Cookies    CookieConfig
	CSRFHeader string
	// OnCSRFReject runs for every request refused by the CSRF check.
	OnCSRFReject func(echo.Context)

	// LoginLimiter throttles POST /auth/login/ when set.
	LoginLimiter *appmiddleware.RateLimiter
	// Metrics is served at /metrics when set, guarded by MetricsToken.
	Metrics       http.Handler
	MetricsToken  string
	RecordRequest appmiddleware.RequestRecorder

	Security    appmiddleware.SecurityConfig
	Tracing     bool
	ServiceName string
	Logger      *slog.Logger
}

// NewRouter builds the echo server for the development backend.
func NewRouter(d RouterDeps) *echo.Echo {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.CSRFHeader == "" {
		d.CSRFHeader = DefaultCSRFHeader
	}
	cookies := d.Cookies.withDefaults()
	ctxLogger := logger.NewContextLogger(d.Logger)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Logger)

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		RequestIDHandler: func(c echo.Context, id string) {
			ctx := logger.WithRequestID(c.Request().Context(), id)
			c.SetRequest(c.Request().WithContext(ctx))
		},
	}))

	// Security middleware
	e.Use(appmiddleware.SecurityHeaders(d.Security))

	// OpenTelemetry tracing
	if d.Tracing {
		e.Use(otelecho.Middleware(d.ServiceName))
		e.Use(appmiddleware.OTelStatusMiddleware())
	}

	// Request logging
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			return c.Request().URL.Path == APIPrefix+"/health/"
		},
		LogStatus:   true,
		LogURI:      true,
		LogError:    true,
		LogMethod:   true,
		LogLatency:  true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			rctx := c.Request().Context()
			l := ctxLogger.WithContext(rctx)
			if v.Error == nil {
				l.InfoContext(rctx, "request completed",
					"method", v.Method,
					"uri", v.URI,
					"status", v.Status,
					"latency_ms", v.Latency.Milliseconds())
			} else {
				l.WarnContext(rctx, "request failed",
					"method", v.Method,
					"uri", v.URI,
					"status", v.Status,
					"latency_ms", v.Latency.Milliseconds(),
					"error", v.Error.Error())
			}
			return nil
		},
	}))

	e.Use(middleware.Recover())

	if d.RecordRequest != nil {
		e.Use(appmiddleware.Metrics(d.RecordRequest))
	}

	if d.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(d.Metrics), appmiddleware.BearerToken(d.MetricsToken))
	}

	api := e.Group(APIPrefix, appmiddleware.CSRF(d.CSRF, appmiddleware.CSRFConfig{
		CookieName: cookies.CSRFName,
		HeaderName: d.CSRFHeader,
		OnReject:   d.OnCSRFReject,
	}))

	api.GET("/health/", d.Health.Handle)
	api.GET("/app/config/", d.App.Config)

	var loginMW []echo.MiddlewareFunc
	if d.LoginLimiter != nil {
		loginMW = append(loginMW, d.LoginLimiter.Middleware())
	}

	auth := api.Group("/auth")
	auth.GET("/csrf/", d.Auth.CSRF)
	auth.POST("/login/", d.Auth.Login, loginMW...)
	auth.POST("/logout/", d.Auth.Logout)
	auth.POST("/register/", d.Auth.Register)
	auth.GET("/check/", d.Auth.Check)
	auth.POST("/password-reset/", d.Auth.PasswordReset)
	auth.POST("/password-reset-confirm/", d.Auth.PasswordResetConfirm)

	self := api.Group("/self")
	self.GET("/account/", d.Self.GetAccount)
	self.PUT("/account/", d.Self.UpdateAccount)
	self.DELETE("/account/", d.Self.DeleteAccount)
	self.PUT("/password/", d.Self.UpdatePassword)

	api.GET("/products/", d.Catalog.Products)
	api.GET("/products/featured/", d.Catalog.Featured)
	api.GET("/products/stats/", d.Catalog.Stats)
	api.GET("/products/price_range/", d.Catalog.PriceRange)
	api.GET("/products/:id/", d.Catalog.Product)

	api.GET("/downloads/", d.Catalog.Downloads)
	api.GET("/downloads/popular/", d.Catalog.PopularDownloads)
	api.GET("/downloads/recent/", d.Catalog.RecentDownloads)
	api.GET("/downloads/:id/", d.Catalog.Download)
	api.GET("/downloads/:id/download_file/", d.Catalog.DownloadFile)

	return e
}
