package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"portal-client/internal/domain"
)

// DefaultAPIPrefix is the path prefix every backend endpoint lives under.
const DefaultAPIPrefix = "/api/v1"

// Config holds the client configuration
type Config struct {
	APIURL    string `env:"PORTAL_API_URL" envDefault:"http://localhost:8000"` // Backend origin, with or without the API prefix
	APIPrefix string `env:"PORTAL_API_PREFIX" envDefault:"/api/v1"`

	CSRFHeader        string   `env:"PORTAL_CSRF_HEADER" envDefault:"X-CSRFToken"`
	CSRFCookie        string   `env:"PORTAL_CSRF_COOKIE" envDefault:"csrftoken"`
	CSRFLegacyCookies []string `env:"PORTAL_CSRF_LEGACY_COOKIES" envDefault:"django_react_starter-csrftoken,django-csrftoken" envSeparator:","`
	CSRFBootstrapPath string   `env:"PORTAL_CSRF_BOOTSTRAP_PATH" envDefault:"/auth/csrf/"`

	RequestTimeout    time.Duration `env:"PORTAL_REQUEST_TIMEOUT" envDefault:"30s"`
	StaleTime         time.Duration `env:"PORTAL_STALE_TIME" envDefault:"5m"`
	AuthCheckInterval time.Duration `env:"PORTAL_AUTH_CHECK_INTERVAL" envDefault:"5m"`
	RetryBaseDelay    time.Duration `env:"PORTAL_RETRY_BASE_DELAY" envDefault:"1s"`
	RetryMaxDelay     time.Duration `env:"PORTAL_RETRY_MAX_DELAY" envDefault:"30s"`

	Locale    string  `env:"PORTAL_LOCALE" envDefault:"en"`
	RateLimit float64 `env:"PORTAL_RATE_LIMIT" envDefault:"0"` // Client-side requests per second, 0 disables
	RateBurst int     `env:"PORTAL_RATE_BURST" envDefault:"5"`

	MediaURL  string `env:"PORTAL_MEDIA_URL"`
	StaticURL string `env:"PORTAL_STATIC_URL"`
}

// DevServerConfig configures the local backend stand-in.
type DevServerConfig struct {
	Port              string        `env:"DEVSERVER_PORT" envDefault:"8000"`
	SessionSecret     string        `env:"DEVSERVER_SESSION_SECRET,file"`
	CSRFSecret        string        `env:"DEVSERVER_CSRF_SECRET,file"`
	SessionTTL        time.Duration `env:"DEVSERVER_SESSION_TTL" envDefault:"336h"`
	LoginRatePerMin   int           `env:"DEVSERVER_LOGIN_RATE_PER_MIN" envDefault:"10"`
	Debug             bool          `env:"DEVSERVER_DEBUG" envDefault:"true"`
	AppVersion        string        `env:"DEVSERVER_APP_VERSION" envDefault:"dev"`
	SeedUserEmail     string        `env:"DEVSERVER_SEED_EMAIL"`
	SeedUserPassword  string        `env:"DEVSERVER_SEED_PASSWORD,file"`
	PasswordResetBase string        `env:"DEVSERVER_RESET_URL" envDefault:"http://localhost:3000/password-reset/confirm"`
}

// Load reads configuration from the environment, after an optional .env file.
func Load() (*Config, error) {
	loadDotEnv()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.Normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDevServer reads the dev server configuration.
func LoadDevServer() (*DevServerConfig, error) {
	loadDotEnv()

	cfg := &DevServerConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration with every default applied and no
// environment lookups.
func Default() (*Config, error) {
	cfg := &Config{}
	if err := parseDefaults(cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	return cfg, nil
}

// parseDefaults fills cfg from its envDefault tags alone.
func parseDefaults(cfg any) error {
	if err := env.ParseWithOptions(cfg, env.Options{Environment: map[string]string{}}); err != nil {
		return fmt.Errorf("parse defaults: %w", err)
	}
	return nil
}

// Normalize trims the API URL and fills derived defaults.
// A trailing slash and a trailing API prefix are both removed from APIURL.
func (c *Config) Normalize() {
	if c.APIPrefix == "" {
		c.APIPrefix = DefaultAPIPrefix
	}
	c.APIPrefix = "/" + strings.Trim(c.APIPrefix, "/")

	base := strings.TrimRight(strings.TrimSpace(c.APIURL), "/")
	if strings.HasSuffix(strings.ToLower(base), strings.ToLower(c.APIPrefix)) {
		base = base[:len(base)-len(c.APIPrefix)]
	}
	c.APIURL = strings.TrimRight(base, "/")

	if c.MediaURL == "" {
		c.MediaURL = c.APIURL + "/media/"
	}
	if c.StaticURL == "" {
		c.StaticURL = c.APIURL + "/static/"
	}
	if c.Locale == "" {
		c.Locale = "en"
	}
}

// RootURL is the base URL every relative request path is appended to.
func (c *Config) RootURL() string {
	return c.APIURL + c.APIPrefix
}

// CSRFCookieNames returns the accepted cookie names, primary first.
func (c *Config) CSRFCookieNames() []string {
	names := make([]string, 0, 1+len(c.CSRFLegacyCookies))
	if c.CSRFCookie != "" {
		names = append(names, c.CSRFCookie)
	}
	for _, name := range c.CSRFLegacyCookies {
		name = strings.TrimSpace(name)
		if name != "" && name != c.CSRFCookie {
			names = append(names, name)
		}
	}
	return names
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.APIURL == "" {
		return fmt.Errorf("%w: PORTAL_API_URL cannot be empty", domain.ErrInvalidConfig)
	}
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: PORTAL_API_URL must be an absolute http(s) URL", domain.ErrInvalidConfig)
	}
	if c.CSRFHeader == "" {
		return fmt.Errorf("%w: PORTAL_CSRF_HEADER cannot be empty", domain.ErrInvalidConfig)
	}
	if len(c.CSRFCookieNames()) == 0 {
		return fmt.Errorf("%w: at least one CSRF cookie name is required", domain.ErrInvalidConfig)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("%w: PORTAL_REQUEST_TIMEOUT must be positive", domain.ErrInvalidConfig)
	}
	if c.AuthCheckInterval <= 0 {
		return fmt.Errorf("%w: PORTAL_AUTH_CHECK_INTERVAL must be positive", domain.ErrInvalidConfig)
	}
	if c.RetryBaseDelay <= 0 || c.RetryMaxDelay < c.RetryBaseDelay {
		return fmt.Errorf("%w: retry delays must satisfy 0 < base <= max", domain.ErrInvalidConfig)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("%w: PORTAL_RATE_LIMIT cannot be negative", domain.ErrInvalidConfig)
	}
	return nil
}

// Validate checks if the dev server configuration is valid
func (c *DevServerConfig) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("%w: DEVSERVER_PORT cannot be empty", domain.ErrInvalidConfig)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("%w: DEVSERVER_SESSION_TTL must be positive", domain.ErrInvalidConfig)
	}
	if c.LoginRatePerMin <= 0 {
		return fmt.Errorf("%w: DEVSERVER_LOGIN_RATE_PER_MIN must be positive", domain.ErrInvalidConfig)
	}
	if c.SeedUserEmail != "" && c.SeedUserPassword == "" {
		return fmt.Errorf("%w: DEVSERVER_SEED_PASSWORD is required with DEVSERVER_SEED_EMAIL", domain.ErrInvalidConfig)
	}
	return nil
}

func loadDotEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "warning: .env not loaded: %v\n", err)
	}
}
