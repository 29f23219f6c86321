package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portal-client/internal/domain"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		check       func(t *testing.T, cfg *Config)
		wantErr     bool
		errContains string
	}{
		{
			name: "default configuration when no env vars set",
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "http://localhost:8000", cfg.APIURL)
				assert.Equal(t, "http://localhost:8000/api/v1", cfg.RootURL())
				assert.Equal(t, "X-CSRFToken", cfg.CSRFHeader)
				assert.Equal(t, []string{"csrftoken", "django_react_starter-csrftoken", "django-csrftoken"}, cfg.CSRFCookieNames())
				assert.Equal(t, "/auth/csrf/", cfg.CSRFBootstrapPath)
				assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
				assert.Equal(t, 5*time.Minute, cfg.AuthCheckInterval)
				assert.Equal(t, time.Second, cfg.RetryBaseDelay)
				assert.Equal(t, 30*time.Second, cfg.RetryMaxDelay)
				assert.Equal(t, "http://localhost:8000/media/", cfg.MediaURL)
			},
		},
		{
			name: "api url with trailing prefix and slash is normalized",
			env:  map[string]string{"PORTAL_API_URL": "https://portal.example.com/api/v1/"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "https://portal.example.com", cfg.APIURL)
				assert.Equal(t, "https://portal.example.com/api/v1", cfg.RootURL())
			},
		},
		{
			name: "custom cookie names and durations",
			env: map[string]string{
				"PORTAL_CSRF_COOKIE":         "portal-csrf",
				"PORTAL_CSRF_LEGACY_COOKIES": "old-csrf, csrftoken",
				"PORTAL_STALE_TIME":          "10s",
				"PORTAL_LOCALE":              "zh",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, []string{"portal-csrf", "old-csrf", "csrftoken"}, cfg.CSRFCookieNames())
				assert.Equal(t, 10*time.Second, cfg.StaleTime)
				assert.Equal(t, "zh", cfg.Locale)
			},
		},
		{
			name:        "invalid duration returns error",
			env:         map[string]string{"PORTAL_REQUEST_TIMEOUT": "soon"},
			wantErr:     true,
			errContains: "PORTAL_REQUEST_TIMEOUT",
		},
		{
			name:        "relative api url is rejected",
			env:         map[string]string{"PORTAL_API_URL": "localhost:8000"},
			wantErr:     true,
			errContains: "absolute",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			got, err := Load()

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}
			require.NoError(t, err)
			tt.check(t, got)
		})
	}
}

func TestLoad_DotEnvFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PORTAL_API_URL=http://dotenv.test:9000\n"), 0o600))
	t.Setenv("PORTAL_API_URL", "")
	os.Unsetenv("PORTAL_API_URL")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://dotenv.test:9000", cfg.APIURL)
	os.Unsetenv("PORTAL_API_URL")
}

func TestDefault(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)
	assert.Equal(t, "X-CSRFToken", cfg.CSRFHeader)
	assert.Equal(t, time.Second, cfg.RetryBaseDelay)
	require.NoError(t, cfg.Validate())
}

func TestParseDefaults_MalformedTag(t *testing.T) {
	var bad struct {
		Timeout time.Duration `env:"PORTAL_BAD_TIMEOUT" envDefault:"soon"`
	}

	err := parseDefaults(&bad)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse defaults")
}

func TestConfig_Validate(t *testing.T) {
	base := func() *Config {
		cfg, err := Default()
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"empty csrf header", func(c *Config) { c.CSRFHeader = "" }},
		{"no cookie names", func(c *Config) { c.CSRFCookie = ""; c.CSRFLegacyCookies = nil }},
		{"zero timeout", func(c *Config) { c.RequestTimeout = 0 }},
		{"max delay below base", func(c *Config) { c.RetryMaxDelay = 10 * time.Millisecond }},
		{"negative rate", func(c *Config) { c.RateLimit = -1 }},
	}

	require.NoError(t, base().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), domain.ErrInvalidConfig)
		})
	}
}

func TestLoadDevServer(t *testing.T) {
	t.Chdir(t.TempDir())
	secretFile := filepath.Join(t.TempDir(), "secret")
	require.NoError(t, os.WriteFile(secretFile, []byte("from-file"), 0o600))
	t.Setenv("DEVSERVER_SESSION_SECRET", secretFile)

	cfg, err := LoadDevServer()
	require.NoError(t, err)
	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, "from-file", cfg.SessionSecret)
	assert.Equal(t, 336*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 10, cfg.LoginRatePerMin)
}

func TestDevServerConfig_Validate(t *testing.T) {
	valid := func() *DevServerConfig {
		return &DevServerConfig{Port: "8000", SessionTTL: time.Hour, LoginRatePerMin: 10}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*DevServerConfig)
	}{
		{"empty port", func(c *DevServerConfig) { c.Port = "" }},
		{"zero ttl", func(c *DevServerConfig) { c.SessionTTL = 0 }},
		{"zero login rate", func(c *DevServerConfig) { c.LoginRatePerMin = 0 }},
		{"seed email without password", func(c *DevServerConfig) { c.SeedUserEmail = "dev@example.com" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), domain.ErrInvalidConfig)
		})
	}
}
