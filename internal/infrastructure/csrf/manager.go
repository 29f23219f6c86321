package csrf

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"golang.org/x/sync/singleflight"

	"portal-client/internal/domain"
)

const acquireKey = "csrf"

// State is the lifecycle position of the held token.
type State int

const (
	StateNoToken State = iota
	StateAcquiring
	StateTokenHeld
)

func (s State) String() string {
	switch s {
	case StateAcquiring:
		return "acquiring"
	case StateTokenHeld:
		return "token-held"
	default:
		return "no-token"
	}
}

// Config controls where tokens are looked for.
type Config struct {
	BootstrapURL string
	CookieNames  []string // Scanned in order; the first non-empty value wins
}

// Manager acquires, caches and invalidates the CSRF token.
// At most one acquisition sequence runs at a time; concurrent callers share its result.
type Manager struct {
	cfg     Config
	client  *http.Client
	cookies domain.CookieSource
	logger  *slog.Logger

	group singleflight.Group

	mu         sync.Mutex
	token      string
	held       bool
	inFlight   int
	gen        uint64
	bootstraps int
}

// NewManager creates a Manager. cookies may be nil when no cookie store is visible.
func NewManager(cfg Config, httpClient *http.Client, cookies domain.CookieSource, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Manager{
		cfg:     cfg,
		client:  httpClient,
		cookies: cookies,
		logger:  logger,
	}
}

// Acquire returns the held token or runs the acquisition sequence.
// It reports false when no token could be obtained; callers proceed without one.
func (m *Manager) Acquire(ctx context.Context) (string, bool) {
	m.mu.Lock()
	if m.held {
		token := m.token
		m.mu.Unlock()
		return token, true
	}
	gen := m.gen
	m.inFlight++
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.inFlight--
		m.mu.Unlock()
	}()

	// The sequence outlives any single caller's cancellation; the HTTP client timeout bounds it.
	seqCtx := context.WithoutCancel(ctx)
	ch := m.group.DoChan(acquireKey, func() (interface{}, error) {
		token, ok := m.acquire(seqCtx)
		m.mu.Lock()
		defer m.mu.Unlock()
		if ok && m.gen == gen {
			m.token = token
			m.held = true
		}
		return token, nil
	})

	select {
	case res := <-ch:
		token, _ := res.Val.(string)
		return token, token != ""
	case <-ctx.Done():
		return "", false
	}
}

// Store replaces the held token, e.g. after the backend rotated the cookie.
func (m *Manager) Store(token string) {
	if token == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	m.held = true
}

// Invalidate drops the held token so the next Acquire starts a fresh sequence.
func (m *Manager) Invalidate() {
	m.mu.Lock()
	m.token = ""
	m.held = false
	m.gen++
	m.mu.Unlock()
	m.group.Forget(acquireKey)
	m.logger.Debug("csrf token invalidated")
}

// State reports the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch {
	case m.held:
		return StateTokenHeld
	case m.inFlight > 0:
		return StateAcquiring
	default:
		return StateNoToken
	}
}

// Bootstraps returns how many bootstrap requests have been sent.
func (m *Manager) Bootstraps() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bootstraps
}

func (m *Manager) acquire(ctx context.Context) (string, bool) {
	if token, name, ok := m.scanCookies(); ok {
		m.logger.DebugContext(ctx, "csrf token found in cookie", "cookie", name)
		return token, true
	}

	if m.cfg.BootstrapURL == "" {
		return "", false
	}

	m.logger.DebugContext(ctx, "csrf token not in cookies, requesting bootstrap endpoint")
	token, err := m.bootstrap(ctx)
	if err != nil {
		m.logger.WarnContext(ctx, "csrf bootstrap failed", "error", err)
		return "", false
	}
	if token != "" {
		return token, true
	}

	if token, name, ok := m.scanCookies(); ok {
		m.logger.DebugContext(ctx, "csrf token found in cookie after bootstrap", "cookie", name)
		return token, true
	}

	m.logger.WarnContext(ctx, "csrf token unavailable after bootstrap")
	return "", false
}

func (m *Manager) scanCookies() (string, string, bool) {
	if m.cookies == nil {
		return "", "", false
	}
	for _, name := range m.cfg.CookieNames {
		if v, ok := m.cookies.Cookie(name); ok && v != "" {
			return v, name, true
		}
	}
	return "", "", false
}

type bootstrapBody struct {
	CSRFToken      string `json:"csrfToken"`
	CSRFTokenSnake string `json:"csrf_token"`
	Data           struct {
		CSRFToken string `json:"csrf_token"`
	} `json:"data"`
}

func (b bootstrapBody) token() string {
	switch {
	case b.CSRFToken != "":
		return b.CSRFToken
	case b.CSRFTokenSnake != "":
		return b.CSRFTokenSnake
	default:
		return b.Data.CSRFToken
	}
}

// bootstrap issues the credentialed GET. A non-2xx status is not an error;
// the cookie re-scan still runs.
func (m *Manager) bootstrap(ctx context.Context) (string, error) {
	m.mu.Lock()
	m.bootstraps++
	m.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.cfg.BootstrapURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		m.logger.WarnContext(ctx, "csrf bootstrap returned non-success status", "status", resp.StatusCode)
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", nil
	}

	var body bootstrapBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", nil
	}
	return body.token(), nil
}
