// Package cookiestore keeps a cookie jar on disk between CLI invocations.
package cookiestore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"
)

const fileMode = 0o600

// record is one persisted cookie and the URL it was received from.
type record struct {
	URL      string        `json:"url"`
	Name     string        `json:"name"`
	Value    string        `json:"value"`
	Path     string        `json:"path,omitempty"`
	Domain   string        `json:"domain,omitempty"`
	Expires  time.Time     `json:"expires,omitzero"`
	Secure   bool          `json:"secure,omitempty"`
	HttpOnly bool          `json:"http_only,omitempty"`
	SameSite http.SameSite `json:"same_site,omitempty"`
}

func (r record) key() string {
	return r.Domain + "|" + r.Path + "|" + r.Name
}

func (r record) cookie() *http.Cookie {
	return &http.Cookie{
		Name:     r.Name,
		Value:    r.Value,
		Path:     r.Path,
		Domain:   r.Domain,
		Expires:  r.Expires,
		Secure:   r.Secure,
		HttpOnly: r.HttpOnly,
		SameSite: r.SameSite,
	}
}

// FileJar is an http.CookieJar that mirrors every accepted cookie into a JSON file.
// Session cookies without an expiry are kept too, so a CLI login survives the process.
type FileJar struct {
	path string
	now  func() time.Time

	mu      sync.Mutex
	jar     *cookiejar.Jar
	records map[string]record
}

// Option configures a FileJar.
type Option func(*FileJar)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(j *FileJar) { j.now = now }
}

// Open loads the jar stored at path. A missing file yields an empty jar.
func Open(path string, opts ...Option) (*FileJar, error) {
	inner, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	j := &FileJar{
		path:    path,
		now:     time.Now,
		jar:     inner,
		records: make(map[string]record),
	}
	for _, opt := range opts {
		opt(j)
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return j, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cookie file: %w", err)
	}

	var stored []record
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("decode cookie file %s: %w", path, err)
	}
	now := j.now()
	for _, r := range stored {
		if !r.Expires.IsZero() && !r.Expires.After(now) {
			continue
		}
		u, err := url.Parse(r.URL)
		if err != nil {
			continue
		}
		j.jar.SetCookies(u, []*http.Cookie{r.cookie()})
		j.records[r.key()] = r
	}
	return j, nil
}

// DefaultPath returns ~/.config/portalctl/cookies.json.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(dir, "portalctl", "cookies.json"), nil
}

// SetCookies implements http.CookieJar.
func (j *FileJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.jar.SetCookies(u, cookies)

	now := j.now()
	origin := (&url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/"}).String()
	for _, c := range cookies {
		r := record{
			URL:      origin,
			Name:     c.Name,
			Value:    c.Value,
			Path:     cookiePath(u, c),
			Domain:   c.Domain,
			Expires:  c.Expires,
			Secure:   c.Secure,
			HttpOnly: c.HttpOnly,
			SameSite: c.SameSite,
		}
		switch {
		case c.MaxAge < 0:
			delete(j.records, r.key())
			continue
		case c.MaxAge > 0:
			r.Expires = now.Add(time.Duration(c.MaxAge) * time.Second)
		}
		if !r.Expires.IsZero() && !r.Expires.After(now) {
			delete(j.records, r.key())
			continue
		}
		j.records[r.key()] = r
	}
}

// Cookies implements http.CookieJar.
func (j *FileJar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.jar.Cookies(u)
}

// Len reports how many cookies would be saved.
func (j *FileJar) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.records)
}

// Clear forgets every cookie, in memory and on the next Save.
func (j *FileJar) Clear() error {
	inner, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return fmt.Errorf("create cookie jar: %w", err)
	}
	j.mu.Lock()
	j.jar = inner
	j.records = make(map[string]record)
	j.mu.Unlock()
	return nil
}

// Save writes the unexpired cookies to the file, replacing it atomically.
func (j *FileJar) Save() error {
	j.mu.Lock()
	now := j.now()
	out := make([]record, 0, len(j.records))
	for _, r := range j.records {
		if !r.Expires.IsZero() && !r.Expires.After(now) {
			continue
		}
		out = append(out, r)
	}
	j.mu.Unlock()

	raw, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cookies: %w", err)
	}

	dir := filepath.Dir(j.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create cookie dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".cookies-*.json")
	if err != nil {
		return fmt.Errorf("create temp cookie file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("write cookie file: %w", err)
	}
	if err := tmp.Chmod(fileMode); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod cookie file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close cookie file: %w", err)
	}
	if err := os.Rename(tmp.Name(), j.path); err != nil {
		return fmt.Errorf("replace cookie file: %w", err)
	}
	return nil
}

// cookiePath mirrors the default-path rule the jar applies to cookies without a Path.
func cookiePath(u *url.URL, c *http.Cookie) string {
	if c.Path != "" && c.Path[0] == '/' {
		return c.Path
	}
	p := u.Path
	if p == "" || p[0] != '/' {
		return "/"
	}
	i := len(p) - 1
	for i > 0 && p[i] != '/' {
		i--
	}
	if i == 0 {
		return "/"
	}
	return p[:i]
}
