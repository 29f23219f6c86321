package gateway

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portal-client/internal/domain"
)

type fakeCSRF struct {
	mu          sync.Mutex
	token       string
	ok          bool
	acquires    int
	invalidated int
	stored      []string
}

func (f *fakeCSRF) Acquire(context.Context) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acquires++
	return f.token, f.ok
}

func (f *fakeCSRF) Store(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stored = append(f.stored, token)
}

func (f *fakeCSRF) Invalidate() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated++
}

func newTestGateway(t *testing.T, server *httptest.Server, csrf domain.CSRFSource) *Gateway {
	t.Helper()
	jar, err := NewCookieJar()
	require.NoError(t, err)
	return New(Config{
		RootURL:         server.URL + "/api/v1",
		APIPrefix:       "/api/v1",
		CSRFHeader:      "X-CSRFToken",
		CSRFCookieNames: []string{"csrftoken", "django-csrftoken"},
	}, NewHTTPClient(5*time.Second, jar), csrf)
}

func TestResolveURL(t *testing.T) {
	const root = "http://api.test/api/v1"
	tests := []struct {
		name string
		path string
		want string
	}{
		{"plain path", "/self/account/", "http://api.test/api/v1/self/account/"},
		{"missing leading slash", "auth/login/", "http://api.test/api/v1/auth/login/"},
		{"prefix already present", "/api/v1/auth/login/", "http://api.test/api/v1/auth/login/"},
		{"prefix without slash", "api/v1/auth/login/", "http://api.test/api/v1/auth/login/"},
		{"prefix is case insensitive", "/API/V1/self/", "http://api.test/api/v1/self/"},
		{"prefix only", "/api/v1", "http://api.test/api/v1/"},
		{"similar prefix is kept", "/api/v10/things", "http://api.test/api/v1/api/v10/things"},
		{"absolute http", "http://other.test/x", "http://other.test/x"},
		{"absolute https uppercase", "HTTPS://other.test/x", "HTTPS://other.test/x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resolveURL(root, "/api/v1", tt.path))
		})
	}
}

func TestResolveURL_PrefixingIsIdempotent(t *testing.T) {
	const root = "http://api.test/api/v1"
	for _, p := range []string{"/auth/check/", "products/", "/downloads/1/download_file/"} {
		once := resolveURL(root, "/api/v1", p)
		assert.Equal(t, once, resolveURL(root, "/api/v1", "/api/v1"+withLeadingSlash(p)))
		assert.Equal(t, once, resolveURL(root, "/api/v1", once))
		assert.Equal(t, 1, strings.Count(once, "/api/v1"))
	}
}

func TestGateway_Get_SendsAcceptAndNoCSRF(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/self/account/", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Empty(t, r.Header.Get("X-CSRFToken"))
		assert.NotEmpty(t, r.Header.Get(RequestIDHeader))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id": 1, "email": "a@example.com"}`)
	}))
	defer server.Close()

	csrf := &fakeCSRF{token: "tok", ok: true}
	gw := newTestGateway(t, server, csrf)

	res, err := gw.Get(context.Background(), "/self/account/")
	require.NoError(t, err)
	assert.Equal(t, 200, res.Status)

	var got domain.APISelf
	require.NoError(t, res.Decode(&got))
	assert.Equal(t, "a@example.com", got.Email)
	assert.Zero(t, csrf.acquires)
}

func TestGateway_NonJSONSuccessIsEmptyObject(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, "<html>ok</html>")
	}))
	defer server.Close()

	res, err := newTestGateway(t, server, nil).Get(context.Background(), "/health/")
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(res.Body))
}

func TestGateway_Post_AttachesCSRFAndJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tok-123", r.Header.Get("X-CSRFToken"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "kept", r.Header.Get("X-Custom"))
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"email": "a@example.com", "password": "pw"}`, string(body))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	csrf := &fakeCSRF{token: "tok-123", ok: true}
	gw := newTestGateway(t, server, csrf)

	_, err := gw.Do(context.Background(), domain.RequestDescriptor{
		Path:   "/auth/login/",
		Method: "post",
		JSON:   map[string]string{"email": "a@example.com", "password": "pw"},
		Header: http.Header{"X-Custom": {"kept"}, "Accept": {"text/plain"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, csrf.acquires)
}

func TestGateway_StateChangingWithoutTokenStillSends(t *testing.T) {
	var called bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		assert.Empty(t, r.Header.Get("X-CSRFToken"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	_, err := newTestGateway(t, server, &fakeCSRF{}).Delete(context.Background(), "/self/account/")
	require.NoError(t, err)
	assert.True(t, called)
}

func TestGateway_ConflictingBodyIsRejectedBeforeSending(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("request must not be sent")
	}))
	defer server.Close()

	_, err := newTestGateway(t, server, nil).Do(context.Background(), domain.RequestDescriptor{
		Path: "/x/", Method: http.MethodPost, JSON: map[string]int{}, Multipart: &domain.MultipartBody{},
	})
	assert.ErrorIs(t, err, domain.ErrConflictingBody)
}

func TestGateway_ErrorNormalization(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		contentType string
		body        string
		want        map[string][]string
	}{
		{
			name:        "field keyed json",
			status:      http.StatusBadRequest,
			contentType: "application/json",
			body:        `{"email": ["This email is already used"]}`,
			want:        map[string][]string{"email": {"This email is already used"}},
		},
		{
			name:        "plain text",
			status:      http.StatusInternalServerError,
			contentType: "text/plain",
			body:        "boom",
			want:        map[string][]string{"message": {"boom"}},
		},
		{
			name:   "empty body uses status text",
			status: http.StatusNotFound,
			want:   map[string][]string{"message": {"Not Found"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.contentType != "" {
					w.Header().Set("Content-Type", tt.contentType)
				}
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer server.Close()

			_, err := newTestGateway(t, server, nil).Get(context.Background(), "/any/")
			apiErr, ok := domain.AsAPIError(err)
			require.True(t, ok)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, http.StatusText(tt.status), apiErr.Text)
			assert.Equal(t, tt.want, apiErr.Errors)
		})
	}
}

func TestGateway_ForbiddenInvalidatesCSRF(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `{"detail": "CSRF Failed: CSRF token missing."}`)
	}))
	defer server.Close()

	csrf := &fakeCSRF{token: "stale", ok: true}
	_, err := newTestGateway(t, server, csrf).Post(context.Background(), "/auth/login/", map[string]string{})

	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Equal(t, 1, csrf.invalidated)
}

func TestGateway_LogoutUnauthorizedIsSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	gw := newTestGateway(t, server, &fakeCSRF{token: "t", ok: true})

	res, err := gw.Post(context.Background(), "/auth/logout/", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(res.Body))

	_, err = gw.Get(context.Background(), "/auth/check/")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestGateway_NetworkErrorHasStatusZero(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	gw := newTestGateway(t, server, nil)
	server.Close()

	_, err := gw.Get(context.Background(), "/self/account/")
	apiErr, ok := domain.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, 0, apiErr.Status)
	assert.True(t, errors.Is(err, domain.ErrNetwork))
	assert.NotNil(t, errors.Unwrap(apiErr))
}

func TestGateway_CookiesAreSentAndRotatedTokenStored(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/auth/login/":
			http.SetCookie(w, &http.Cookie{Name: "sessionid", Value: "s1", Path: "/"})
			http.SetCookie(w, &http.Cookie{Name: "csrftoken", Value: "rotated", Path: "/"})
			w.WriteHeader(http.StatusOK)
		case "/api/v1/self/account/":
			c, err := r.Cookie("sessionid")
			if assert.NoError(t, err) {
				assert.Equal(t, "s1", c.Value)
			}
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer server.Close()

	csrf := &fakeCSRF{token: "old", ok: true}
	gw := newTestGateway(t, server, csrf)

	_, err := gw.Post(context.Background(), "/auth/login/", map[string]string{})
	require.NoError(t, err)
	_, err = gw.Get(context.Background(), "/self/account/")
	require.NoError(t, err)

	assert.Equal(t, []string{"rotated"}, csrf.stored)
}

func TestGateway_UploadSendsMultipart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "tok", r.Header.Get("X-CSRFToken"))
		assert.Equal(t, "Quarterly", r.FormValue("title"))

		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		content, _ := io.ReadAll(f)
		assert.Equal(t, "report.pdf", hdr.Filename)
		assert.Equal(t, "%PDF", string(content))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	res, err := newTestGateway(t, server, &fakeCSRF{token: "tok", ok: true}).Upload(context.Background(), "/downloads/", &domain.MultipartBody{
		Fields: map[string]string{"title": "Quarterly"},
		Files:  []domain.FilePart{{Field: "file", FileName: "report.pdf", Content: strings.NewReader("%PDF")}},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, res.Status)
}

func TestGateway_Download(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/downloads/3/download_file/" {
			w.Header().Set("Content-Disposition", `attachment; filename="manual.pdf"`)
			_, _ = io.WriteString(w, "binary")
			return
		}
		if r.URL.Path == "/api/v1/downloads/4/download_file/" {
			_, _ = io.WriteString(w, "raw")
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	gw := newTestGateway(t, server, nil)

	var buf strings.Builder
	name, err := gw.Download(context.Background(), "/downloads/3/download_file/", &buf)
	require.NoError(t, err)
	assert.Equal(t, "manual.pdf", name)
	assert.Equal(t, "binary", buf.String())

	buf.Reset()
	name, err = gw.Download(context.Background(), "/downloads/4/download_file/", &buf)
	require.NoError(t, err)
	assert.Equal(t, "download_4", name)

	_, err = gw.Download(context.Background(), "/downloads/9/download_file/", &buf)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
