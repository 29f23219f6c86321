package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"portal-client/internal/domain"
	"portal-client/internal/infrastructure/cache"

	"github.com/stretchr/testify/mock"
)

// MockNotifier records user-facing messages.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Success(msg string) { m.Called("success", msg) }
func (m *MockNotifier) Error(msg string)   { m.Called("error", msg) }
func (m *MockNotifier) Warning(msg string) { m.Called("warning", msg) }

// MockNavigator records route changes.
type MockNavigator struct {
	mock.Mock
}

func (m *MockNavigator) Navigate(route string) { m.Called(route) }

// reply is a canned response for one path.
type reply struct {
	status int
	body   string
	err    error
}

// fakeAPI answers requests from a table keyed by "METHOD path".
type fakeAPI struct {
	mu      sync.Mutex
	replies map[string][]reply
	calls   []domain.RequestDescriptor
	file    string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{replies: make(map[string][]reply)}
}

// on queues replies for method and path. The last one repeats.
func (f *fakeAPI) on(method, path string, replies ...reply) *fakeAPI {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies[method+" "+path] = append(f.replies[method+" "+path], replies...)
	return f
}

func (f *fakeAPI) Do(_ context.Context, req domain.RequestDescriptor) (*domain.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)

	key := req.Method + " " + req.Path
	queue := f.replies[key]
	if len(queue) == 0 {
		return nil, domain.NewAPIError(http.StatusNotFound, "", []byte(`{"detail":"Not found."}`))
	}
	r := queue[0]
	if len(queue) > 1 {
		f.replies[key] = queue[1:]
	}

	if r.err != nil {
		return nil, domain.NewNetworkError(r.err)
	}
	if r.status >= 400 {
		return nil, domain.NewAPIError(r.status, "", []byte(r.body))
	}
	body := r.body
	if body == "" {
		body = "{}"
	}
	return &domain.Result{Status: r.status, Body: json.RawMessage(body)}, nil
}

func (f *fakeAPI) Download(_ context.Context, path string, w io.Writer) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, domain.RequestDescriptor{Path: path, Method: http.MethodGet})
	if f.file == "" {
		return "", domain.NewAPIError(http.StatusNotFound, "", nil)
	}
	_, err := io.WriteString(w, f.file)
	return "report.pdf", err
}

func (f *fakeAPI) count(method, path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.Method == method && c.Path == path {
			n++
		}
	}
	return n
}

type testEnv struct {
	api       *fakeAPI
	cache     *cache.QueryCache
	notifier  *MockNotifier
	navigator *MockNavigator
	deps      Deps
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	api := newFakeAPI()
	c := cache.New(cache.WithStaleTime(time.Minute))
	notifier := new(MockNotifier)
	navigator := new(MockNavigator)
	return &testEnv{
		api:       api,
		cache:     c,
		notifier:  notifier,
		navigator: navigator,
		deps: Deps{
			API:       api,
			Cache:     c,
			Navigator: navigator,
			Notifier:  notifier,
			Backoff:   cache.Backoff{Base: time.Millisecond, Max: 2 * time.Millisecond},
		},
	}
}

// seedSelf stores a signed-in identity.
func (e *testEnv) seedSelf() {
	e.cache.SetData(KeySelf, domain.APISelf{ID: 7, Email: "alice@example.com", FirstName: "Alice"})
}

var errConnRefused = errors.New("connection refused")

const selfJSON = `{"id":7,"email":"alice@example.com","first_name":"Alice","last_name":"Liddell"}`
