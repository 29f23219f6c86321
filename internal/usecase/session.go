package usecase

import (
	"context"
	"sync"

	"portal-client/internal/domain"
	"portal-client/internal/infrastructure/cache"
)

// Session derives the authentication state from the cached identity query.
// Nothing about the session is stored outside the cache.
type Session struct {
	cache   *cache.QueryCache
	getSelf *GetSelf
}

// NewSession creates a Session over c.
func NewSession(c *cache.QueryCache, getSelf *GetSelf) *Session {
	return &Session{cache: c, getSelf: getSelf}
}

// State reports the current state without network access.
func (s *Session) State() domain.SessionState {
	e, ok := s.cache.Peek(KeySelf)
	if !ok || e.Status == cache.StatusPending {
		return domain.SessionState{Status: domain.SessionUnknown}
	}
	if e.Status == cache.StatusError {
		return domain.SessionState{Status: domain.SessionUnauthenticated, Err: e.Err}
	}
	if wire, ok := e.Value.(domain.APISelf); ok {
		user := domain.DeserializeSelf(wire)
		return domain.SessionState{Status: domain.SessionAuthenticated, User: &user}
	}
	return domain.SessionState{Status: domain.SessionUnauthenticated}
}

// Resolve loads the identity when needed and returns the settled state.
func (s *Session) Resolve(ctx context.Context) domain.SessionState {
	if s.getSelf != nil {
		_, _ = s.getSelf.Execute(ctx)
	}
	return s.State()
}

// Watch calls fn with the current state and again whenever it changes.
// The returned function stops the notifications.
func (s *Session) Watch(fn func(domain.SessionState)) func() {
	var (
		mu     sync.Mutex
		last   domain.SessionState
		seeded bool
	)
	emit := func() {
		mu.Lock()
		next := s.State()
		changed := !seeded || !sameState(last, next)
		if changed {
			last, seeded = next, true
		}
		mu.Unlock()

		if changed {
			fn(next)
		}
	}

	// Subscribe before the first read so no change falls between them.
	stop := s.cache.Subscribe(func(ev cache.Event) {
		if ev.Type != cache.EventCleared && ev.Key.String() != KeySelf.String() {
			return
		}
		emit()
	})
	emit()
	return stop
}

func sameState(a, b domain.SessionState) bool {
	if a.Status != b.Status {
		return false
	}
	if a.User == nil || b.User == nil {
		return a.User == b.User
	}
	return *a.User == *b.User
}
