package usecase

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"portal-client/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdatePassword_Execute(t *testing.T) {
	tests := []struct {
		name  string
		reply reply
		kind  string
		want  string
	}{
		{"success", reply{status: http.StatusNoContent}, "success", MsgPasswordUpdated},
		{"wrong current password", reply{status: http.StatusBadRequest, body: `{"current_password":["Invalid password"]}`}, "error", MsgInvalidCurrentPass},
		{"weak new password", reply{status: http.StatusBadRequest, body: `{"new_password":["This password is too short."]}`}, "error", MsgPasswordTooWeak},
		{"other 400", reply{status: http.StatusBadRequest, body: `{"detail":"nope"}`}, "error", MsgPasswordUpdateFailed},
		{"session expired", reply{status: http.StatusUnauthorized}, "error", MsgSessionExpired},
		{"forbidden", reply{status: http.StatusForbidden}, "error", MsgNoPasswordPermission},
		{"network", reply{err: errConnRefused}, "error", MsgSomethingWrong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.api.on(http.MethodPut, "/self/password/", tt.reply)
			method := "Success"
			if tt.kind == "error" {
				method = "Error"
			}
			env.notifier.On(method, tt.kind, tt.want).Once()

			err := NewUpdatePassword(env.deps).Execute(t.Context(), UpdatePasswordInput{CurrentPassword: "old", NewPassword: "new"})

			if tt.kind == "success" {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
			}
			env.notifier.AssertExpectations(t)
		})
	}
}

func TestDeleteAccount_Execute(t *testing.T) {
	t.Run("success drops identity", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedSelf()
		env.api.on(http.MethodDelete, "/self/account/", reply{status: http.StatusNoContent})
		env.notifier.On("Success", "success", MsgAccountDeleted).Once()
		env.navigator.On("Navigate", domain.RouteLogin).Once()

		require.NoError(t, NewDeleteAccount(env.deps).Execute(t.Context()))

		_, ok := env.cache.Peek(KeySelf)
		assert.False(t, ok)
		env.notifier.AssertExpectations(t)
		env.navigator.AssertExpectations(t)
	})

	t.Run("failures keep identity", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedSelf()
		env.api.on(http.MethodDelete, "/self/account/",
			reply{status: http.StatusUnauthorized},
			reply{status: http.StatusForbidden},
			reply{status: http.StatusInternalServerError},
		)
		env.notifier.On("Error", "error", MsgSessionExpired).Once()
		env.notifier.On("Error", "error", MsgNoDeletePermission).Once()
		env.notifier.On("Error", "error", MsgSomethingWrong).Once()

		uc := NewDeleteAccount(env.deps)
		for range 3 {
			require.Error(t, uc.Execute(t.Context()))
		}

		_, ok := env.cache.Peek(KeySelf)
		assert.True(t, ok)
		env.notifier.AssertExpectations(t)
	})
}

func TestUpdateSelf_Execute(t *testing.T) {
	t.Run("success stores returned identity", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedSelf()
		env.api.on(http.MethodPut, "/self/account/", reply{status: http.StatusOK, body: selfJSON})
		env.notifier.On("Success", "success", MsgAccountUpdated).Once()
		last := "Liddell"

		self, err := NewUpdateSelf(env.deps).Execute(t.Context(), UpdateSelfInput{LastName: &last})

		require.NoError(t, err)
		assert.Equal(t, "Liddell", self.LastName)
		state := NewSession(env.cache, nil).State()
		require.NotNil(t, state.User)
		assert.Equal(t, "Liddell", state.User.LastName)
		env.notifier.AssertExpectations(t)
	})

	t.Run("validation message is shown raw", func(t *testing.T) {
		env := newTestEnv(t)
		env.api.on(http.MethodPut, "/self/account/", reply{status: http.StatusBadRequest, body: `{"first_name":["Ensure this field has no more than 150 characters."]}`})
		env.notifier.On("Error", "error", "Ensure this field has no more than 150 characters.").Once()

		_, err := NewUpdateSelf(env.deps).Execute(t.Context(), UpdateSelfInput{})

		require.Error(t, err)
		env.notifier.AssertExpectations(t)
	})

	t.Run("forbidden", func(t *testing.T) {
		env := newTestEnv(t)
		env.api.on(http.MethodPut, "/self/account/", reply{status: http.StatusForbidden})
		env.notifier.On("Error", "error", MsgNoUpdatePermission).Once()

		_, err := NewUpdateSelf(env.deps).Execute(t.Context(), UpdateSelfInput{})

		assert.ErrorIs(t, err, domain.ErrForbidden)
		env.notifier.AssertExpectations(t)
	})
}

func TestGetSelf_Execute(t *testing.T) {
	t.Run("fetches once and caches", func(t *testing.T) {
		env := newTestEnv(t)
		env.api.on(http.MethodGet, "/self/account/", reply{status: http.StatusOK, body: selfJSON})
		uc := NewGetSelf(env.deps)

		first, err := uc.Execute(t.Context())
		require.NoError(t, err)
		second, err := uc.Execute(t.Context())
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, "Alice", first.FirstName)
		assert.Equal(t, 1, env.api.count(http.MethodGet, "/self/account/"))
	})

	t.Run("401 is not retried and is remembered", func(t *testing.T) {
		env := newTestEnv(t)
		env.api.on(http.MethodGet, "/self/account/", reply{status: http.StatusUnauthorized, body: `{"detail":"Not authenticated"}`})
		uc := NewGetSelf(env.deps)

		_, err := uc.Execute(t.Context())
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
		_, err = uc.Execute(t.Context())
		assert.ErrorIs(t, err, domain.ErrUnauthorized)

		assert.Equal(t, 1, env.api.count(http.MethodGet, "/self/account/"))
		assert.Equal(t, domain.SessionUnauthenticated, NewSession(env.cache, uc).State().Status)
	})

	t.Run("server errors are retried twice", func(t *testing.T) {
		env := newTestEnv(t)
		env.api.on(http.MethodGet, "/self/account/", reply{status: http.StatusServiceUnavailable})

		_, err := NewGetSelf(env.deps).Execute(t.Context())

		assert.ErrorIs(t, err, domain.ErrServer)
		assert.Equal(t, 3, env.api.count(http.MethodGet, "/self/account/"))
	})
}

func TestSession(t *testing.T) {
	t.Run("resolve loads identity", func(t *testing.T) {
		env := newTestEnv(t)
		env.api.on(http.MethodGet, "/self/account/", reply{status: http.StatusOK, body: selfJSON})
		s := NewSession(env.cache, NewGetSelf(env.deps))

		assert.Equal(t, domain.SessionUnknown, s.State().Status)
		state := s.Resolve(t.Context())

		assert.True(t, state.IsAuthenticated())
		assert.Equal(t, "alice@example.com", state.User.Email)
	})

	t.Run("watch reports transitions once", func(t *testing.T) {
		env := newTestEnv(t)
		s := NewSession(env.cache, nil)
		var (
			mu   sync.Mutex
			seen []domain.SessionStatus
		)
		stop := s.Watch(func(st domain.SessionState) {
			mu.Lock()
			seen = append(seen, st.Status)
			mu.Unlock()
		})

		env.seedSelf()
		env.seedSelf()
		env.cache.SetData(KeyAppConfig, domain.APIAppConfig{})
		env.cache.Clear()
		stop()
		env.seedSelf()

		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, []domain.SessionStatus{
			domain.SessionUnknown,
			domain.SessionAuthenticated,
			domain.SessionUnknown,
		}, seen)
	})

	t.Run("watch reports a change made during the first callback", func(t *testing.T) {
		env := newTestEnv(t)
		s := NewSession(env.cache, nil)
		var seen []domain.SessionStatus

		stop := s.Watch(func(st domain.SessionState) {
			seen = append(seen, st.Status)
			if len(seen) == 1 {
				env.seedSelf()
			}
		})
		defer stop()

		assert.Equal(t, []domain.SessionStatus{
			domain.SessionUnknown,
			domain.SessionAuthenticated,
		}, seen)
	})
}

func TestAuthChecker_Run(t *testing.T) {
	const interval = 10 * time.Millisecond

	runChecker := func(t *testing.T, env *testEnv) (context.CancelFunc, <-chan error) {
		t.Helper()
		ctx, cancel := context.WithCancel(t.Context())
		done := make(chan error, 1)
		checker := NewAuthChecker(env.deps, NewSession(env.cache, nil), interval)
		go func() { done <- checker.Run(ctx) }()
		return cancel, done
	}

	t.Run("polls while signed in and stops after expiry", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedSelf()
		env.api.on(http.MethodGet, "/auth/check/",
			reply{status: http.StatusOK, body: `{"authenticated":true}`},
			reply{status: http.StatusOK, body: `{"authenticated":true}`},
			reply{status: http.StatusUnauthorized},
		)
		env.notifier.On("Warning", "warning", MsgSessionExpired).Once()
		env.navigator.On("Navigate", domain.RouteLogin).Once()

		cancel, done := runChecker(t, env)
		defer cancel()

		require.Eventually(t, func() bool {
			_, ok := env.cache.Peek(KeySelf)
			return !ok
		}, time.Second, time.Millisecond)
		assert.Equal(t, 3, env.api.count(http.MethodGet, "/auth/check/"))

		time.Sleep(5 * interval)
		assert.Equal(t, 3, env.api.count(http.MethodGet, "/auth/check/"))

		cancel()
		select {
		case err := <-done:
			assert.ErrorIs(t, err, context.Canceled)
		case <-time.After(time.Second):
			t.Fatal("Run did not return after cancel")
		}
		env.notifier.AssertExpectations(t)
		env.navigator.AssertExpectations(t)
	})

	t.Run("waits for a sign-in before polling", func(t *testing.T) {
		env := newTestEnv(t)
		env.api.on(http.MethodGet, "/auth/check/", reply{status: http.StatusOK, body: `{"authenticated":true}`})

		cancel, done := runChecker(t, env)
		defer cancel()

		time.Sleep(5 * interval)
		assert.Zero(t, env.api.count(http.MethodGet, "/auth/check/"))

		env.seedSelf()
		require.Eventually(t, func() bool {
			return env.api.count(http.MethodGet, "/auth/check/") >= 2
		}, time.Second, time.Millisecond)

		cancel()
		assert.ErrorIs(t, <-done, context.Canceled)
	})
}

func TestAuthChecker_Check(t *testing.T) {
	t.Run("skips without identity", func(t *testing.T) {
		env := newTestEnv(t)
		checker := NewAuthChecker(env.deps, NewSession(env.cache, nil), time.Minute)

		err := checker.Check(t.Context())

		assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
		assert.Zero(t, env.api.count(http.MethodGet, "/auth/check/"))
	})

	t.Run("ok keeps identity", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedSelf()
		env.api.on(http.MethodGet, "/auth/check/", reply{status: http.StatusOK, body: `{"authenticated":true}`})
		session := NewSession(env.cache, nil)

		require.NoError(t, NewAuthChecker(env.deps, session, time.Minute).Check(t.Context()))
		assert.True(t, session.State().IsAuthenticated())
	})

	t.Run("401 expires the session", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedSelf()
		env.api.on(http.MethodGet, "/auth/check/", reply{status: http.StatusUnauthorized})
		env.notifier.On("Warning", "warning", MsgSessionExpired).Once()
		env.navigator.On("Navigate", domain.RouteLogin).Once()
		session := NewSession(env.cache, nil)

		err := NewAuthChecker(env.deps, session, time.Minute).Check(t.Context())

		assert.ErrorIs(t, err, domain.ErrSessionExpired)
		assert.False(t, session.State().IsAuthenticated())
		assert.Equal(t, 1, env.api.count(http.MethodGet, "/auth/check/"))
		env.notifier.AssertExpectations(t)
		env.navigator.AssertExpectations(t)
	})

	t.Run("server error leaves session alone", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedSelf()
		env.api.on(http.MethodGet, "/auth/check/", reply{status: http.StatusInternalServerError})
		session := NewSession(env.cache, nil)

		err := NewAuthChecker(env.deps, session, time.Minute).Check(t.Context())

		assert.ErrorIs(t, err, domain.ErrServer)
		assert.True(t, session.State().IsAuthenticated())
		assert.Equal(t, 3, env.api.count(http.MethodGet, "/auth/check/"))
	})
}
