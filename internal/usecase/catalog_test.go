package usecase

import (
	"bytes"
	"net/http"
	"testing"

	"portal-client/internal/domain"
	"portal-client/internal/infrastructure/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_Products(t *testing.T) {
	env := newTestEnv(t)
	env.api.on(http.MethodGet, "/products/?ordering=price&search=cable", reply{status: http.StatusOK, body: `{"count":1,"results":[{"id":3,"name":"Cable Set","price":"9.99"}]}`})
	env.api.on(http.MethodGet, "/products/featured/", reply{status: http.StatusOK, body: `[{"id":1,"name":"Router"},{"id":2,"name":"Switch"}]`})
	uc := NewCatalog(env.deps)

	list, err := uc.Products(t.Context(), domain.ProductFilter{Search: "cable", Ordering: "price"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Cable Set", list[0].Name)

	featured, err := uc.FeaturedProducts(t.Context())
	require.NoError(t, err)
	assert.Len(t, featured, 2)

	_, err = uc.Products(t.Context(), domain.ProductFilter{Search: "cable", Ordering: "price"})
	require.NoError(t, err)
	assert.Equal(t, 1, env.api.count(http.MethodGet, "/products/?ordering=price&search=cable"))
}

func TestCatalog_UnknownOrderingIsDropped(t *testing.T) {
	env := newTestEnv(t)
	env.api.on(http.MethodGet, "/products/", reply{status: http.StatusOK, body: `[]`})

	list, err := NewCatalog(env.deps).Products(t.Context(), domain.ProductFilter{Ordering: "-secret"})

	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCatalog_ProductNotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := NewCatalog(env.deps).Product(t.Context(), 99)

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 1, env.api.count(http.MethodGet, "/products/99/"), "404 is not retried")
}

func TestCatalog_DownloadFile(t *testing.T) {
	t.Run("streams and invalidates listings", func(t *testing.T) {
		env := newTestEnv(t)
		env.api.file = "%PDF-1.7"
		env.cache.SetData(cache.Key{"downloads", "popular"}, []domain.Download{{ID: 4}})
		var buf bytes.Buffer

		name, err := NewCatalog(env.deps).DownloadFile(t.Context(), 4, &buf)

		require.NoError(t, err)
		assert.Equal(t, "report.pdf", name)
		assert.Equal(t, "%PDF-1.7", buf.String())
		e, ok := env.cache.Peek(cache.Key{"downloads", "popular"})
		require.True(t, ok)
		assert.True(t, e.Invalidated)
	})

	t.Run("failure is notified", func(t *testing.T) {
		env := newTestEnv(t)
		env.notifier.On("Error", "error", MsgDownloadFailed).Once()

		_, err := NewCatalog(env.deps).DownloadFile(t.Context(), 4, &bytes.Buffer{})

		assert.ErrorIs(t, err, domain.ErrNotFound)
		env.notifier.AssertExpectations(t)
	})
}

func TestGetAppConfig_RetriesForbiddenOnce(t *testing.T) {
	env := newTestEnv(t)
	env.api.on(http.MethodGet, "/app/config/",
		reply{status: http.StatusForbidden},
		reply{status: http.StatusOK, body: `{"media_url":"/media/","static_url":"/static/","language_code":"en"}`},
	)

	cfg, err := NewGetAppConfig(env.deps).Execute(t.Context())

	require.NoError(t, err)
	assert.Equal(t, "/media/", cfg.MediaURL)
	assert.Equal(t, 2, env.api.count(http.MethodGet, "/app/config/"))
}
