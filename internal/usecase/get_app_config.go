package usecase

import (
	"context"
	"net/http"

	"portal-client/internal/domain"
	"portal-client/internal/infrastructure/cache"
)

// GetAppConfig loads the public application settings.
type GetAppConfig struct {
	d Deps
}

// NewGetAppConfig creates a new GetAppConfig usecase.
func NewGetAppConfig(d Deps) *GetAppConfig {
	return &GetAppConfig{d: d}
}

// Execute fetches GET /app/config/. A 403 is retried once; other failures follow the default limit.
func (uc *GetAppConfig) Execute(ctx context.Context) (domain.AppConfig, error) {
	return cache.Select(ctx, uc.d.Cache, cache.Query[domain.APIAppConfig]{
		Key: KeyAppConfig,
		Fn: func(ctx context.Context) (domain.APIAppConfig, error) {
			res, err := uc.d.API.Do(ctx, domain.RequestDescriptor{Path: "/app/config/", Method: http.MethodGet})
			if err != nil {
				return domain.APIAppConfig{}, err
			}
			return decode[domain.APIAppConfig](res, "app config")
		},
		Retry:          cache.RetryLimited(http.StatusForbidden, 1, cache.RetryUnless(2)),
		Backoff:        uc.d.Backoff,
		RefetchOnError: true,
	}, domain.DeserializeAppConfig)
}
