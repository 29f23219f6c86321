package usecase

import (
	"context"
	"net/http"

	"portal-client/internal/domain"
	"portal-client/internal/infrastructure/cache"
)

// GetSelf loads the signed-in user's identity.
type GetSelf struct {
	d Deps
}

// NewGetSelf creates a new GetSelf usecase.
func NewGetSelf(d Deps) *GetSelf {
	return &GetSelf{d: d}
}

// Execute returns the cached identity or fetches GET /self/account/.
// Authentication failures are never retried, and a cached failure is
// returned as is until something invalidates the entry.
func (uc *GetSelf) Execute(ctx context.Context) (domain.Self, error) {
	return cache.Select(ctx, uc.d.Cache, cache.Query[domain.APISelf]{
		Key: KeySelf,
		Fn: func(ctx context.Context) (domain.APISelf, error) {
			res, err := uc.d.API.Do(ctx, domain.RequestDescriptor{Path: "/self/account/", Method: http.MethodGet})
			if err != nil {
				return domain.APISelf{}, err
			}
			return decode[domain.APISelf](res, "self")
		},
		Retry:          cache.RetryUnless(2, http.StatusUnauthorized, http.StatusForbidden),
		Backoff:        uc.d.Backoff,
		RefetchOnError: false,
	}, domain.DeserializeSelf)
}
