package usecase

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"portal-client/internal/domain"
	"portal-client/internal/infrastructure/cache"
)

// Catalog reads the public downloads and products listings.
type Catalog struct {
	d Deps
}

// NewCatalog creates a new Catalog usecase.
func NewCatalog(d Deps) *Catalog {
	return &Catalog{d: d}
}

func fetchList[T any](ctx context.Context, d Deps, key cache.Key, path string) ([]T, error) {
	return cache.Fetch(ctx, d.Cache, cache.Query[[]T]{
		Key: key,
		Fn: func(ctx context.Context) ([]T, error) {
			res, err := d.API.Do(ctx, domain.RequestDescriptor{Path: path, Method: http.MethodGet})
			if err != nil {
				return nil, err
			}
			return decodeList[T](res, path)
		},
		Backoff:        d.Backoff,
		RefetchOnError: true,
	})
}

func fetchOne[T any](ctx context.Context, d Deps, key cache.Key, path string) (T, error) {
	return cache.Fetch(ctx, d.Cache, cache.Query[T]{
		Key: key,
		Fn: func(ctx context.Context) (T, error) {
			res, err := d.API.Do(ctx, domain.RequestDescriptor{Path: path, Method: http.MethodGet})
			if err != nil {
				var zero T
				return zero, err
			}
			return decode[T](res, path)
		},
		Backoff:        d.Backoff,
		RefetchOnError: true,
	})
}

// Downloads lists every active download.
func (uc *Catalog) Downloads(ctx context.Context) ([]domain.Download, error) {
	return fetchList[domain.Download](ctx, uc.d, cache.Key{"downloads", "all"}, "/downloads/")
}

// PopularDownloads lists the most downloaded files.
func (uc *Catalog) PopularDownloads(ctx context.Context) ([]domain.Download, error) {
	return fetchList[domain.Download](ctx, uc.d, cache.Key{"downloads", "popular"}, "/downloads/popular/")
}

// RecentDownloads lists the newest files.
func (uc *Catalog) RecentDownloads(ctx context.Context) ([]domain.Download, error) {
	return fetchList[domain.Download](ctx, uc.d, cache.Key{"downloads", "recent"}, "/downloads/recent/")
}

// Download returns one download's metadata.
func (uc *Catalog) Download(ctx context.Context, id int) (domain.Download, error) {
	return fetchOne[domain.Download](ctx, uc.d, cache.Key{"downloads", "detail", strconv.Itoa(id)}, fmt.Sprintf("/downloads/%d/", id))
}

// Products lists products matching filter.
func (uc *Catalog) Products(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	q := filter.Query().Encode()
	path := "/products/"
	if q != "" {
		path += "?" + q
	}
	return fetchList[domain.Product](ctx, uc.d, cache.Key{"products", "list", q}, path)
}

// FeaturedProducts lists the featured products.
func (uc *Catalog) FeaturedProducts(ctx context.Context) ([]domain.Product, error) {
	return fetchList[domain.Product](ctx, uc.d, cache.Key{"products", "featured"}, "/products/featured/")
}

// Product returns one product.
func (uc *Catalog) Product(ctx context.Context, id int) (domain.Product, error) {
	return fetchOne[domain.Product](ctx, uc.d, cache.Key{"products", "detail", strconv.Itoa(id)}, fmt.Sprintf("/products/%d/", id))
}

// ProductStats summarizes the catalog.
func (uc *Catalog) ProductStats(ctx context.Context) (domain.ProductStats, error) {
	return fetchOne[domain.ProductStats](ctx, uc.d, cache.Key{"products", "stats"}, "/products/stats/")
}

// PriceRange returns the lowest and highest product price.
func (uc *Catalog) PriceRange(ctx context.Context) (domain.PriceRange, error) {
	return fetchOne[domain.PriceRange](ctx, uc.d, cache.Key{"products", "price_range"}, "/products/price_range/")
}

// DownloadFile streams a download into w and returns its filename.
func (uc *Catalog) DownloadFile(ctx context.Context, id int, w io.Writer) (string, error) {
	name, err := uc.d.API.Download(ctx, fmt.Sprintf("/downloads/%d/download_file/", id), w)
	if err != nil {
		uc.d.logger().WarnContext(ctx, "download failed", "download_id", id, "error", err)
		uc.d.fail(MsgDownloadFailed)
		return "", err
	}
	// The server counts the download; cached listings are now outdated.
	uc.d.Cache.Invalidate(KeyDownloads)
	return name, nil
}
