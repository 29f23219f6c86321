package handler

import (
	"mime"
	"net/http"
	"path/filepath"
	"strconv"

	"portal-client/internal/domain"
	"portal-client/internal/infrastructure/store"

	"github.com/labstack/echo/v4"
)

// listingLimit caps the popular and recent download lists.
const listingLimit = 5

// CatalogReader is the read side of the product and download catalog.
type CatalogReader interface {
	Products(filter domain.ProductFilter) []domain.Product
	Featured() []domain.Product
	Product(id int) (domain.Product, bool)
	Stats() domain.ProductStats
	PriceRange() domain.PriceRange
	Downloads() []domain.Download
	PopularDownloads(limit int) []domain.Download
	RecentDownloads(limit int) []domain.Download
	Download(id int) (domain.Download, bool)
	Fetch(id int) (store.StoredFile, bool)
}

// CatalogHandler serves the public /products/ and /downloads/ endpoints.
type CatalogHandler struct {
	catalog CatalogReader
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(catalog CatalogReader) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// Products handles GET /products/?search=&min_price=&max_price=&ordering=.
// Unparseable prices and unknown orderings are ignored.
func (h *CatalogHandler) Products(c echo.Context) error {
	filter := domain.ProductFilter{
		Search:   c.QueryParam("search"),
		MinPrice: parsePrice(c.QueryParam("min_price")),
		MaxPrice: parsePrice(c.QueryParam("max_price")),
	}
	if o := c.QueryParam("ordering"); domain.ValidOrdering(o) {
		filter.Ordering = o
	}
	return c.JSON(http.StatusOK, nonNil(h.catalog.Products(filter)))
}

// Featured handles GET /products/featured/.
func (h *CatalogHandler) Featured(c echo.Context) error {
	return c.JSON(http.StatusOK, nonNil(h.catalog.Featured()))
}

// Stats handles GET /products/stats/.
func (h *CatalogHandler) Stats(c echo.Context) error {
	return c.JSON(http.StatusOK, h.catalog.Stats())
}

// PriceRange handles GET /products/price_range/.
func (h *CatalogHandler) PriceRange(c echo.Context) error {
	return c.JSON(http.StatusOK, h.catalog.PriceRange())
}

// Product handles GET /products/:id/.
func (h *CatalogHandler) Product(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	p, ok := h.catalog.Product(id)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, msgNotFound)
	}
	return c.JSON(http.StatusOK, p)
}

// Downloads handles GET /downloads/.
func (h *CatalogHandler) Downloads(c echo.Context) error {
	return c.JSON(http.StatusOK, nonNil(h.catalog.Downloads()))
}

// PopularDownloads handles GET /downloads/popular/.
func (h *CatalogHandler) PopularDownloads(c echo.Context) error {
	return c.JSON(http.StatusOK, nonNil(h.catalog.PopularDownloads(listingLimit)))
}

// RecentDownloads handles GET /downloads/recent/.
func (h *CatalogHandler) RecentDownloads(c echo.Context) error {
	return c.JSON(http.StatusOK, nonNil(h.catalog.RecentDownloads(listingLimit)))
}

// Download handles GET /downloads/:id/.
func (h *CatalogHandler) Download(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	d, ok := h.catalog.Download(id)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, msgNotFound)
	}
	return c.JSON(http.StatusOK, d)
}

// DownloadFile handles GET /downloads/:id/download_file/ and counts the download.
func (h *CatalogHandler) DownloadFile(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	file, ok := h.catalog.Fetch(id)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, msgNotFound)
	}

	contentType := mime.TypeByExtension(filepath.Ext(file.Name))
	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		mime.FormatMediaType("attachment", map[string]string{"filename": file.Name}))
	return c.Blob(http.StatusOK, contentType, file.Content)
}

func pathID(c echo.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusNotFound, msgNotFound)
	}
	return id, nil
}

func parsePrice(raw string) *float64 {
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &f
}

// nonNil keeps empty listings encoded as [] rather than null.
func nonNil[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}
