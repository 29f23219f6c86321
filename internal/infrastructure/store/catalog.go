package store

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"portal-client/internal/domain"
)

// featuredLimit is how many products the featured list returns.
const featuredLimit = 6

// StoredFile is a download's payload.
type StoredFile struct {
	Name    string
	Content []byte
}

// Catalog holds products and downloads for the development backend.
type Catalog struct {
	mu        sync.RWMutex
	products  []domain.Product
	downloads []domain.Download
	files     map[int]StoredFile
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{files: make(map[int]StoredFile)}
}

// AddProduct appends p, filling ID and PriceDisplay.
func (c *Catalog) AddProduct(p domain.Product) domain.Product {
	c.mu.Lock()
	defer c.mu.Unlock()

	p.ID = len(c.products) + 1
	p.PriceDisplay = fmt.Sprintf("$%.2f", p.Price.Float())
	c.products = append(c.products, p)
	return p
}

// AddDownload appends d with its file content, filling ID and size fields.
func (c *Catalog) AddDownload(d domain.Download, file StoredFile) domain.Download {
	c.mu.Lock()
	defer c.mu.Unlock()

	d.ID = len(c.downloads) + 1
	d.FileName = file.Name
	d.FileSize = int64(len(file.Content))
	d.FileSizeDisplay = sizeDisplay(d.FileSize)
	d.File = "/media/downloads/" + file.Name
	d.FileURL = d.File
	c.downloads = append(c.downloads, d)
	c.files[d.ID] = file
	return d
}

// Products lists products matching filter. Without an ordering the newest come first.
func (c *Catalog) Products(filter domain.ProductFilter) []domain.Product {
	c.mu.RLock()
	out := slices.Clone(c.products)
	c.mu.RUnlock()

	if q := strings.ToLower(strings.TrimSpace(filter.Search)); q != "" {
		out = slices.DeleteFunc(out, func(p domain.Product) bool {
			return !strings.Contains(strings.ToLower(p.Name), q) &&
				!strings.Contains(strings.ToLower(p.Description), q)
		})
	}
	if filter.MinPrice != nil {
		out = slices.DeleteFunc(out, func(p domain.Product) bool { return p.Price.Float() < *filter.MinPrice })
	}
	if filter.MaxPrice != nil {
		out = slices.DeleteFunc(out, func(p domain.Product) bool { return p.Price.Float() > *filter.MaxPrice })
	}

	ordering := filter.Ordering
	if !domain.ValidOrdering(ordering) {
		ordering = "-created_at"
	}
	desc := strings.HasPrefix(ordering, "-")
	field := strings.TrimPrefix(ordering, "-")
	slices.SortStableFunc(out, func(a, b domain.Product) int {
		var r int
		switch field {
		case "price":
			r = cmp.Compare(a.Price.Float(), b.Price.Float())
		case "name":
			r = cmp.Compare(a.Name, b.Name)
		default:
			r = a.CreatedAt.Compare(b.CreatedAt)
		}
		if desc {
			return -r
		}
		return r
	})
	return out
}

// Featured returns the first products of the default listing.
func (c *Catalog) Featured() []domain.Product {
	all := c.Products(domain.ProductFilter{})
	return all[:min(len(all), featuredLimit)]
}

// Product returns the product with id.
func (c *Catalog) Product(id int) (domain.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, p := range c.products {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Product{}, false
}

// Stats summarizes product prices.
func (c *Catalog) Stats() domain.ProductStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.products) == 0 {
		return domain.ProductStats{AveragePrice: "0", MinPrice: "0", MaxPrice: "0"}
	}
	lo, hi, sum := c.priceSpanLocked()
	return domain.ProductStats{
		TotalProducts: len(c.products),
		AveragePrice:  domain.NewDecimal(sum / float64(len(c.products))),
		MinPrice:      domain.NewDecimal(lo),
		MaxPrice:      domain.NewDecimal(hi),
	}
}

// PriceRange returns the span of product prices.
func (c *Catalog) PriceRange() domain.PriceRange {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.products) == 0 {
		return domain.PriceRange{MinPrice: "0", MaxPrice: "0"}
	}
	lo, hi, _ := c.priceSpanLocked()
	return domain.PriceRange{
		MinPrice: domain.NewDecimal(lo),
		MaxPrice: domain.NewDecimal(hi),
		Count:    len(c.products),
	}
}

func (c *Catalog) priceSpanLocked() (lo, hi, sum float64) {
	lo = c.products[0].Price.Float()
	hi = lo
	for _, p := range c.products {
		f := p.Price.Float()
		lo = min(lo, f)
		hi = max(hi, f)
		sum += f
	}
	return lo, hi, sum
}

// Downloads lists active downloads, newest first.
func (c *Catalog) Downloads() []domain.Download {
	c.mu.RLock()
	out := slices.Clone(c.downloads)
	c.mu.RUnlock()

	out = slices.DeleteFunc(out, func(d domain.Download) bool { return !d.IsActive })
	slices.SortStableFunc(out, func(a, b domain.Download) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out
}

// PopularDownloads returns the most downloaded entries.
func (c *Catalog) PopularDownloads(limit int) []domain.Download {
	out := c.Downloads()
	slices.SortStableFunc(out, func(a, b domain.Download) int { return cmp.Compare(b.DownloadCount, a.DownloadCount) })
	return out[:min(len(out), limit)]
}

// RecentDownloads returns the newest entries.
func (c *Catalog) RecentDownloads(limit int) []domain.Download {
	out := c.Downloads()
	return out[:min(len(out), limit)]
}

// Download returns the active download with id.
func (c *Catalog) Download(id int) (domain.Download, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, d := range c.downloads {
		if d.ID == id && d.IsActive {
			return d, true
		}
	}
	return domain.Download{}, false
}

// Fetch returns the file of download id and increments its counter.
func (c *Catalog) Fetch(id int) (StoredFile, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.downloads {
		if c.downloads[i].ID == id && c.downloads[i].IsActive {
			c.downloads[i].DownloadCount++
			return c.files[id], true
		}
	}
	return StoredFile{}, false
}

// Seed fills the catalog with sample data.
func (c *Catalog) Seed(now time.Time) {
	products := []struct {
		name, desc string
		price      float64
	}{
		{"Starter Kit", "Everything needed to get going", 19.99},
		{"Pro License", "Annual license for teams", 249.00},
		{"Sensor Module", "Temperature and humidity sensor", 34.50},
		{"Gateway Box", "Edge gateway with LTE", 399.00},
		{"Cable Set", "Assorted connection cables", 9.90},
		{"Mounting Bracket", "Steel wall bracket", 14.00},
		{"Support Plan", "Priority support for one year", 120.00},
	}
	for i, p := range products {
		at := now.Add(-time.Duration(len(products)-i) * time.Hour)
		c.AddProduct(domain.Product{
			Name:        p.name,
			Description: p.desc,
			Price:       domain.NewDecimal(p.price),
			CreatedAt:   at,
			UpdatedAt:   at,
		})
	}

	downloads := []struct {
		title, category, display, file string
		count                          int
	}{
		{"User Manual", "manual", "Manual", "user-manual.pdf", 42},
		{"Firmware 2.1", "firmware", "Firmware", "firmware-2.1.bin", 17},
		{"Datasheet", "datasheet", "Datasheet", "datasheet.pdf", 88},
	}
	for i, d := range downloads {
		at := now.Add(-time.Duration(len(downloads)-i) * 24 * time.Hour)
		c.AddDownload(domain.Download{
			Title:           d.title,
			Description:     d.title + " for the portal products",
			Category:        d.category,
			CategoryDisplay: d.display,
			IsActive:        true,
			DownloadCount:   d.count,
			CreatedAt:       at,
			UpdatedAt:       at,
		}, StoredFile{Name: d.file, Content: []byte("sample content of " + d.file + "\n")})
	}
}

func sizeDisplay(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
