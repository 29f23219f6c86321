package domain

import (
	"bytes"
	"encoding/json"
	"net/url"
	"strconv"
	"time"
)

// Decimal is a money amount. The backend sends it as a string or a number.
type Decimal string

// UnmarshalJSON accepts a JSON string or number.
func (d *Decimal) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*d = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*d = Decimal(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*d = Decimal(n.String())
	return nil
}

// Float parses the amount, returning zero when it is not numeric.
func (d Decimal) Float() float64 {
	f, _ := strconv.ParseFloat(string(d), 64)
	return f
}

// NewDecimal formats f with two decimals.
func NewDecimal(f float64) Decimal {
	return Decimal(strconv.FormatFloat(f, 'f', 2, 64))
}

// Download is a downloadable file published on the portal.
type Download struct {
	ID              int       `json:"id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Category        string    `json:"category"`
	CategoryDisplay string    `json:"category_display"`
	File            string    `json:"file"`
	FileURL         string    `json:"file_url"`
	FileName        string    `json:"file_name"`
	FileSize        int64     `json:"file_size"`
	FileSizeDisplay string    `json:"file_size_display"`
	IsActive        bool      `json:"is_active"`
	DownloadCount   int       `json:"download_count"`
}

// DownloadCategory groups downloads by category code.
type DownloadCategory struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Product is a catalog product.
type Product struct {
	ID           int       `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Price        Decimal   `json:"price"`
	PriceDisplay string    `json:"price_display"`
}

// ProductStats summarizes the catalog. Prices are decimal strings.
type ProductStats struct {
	TotalProducts int     `json:"total_products"`
	AveragePrice  Decimal `json:"average_price"`
	MinPrice      Decimal `json:"min_price"`
	MaxPrice      Decimal `json:"max_price"`
}

// PriceRange is the span of catalog prices.
type PriceRange struct {
	MinPrice Decimal `json:"min_price"`
	MaxPrice Decimal `json:"max_price"`
	Count    int     `json:"count"`
}

// ProductOrderings lists the accepted ordering values.
var ProductOrderings = []string{"price", "-price", "name", "-name", "created_at", "-created_at"}

// ProductFilter narrows the product list.
type ProductFilter struct {
	Search   string
	MinPrice *float64
	MaxPrice *float64
	Ordering string
}

// ValidOrdering reports whether ordering is accepted by the backend.
func ValidOrdering(ordering string) bool {
	for _, o := range ProductOrderings {
		if o == ordering {
			return true
		}
	}
	return false
}

// Query encodes the filter. Unknown orderings are dropped.
func (f ProductFilter) Query() url.Values {
	q := url.Values{}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.MinPrice != nil {
		q.Set("min_price", strconv.FormatFloat(*f.MinPrice, 'f', -1, 64))
	}
	if f.MaxPrice != nil {
		q.Set("max_price", strconv.FormatFloat(*f.MaxPrice, 'f', -1, 64))
	}
	if f.Ordering != "" && ValidOrdering(f.Ordering) {
		q.Set("ordering", f.Ordering)
	}
	return q
}
