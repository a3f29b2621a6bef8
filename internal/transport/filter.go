package transport

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/Skotchmaster/product_catalog/internal/util"
)

// ProductFilter holds the optional catalog filters. A nil field is not applied.
type ProductFilter struct {
	MinPrice   *float64
	MaxPrice   *float64
	CategoryID *uint
	Search     string
	Page       int
	Limit      int
}

func (f ProductFilter) Offset() int {
	offset, _ := util.Calculate(f.Page, f.Limit)
	return offset
}

// ParseProductFilter reads the filter from query parameters. Malformed
// numbers drop the filter; page and limit fall back to their defaults.
func ParseProductFilter(q url.Values) ProductFilter {
	page := util.ParseIntDefault(q.Get("page"), util.DefaultPage)
	_, limit := util.Calculate(page, util.ParseIntDefault(q.Get("limit"), util.DefaultPageSize))

	return ProductFilter{
		MinPrice:   parsePrice(q.Get("minPrice")),
		MaxPrice:   parsePrice(q.Get("maxPrice")),
		CategoryID: parseID(q.Get("categoryId")),
		Search:     strings.TrimSpace(q.Get("search")),
		Page:       page,
		Limit:      limit,
	}
}

func parsePrice(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func parseID(s string) *uint {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseUint(s, 10, 0)
	if err != nil || v == 0 {
		return nil
	}
	id := uint(v)
	return &id
}
