package catalog

import (
	"math"
	"strconv"
	"strings"

	"assetmarket/internal/domain"
)

const (
	DefaultPage  = 1   // First page
	DefaultLimit = 12  // Page size used by the marketplace grid
	MaxLimit     = 100 // Upper bound on client-supplied page size
	FeaturedCap  = 8   // Featured list size
)

// Sort is a catalog ordering
type Sort string

const (
	SortNewest    Sort = "newest"
	SortOldest    Sort = "oldest"
	SortPriceLow  Sort = "price-low"
	SortPriceHigh Sort = "price-high"
	SortPopular   Sort = "popular"
)

// ParseSort maps a raw sort key to a Sort; unknown keys fall back to newest
func ParseSort(s string) Sort {
	switch Sort(s) {
	case SortOldest, SortPriceLow, SortPriceHigh, SortPopular:
		return Sort(s)
	default:
		return SortNewest
	}
}

// Order is one ORDER BY term
type Order struct {
	Column string
	Desc   bool
}

// Orders returns the ordering terms for s. The trailing id term breaks ties by
// creation sequence so repeated calls paginate identically.
func (s Sort) Orders() []Order {
	switch s {
	case SortOldest:
		return []Order{{Column: "created_at"}, {Column: "id"}}
	case SortPriceLow:
		return []Order{{Column: "price"}, {Column: "id"}}
	case SortPriceHigh:
		return []Order{{Column: "price", Desc: true}, {Column: "id"}}
	case SortPopular:
		return []Order{{Column: "download_count", Desc: true}, {Column: "id"}}
	default:
		return []Order{{Column: "created_at", Desc: true}, {Column: "id", Desc: true}}
	}
}

// Less orders two assets the same way Orders does
func (s Sort) Less(a, b *domain.Asset) bool {
	for _, o := range s.Orders() {
		c := compare(o.Column, a, b)
		if c == 0 {
			continue
		}
		if o.Desc {
			return c > 0
		}
		return c < 0
	}
	return false
}

func compare(column string, a, b *domain.Asset) int {
	switch column {
	case "created_at":
		return a.CreatedAt.Compare(b.CreatedAt)
	case "price":
		return cmpNumber(a.Price, b.Price)
	case "download_count":
		return cmpNumber(a.DownloadCount, b.DownloadCount)
	default:
		return cmpNumber(a.ID, b.ID)
	}
}

func cmpNumber[T int64 | uint | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Filter selects assets. Zero values mean "no constraint".
type Filter struct {
	ApprovedOnly bool            // Visibility predicate for public queries
	FeaturedOnly bool            // Homepage promotion only
	Category     domain.Category // Exact category
	Search       string          // Case-insensitive substring over title, description, tags
	Free         *bool           // Tri-state price filter
	SellerID     uint            // Owning seller
}

// Matches evaluates the filter against a single asset
func (f Filter) Matches(a *domain.Asset) bool {
	if f.ApprovedOnly && !a.Listable() {
		return false
	}
	if f.FeaturedOnly && !a.IsFeatured {
		return false
	}
	if f.Category != "" && a.Category != f.Category {
		return false
	}
	if f.Free != nil && a.IsFree != *f.Free {
		return false
	}
	if f.SellerID != 0 && a.SellerID != f.SellerID {
		return false
	}
	if f.Search != "" {
		term := strings.ToLower(f.Search)
		if strings.Contains(strings.ToLower(a.Title), term) || strings.Contains(strings.ToLower(a.Description), term) {
			return true
		}
		for _, tag := range a.Tags {
			if strings.Contains(strings.ToLower(tag), term) {
				return true
			}
		}
		return false
	}
	return true
}

// Query is a filter plus ordering and window. Limit 0 means unbounded.
type Query struct {
	Filter Filter
	Sort   Sort
	Offset int
	Limit  int
}

// ListParams are the public listing parameters after normalization
type ListParams struct {
	Page     int    `json:"page"`
	Limit    int    `json:"limit"`
	Category string `json:"category,omitempty"`
	Search   string `json:"search,omitempty"`
	Free     *bool  `json:"free,omitempty"`
	Sort     Sort   `json:"sort"`
}

// ParseListParams builds ListParams from raw query-string values. Unparsable
// numbers fall back to the defaults; free accepts only "true" and "false".
func ParseListParams(page, limit, category, search, free, sort string) ListParams {
	p := ListParams{
		Category: strings.TrimSpace(category),
		Search:   strings.TrimSpace(search),
		Sort:     ParseSort(sort),
	}
	p.Page, _ = strconv.Atoi(page)
	p.Limit, _ = strconv.Atoi(limit)
	switch free {
	case "true":
		v := true
		p.Free = &v
	case "false":
		v := false
		p.Free = &v
	}
	return p.Normalize()
}

// Normalize applies defaults and bounds
func (p ListParams) Normalize() ListParams {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	p.Sort = ParseSort(string(p.Sort))
	return p
}

// Filter returns the public filter for p. ok is false when the category is
// not recognized, in which case nothing can match.
func (p ListParams) Filter() (f Filter, ok bool) {
	f = Filter{ApprovedOnly: true, Search: p.Search, Free: p.Free}
	if p.Category != "" {
		c := domain.Category(p.Category)
		if !c.Valid() {
			return f, false
		}
		f.Category = c
	}
	return f, true
}

// CacheKey identifies the normalized parameter set
func (p ListParams) CacheKey() string {
	free := "any"
	if p.Free != nil {
		free = strconv.FormatBool(*p.Free)
	}
	return strings.Join([]string{
		"page=" + strconv.Itoa(p.Page),
		"limit=" + strconv.Itoa(p.Limit),
		"category=" + p.Category,
		"search=" + strings.ToLower(p.Search),
		"free=" + free,
		"sort=" + string(p.Sort),
	}, ":")
}

// Offset returns the number of rows to skip for page, saturating at math.MaxInt
func Offset(page, limit int) int {
	if page <= 1 || limit <= 0 {
		return 0
	}
	if page-1 > math.MaxInt/limit {
		return math.MaxInt
	}
	return (page - 1) * limit
}

// TotalPages returns ceil(total/limit)
func TotalPages(total int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

// SplitList turns a comma-separated form value into trimmed, non-empty items
func SplitList(s string) []string {
	items := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	return items
}
