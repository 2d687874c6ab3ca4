package catalog

import (
	"math"
	"time"

	"assetmarket/internal/domain"
)

// SellerSummary is the seller projection used by list rendering
type SellerSummary struct {
	ID     uint   `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// SellerProfile is the seller projection used by the detail page
type SellerProfile struct {
	ID         uint          `json:"id"`
	Name       string        `json:"name"`
	Email      string        `json:"email"`
	Avatar     string        `json:"avatar"`
	Bio        string        `json:"bio"`
	Website    string        `json:"website"`
	Social     domain.Social `json:"social"`
	IsVerified bool          `json:"isVerified"`
}

// AssetSummary is an asset joined with its seller summary and rating
type AssetSummary struct {
	domain.Asset
	Seller      SellerSummary `json:"seller"`
	Rating      float64       `json:"rating"`
	ReviewCount int64         `json:"reviewCount"`
}

// ReviewView is a review joined with its author
type ReviewView struct {
	ID        uint          `json:"id"`
	Rating    int           `json:"rating"`
	Comment   string        `json:"comment"`
	User      SellerSummary `json:"user"`
	CreatedAt time.Time     `json:"createdAt"`
}

// AssetDetail is the full single-asset view
type AssetDetail struct {
	domain.Asset
	Seller  SellerProfile `json:"seller"`
	Reviews []ReviewView  `json:"reviews"`
	Rating  float64       `json:"rating"`
}

// Page is the paginated listing envelope
type Page struct {
	Items       []AssetSummary `json:"items"`
	CurrentPage int            `json:"currentPage"`
	TotalPages  int            `json:"totalPages"`
	TotalCount  int64          `json:"totalCount"`
}

// ReviewStats aggregates the ratings of one asset
type ReviewStats struct {
	Sum   int64
	Count int64
}

// Average returns the mean rating rounded to one decimal, or 0 without reviews
func (s ReviewStats) Average() float64 {
	if s.Count == 0 {
		return 0
	}
	return math.Round(float64(s.Sum)/float64(s.Count)*10) / 10
}

// StatsOf aggregates a set of reviews
func StatsOf(reviews []domain.Review) ReviewStats {
	var s ReviewStats
	for _, r := range reviews {
		s.Sum += int64(r.Rating)
		s.Count++
	}
	return s
}

func summarizeSeller(u *domain.User) SellerSummary {
	if u == nil {
		return SellerSummary{}
	}
	return SellerSummary{ID: u.ID, Name: u.Name, Avatar: u.Avatar}
}

func profileOf(u *domain.User) SellerProfile {
	if u == nil {
		return SellerProfile{}
	}
	return SellerProfile{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Avatar:     u.Avatar,
		Bio:        u.Bio,
		Website:    u.Website,
		Social:     u.Social,
		IsVerified: u.IsVerified,
	}
}

// Summarize joins an asset with its seller and review stats
func Summarize(a domain.Asset, stats ReviewStats) AssetSummary {
	seller := summarizeSeller(a.Seller)
	if seller.ID == 0 {
		seller.ID = a.SellerID
	}
	return AssetSummary{
		Asset:       a,
		Seller:      seller,
		Rating:      stats.Average(),
		ReviewCount: stats.Count,
	}
}

// Detail builds the single-asset view
func Detail(a domain.Asset, reviews []domain.Review) AssetDetail {
	views := make([]ReviewView, len(reviews))
	for i, r := range reviews {
		views[i] = ReviewView{
			ID:        r.ID,
			Rating:    r.Rating,
			Comment:   r.Comment,
			User:      summarizeSeller(r.User),
			CreatedAt: r.CreatedAt,
		}
	}
	seller := profileOf(a.Seller)
	if seller.ID == 0 {
		seller.ID = a.SellerID
	}
	return AssetDetail{
		Asset:   a,
		Seller:  seller,
		Reviews: views,
		Rating:  StatsOf(reviews).Average(),
	}
}
