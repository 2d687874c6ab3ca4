package catalog

import (
	"context"
	"strings"
	"unicode/utf8"

	"assetmarket/internal/domain"

	"github.com/sirupsen/logrus"
)

// MaxTitleLength bounds asset titles
const MaxTitleLength = 100

// AssetInput carries asset fields for create and partial update. Nil fields
// are left untouched on update.
type AssetInput struct {
	Title         *string
	Description   *string
	Category      *domain.Category
	Price         *float64
	IsFree        *bool
	DemoURL       *string
	Requirements  *string
	Version       *string
	FileURL       *string
	PreviewImages []string
	Tags          []string
	Features      []string
	Technologies  []string
}

// Service is the catalog query engine plus the asset write paths
type Service struct {
	repo  Repository
	cache PageCache // Optional
}

// NewService creates a catalog service; cache may be nil
func NewService(repo Repository, cache PageCache) *Service {
	return &Service{repo: repo, cache: cache}
}

// List returns one page of publicly listable assets
func (s *Service) List(ctx context.Context, params ListParams) (*Page, error) {
	p := params.Normalize()
	cacheKey := "list:" + p.CacheKey()
	version, caching := s.cacheVersion(ctx)
	var cached Page
	if caching && s.cacheGet(ctx, version, cacheKey, &cached) {
		return &cached, nil
	}
	page := &Page{Items: []AssetSummary{}, CurrentPage: p.Page}
	filter, ok := p.Filter()
	if !ok {
		return page, nil // Unknown category matches nothing
	}
	total, err := s.repo.CountAssets(ctx, filter)
	if err != nil {
		return nil, err
	}
	page.TotalCount = total
	page.TotalPages = TotalPages(total, p.Limit)
	if p.Page <= page.TotalPages { // Past the last page is empty, not an error
		assets, err := s.repo.FindAssets(ctx, Query{Filter: filter, Sort: p.Sort, Offset: Offset(p.Page, p.Limit), Limit: p.Limit})
		if err != nil {
			return nil, err
		}
		if page.Items, err = s.summarize(ctx, assets); err != nil {
			return nil, err
		}
	}
	if caching {
		s.cacheSet(ctx, version, cacheKey, page)
	}
	return page, nil
}

// Featured returns up to FeaturedCap approved, featured assets
func (s *Service) Featured(ctx context.Context) ([]AssetSummary, error) {
	version, caching := s.cacheVersion(ctx)
	var cached []AssetSummary
	if caching && s.cacheGet(ctx, version, "featured", &cached) {
		return cached, nil
	}
	assets, err := s.repo.FindAssets(ctx, Query{
		Filter: Filter{ApprovedOnly: true, FeaturedOnly: true},
		Sort:   SortNewest,
		Limit:  FeaturedCap,
	})
	if err != nil {
		return nil, err
	}
	items, err := s.summarize(ctx, assets)
	if err != nil {
		return nil, err
	}
	if caching {
		s.cacheSet(ctx, version, "featured", items)
	}
	return items, nil
}

// Get returns the full detail of one asset regardless of approval state
func (s *Service) Get(ctx context.Context, id uint) (*AssetDetail, error) {
	a, err := s.repo.FindAsset(ctx, id)
	if err != nil {
		return nil, err
	}
	reviews, err := s.repo.FindReviews(ctx, id)
	if err != nil {
		return nil, err
	}
	d := Detail(*a, reviews)
	return &d, nil
}

// SellerAssets returns every asset of a seller, newest first
func (s *Service) SellerAssets(ctx context.Context, sellerID uint) ([]AssetSummary, error) {
	assets, err := s.repo.FindAssets(ctx, Query{Filter: Filter{SellerID: sellerID}, Sort: SortNewest})
	if err != nil {
		return nil, err
	}
	return s.summarize(ctx, assets)
}

// Create stores a new pending asset owned by the actor
func (s *Service) Create(ctx context.Context, actor domain.Actor, in AssetInput) (*domain.Asset, error) {
	if !actor.CanSell() {
		return nil, domain.Forbidden("Seller access required")
	}
	if in.Title == nil || strings.TrimSpace(*in.Title) == "" {
		return nil, domain.Validation("Title is required")
	}
	if in.Description == nil || strings.TrimSpace(*in.Description) == "" {
		return nil, domain.Validation("Description is required")
	}
	if in.Category == nil {
		return nil, domain.Validation("Category is required")
	}
	if in.FileURL == nil || *in.FileURL == "" {
		return nil, domain.Validation("Please upload a file")
	}
	a := &domain.Asset{
		SellerID:      actor.UserID,
		Version:       domain.DefaultAssetVersion,
		PreviewImages: []string{},
		Tags:          []string{},
		Features:      []string{},
		Technologies:  []string{},
	}
	if err := apply(a, in); err != nil {
		return nil, err
	}
	if err := s.repo.CreateAsset(ctx, a); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	logrus.WithFields(logrus.Fields{
		"asset_id":  a.ID,
		"seller_id": actor.UserID,
		"category":  a.Category,
	}).Info("Asset created")
	return a, nil
}

// Update applies a partial update; only the owner or an admin may do it
func (s *Service) Update(ctx context.Context, actor domain.Actor, id uint, in AssetInput) (*domain.Asset, error) {
	a, err := s.owned(ctx, actor, id, "Not authorized to update this asset")
	if err != nil {
		return nil, err
	}
	if err := apply(a, in); err != nil {
		return nil, err
	}
	if err := s.repo.SaveAsset(ctx, a); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	logrus.WithFields(logrus.Fields{"asset_id": id, "actor_id": actor.UserID}).Info("Asset updated")
	return a, nil
}

// Delete removes an asset; only the owner or an admin may do it
func (s *Service) Delete(ctx context.Context, actor domain.Actor, id uint) error {
	if _, err := s.owned(ctx, actor, id, "Not authorized to delete this asset"); err != nil {
		return err
	}
	if err := s.repo.DeleteAsset(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	logrus.WithFields(logrus.Fields{"asset_id": id, "actor_id": actor.UserID}).Info("Asset removed")
	return nil
}

// Download counts a download and returns the current file location
func (s *Service) Download(ctx context.Context, id uint) (string, error) {
	a, err := s.repo.IncrementDownloads(ctx, id)
	if err != nil {
		return "", err
	}
	s.invalidate(ctx) // Popular ordering and counts changed
	return a.FileURL, nil
}

// AddReview records a rating for an existing asset
func (s *Service) AddReview(ctx context.Context, actor domain.Actor, assetID uint, rating int, comment string) (*domain.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, domain.Validation("Rating must be between 1 and 5")
	}
	if _, err := s.repo.FindAsset(ctx, assetID); err != nil {
		return nil, err
	}
	r := &domain.Review{AssetID: assetID, UserID: actor.UserID, Rating: rating, Comment: strings.TrimSpace(comment)}
	if err := s.repo.CreateReview(ctx, r); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return r, nil
}

func (s *Service) owned(ctx context.Context, actor domain.Actor, id uint, denied string) (*domain.Asset, error) {
	a, err := s.repo.FindAsset(ctx, id)
	if err != nil {
		return nil, err
	}
	if !a.OwnedBy(actor.UserID) && !actor.IsAdmin() {
		return nil, domain.Forbidden(denied)
	}
	return a, nil
}

func (s *Service) summarize(ctx context.Context, assets []domain.Asset) ([]AssetSummary, error) {
	ids := make([]uint, len(assets))
	for i := range assets {
		ids[i] = assets[i].ID
	}
	stats, err := s.repo.ReviewStats(ctx, ids)
	if err != nil {
		return nil, err
	}
	items := make([]AssetSummary, len(assets))
	for i := range assets {
		items[i] = Summarize(assets[i], stats[assets[i].ID])
	}
	return items, nil
}

// cacheVersion pins the cache generation for one read; false disables caching for it
func (s *Service) cacheVersion(ctx context.Context) (int64, bool) {
	if s.cache == nil {
		return 0, false
	}
	v, err := s.cache.Version(ctx)
	if err != nil {
		logrus.WithField("error", err.Error()).Warn("Catalog cache version lookup failed")
		return 0, false
	}
	return v, true
}

func (s *Service) cacheGet(ctx context.Context, version int64, key string, dest any) bool {
	found, err := s.cache.Get(ctx, version, key, dest)
	if err != nil {
		logrus.WithFields(logrus.Fields{"key": key, "error": err.Error()}).Warn("Catalog cache read failed")
		return false
	}
	return found
}

func (s *Service) cacheSet(ctx context.Context, version int64, key string, value any) {
	if err := s.cache.Set(ctx, version, key, value); err != nil {
		logrus.WithFields(logrus.Fields{"key": key, "error": err.Error()}).Warn("Catalog cache write failed")
	}
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		logrus.WithField("error", err.Error()).Warn("Catalog cache invalidation failed")
	}
}

// apply copies the set fields of in onto a and validates the result
func apply(a *domain.Asset, in AssetInput) error {
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return domain.Validation("Title is required")
		}
		if utf8.RuneCountInString(title) > MaxTitleLength {
			return domain.Validation("Title cannot be more than 100 characters")
		}
		a.Title = title
	}
	if in.Description != nil {
		if strings.TrimSpace(*in.Description) == "" {
			return domain.Validation("Description is required")
		}
		a.Description = *in.Description
	}
	if in.Category != nil {
		if !in.Category.Valid() {
			return domain.Validation("Invalid category")
		}
		a.Category = *in.Category
	}
	if in.Price != nil {
		if *in.Price < 0 {
			return domain.Validation("Price cannot be negative")
		}
		a.Price = *in.Price
	}
	if in.IsFree != nil {
		a.IsFree = *in.IsFree
	}
	if a.IsFree {
		a.Price = 0
	}
	if in.DemoURL != nil {
		a.DemoURL = *in.DemoURL
	}
	if in.Requirements != nil {
		a.Requirements = *in.Requirements
	}
	if in.Version != nil && *in.Version != "" {
		a.Version = *in.Version
	}
	if in.FileURL != nil && *in.FileURL != "" {
		a.FileURL = *in.FileURL
	}
	if in.PreviewImages != nil {
		a.PreviewImages = in.PreviewImages
	}
	if in.Tags != nil {
		a.Tags = in.Tags
	}
	if in.Features != nil {
		a.Features = in.Features
	}
	if in.Technologies != nil {
		a.Technologies = in.Technologies
	}
	return nil
}
