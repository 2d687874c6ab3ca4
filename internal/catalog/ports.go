package catalog

import (
	"context"

	"assetmarket/internal/domain"
)

// Repository is the persistence surface the catalog needs
type Repository interface {
	CountAssets(ctx context.Context, f Filter) (int64, error)
	FindAssets(ctx context.Context, q Query) ([]domain.Asset, error) // Seller populated
	FindAsset(ctx context.Context, id uint) (*domain.Asset, error)  // Seller populated, ErrAssetNotFound when missing
	CreateAsset(ctx context.Context, a *domain.Asset) error
	SaveAsset(ctx context.Context, a *domain.Asset) error
	DeleteAsset(ctx context.Context, id uint) error
	IncrementDownloads(ctx context.Context, id uint) (*domain.Asset, error)
	CreateReview(ctx context.Context, r *domain.Review) error
	FindReviews(ctx context.Context, assetID uint) ([]domain.Review, error) // User populated
	ReviewStats(ctx context.Context, assetIDs []uint) (map[uint]ReviewStats, error)
}

// PageCache stores rendered listings under a generation. A reader pins the
// generation before touching the store and writes its result under it, so a
// page computed before an Invalidate is never served after it.
type PageCache interface {
	Version(ctx context.Context) (int64, error)
	Get(ctx context.Context, version int64, key string, dest any) (bool, error)
	Set(ctx context.Context, version int64, key string, value any) error
	Invalidate(ctx context.Context) error
}
