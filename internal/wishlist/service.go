// Package wishlist keeps a user's saved assets a duplicate-free ordered set.
package wishlist

import (
	"context"

	"assetmarket/internal/catalog"
	"assetmarket/internal/domain"

	"github.com/sirupsen/logrus"
)

// Repository is the persistence surface the wishlist needs
type Repository interface {
	FindAsset(ctx context.Context, id uint) (*domain.Asset, error)
	WishlistContains(ctx context.Context, userID, assetID uint) (bool, error)
	AddWishlistItem(ctx context.Context, userID, assetID uint) error    // ErrAlreadyInWishlist on a duplicate
	RemoveWishlistItem(ctx context.Context, userID, assetID uint) error // ErrNotInWishlist when absent
	WishlistAssets(ctx context.Context, userID uint) ([]domain.Asset, error)
}

// Service mutates and reads wishlists on behalf of their owner
type Service struct {
	repo Repository
}

// NewService creates a wishlist service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns the user's wishlist in insertion order with sellers joined
func (s *Service) List(ctx context.Context, userID uint) ([]catalog.AssetSummary, error) {
	assets, err := s.repo.WishlistAssets(ctx, userID)
	if err != nil {
		return nil, err
	}
	items := make([]catalog.AssetSummary, len(assets))
	for i := range assets {
		items[i] = catalog.Summarize(assets[i], catalog.ReviewStats{})
	}
	return items, nil
}

// Add saves an asset. Adding an asset twice is a conflict, not a no-op.
func (s *Service) Add(ctx context.Context, userID, assetID uint) (*catalog.AssetSummary, error) {
	a, err := s.repo.FindAsset(ctx, assetID)
	if err != nil {
		return nil, err
	}
	present, err := s.repo.WishlistContains(ctx, userID, assetID)
	if err != nil {
		return nil, err
	}
	if present {
		return nil, domain.ErrAlreadyInWishlist
	}
	// A concurrent add can still win; the store reports it as the same conflict.
	if err := s.repo.AddWishlistItem(ctx, userID, assetID); err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"user_id": userID, "asset_id": assetID}).Info("Wishlist item added")
	item := catalog.Summarize(*a, catalog.ReviewStats{})
	return &item, nil
}

// Remove drops an asset from the wishlist; removing an absent asset is a conflict
func (s *Service) Remove(ctx context.Context, userID, assetID uint) error {
	present, err := s.repo.WishlistContains(ctx, userID, assetID)
	if err != nil {
		return err
	}
	if !present {
		return domain.ErrNotInWishlist
	}
	if err := s.repo.RemoveWishlistItem(ctx, userID, assetID); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{"user_id": userID, "asset_id": assetID}).Info("Wishlist item removed")
	return nil
}
