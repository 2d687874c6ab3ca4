package moderation

import (
	"context"

	"assetmarket/internal/catalog"
	"assetmarket/internal/domain"

	"github.com/sirupsen/logrus"
)

// Repository is the persistence surface moderation needs
type Repository interface {
	FindAsset(ctx context.Context, id uint) (*domain.Asset, error)
	FindAssets(ctx context.Context, q catalog.Query) ([]domain.Asset, error)
	CountAssets(ctx context.Context, f catalog.Filter) (int64, error)
	SetModeration(ctx context.Context, id uint, approved, featured bool) error
	FindUser(ctx context.Context, id uint) (*domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	CountUsers(ctx context.Context, role domain.Role) (int64, error)
	SetRole(ctx context.Context, id uint, role domain.Role) error
	DeleteUser(ctx context.Context, id uint) error
}

// Invalidator drops cached listings after a visibility change
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Stats are the platform-wide counts shown on the admin dashboard
type Stats struct {
	UserCount          int64                     `json:"userCount"`
	AssetCount         int64                     `json:"assetCount"`
	ApprovedAssetCount int64                     `json:"approvedAssetCount"`
	FeaturedAssetCount int64                     `json:"featuredAssetCount"`
	UsersByRole        map[domain.Role]int64     `json:"usersByRole"`
	AssetsByCategory   map[domain.Category]int64 `json:"assetsByCategory"`
}

// AdminAsset is an asset row in the admin review queue
type AdminAsset struct {
	domain.Asset
	State       State  `json:"state"`
	SellerName  string `json:"sellerName"`
	SellerEmail string `json:"sellerEmail"`
}

// Service applies admin-only transitions to assets and users
type Service struct {
	repo   Repository
	cache  Invalidator // Optional
	policy Policy
}

// NewService creates a moderation service; cache may be nil
func NewService(repo Repository, cache Invalidator, policy Policy) *Service {
	return &Service{repo: repo, cache: cache, policy: policy}
}

// Approve makes an asset publicly listable
func (s *Service) Approve(ctx context.Context, actor domain.Actor, id uint) (*domain.Asset, error) {
	return s.transition(ctx, actor, id, ActionApprove)
}

// Reject returns an asset to pending
func (s *Service) Reject(ctx context.Context, actor domain.Actor, id uint) (*domain.Asset, error) {
	return s.transition(ctx, actor, id, ActionReject)
}

// ToggleFeature flips the featured flag
func (s *Service) ToggleFeature(ctx context.Context, actor domain.Actor, id uint) (*domain.Asset, error) {
	return s.transition(ctx, actor, id, ActionToggleFeature)
}

func (s *Service) transition(ctx context.Context, actor domain.Actor, id uint, action Action) (*domain.Asset, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrAdminRequired
	}
	a, err := s.repo.FindAsset(ctx, id)
	if err != nil {
		return nil, err
	}
	before := FlagsOf(a)
	after, err := Apply(before, action, s.policy)
	if err != nil {
		return nil, err
	}
	if after != before {
		if err := s.repo.SetModeration(ctx, id, after.Approved, after.Featured); err != nil {
			return nil, err
		}
		s.invalidate(ctx)
	}
	a.IsApproved, a.IsFeatured = after.Approved, after.Featured
	logrus.WithFields(logrus.Fields{
		"asset_id": id,
		"admin_id": actor.UserID,
		"action":   action,
		"from":     before.State(),
		"to":       after.State(),
	}).Info("Asset moderated")
	return a, nil
}

// ListAssets returns every asset, newest first, for review
func (s *Service) ListAssets(ctx context.Context, actor domain.Actor) ([]AdminAsset, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrAdminRequired
	}
	assets, err := s.repo.FindAssets(ctx, catalog.Query{Sort: catalog.SortNewest})
	if err != nil {
		return nil, err
	}
	rows := make([]AdminAsset, len(assets))
	for i, a := range assets {
		rows[i] = AdminAsset{Asset: a, State: FlagsOf(&a).State()}
		if a.Seller != nil {
			rows[i].SellerName, rows[i].SellerEmail = a.Seller.Name, a.Seller.Email
		}
	}
	return rows, nil
}

// ListUsers returns every user
func (s *Service) ListUsers(ctx context.Context, actor domain.Actor) ([]domain.User, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrAdminRequired
	}
	return s.repo.ListUsers(ctx)
}

// SetRole changes a user's role. Admins may demote themselves.
func (s *Service) SetRole(ctx context.Context, actor domain.Actor, userID uint, role domain.Role) (*domain.User, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrAdminRequired
	}
	if !role.Valid() {
		return nil, domain.Validation("Valid role is required")
	}
	u, err := s.repo.FindUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.Role != role {
		if err := s.repo.SetRole(ctx, userID, role); err != nil {
			return nil, err
		}
	}
	logrus.WithFields(logrus.Fields{
		"user_id":  userID,
		"admin_id": actor.UserID,
		"from":     u.Role,
		"to":       role,
	}).Info("User role changed")
	u.Role = role
	return u, nil
}

// DeleteUser removes a user together with their assets and wishlist
func (s *Service) DeleteUser(ctx context.Context, actor domain.Actor, userID uint) error {
	if !actor.IsAdmin() {
		return domain.ErrAdminRequired
	}
	if err := s.repo.DeleteUser(ctx, userID); err != nil {
		return err
	}
	s.invalidate(ctx)
	logrus.WithFields(logrus.Fields{"user_id": userID, "admin_id": actor.UserID}).Info("User removed")
	return nil
}

// Stats aggregates platform counts
func (s *Service) Stats(ctx context.Context, actor domain.Actor) (*Stats, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrAdminRequired
	}
	st := &Stats{
		UsersByRole:      make(map[domain.Role]int64, len(domain.Roles)),
		AssetsByCategory: make(map[domain.Category]int64, len(domain.Categories)),
	}
	var err error
	if st.UserCount, err = s.repo.CountUsers(ctx, ""); err != nil {
		return nil, err
	}
	for _, role := range domain.Roles {
		if st.UsersByRole[role], err = s.repo.CountUsers(ctx, role); err != nil {
			return nil, err
		}
	}
	if st.AssetCount, err = s.repo.CountAssets(ctx, catalog.Filter{}); err != nil {
		return nil, err
	}
	if st.ApprovedAssetCount, err = s.repo.CountAssets(ctx, catalog.Filter{ApprovedOnly: true}); err != nil {
		return nil, err
	}
	if st.FeaturedAssetCount, err = s.repo.CountAssets(ctx, catalog.Filter{FeaturedOnly: true}); err != nil {
		return nil, err
	}
	for _, c := range domain.Categories {
		if st.AssetsByCategory[c], err = s.repo.CountAssets(ctx, catalog.Filter{Category: c}); err != nil {
			return nil, err
		}
	}
	return st, nil
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		logrus.WithField("error", err.Error()).Warn("Catalog cache invalidation failed")
	}
}
