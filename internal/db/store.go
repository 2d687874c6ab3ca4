package db

import (
	"context"
	"errors"
	"strings"

	"assetmarket/internal/catalog"
	"assetmarket/internal/domain"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store is the MySQL-backed entity store
type Store struct {
	db *gorm.DB
}

// NewStore wraps an open GORM handle
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// likeEscaper escapes LIKE wildcards using MySQL's default escape character
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// applyFilter adds the WHERE conditions of f to tx
func applyFilter(tx *gorm.DB, f catalog.Filter) *gorm.DB {
	if f.ApprovedOnly {
		tx = tx.Where("is_approved = ?", true) // Visibility predicate first
	}
	if f.FeaturedOnly {
		tx = tx.Where("is_featured = ?", true)
	}
	if f.Category != "" {
		tx = tx.Where("category = ?", string(f.Category))
	}
	if f.Free != nil {
		tx = tx.Where("is_free = ?", *f.Free)
	}
	if f.SellerID != 0 {
		tx = tx.Where("seller_id = ?", f.SellerID)
	}
	if f.Search != "" {
		like := "%" + likeEscaper.Replace(strings.ToLower(f.Search)) + "%"
		// JSON_SEARCH matches each tag on its own, never the serialized array
		tx = tx.Where("(LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR JSON_SEARCH(LOWER(tags), 'one', ?) IS NOT NULL)", like, like, like)
	}
	return tx
}

// applyQuery adds filter, ordering and window of q to tx
func applyQuery(tx *gorm.DB, q catalog.Query) *gorm.DB {
	tx = applyFilter(tx, q.Filter)
	for _, o := range q.Sort.Orders() {
		tx = tx.Order(clause.OrderByColumn{Column: clause.Column{Name: o.Column}, Desc: o.Desc})
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
		if q.Offset > 0 {
			tx = tx.Offset(q.Offset)
		}
	}
	return tx
}

// CountAssets counts assets matching f
func (s *Store) CountAssets(ctx context.Context, f catalog.Filter) (int64, error) {
	var total int64
	if err := applyFilter(s.db.WithContext(ctx).Model(&domain.Asset{}), f).Count(&total).Error; err != nil {
		return 0, pkgerrors.Wrap(err, "count assets")
	}
	return total, nil
}

// FindAssets returns the assets selected by q with sellers preloaded
func (s *Store) FindAssets(ctx context.Context, q catalog.Query) ([]domain.Asset, error) {
	assets := []domain.Asset{}
	if err := applyQuery(s.db.WithContext(ctx).Preload("Seller"), q).Find(&assets).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "find assets")
	}
	return assets, nil
}

// FindAsset loads one asset with its seller
func (s *Store) FindAsset(ctx context.Context, id uint) (*domain.Asset, error) {
	var a domain.Asset
	if err := s.db.WithContext(ctx).Preload("Seller").First(&a, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAssetNotFound
		}
		return nil, pkgerrors.Wrap(err, "find asset")
	}
	return &a, nil
}

// CreateAsset inserts a new asset
func (s *Store) CreateAsset(ctx context.Context, a *domain.Asset) error {
	return pkgerrors.Wrap(s.db.WithContext(ctx).Omit(clause.Associations).Create(a).Error, "create asset")
}

// SaveAsset writes every column of a
func (s *Store) SaveAsset(ctx context.Context, a *domain.Asset) error {
	return pkgerrors.Wrap(s.db.WithContext(ctx).Omit(clause.Associations).Save(a).Error, "save asset")
}

// DeleteAsset removes an asset and everything that references it
func (s *Store) DeleteAsset(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("asset_id = ?", id).Delete(&domain.WishlistItem{}).Error; err != nil {
			return err // Return error to rollback
		}
		if err := tx.Where("asset_id = ?", id).Delete(&domain.Review{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&domain.Asset{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrAssetNotFound
		}
		return nil // Commit transaction
	})
	if err != nil && domain.KindOf(err) == domain.KindServerFault {
		return pkgerrors.Wrap(err, "delete asset")
	}
	return err
}

// IncrementDownloads bumps the download counter atomically and returns the updated asset
func (s *Store) IncrementDownloads(ctx context.Context, id uint) (*domain.Asset, error) {
	res := s.db.WithContext(ctx).Model(&domain.Asset{}).Where("id = ?", id).
		UpdateColumn("download_count", gorm.Expr("download_count + ?", 1))
	if res.Error != nil {
		return nil, pkgerrors.Wrap(res.Error, "increment downloads")
	}
	if res.RowsAffected == 0 {
		return nil, domain.ErrAssetNotFound
	}
	return s.FindAsset(ctx, id)
}

// SetModeration writes both moderation flags in one statement
func (s *Store) SetModeration(ctx context.Context, id uint, approved, featured bool) error {
	err := s.db.WithContext(ctx).Model(&domain.Asset{}).Where("id = ?", id).
		Updates(map[string]any{"is_approved": approved, "is_featured": featured}).Error
	return pkgerrors.Wrap(err, "set moderation")
}

// CreateReview inserts a review
func (s *Store) CreateReview(ctx context.Context, r *domain.Review) error {
	return pkgerrors.Wrap(s.db.WithContext(ctx).Omit(clause.Associations).Create(r).Error, "create review")
}

// FindReviews returns an asset's reviews with authors, oldest first
func (s *Store) FindReviews(ctx context.Context, assetID uint) ([]domain.Review, error) {
	reviews := []domain.Review{}
	err := s.db.WithContext(ctx).Preload("User").Where("asset_id = ?", assetID).Order("id").Find(&reviews).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "find reviews")
	}
	return reviews, nil
}

// ReviewStats aggregates ratings per asset in one grouped query
func (s *Store) ReviewStats(ctx context.Context, assetIDs []uint) (map[uint]catalog.ReviewStats, error) {
	stats := make(map[uint]catalog.ReviewStats, len(assetIDs))
	if len(assetIDs) == 0 {
		return stats, nil
	}
	var rows []struct {
		AssetID     uint
		RatingSum   int64
		RatingCount int64
	}
	err := s.db.WithContext(ctx).Model(&domain.Review{}).
		Select("asset_id, SUM(rating) AS rating_sum, COUNT(*) AS rating_count").
		Where("asset_id IN ?", assetIDs).
		Group("asset_id").
		Scan(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "review stats")
	}
	for _, r := range rows {
		stats[r.AssetID] = catalog.ReviewStats{Sum: r.RatingSum, Count: r.RatingCount}
	}
	return stats, nil
}

// CreateUser inserts a user; duplicate emails map to ErrEmailTaken
func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrEmailTaken
		}
		return pkgerrors.Wrap(err, "create user")
	}
	return nil
}

// FindUser loads a user by id
func (s *Store) FindUser(ctx context.Context, id uint) (*domain.User, error) {
	var u domain.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, pkgerrors.Wrap(err, "find user")
	}
	return &u, nil
}

// FindUserByEmail loads a user by email
func (s *Store) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, pkgerrors.Wrap(err, "find user by email")
	}
	return &u, nil
}

// SaveUser writes every column of u
func (s *Store) SaveUser(ctx context.Context, u *domain.User) error {
	return pkgerrors.Wrap(s.db.WithContext(ctx).Save(u).Error, "save user")
}

// ListUsers returns every user ordered by id
func (s *Store) ListUsers(ctx context.Context) ([]domain.User, error) {
	users := []domain.User{}
	if err := s.db.WithContext(ctx).Order("id").Find(&users).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "list users")
	}
	return users, nil
}

// CountUsers counts users with role, or all users when role is empty
func (s *Store) CountUsers(ctx context.Context, role domain.Role) (int64, error) {
	var total int64
	tx := s.db.WithContext(ctx).Model(&domain.User{})
	if role != "" {
		tx = tx.Where("role = ?", string(role))
	}
	if err := tx.Count(&total).Error; err != nil {
		return 0, pkgerrors.Wrap(err, "count users")
	}
	return total, nil
}

// SetRole updates a user's role
func (s *Store) SetRole(ctx context.Context, id uint, role domain.Role) error {
	err := s.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Update("role", string(role)).Error
	return pkgerrors.Wrap(err, "set role")
}

// DeleteUser removes a user, their assets, reviews and wishlist in one transaction
func (s *Store) DeleteUser(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u domain.User
		if err := tx.First(&u, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrUserNotFound
			}
			return err
		}
		owned := tx.Model(&domain.Asset{}).Select("id").Where("seller_id = ?", id)
		if err := tx.Where("asset_id IN (?)", owned).Delete(&domain.WishlistItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("asset_id IN (?) OR user_id = ?", owned, id).Delete(&domain.Review{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&domain.WishlistItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("seller_id = ?", id).Delete(&domain.Asset{}).Error; err != nil {
			return err
		}
		return tx.Delete(&u).Error
	})
	if err != nil && domain.KindOf(err) == domain.KindServerFault {
		return pkgerrors.Wrap(err, "delete user")
	}
	return err
}

// WishlistContains reports whether the user saved the asset
func (s *Store) WishlistContains(ctx context.Context, userID, assetID uint) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&domain.WishlistItem{}).
		Where("user_id = ? AND asset_id = ?", userID, assetID).Count(&n).Error
	if err != nil {
		return false, pkgerrors.Wrap(err, "wishlist contains")
	}
	return n > 0, nil
}

// AddWishlistItem appends an asset; the unique index turns a racing duplicate into a conflict
func (s *Store) AddWishlistItem(ctx context.Context, userID, assetID uint) error {
	if err := s.db.WithContext(ctx).Create(&domain.WishlistItem{UserID: userID, AssetID: assetID}).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrAlreadyInWishlist
		}
		return pkgerrors.Wrap(err, "add wishlist item")
	}
	return nil
}

// RemoveWishlistItem removes an asset from the wishlist
func (s *Store) RemoveWishlistItem(ctx context.Context, userID, assetID uint) error {
	res := s.db.WithContext(ctx).Where("user_id = ? AND asset_id = ?", userID, assetID).Delete(&domain.WishlistItem{})
	if res.Error != nil {
		return pkgerrors.Wrap(res.Error, "remove wishlist item")
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotInWishlist
	}
	return nil
}

// WishlistAssets returns the saved assets in insertion order with sellers preloaded
func (s *Store) WishlistAssets(ctx context.Context, userID uint) ([]domain.Asset, error) {
	assets := []domain.Asset{}
	err := s.db.WithContext(ctx).Preload("Seller").
		Joins("JOIN wishlist_items ON wishlist_items.asset_id = assets.id").
		Where("wishlist_items.user_id = ?", userID).
		Order("wishlist_items.id").
		Find(&assets).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "wishlist assets")
	}
	return assets, nil
}
