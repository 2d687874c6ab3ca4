package db

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"assetmarket/internal/catalog"
	"assetmarket/internal/domain"
)

// MemoryStore is an in-process entity store with the same semantics as Store.
// It backs the "memory" driver and the service tests.
type MemoryStore struct {
	mu sync.RWMutex

	users    map[uint]*domain.User
	assets   map[uint]*domain.Asset
	reviews  []domain.Review
	wishlist []domain.WishlistItem

	nextUserID   uint
	nextAssetID  uint
	nextReviewID uint
	nextWishID   uint
	now          func() time.Time
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:  make(map[uint]*domain.User),
		assets: make(map[uint]*domain.Asset),
		now:    time.Now,
	}
}

// WithClock replaces the creation-time source
func (m *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	m.now = now
	return m
}

// copyAsset detaches an asset from the store and joins its seller
func (m *MemoryStore) copyAsset(a *domain.Asset) domain.Asset {
	out := *a
	out.PreviewImages = slices.Clone(a.PreviewImages)
	out.Tags = slices.Clone(a.Tags)
	out.Features = slices.Clone(a.Features)
	out.Technologies = slices.Clone(a.Technologies)
	out.Seller = nil
	if u, ok := m.users[a.SellerID]; ok {
		seller := *u
		out.Seller = &seller
	}
	return out
}

func (m *MemoryStore) CountAssets(_ context.Context, f catalog.Filter) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var total int64
	for _, a := range m.assets {
		if f.Matches(a) {
			total++
		}
	}
	return total, nil
}

func (m *MemoryStore) FindAssets(_ context.Context, q catalog.Query) ([]domain.Asset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	matched := make([]*domain.Asset, 0, len(m.assets))
	for _, a := range m.assets {
		if q.Filter.Matches(a) {
			matched = append(matched, a)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return q.Sort.Less(matched[i], matched[j]) })
	if q.Offset >= len(matched) {
		return []domain.Asset{}, nil
	}
	matched = matched[q.Offset:]
	if q.Limit > 0 && q.Limit < len(matched) {
		matched = matched[:q.Limit]
	}
	out := make([]domain.Asset, len(matched))
	for i, a := range matched {
		out[i] = m.copyAsset(a)
	}
	return out, nil
}

func (m *MemoryStore) FindAsset(_ context.Context, id uint) (*domain.Asset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.assets[id]
	if !ok {
		return nil, domain.ErrAssetNotFound
	}
	out := m.copyAsset(a)
	return &out, nil
}

func (m *MemoryStore) CreateAsset(_ context.Context, a *domain.Asset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextAssetID++
	a.ID = m.nextAssetID
	if a.CreatedAt.IsZero() {
		a.CreatedAt = m.now()
	}
	if a.Version == "" {
		a.Version = domain.DefaultAssetVersion
	}
	stored := *a
	stored.Seller = nil
	m.assets[a.ID] = &stored
	return nil
}

func (m *MemoryStore) SaveAsset(_ context.Context, a *domain.Asset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.assets[a.ID]; !ok {
		return domain.ErrAssetNotFound
	}
	stored := *a
	stored.Seller = nil
	m.assets[a.ID] = &stored
	return nil
}

func (m *MemoryStore) DeleteAsset(_ context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.assets[id]; !ok {
		return domain.ErrAssetNotFound
	}
	m.dropAssets(map[uint]bool{id: true})
	return nil
}

// dropAssets removes assets with their reviews and wishlist entries; callers hold mu
func (m *MemoryStore) dropAssets(ids map[uint]bool) {
	for id := range ids {
		delete(m.assets, id)
	}
	m.reviews = slices.DeleteFunc(m.reviews, func(r domain.Review) bool { return ids[r.AssetID] })
	m.wishlist = slices.DeleteFunc(m.wishlist, func(w domain.WishlistItem) bool { return ids[w.AssetID] })
}

func (m *MemoryStore) IncrementDownloads(_ context.Context, id uint) (*domain.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assets[id]
	if !ok {
		return nil, domain.ErrAssetNotFound
	}
	a.DownloadCount++
	out := m.copyAsset(a)
	return &out, nil
}

func (m *MemoryStore) SetModeration(_ context.Context, id uint, approved, featured bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assets[id]
	if !ok {
		return domain.ErrAssetNotFound
	}
	a.IsApproved, a.IsFeatured = approved, featured
	return nil
}

func (m *MemoryStore) CreateReview(_ context.Context, r *domain.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextReviewID++
	r.ID = m.nextReviewID
	if r.CreatedAt.IsZero() {
		r.CreatedAt = m.now()
	}
	stored := *r
	stored.User = nil
	m.reviews = append(m.reviews, stored)
	return nil
}

func (m *MemoryStore) FindReviews(_ context.Context, assetID uint) ([]domain.Review, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []domain.Review{}
	for _, r := range m.reviews {
		if r.AssetID != assetID {
			continue
		}
		if u, ok := m.users[r.UserID]; ok {
			author := *u
			r.User = &author
		}
		out = append(out, r)
	}
	return out, nil
}

func (m *MemoryStore) ReviewStats(_ context.Context, assetIDs []uint) (map[uint]catalog.ReviewStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stats := make(map[uint]catalog.ReviewStats, len(assetIDs))
	for _, r := range m.reviews {
		if !slices.Contains(assetIDs, r.AssetID) {
			continue
		}
		s := stats[r.AssetID]
		s.Sum += int64(r.Rating)
		s.Count++
		stats[r.AssetID] = s
	}
	return stats, nil
}

func (m *MemoryStore) CreateUser(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return domain.ErrEmailTaken
		}
	}
	m.nextUserID++
	u.ID = m.nextUserID
	if u.Role == "" {
		u.Role = domain.RoleBuyer
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = m.now()
	}
	stored := *u
	m.users[u.ID] = &stored
	return nil
}

func (m *MemoryStore) FindUser(_ context.Context, id uint) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	out := *u
	return &out, nil
}

func (m *MemoryStore) FindUserByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			out := *u
			return &out, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m *MemoryStore) SaveUser(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.ID]; !ok {
		return domain.ErrUserNotFound
	}
	stored := *u
	m.users[u.ID] = &stored
	return nil
}

func (m *MemoryStore) ListUsers(_ context.Context) ([]domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) CountUsers(_ context.Context, role domain.Role) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var total int64
	for _, u := range m.users {
		if role == "" || u.Role == role {
			total++
		}
	}
	return total, nil
}

func (m *MemoryStore) SetRole(_ context.Context, id uint, role domain.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Role = role
	return nil
}

func (m *MemoryStore) DeleteUser(_ context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	owned := make(map[uint]bool)
	for _, a := range m.assets {
		if a.SellerID == id {
			owned[a.ID] = true
		}
	}
	m.dropAssets(owned)
	m.reviews = slices.DeleteFunc(m.reviews, func(r domain.Review) bool { return r.UserID == id })
	m.wishlist = slices.DeleteFunc(m.wishlist, func(w domain.WishlistItem) bool { return w.UserID == id })
	delete(m.users, id)
	return nil
}

func (m *MemoryStore) wishlistIndex(userID, assetID uint) int {
	return slices.IndexFunc(m.wishlist, func(w domain.WishlistItem) bool {
		return w.UserID == userID && w.AssetID == assetID
	})
}

func (m *MemoryStore) WishlistContains(_ context.Context, userID, assetID uint) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.wishlistIndex(userID, assetID) >= 0, nil
}

func (m *MemoryStore) AddWishlistItem(_ context.Context, userID, assetID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.wishlistIndex(userID, assetID) >= 0 {
		return domain.ErrAlreadyInWishlist
	}
	m.nextWishID++
	m.wishlist = append(m.wishlist, domain.WishlistItem{
		ID:        m.nextWishID,
		UserID:    userID,
		AssetID:   assetID,
		CreatedAt: m.now(),
	})
	return nil
}

func (m *MemoryStore) RemoveWishlistItem(_ context.Context, userID, assetID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.wishlistIndex(userID, assetID)
	if i < 0 {
		return domain.ErrNotInWishlist
	}
	m.wishlist = slices.Delete(m.wishlist, i, i+1)
	return nil
}

func (m *MemoryStore) WishlistAssets(_ context.Context, userID uint) ([]domain.Asset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []domain.Asset{}
	for _, w := range m.wishlist {
		if w.UserID != userID {
			continue
		}
		if a, ok := m.assets[w.AssetID]; ok {
			out = append(out, m.copyAsset(a))
		}
	}
	return out, nil
}
