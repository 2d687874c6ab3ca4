package wishlist_test

import (
	"context"
	"sync"
	"testing"

	"assetmarket/internal/db"
	"assetmarket/internal/domain"
	"assetmarket/internal/wishlist"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*wishlist.Service, *db.MemoryStore, uint, []uint) {
	t.Helper()
	ctx := context.Background()
	store := db.NewMemoryStore()
	seller := &domain.User{Name: "Sam", Email: "sam@example.com", Role: domain.RoleSeller}
	buyer := &domain.User{Name: "Bo", Email: "bo@example.com"}
	require.NoError(t, store.CreateUser(ctx, seller))
	require.NoError(t, store.CreateUser(ctx, buyer))
	ids := make([]uint, 3)
	for i := range ids {
		a := &domain.Asset{Title: "Kit", Category: domain.CategoryUIKits, SellerID: seller.ID, FileURL: "/uploads/kit.zip"}
		require.NoError(t, store.CreateAsset(ctx, a))
		ids[i] = a.ID
	}
	return wishlist.NewService(store), store, buyer.ID, ids
}

func TestAdd(t *testing.T) {
	svc, _, buyer, ids := setup(t)
	ctx := context.Background()

	item, err := svc.Add(ctx, buyer, ids[0])
	require.NoError(t, err)
	assert.Equal(t, ids[0], item.ID)
	assert.Equal(t, "Sam", item.Seller.Name)

	_, err = svc.Add(ctx, buyer, ids[0])
	assert.ErrorIs(t, err, domain.ErrAlreadyInWishlist)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))

	_, err = svc.Add(ctx, buyer, 999)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))

	items, err := svc.List(ctx, buyer)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestRemove(t *testing.T) {
	svc, _, buyer, ids := setup(t)
	ctx := context.Background()

	assert.ErrorIs(t, svc.Remove(ctx, buyer, ids[0]), domain.ErrNotInWishlist)

	_, err := svc.Add(ctx, buyer, ids[0])
	require.NoError(t, err)
	require.NoError(t, svc.Remove(ctx, buyer, ids[0]))
	assert.ErrorIs(t, svc.Remove(ctx, buyer, ids[0]), domain.ErrNotInWishlist)

	items, err := svc.List(ctx, buyer)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestList_InsertionOrder(t *testing.T) {
	svc, _, buyer, ids := setup(t)
	ctx := context.Background()
	for _, id := range []uint{ids[2], ids[0], ids[1]} {
		_, err := svc.Add(ctx, buyer, id)
		require.NoError(t, err)
	}

	items, err := svc.List(ctx, buyer)
	require.NoError(t, err)
	got := make([]uint, len(items))
	for i, item := range items {
		got[i] = item.ID
	}
	assert.Equal(t, []uint{ids[2], ids[0], ids[1]}, got)

	other, err := svc.List(ctx, buyer+100)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestAdd_ConcurrentDuplicatesConflict(t *testing.T) {
	svc, _, buyer, ids := setup(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Add(ctx, buyer, ids[1])
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.Equal(t, domain.KindConflict, domain.KindOf(err))
	}
	assert.Equal(t, 1, succeeded)

	items, err := svc.List(ctx, buyer)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestDeletedAssetLeavesWishlist(t *testing.T) {
	svc, store, buyer, ids := setup(t)
	ctx := context.Background()
	_, err := svc.Add(ctx, buyer, ids[0])
	require.NoError(t, err)

	require.NoError(t, store.DeleteAsset(ctx, ids[0]))

	items, err := svc.List(ctx, buyer)
	require.NoError(t, err)
	assert.Empty(t, items)
}
