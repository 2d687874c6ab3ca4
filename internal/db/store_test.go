package db

import (
	"context"
	"strings"
	"testing"

	"assetmarket/internal/catalog"
	"assetmarket/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupMockStore creates a store over a mocked MySQL connection
func setupMockStore(t *testing.T) (*Store, *gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gdb, err := gorm.Open(mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return NewStore(gdb), gdb, mock
}

func TestApplyQuery_SQL(t *testing.T) {
	_, gdb, _ := setupMockStore(t)
	free := true

	tests := []struct {
		name     string
		query    catalog.Query
		contains []string
		excludes []string
	}{
		{
			name:     "public page",
			query:    catalog.Query{Filter: catalog.Filter{ApprovedOnly: true, Category: domain.CategoryUIKits}, Sort: catalog.SortNewest, Offset: 12, Limit: 12},
			contains: []string{"is_approved = true", "category = 'ui-kits'", "`created_at` DESC", "`id` DESC", "LIMIT 12", "OFFSET 12"},
		},
		{
			name:     "free search",
			query:    catalog.Query{Filter: catalog.Filter{ApprovedOnly: true, Search: "Dash", Free: &free}, Sort: catalog.SortPriceLow, Limit: 12},
			contains: []string{"is_free = true", "LOWER(title) LIKE '%dash%'", "JSON_SEARCH(LOWER(tags), 'one', '%dash%') IS NOT NULL", "ORDER BY `price`"},
			excludes: []string{"OFFSET"},
		},
		{
			name:     "featured",
			query:    catalog.Query{Filter: catalog.Filter{ApprovedOnly: true, FeaturedOnly: true}, Sort: catalog.SortNewest, Limit: catalog.FeaturedCap},
			contains: []string{"is_featured = true", "LIMIT 8"},
		},
		{
			name:     "unbounded seller listing",
			query:    catalog.Query{Filter: catalog.Filter{SellerID: 7}, Sort: catalog.SortPopular},
			contains: []string{"seller_id = 7", "`download_count` DESC"},
			excludes: []string{"LIMIT", "is_approved"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql := gdb.ToSQL(func(tx *gorm.DB) *gorm.DB {
				return applyQuery(tx.Model(&domain.Asset{}), tt.query).Find(&[]domain.Asset{})
			})
			assert.True(t, strings.HasPrefix(sql, "SELECT * FROM `assets`"), sql)
			for _, fragment := range tt.contains {
				assert.Contains(t, sql, fragment)
			}
			for _, fragment := range tt.excludes {
				assert.NotContains(t, sql, fragment)
			}
		})
	}
}

func TestApplyQuery_VisibilityPredicateComesFirst(t *testing.T) {
	_, gdb, _ := setupMockStore(t)
	sql := gdb.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var n int64
		return applyFilter(tx.Model(&domain.Asset{}), catalog.Filter{ApprovedOnly: true, Category: domain.CategorySnippets}).Count(&n)
	})
	assert.Less(t, strings.Index(sql, "is_approved"), strings.Index(sql, "category"))
	assert.Contains(t, sql, "count(*)")
}

func TestLikeEscaper(t *testing.T) {
	assert.Equal(t, `50\%\_off`, likeEscaper.Replace("50%_off"))
	assert.Equal(t, `a\\b`, likeEscaper.Replace(`a\b`))
}

func TestStore_FindAssetNotFound(t *testing.T) {
	store, _, mock := setupMockStore(t)
	mock.ExpectQuery("SELECT \\* FROM `assets`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title"}))

	_, err := store.FindAsset(context.Background(), 42)
	assert.ErrorIs(t, err, domain.ErrAssetNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_IncrementDownloadsMissing(t *testing.T) {
	store, _, mock := setupMockStore(t)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `assets` SET `download_count`=download_count \\+ \\?").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	_, err := store.IncrementDownloads(context.Background(), 42)
	assert.ErrorIs(t, err, domain.ErrAssetNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_CreateUserDuplicateEmail(t *testing.T) {
	store, _, mock := setupMockStore(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `users`").
		WillReturnError(&mysqldriver.MySQLError{Number: 1062, Message: "Duplicate entry 'ana@example.com' for key 'email'"})
	mock.ExpectRollback()

	err := store.CreateUser(context.Background(), &domain.User{Name: "Ana", Email: "ana@example.com", Role: domain.RoleBuyer})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ReviewStatsGrouped(t *testing.T) {
	store, _, mock := setupMockStore(t)
	mock.ExpectQuery("SELECT asset_id, SUM\\(rating\\) AS rating_sum, COUNT\\(\\*\\) AS rating_count FROM `reviews`").
		WillReturnRows(sqlmock.NewRows([]string{"asset_id", "rating_sum", "rating_count"}).
			AddRow(1, 9, 2).
			AddRow(3, 5, 1))

	stats, err := store.ReviewStats(context.Background(), []uint{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, 4.5, stats[1].Average())
	assert.Equal(t, 0.0, stats[2].Average())
	assert.Equal(t, int64(1), stats[3].Count)
	assert.NoError(t, mock.ExpectationsWereMet())

	// No ids, no query
	empty, err := store.ReviewStats(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestStore_DeleteAssetRollsBackWhenMissing(t *testing.T) {
	store, _, mock := setupMockStore(t)
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `wishlist_items`").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM `reviews`").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM `assets`").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := store.DeleteAsset(context.Background(), 42)
	assert.ErrorIs(t, err, domain.ErrAssetNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ListPastLastPageSkipsQuery(t *testing.T) {
	store, _, mock := setupMockStore(t)
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `assets`").
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(3))

	svc := catalog.NewService(store, nil)
	page, err := svc.List(context.Background(), catalog.ParseListParams("4611686018427387905", "2", "", "", "", ""))
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, 2, page.TotalPages)
	assert.Equal(t, int64(3), page.TotalCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}
