package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	apperrors "bike-recommender/internal/common/errors"
	"bike-recommender/internal/common/logger"
	"bike-recommender/internal/recommendation"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var bikeCols = []string{
	"id", "name", "slug", "category", "engine_capacity", "price",
	"primary_image", "popularity_score", "is_available",
	"id", "name", "is_popular",
}

var listingCols = []string{
	"id", "title", "price", "mileage", "manufacturing_year", "location",
	"is_verified", "is_featured", "status",
	"custom_brand", "custom_model", "bike_model_id", "name",
}

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestStore_FindTargetByKey(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewStore(db, logger.NewTestLogger(t))

	mock.ExpectQuery(regexp.QuoteMeta("WHERE b.slug = $1")).
		WithArgs("honda-cb-hornet-160r").
		WillReturnRows(sqlmock.NewRows(bikeCols).AddRow(
			7, "CB Hornet 160R", "honda-cb-hornet-160r", "naked", 162, 219000.0,
			nil, 85, true,
			1, "Honda", true,
		))

	got, err := store.FindTargetByKey(context.Background(), "honda-cb-hornet-160r")
	require.NoError(t, err)

	assert.Equal(t, recommendation.Candidate{
		ID: 7, Category: "naked", Price: 219000, EngineCC: 162, PopularityScore: 85,
		BrandName: "Honda", BrandPopular: true,
		Name: "CB Hornet 160R", Slug: "honda-cb-hornet-160r",
	}, *got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_FindTargetByKey_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewStore(db, logger.NewTestLogger(t))

	mock.ExpectQuery(regexp.QuoteMeta("WHERE b.slug = $1")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(bikeCols))

	_, err := store.FindTargetByKey(context.Background(), "missing")
	assert.ErrorIs(t, err, recommendation.ErrNotFound)
}

func TestStore_FindCandidatePool_Bikes(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewStore(db, logger.NewTestLogger(t))

	mock.ExpectQuery(regexp.QuoteMeta("WHERE b.is_available = TRUE")).
		WithArgs(int64(7), "naked").
		WillReturnRows(sqlmock.NewRows(bikeCols).
			AddRow(8, "FZS V3", "yamaha-fzs-v3", "naked", 149, 209000.0, "fz.jpg", 70, true, 2, "Yamaha", false).
			AddRow(9, "Mystery", "mystery", nil, nil, nil, nil, nil, nil, 3, nil, nil))

	pool, err := store.FindCandidatePool(context.Background(), recommendation.PoolFilter{
		Kind: recommendation.PoolKindBikes, Category: "naked", ExcludeID: 7,
	})
	require.NoError(t, err)
	require.Len(t, pool, 2)

	assert.Equal(t, "fz.jpg", pool[0].PrimaryImage)
	assert.Equal(t, "Yamaha", pool[0].BrandName)
	assert.Equal(t, 149, pool[0].EngineCC)

	// NULL columns are neutral zero values
	assert.Equal(t, recommendation.Candidate{ID: 9, Name: "Mystery", Slug: "mystery"}, pool[1])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_FindCandidatePool_Listings(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewStore(db, logger.NewTestLogger(t))

	mock.ExpectQuery(regexp.QuoteMeta("FROM marketplace_usedbikelisting l")).
		WithArgs("active", 85000.0, 115000.0).
		WillReturnRows(sqlmock.NewRows(listingCols).
			AddRow(21, "Pulsar 150 2021", 98000.0, 9000, 2021, "Dhaka", true, false, "active", nil, nil, 4, "Pulsar 150").
			AddRow(22, "Runner Knight Rider", 110000.0, 31000, 2019, nil, false, true, "active", "Runner", "Knight Rider", nil, nil))

	mock.ExpectQuery(regexp.QuoteMeta("FROM marketplace_listingimage")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"listing_id", "image_url", "is_primary", "order"}).
			AddRow(21, "p1.jpg", false, 0).
			AddRow(21, "p2.jpg", true, 1).
			AddRow(22, "r1.jpg", false, 0))

	pool, err := store.FindCandidatePool(context.Background(), recommendation.PoolFilter{
		Kind: recommendation.PoolKindListings, MinPrice: 85000, MaxPrice: 115000,
	})
	require.NoError(t, err)
	require.Len(t, pool, 2)

	assert.Equal(t, recommendation.Candidate{
		ID: 21, Price: 98000, IsVerifiedSeller: true, Mileage: 9000, Status: "active",
		Title: "Pulsar 150 2021", Location: "Dhaka", Year: 2021, BikeName: "Pulsar 150", PrimaryImage: "p2.jpg",
	}, pool[0])

	assert.True(t, pool[1].IsPremium)
	assert.Equal(t, "Runner Knight Rider", pool[1].BikeName)
	assert.Equal(t, "r1.jpg", pool[1].PrimaryImage)
	assert.Equal(t, "", pool[1].Location)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_FindCandidatePool_EmptyListingsSkipImages(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewStore(db, logger.NewTestLogger(t))

	mock.ExpectQuery(regexp.QuoteMeta("FROM marketplace_usedbikelisting l")).
		WillReturnRows(sqlmock.NewRows(listingCols))

	pool, err := store.FindCandidatePool(context.Background(), recommendation.PoolFilter{
		Kind: recommendation.PoolKindListings, MinPrice: 1, MaxPrice: 2,
	})
	require.NoError(t, err)
	assert.Empty(t, pool)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_QueryFailure(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewStore(db, logger.NewTestLogger(t))

	mock.ExpectQuery(regexp.QuoteMeta("WHERE b.is_available = TRUE")).
		WillReturnError(errors.New("connection refused"))

	_, err := store.FindCandidatePool(context.Background(), recommendation.PoolFilter{Kind: recommendation.PoolKindBikes})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeCandidateQueryFailed))
	assert.True(t, apperrors.AsStandardError(err).Retryable)
}

func TestStore_QueryTimeout(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewStore(db, logger.NewTestLogger(t))

	mock.ExpectQuery(regexp.QuoteMeta("WHERE b.slug = $1")).
		WillReturnError(context.DeadlineExceeded)

	_, err := store.FindTargetByKey(context.Background(), "slow")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeCandidateTimeout))
}
