// internal/store/postgres/store.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"math"

	apperrors "bike-recommender/internal/common/errors"
	"bike-recommender/internal/common/logger"
	"bike-recommender/internal/models"
	"bike-recommender/internal/recommendation"

	"github.com/lib/pq"
)

const source = "postgres"

// Store reads bikes and used listings from the marketplace schema.
type Store struct {
	db     *sql.DB
	logger logger.Logger
}

func NewStore(db *sql.DB, log logger.Logger) *Store {
	return &Store{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"store": source}),
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// FindTargetByKey loads the bike with the given slug.
func (s *Store) FindTargetByKey(ctx context.Context, slug string) (*recommendation.Candidate, error) {
	bike, err := scanBike(s.db.QueryRowContext(ctx, findBikeBySlug, slug))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, recommendation.ErrNotFound
	}
	if err != nil {
		return nil, queryError(ctx, err)
	}
	c := recommendation.FromBike(bike)
	return &c, nil
}

// FindCandidatePool loads available bikes or active listings in a price band.
func (s *Store) FindCandidatePool(ctx context.Context, f recommendation.PoolFilter) ([]recommendation.Candidate, error) {
	switch f.Kind {
	case recommendation.PoolKindListings:
		return s.listingPool(ctx, f)
	default:
		return s.bikePool(ctx, f)
	}
}

func (s *Store) bikePool(ctx context.Context, f recommendation.PoolFilter) ([]recommendation.Candidate, error) {
	rows, err := s.db.QueryContext(ctx, findBikePool, f.ExcludeID, f.Category)
	if err != nil {
		return nil, queryError(ctx, err)
	}
	defer rows.Close()

	var pool []recommendation.Candidate
	for rows.Next() {
		bike, err := scanBike(rows)
		if err != nil {
			return nil, queryError(ctx, err)
		}
		pool = append(pool, recommendation.FromBike(bike))
	}
	if err := rows.Err(); err != nil {
		return nil, queryError(ctx, err)
	}

	s.logger.Debug("Loaded bike pool", map[string]interface{}{
		"category": f.Category,
		"size":     len(pool),
	})
	return pool, nil
}

func (s *Store) listingPool(ctx context.Context, f recommendation.PoolFilter) ([]recommendation.Candidate, error) {
	maxPrice := f.MaxPrice
	if maxPrice <= 0 {
		maxPrice = math.MaxFloat64
	}

	rows, err := s.db.QueryContext(ctx, findListingPool, string(models.ListingStatusActive), f.MinPrice, maxPrice)
	if err != nil {
		return nil, queryError(ctx, err)
	}
	defer rows.Close()

	var listings []models.UsedBikeListing
	for rows.Next() {
		var (
			l                         models.UsedBikeListing
			status                    string
			customBrand, customModel  sql.NullString
			bikeModelID               sql.NullInt64
			bikeModelName, location   sql.NullString
			mileage, manufacturedYear sql.NullInt64
		)
		if err := rows.Scan(
			&l.ID, &l.Title, &l.Price, &mileage, &manufacturedYear, &location,
			&l.IsVerified, &l.IsFeatured, &status,
			&customBrand, &customModel, &bikeModelID, &bikeModelName,
		); err != nil {
			return nil, queryError(ctx, err)
		}
		l.Status = models.ListingStatus(status)
		l.Mileage = int(mileage.Int64)
		l.ManufacturingYear = int(manufacturedYear.Int64)
		l.Location = location.String
		l.CustomBrand = customBrand.String
		l.CustomModel = customModel.String
		l.BikeModelID = bikeModelID.Int64
		l.BikeModelName = bikeModelName.String
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError(ctx, err)
	}

	if err := s.attachImages(ctx, listings); err != nil {
		return nil, err
	}

	pool := make([]recommendation.Candidate, 0, len(listings))
	for _, l := range listings {
		pool = append(pool, recommendation.FromListing(l))
	}

	s.logger.Debug("Loaded listing pool", map[string]interface{}{
		"minPrice": f.MinPrice,
		"maxPrice": f.MaxPrice,
		"size":     len(pool),
	})
	return pool, nil
}

func (s *Store) attachImages(ctx context.Context, listings []models.UsedBikeListing) error {
	if len(listings) == 0 {
		return nil
	}

	ids := make([]int64, len(listings))
	index := make(map[int64]int, len(listings))
	for i, l := range listings {
		ids[i] = l.ID
		index[l.ID] = i
	}

	rows, err := s.db.QueryContext(ctx, findListingImages, pq.Array(ids))
	if err != nil {
		return queryError(ctx, err)
	}
	defer rows.Close()

	for rows.Next() {
		var listingID int64
		var img models.ListingImage
		if err := rows.Scan(&listingID, &img.ImageURL, &img.IsPrimary, &img.Order); err != nil {
			return queryError(ctx, err)
		}
		if i, ok := index[listingID]; ok {
			listings[i].Images = append(listings[i].Images, img)
		}
	}
	if err := rows.Err(); err != nil {
		return queryError(ctx, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBike(row rowScanner) (models.BikeModel, error) {
	var (
		b            models.BikeModel
		category     sql.NullString
		cc           sql.NullInt64
		price        sql.NullFloat64
		primaryImage sql.NullString
		popularity   sql.NullInt64
		isAvailable  sql.NullBool
		brandName    sql.NullString
		brandPopular sql.NullBool
	)
	err := row.Scan(
		&b.ID, &b.Name, &b.Slug, &category, &cc, &price,
		&primaryImage, &popularity, &isAvailable,
		&b.Brand.ID, &brandName, &brandPopular,
	)
	if err != nil {
		return models.BikeModel{}, err
	}
	b.Category = models.Category(category.String)
	b.EngineCapacity = int(cc.Int64)
	b.Price = price.Float64
	b.PrimaryImage = primaryImage.String
	b.PopularityScore = int(popularity.Int64)
	b.IsAvailable = isAvailable.Bool
	b.Brand.Name = brandName.String
	b.Brand.IsPopular = brandPopular.Bool
	return b, nil
}

func queryError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewCandidateTimeoutError(source, err)
	}
	return apperrors.NewCandidateQueryFailedError(source, err)
}
