// internal/store/elasticsearch/store.go
package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	apperrors "bike-recommender/internal/common/errors"
	"bike-recommender/internal/common/logger"
	"bike-recommender/internal/models"
	"bike-recommender/internal/recommendation"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// DefaultPoolSize bounds a single candidate pool query.
const DefaultPoolSize = 1000

// Store serves candidate pools from the catalogue search indices.
type Store struct {
	client       *elasticsearch.Client
	bikeIndex    string
	listingIndex string
	poolSize     int
	logger       logger.Logger
}

func NewStore(client *elasticsearch.Client, bikeIndex, listingIndex string, log logger.Logger) *Store {
	return &Store{
		client:       client,
		bikeIndex:    bikeIndex,
		listingIndex: listingIndex,
		poolSize:     DefaultPoolSize,
		logger:       log.WithFields(map[string]interface{}{"store": "elasticsearch"}),
	}
}

type bikeDoc struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	Slug            string  `json:"slug"`
	Category        string  `json:"category"`
	EngineCapacity  int     `json:"engine_capacity"`
	Price           float64 `json:"price"`
	IsAvailable     bool    `json:"is_available"`
	PrimaryImage    string  `json:"primary_image"`
	PopularityScore int     `json:"popularity_score"`
	BrandName       string  `json:"brand_name"`
	BrandIsPopular  bool    `json:"brand_is_popular"`
}

type imageDoc struct {
	ImageURL  string `json:"image_url"`
	IsPrimary bool   `json:"is_primary"`
	Order     int    `json:"order"`
}

type listingDoc struct {
	ID                int64      `json:"id"`
	Title             string     `json:"title"`
	Price             float64    `json:"price"`
	Mileage           int        `json:"mileage"`
	ManufacturingYear int        `json:"manufacturing_year"`
	Location          string     `json:"location"`
	IsVerified        bool       `json:"is_verified"`
	IsFeatured        bool       `json:"is_featured"`
	Status            string     `json:"status"`
	CustomBrand       string     `json:"custom_brand"`
	CustomModel       string     `json:"custom_model"`
	BikeModelName     string     `json:"bike_model_name"`
	Images            []imageDoc `json:"images"`
}

type searchResponse[T any] struct {
	Hits struct {
		Hits []struct {
			Source T `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (d bikeDoc) model() models.BikeModel {
	return models.BikeModel{
		ID:              d.ID,
		Brand:           models.Brand{Name: d.BrandName, IsPopular: d.BrandIsPopular},
		Name:            d.Name,
		Slug:            d.Slug,
		Category:        models.Category(d.Category),
		EngineCapacity:  d.EngineCapacity,
		Price:           d.Price,
		IsAvailable:     d.IsAvailable,
		PrimaryImage:    d.PrimaryImage,
		PopularityScore: d.PopularityScore,
	}
}

func (d listingDoc) model() models.UsedBikeListing {
	l := models.UsedBikeListing{
		ID:                d.ID,
		BikeModelName:     d.BikeModelName,
		CustomBrand:       d.CustomBrand,
		CustomModel:       d.CustomModel,
		Title:             d.Title,
		Price:             d.Price,
		Mileage:           d.Mileage,
		ManufacturingYear: d.ManufacturingYear,
		Location:          d.Location,
		IsVerified:        d.IsVerified,
		IsFeatured:        d.IsFeatured,
		Status:            models.ListingStatus(d.Status),
	}
	for _, img := range d.Images {
		l.Images = append(l.Images, models.ListingImage{ImageURL: img.ImageURL, IsPrimary: img.IsPrimary, Order: img.Order})
	}
	return l
}

func (s *Store) Ping(ctx context.Context) error {
	res, err := s.client.Ping(s.client.Ping.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("elasticsearch ping error: %s", res.Status())
	}
	return nil
}

// FindTargetByKey looks the bike up by its slug keyword.
func (s *Store) FindTargetByKey(ctx context.Context, slug string) (*recommendation.Candidate, error) {
	query := map[string]interface{}{
		"query": map[string]interface{}{
			"term": map[string]interface{}{"slug": slug},
		},
	}

	docs, err := search[bikeDoc](ctx, s.client, s.bikeIndex, query, 1)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, recommendation.ErrNotFound
	}
	c := recommendation.FromBike(docs[0].model())
	return &c, nil
}

// FindCandidatePool runs a filter-only query on the bike or listing index.
func (s *Store) FindCandidatePool(ctx context.Context, f recommendation.PoolFilter) ([]recommendation.Candidate, error) {
	if f.Kind == recommendation.PoolKindListings {
		docs, err := search[listingDoc](ctx, s.client, s.listingIndex, listingPoolQuery(f), s.poolSize)
		if err != nil {
			return nil, err
		}
		pool := make([]recommendation.Candidate, 0, len(docs))
		for _, d := range docs {
			pool = append(pool, recommendation.FromListing(d.model()))
		}
		return pool, nil
	}

	docs, err := search[bikeDoc](ctx, s.client, s.bikeIndex, bikePoolQuery(f), s.poolSize)
	if err != nil {
		return nil, err
	}
	pool := make([]recommendation.Candidate, 0, len(docs))
	for _, d := range docs {
		pool = append(pool, recommendation.FromBike(d.model()))
	}
	s.logger.Debug("Loaded bike pool", map[string]interface{}{"size": len(pool), "category": f.Category})
	return pool, nil
}

func bikePoolQuery(f recommendation.PoolFilter) map[string]interface{} {
	filter := []interface{}{
		map[string]interface{}{"term": map[string]interface{}{"is_available": true}},
	}
	if f.Category != "" {
		filter = append(filter, map[string]interface{}{"term": map[string]interface{}{"category": f.Category}})
	}
	boolQuery := map[string]interface{}{"filter": filter}
	if f.ExcludeID != 0 {
		boolQuery["must_not"] = []interface{}{
			map[string]interface{}{"term": map[string]interface{}{"id": f.ExcludeID}},
		}
	}
	return map[string]interface{}{
		"query": map[string]interface{}{"bool": boolQuery},
		"sort": []interface{}{
			map[string]interface{}{"popularity_score": "desc"},
			map[string]interface{}{"id": "asc"},
		},
	}
}

func listingPoolQuery(f recommendation.PoolFilter) map[string]interface{} {
	priceRange := map[string]interface{}{"gte": f.MinPrice}
	if f.MaxPrice > 0 {
		priceRange["lte"] = f.MaxPrice
	}
	return map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"filter": []interface{}{
					map[string]interface{}{"term": map[string]interface{}{"status": string(models.ListingStatusActive)}},
					map[string]interface{}{"range": map[string]interface{}{"price": priceRange}},
				},
			},
		},
		"sort": []interface{}{
			map[string]interface{}{"is_featured": "desc"},
			map[string]interface{}{"id": "asc"},
		},
	}
}

func search[T any](ctx context.Context, client *elasticsearch.Client, index string, query map[string]interface{}, size int) ([]T, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return nil, apperrors.NewSearchQueryFailedError(index, err)
	}

	req := esapi.SearchRequest{
		Index: []string{index},
		Body:  bytes.NewReader(body),
		Size:  &size,
	}
	res, err := req.Do(ctx, client)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperrors.NewCandidateTimeoutError("elasticsearch", err)
		}
		return nil, apperrors.NewSearchQueryFailedError(index, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, apperrors.NewIndexNotFoundError(index)
	}
	if res.IsError() {
		return nil, apperrors.NewSearchQueryFailedError(index, fmt.Errorf("search failed: %s", res.String()))
	}

	var parsed searchResponse[T]
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, apperrors.NewSearchQueryFailedError(index, err)
	}

	out := make([]T, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}
