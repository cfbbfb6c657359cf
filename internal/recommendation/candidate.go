// internal/recommendation/candidate.go
package recommendation

import (
	"context"
	"errors"

	"bike-recommender/internal/models"
)

// ErrNotFound is returned by a CandidateStore when the reference bike does not exist.
var ErrNotFound = errors.New("recommendation target not found")

// Candidate is the flat view of a bike or listing the scorers work on.
// Missing attributes keep their zero value, which every scoring term
// treats as neutral.
type Candidate struct {
	ID               int64   `json:"id"`
	Category         string  `json:"category,omitempty"`
	Price            float64 `json:"price"`
	EngineCC         int     `json:"engine_cc,omitempty"`
	PopularityScore  int     `json:"popularity_score,omitempty"`
	BrandName        string  `json:"brand_name,omitempty"`
	BrandPopular     bool    `json:"brand_popular,omitempty"`
	IsPremium        bool    `json:"is_premium,omitempty"`
	IsVerifiedSeller bool    `json:"is_verified_seller,omitempty"`
	Mileage          int     `json:"mileage,omitempty"`
	Status           string  `json:"status,omitempty"`

	Name         string `json:"name,omitempty"`
	Slug         string `json:"slug,omitempty"`
	PrimaryImage string `json:"primary_image,omitempty"`
	Title        string `json:"title,omitempty"`
	Location     string `json:"location,omitempty"`
	Year         int    `json:"year,omitempty"`
	BikeName     string `json:"bike_name,omitempty"`
}

// ScoredCandidate pairs a candidate with its score and at most two reason tags.
type ScoredCandidate struct {
	Candidate Candidate
	Score     float64
	Reasons   []string
}

type PoolKind string

const (
	PoolKindBikes    PoolKind = "bikes"
	PoolKindListings PoolKind = "listings"
)

// StatusActive is the only listing status eligible for budget recommendations.
const StatusActive = "active"

// PoolFilter narrows the candidate pool at the store. Zero values mean no
// restriction on that field.
type PoolFilter struct {
	Kind      PoolKind
	Category  string
	ExcludeID int64
	MinPrice  float64
	MaxPrice  float64
}

// CandidateStore loads reference bikes and candidate pools.
type CandidateStore interface {
	FindTargetByKey(ctx context.Context, slug string) (*Candidate, error)
	FindCandidatePool(ctx context.Context, filter PoolFilter) ([]Candidate, error)
	Ping(ctx context.Context) error
}

// SimilarResult is the wire shape of a similar-bike recommendation.
type SimilarResult struct {
	ID           int64    `json:"id"`
	Name         string   `json:"name"`
	Slug         string   `json:"slug"`
	Price        float64  `json:"price"`
	PrimaryImage string   `json:"primary_image"`
	BrandName    string   `json:"brand_name"`
	Reasons      []string `json:"reasons"`
}

// BudgetResult is the wire shape of a used-listing recommendation.
type BudgetResult struct {
	ID       int64   `json:"id"`
	Title    string  `json:"title"`
	Price    float64 `json:"price"`
	Image    string  `json:"image"`
	Location string  `json:"location"`
	Year     int     `json:"year"`
	Mileage  int     `json:"mileage"`
	BikeName string  `json:"bike_name"`
}

func toSimilarResult(sc ScoredCandidate) SimilarResult {
	c := sc.Candidate
	reasons := sc.Reasons
	if reasons == nil {
		reasons = []string{}
	}
	return SimilarResult{
		ID:           c.ID,
		Name:         c.Name,
		Slug:         c.Slug,
		Price:        c.Price,
		PrimaryImage: c.PrimaryImage,
		BrandName:    c.BrandName,
		Reasons:      reasons,
	}
}

func toBudgetResult(sc ScoredCandidate) BudgetResult {
	c := sc.Candidate
	return BudgetResult{
		ID:       c.ID,
		Title:    c.Title,
		Price:    c.Price,
		Image:    c.PrimaryImage,
		Location: c.Location,
		Year:     c.Year,
		Mileage:  c.Mileage,
		BikeName: c.BikeName,
	}
}

// FromBike flattens a catalogue bike for scoring.
func FromBike(b models.BikeModel) Candidate {
	return Candidate{
		ID:              b.ID,
		Category:        string(b.Category),
		Price:           b.Price,
		EngineCC:        b.EngineCapacity,
		PopularityScore: b.PopularityScore,
		BrandName:       b.Brand.Name,
		BrandPopular:    b.Brand.IsPopular,
		Name:            b.Name,
		Slug:            b.Slug,
		PrimaryImage:    b.PrimaryImage,
	}
}

// FromListing flattens a used listing for scoring. Featured listings count
// as premium.
func FromListing(l models.UsedBikeListing) Candidate {
	return Candidate{
		ID:               l.ID,
		Price:            l.Price,
		IsPremium:        l.IsFeatured,
		IsVerifiedSeller: l.IsVerified,
		Mileage:          l.Mileage,
		Status:           string(l.Status),
		Title:            l.Title,
		Location:         l.Location,
		Year:             l.ManufacturingYear,
		BikeName:         l.BikeName(),
		PrimaryImage:     l.PrimaryImage(),
	}
}
