// internal/workers/recommendation/similar-bikes/models.go
package similarbikes

import "bike-recommender/internal/recommendation"

type Input struct {
	BikeSlug string `json:"bikeSlug"`
	Limit    *int   `json:"limit,omitempty"`
}

type Output struct {
	Recommendations []recommendation.SimilarResult `json:"recommendations"`
	Count           int                            `json:"count"`
}
