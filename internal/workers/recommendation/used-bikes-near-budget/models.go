// internal/workers/recommendation/used-bikes-near-budget/models.go
package usedbikesnearbudget

import "bike-recommender/internal/recommendation"

type Input struct {
	Budget float64 `json:"budget"`
	Limit  *int    `json:"limit,omitempty"`
}

type Output struct {
	Recommendations []recommendation.BudgetResult `json:"recommendations"`
	Count           int                           `json:"count"`
}
