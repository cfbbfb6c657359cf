// internal/recommendation/weights.go
package recommendation

import (
	"fmt"
	"sort"
	"strings"
)

const (
	ProfileDefault = "default"
	ProfileLegacy  = "legacy"
)

// SimilarityWeights is the weight table for ScoreSimilar.
//
// In continuous mode the price and displacement terms decay linearly inside
// their windows. In tiered mode price uses two relative windows and
// displacement uses absolute cc differences.
type SimilarityWeights struct {
	CategoryMatch float64

	Tiered           bool
	PriceWindow      float64
	PriceWeight      float64
	PriceOuterWindow float64
	PriceTierNear    float64
	PriceTierFar     float64

	CCWindow       float64
	CCWeight       float64
	CCTierNearDiff float64
	CCTierFarDiff  float64
	CCTierNear     float64
	CCTierFar      float64

	// BrandTrust is keyed by lower-cased brand name.
	BrandTrust            map[string]float64
	BrandDefault          float64
	PopularBrandBonus     float64
	BrandCap              float64
	TrustedBrandThreshold float64

	PopularityBonus      float64
	PopularityThreshold  float64
	PopularitySmallBonus float64
	PopularityMultiplier float64

	MaxReasons int
	// TagCrossCategory lets candidates outside the target's category carry
	// the affordability, brand and popularity tags.
	TagCrossCategory bool
}

// BudgetWeights is the weight table for ScoreNearBudget. PoolWindow bounds
// the price pre-filter around the budget.
type BudgetWeights struct {
	PoolWindow float64

	PriceNearWindow float64
	PriceNear       float64
	PriceFarWindow  float64
	PriceFar        float64

	Premium        float64
	VerifiedSeller float64

	LowMileageLimit float64
	LowMileage      float64
	MidMileageLimit float64
	MidMileage      float64
}

// Profile is a named pair of weight tables.
type Profile struct {
	Name    string
	Similar SimilarityWeights
	Budget  BudgetWeights
}

func defaultBrandTrust() map[string]float64 {
	return map[string]float64{
		"honda":  20,
		"yamaha": 19,
		"suzuki": 18,
		"bajaj":  15,
		"tvs":    14,
		"hero":   13,
	}
}

// DefaultProfile is the continuous scheme with brand trust and the
// verified-seller and mileage budget table.
func DefaultProfile() Profile {
	return Profile{
		Name: ProfileDefault,
		Similar: SimilarityWeights{
			CategoryMatch: 50,

			PriceWindow:      0.15,
			PriceWeight:      30,
			PriceOuterWindow: 0.25,
			PriceTierNear:    30,
			PriceTierFar:     10,

			CCWindow:       0.20,
			CCWeight:       20,
			CCTierNearDiff: 10,
			CCTierFarDiff:  50,
			CCTierNear:     20,
			CCTierFar:      10,

			BrandTrust:            defaultBrandTrust(),
			BrandDefault:          10,
			PopularBrandBonus:     5,
			BrandCap:              25,
			TrustedBrandThreshold: 18,

			PopularityBonus:      15,
			PopularityThreshold:  50,
			PopularitySmallBonus: 5,

			MaxReasons: 2,
		},
		Budget: BudgetWeights{
			PoolWindow:      0.15,
			PriceNearWindow: 0.10,
			PriceFarWindow:  0.20,
			VerifiedSeller:  40,
			LowMileageLimit: 15000,
			LowMileage:      30,
			MidMileageLimit: 30000,
			MidMileage:      15,
		},
	}
}

// LegacyProfile is the tiered scheme of the first catalogue release: no
// brand trust, popularity scaled by ten, and price-tier driven budget scores.
func LegacyProfile() Profile {
	p := DefaultProfile()
	p.Name = ProfileLegacy

	s := &p.Similar
	s.Tiered = true
	s.BrandTrust = map[string]float64{}
	s.BrandDefault = 0
	s.PopularBrandBonus = 0
	s.PopularityBonus = 0
	s.PopularitySmallBonus = 0
	s.PopularityMultiplier = 10

	p.Budget = BudgetWeights{
		PoolWindow:      0.15,
		PriceNearWindow: 0.10,
		PriceNear:       50,
		PriceFarWindow:  0.20,
		PriceFar:        20,
		Premium:         30,
		VerifiedSeller:  20,
		LowMileageLimit: 15000,
		MidMileageLimit: 30000,
	}
	return p
}

// ProfileByName returns a fresh copy of a built-in profile.
func ProfileByName(name string) (Profile, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", ProfileDefault:
		return DefaultProfile(), nil
	case ProfileLegacy:
		return LegacyProfile(), nil
	}
	return Profile{}, fmt.Errorf("unknown recommendation profile %q", name)
}

// WithOverrides returns a copy of p with individual weights replaced. Keys
// are the snake_case weight names; brand keys are matched case-insensitively.
// Unknown keys are rejected so typos in configuration surface at startup.
func (p Profile) WithOverrides(similar, budget, brandTrust map[string]float64) (Profile, error) {
	out := p
	out.Similar.BrandTrust = make(map[string]float64, len(p.Similar.BrandTrust)+len(brandTrust))
	for k, v := range p.Similar.BrandTrust {
		out.Similar.BrandTrust[k] = v
	}
	for k, v := range brandTrust {
		out.Similar.BrandTrust[normalizeBrand(k)] = v
	}

	var unknown []string
	sf := out.Similar.fields()
	for k, v := range similar {
		ptr, ok := sf[strings.ToLower(k)]
		if !ok {
			unknown = append(unknown, "similar_weights."+k)
			continue
		}
		*ptr = v
	}
	bf := out.Budget.fields()
	for k, v := range budget {
		ptr, ok := bf[strings.ToLower(k)]
		if !ok {
			unknown = append(unknown, "budget_weights."+k)
			continue
		}
		*ptr = v
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return Profile{}, fmt.Errorf("unknown weight overrides: %s", strings.Join(unknown, ", "))
	}
	return out, nil
}

func (w *SimilarityWeights) fields() map[string]*float64 {
	return map[string]*float64{
		"category_match":          &w.CategoryMatch,
		"price_window":            &w.PriceWindow,
		"price_weight":            &w.PriceWeight,
		"price_outer_window":      &w.PriceOuterWindow,
		"price_tier_near":         &w.PriceTierNear,
		"price_tier_far":          &w.PriceTierFar,
		"cc_window":               &w.CCWindow,
		"cc_weight":               &w.CCWeight,
		"cc_tier_near_diff":       &w.CCTierNearDiff,
		"cc_tier_far_diff":        &w.CCTierFarDiff,
		"cc_tier_near":            &w.CCTierNear,
		"cc_tier_far":             &w.CCTierFar,
		"brand_default":           &w.BrandDefault,
		"popular_brand_bonus":     &w.PopularBrandBonus,
		"brand_cap":               &w.BrandCap,
		"trusted_brand_threshold": &w.TrustedBrandThreshold,
		"popularity_bonus":        &w.PopularityBonus,
		"popularity_threshold":    &w.PopularityThreshold,
		"popularity_small_bonus":  &w.PopularitySmallBonus,
		"popularity_multiplier":   &w.PopularityMultiplier,
	}
}

func (w *BudgetWeights) fields() map[string]*float64 {
	return map[string]*float64{
		"pool_window":       &w.PoolWindow,
		"price_near_window": &w.PriceNearWindow,
		"price_near":        &w.PriceNear,
		"price_far_window":  &w.PriceFarWindow,
		"price_far":         &w.PriceFar,
		"premium":           &w.Premium,
		"verified_seller":   &w.VerifiedSeller,
		"low_mileage_limit": &w.LowMileageLimit,
		"low_mileage":       &w.LowMileage,
		"mid_mileage_limit": &w.MidMileageLimit,
		"mid_mileage":       &w.MidMileage,
	}
}

// brandScore returns the table score for a brand before the popular bonus.
func (w SimilarityWeights) brandScore(brand string) float64 {
	if s, ok := w.BrandTrust[normalizeBrand(brand)]; ok {
		return s
	}
	return w.BrandDefault
}

func normalizeBrand(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
