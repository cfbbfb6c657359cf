// internal/recommendation/scorer.go
package recommendation

import "math"

const (
	ReasonMoreAffordable     = "More affordable"
	ReasonTrustedBrand       = "Trusted brand"
	ReasonHighlyPopular      = "Highly popular model"
	ReasonTrustedAlternative = "Trusted alternative"
)

// ScoreSimilar scores candidate c against target. Callers must not pass the
// target itself. The score is never negative and at most w.MaxReasons tags
// are returned.
func ScoreSimilar(target, c Candidate, w SimilarityWeights) (float64, []string) {
	var score float64
	var reasons []string

	sameCategory := target.Category != "" && c.Category == target.Category
	tagged := sameCategory || w.TagCrossCategory

	if sameCategory {
		score += w.CategoryMatch
	}

	// price and displacement terms are skipped for a target without a
	// usable reference value
	if target.Price > 0 {
		diff := math.Abs(c.Price-target.Price) / target.Price
		var add float64
		switch {
		case w.Tiered && diff <= w.PriceWindow:
			add = w.PriceTierNear
		case w.Tiered && diff <= w.PriceOuterWindow:
			add = w.PriceTierFar
		case !w.Tiered && diff <= w.PriceWindow:
			add = w.PriceWeight * (1 - diff)
		}
		score += add
		if tagged && diff <= w.PriceWindow && c.Price < target.Price {
			reasons = append(reasons, ReasonMoreAffordable)
		}
	}

	if target.EngineCC > 0 {
		if w.Tiered {
			abs := math.Abs(float64(c.EngineCC - target.EngineCC))
			switch {
			case abs <= w.CCTierNearDiff:
				score += w.CCTierNear
			case abs <= w.CCTierFarDiff:
				score += w.CCTierFar
			}
		} else {
			diff := math.Abs(float64(c.EngineCC-target.EngineCC)) / float64(target.EngineCC)
			if diff <= w.CCWindow {
				score += w.CCWeight * (1 - diff)
			}
		}
	}

	table := w.brandScore(c.BrandName)
	brand := table
	if c.BrandPopular {
		brand += w.PopularBrandBonus
	}
	if brand > w.BrandCap {
		brand = w.BrandCap
	}
	score += brand
	if tagged && table > 0 && table >= w.TrustedBrandThreshold {
		reasons = append(reasons, ReasonTrustedBrand)
	}

	switch {
	case c.PopularityScore > target.PopularityScore:
		score += w.PopularityBonus
		if tagged {
			reasons = append(reasons, ReasonHighlyPopular)
		}
	case float64(c.PopularityScore) >= w.PopularityThreshold:
		score += w.PopularitySmallBonus
	}
	score += float64(c.PopularityScore) * w.PopularityMultiplier

	if len(reasons) == 0 {
		reasons = append(reasons, ReasonTrustedAlternative)
	}
	if w.MaxReasons > 0 && len(reasons) > w.MaxReasons {
		reasons = reasons[:w.MaxReasons]
	}

	if score < 0 || math.IsNaN(score) {
		score = 0
	}
	return score, reasons
}

// ScoreNearBudget scores a used listing for a buyer with the given budget.
// A non-positive budget skips the price-proximity term.
func ScoreNearBudget(budget float64, c Candidate, w BudgetWeights) float64 {
	var score float64

	if budget > 0 {
		diff := math.Abs(c.Price-budget) / budget
		switch {
		case diff <= w.PriceNearWindow:
			score += w.PriceNear
		case diff <= w.PriceFarWindow:
			score += w.PriceFar
		}
	}

	if c.IsPremium {
		score += w.Premium
	}
	if c.IsVerifiedSeller {
		score += w.VerifiedSeller
	}

	mileage := float64(c.Mileage)
	switch {
	case mileage < w.LowMileageLimit:
		score += w.LowMileage
	case mileage < w.MidMileageLimit:
		score += w.MidMileage
	}

	if score < 0 || math.IsNaN(score) {
		score = 0
	}
	return score
}

// BudgetRange returns the inclusive price band eligible for a budget.
func BudgetRange(budget float64, w BudgetWeights) (float64, float64) {
	delta := budget * w.PoolWindow
	return budget - delta, budget + delta
}

// InBudgetRange reports whether an active listing falls inside the band.
func InBudgetRange(budget float64, c Candidate, w BudgetWeights) bool {
	if budget <= 0 || c.Status != StatusActive {
		return false
	}
	lo, hi := BudgetRange(budget, w)
	return c.Price >= lo && c.Price <= hi
}
