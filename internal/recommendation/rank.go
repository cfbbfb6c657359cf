// internal/recommendation/rank.go
package recommendation

import "sort"

// ScoreFunc scores one candidate of a pool.
type ScoreFunc func(c Candidate) (float64, []string)

// Rank scores every candidate and returns the top limit by descending score.
// Ties keep pool order. A negative limit yields an empty slice. The pool is
// not modified.
func Rank(pool []Candidate, score ScoreFunc, limit int) []ScoredCandidate {
	if limit < 0 {
		limit = 0
	}

	scored := make([]ScoredCandidate, 0, len(pool))
	for _, c := range pool {
		s, reasons := score(c)
		scored = append(scored, ScoredCandidate{Candidate: c, Score: s, Reasons: reasons})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if limit < len(scored) {
		scored = scored[:limit]
	}
	return scored
}
