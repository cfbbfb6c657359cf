package recommendation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func byPrice(c Candidate) (float64, []string) {
	return c.Price, nil
}

func TestRank_TopKDescending(t *testing.T) {
	pool := []Candidate{
		{ID: 1, Price: 10},
		{ID: 2, Price: 40},
		{ID: 3, Price: 30},
		{ID: 4, Price: 20},
	}

	got := Rank(pool, byPrice, 3)
	require.Len(t, got, 3)
	assert.Equal(t, []int64{2, 3, 4}, ids(got))
	assert.Equal(t, 40.0, got[0].Score)
}

func TestRank_Limits(t *testing.T) {
	pool := []Candidate{{ID: 1, Price: 1}, {ID: 2, Price: 2}}

	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{"larger than pool", 10, 2},
		{"equal to pool", 2, 2},
		{"zero", 0, 0},
		{"negative treated as zero", -3, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Rank(pool, byPrice, tt.limit)
			assert.Len(t, got, tt.want)
			assert.NotNil(t, got)
		})
	}

	assert.Empty(t, Rank(nil, byPrice, 4))
}

func TestRank_TiesKeepPoolOrder(t *testing.T) {
	pool := []Candidate{
		{ID: 7, Price: 5},
		{ID: 3, Price: 9},
		{ID: 5, Price: 5},
		{ID: 1, Price: 5},
	}

	got := Rank(pool, byPrice, 4)
	assert.Equal(t, []int64{3, 7, 5, 1}, ids(got))

	// determinism across repeated runs
	for i := 0; i < 20; i++ {
		assert.Equal(t, ids(got), ids(Rank(pool, byPrice, 4)))
	}
}

func TestRank_DoesNotMutatePool(t *testing.T) {
	pool := []Candidate{{ID: 1, Price: 1}, {ID: 2, Price: 3}, {ID: 3, Price: 2}}
	snapshot := append([]Candidate(nil), pool...)

	_ = Rank(pool, byPrice, 2)
	assert.Equal(t, snapshot, pool)
}

func TestRank_CarriesReasons(t *testing.T) {
	target := nakedTarget()
	pool := []Candidate{
		{ID: 3, Category: "cruiser", Price: 500000, EngineCC: 150, PopularityScore: 90, BrandName: "Unknown"},
		{ID: 2, Category: "naked", Price: 520000, EngineCC: 155, PopularityScore: 30, BrandName: "Honda"},
	}
	w := DefaultProfile().Similar

	got := Rank(pool, func(c Candidate) (float64, []string) { return ScoreSimilar(target, c, w) }, 4)
	require.Len(t, got, 2)
	assert.Equal(t, int64(2), got[0].Candidate.ID)
	assert.Equal(t, []string{ReasonTrustedBrand, ReasonHighlyPopular}, got[0].Reasons)
	assert.Equal(t, []string{ReasonTrustedAlternative}, got[1].Reasons)
}

func ids(scored []ScoredCandidate) []int64 {
	out := make([]int64, len(scored))
	for i, s := range scored {
		out[i] = s.Candidate.ID
	}
	return out
}
