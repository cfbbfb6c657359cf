package similarbikes

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"bike-recommender/internal/common/config"
	"bike-recommender/internal/common/errors"
	"bike-recommender/internal/common/logger"
	"bike-recommender/internal/recommendation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRecommender struct {
	results   []recommendation.SimilarResult
	err       error
	gotSlug   string
	gotLimit  int
	callCount int
}

func (f *fakeRecommender) SimilarTo(_ context.Context, slug string, limit int) ([]recommendation.SimilarResult, error) {
	f.callCount++
	f.gotSlug = slug
	f.gotLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	if limit < len(f.results) {
		return f.results[:limit], nil
	}
	return f.results, nil
}

func (f *fakeRecommender) DefaultLimit() int { return 4 }

func createTestHandler(t *testing.T, engine Recommender) *Handler {
	return NewHandler(&Config{Timeout: time.Second}, engine, nil, logger.NewTestLogger(t))
}

func TestParseInput(t *testing.T) {
	h := createTestHandler(t, &fakeRecommender{})

	tests := []struct {
		name      string
		variables string
		wantCode  errors.ErrorCode
		wantLimit *int
	}{
		{name: "slug only", variables: `{"bikeSlug":"honda-cb-hornet-160r"}`},
		{name: "slug and limit", variables: `{"bikeSlug":"honda-cb-hornet-160r","limit":2,"other":"x"}`, wantLimit: intPtr(2)},
		{name: "missing slug", variables: `{"limit":2}`, wantCode: errors.ErrCodeInvalidInput},
		{name: "empty slug", variables: `{"bikeSlug":""}`, wantCode: errors.ErrCodeInvalidInput},
		{name: "negative limit", variables: `{"bikeSlug":"a","limit":-1}`, wantCode: errors.ErrCodeInvalidInput},
		{name: "not json", variables: `{bikeSlug`, wantCode: errors.ErrCodeParseError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input, err := h.ParseInput(tt.variables)
			if tt.wantCode != "" {
				require.Error(t, err)
				assert.True(t, errors.HasCode(err, tt.wantCode), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, input.BikeSlug)
			assert.Equal(t, tt.wantLimit, input.Limit)
		})
	}
}

func TestExecute_DefaultLimit(t *testing.T) {
	engine := &fakeRecommender{results: []recommendation.SimilarResult{
		{ID: 2, Name: "Naked A", Reasons: []string{"Trusted brand"}},
		{ID: 3, Name: "Cruiser B", Reasons: []string{}},
	}}
	h := createTestHandler(t, engine)

	out, err := h.Execute(context.Background(), &Input{BikeSlug: "target"})
	require.NoError(t, err)

	assert.Equal(t, "target", engine.gotSlug)
	assert.Equal(t, 4, engine.gotLimit)
	assert.Equal(t, 2, out.Count)
	assert.Equal(t, int64(2), out.Recommendations[0].ID)
}

func TestExecute_ExplicitLimit(t *testing.T) {
	engine := &fakeRecommender{results: []recommendation.SimilarResult{{ID: 2}, {ID: 3}}}
	h := createTestHandler(t, engine)

	out, err := h.Execute(context.Background(), &Input{BikeSlug: "target", Limit: intPtr(1)})
	require.NoError(t, err)
	assert.Equal(t, 1, engine.gotLimit)
	assert.Equal(t, 1, out.Count)
}

func TestExecute_UnknownSlugCompletesEmpty(t *testing.T) {
	h := createTestHandler(t, &fakeRecommender{results: []recommendation.SimilarResult{}})

	out, err := h.Execute(context.Background(), &Input{BikeSlug: "missing"})
	require.NoError(t, err)
	assert.Equal(t, 0, out.Count)
	assert.NotNil(t, out.Recommendations)
}

func TestExecute_StoreFailure(t *testing.T) {
	storeErr := errors.NewCandidateQueryFailedError("postgres", stderrors.New("connection refused"))
	h := createTestHandler(t, &fakeRecommender{err: storeErr})

	_, err := h.Execute(context.Background(), &Input{BikeSlug: "target"})
	require.Error(t, err)

	bpmn := errors.ConvertToBPMNError(errors.AsStandardError(err))
	assert.Equal(t, "CANDIDATE_QUERY_FAILED", bpmn.Code)
	assert.Equal(t, 3, bpmn.Retries)
}

func TestConfigFrom(t *testing.T) {
	cfg := &config.Config{Workers: map[string]config.WorkerConfig{
		TaskType: {Enabled: true, Timeout: 2500},
	}}
	assert.Equal(t, 2500*time.Millisecond, ConfigFrom(cfg).Timeout)

	assert.Equal(t, 30*time.Second, ConfigFrom(&config.Config{}).Timeout)
}

func intPtr(v int) *int { return &v }
