// internal/api/handlers_test.go
package api

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apperrors "bike-recommender/internal/common/errors"
	"bike-recommender/internal/common/logger"
	"bike-recommender/internal/recommendation"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEngine struct {
	similar  []recommendation.SimilarResult
	budget   []recommendation.BudgetResult
	err      error
	pingErr  error
	panicMsg string

	gotSlug   string
	gotBudget float64
	gotLimit  int
}

func (f *fakeEngine) SimilarTo(_ context.Context, slug string, limit int) ([]recommendation.SimilarResult, error) {
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	f.gotSlug, f.gotLimit = slug, limit
	if f.err != nil {
		return nil, f.err
	}
	if f.similar == nil {
		return []recommendation.SimilarResult{}, nil
	}
	return f.similar, nil
}

func (f *fakeEngine) NearBudget(_ context.Context, budget float64, limit int) ([]recommendation.BudgetResult, error) {
	f.gotBudget, f.gotLimit = budget, limit
	if f.err != nil {
		return nil, f.err
	}
	if f.budget == nil {
		return []recommendation.BudgetResult{}, nil
	}
	return f.budget, nil
}

func (f *fakeEngine) DefaultLimit() int          { return 4 }
func (f *fakeEngine) CacheMode() string          { return "noop" }
func (f *fakeEngine) Ping(context.Context) error { return f.pingErr }

func serve(t *testing.T, engine *fakeEngine, target string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	log := logger.NewTestLogger(t)
	router := NewRouter(NewHandler(engine, log), time.Second, log)

	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestSimilar(t *testing.T) {
	engine := &fakeEngine{similar: []recommendation.SimilarResult{
		{ID: 2, Name: "Naked A", Slug: "naked-a", Price: 520000, PrimaryImage: "a.jpg", BrandName: "Honda", Reasons: []string{"Trusted brand"}},
	}}

	rec := serve(t, engine, "/api/recommendations/similar/target-naked")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `[{"id":2,"name":"Naked A","slug":"naked-a","price":520000,"primary_image":"a.jpg","brand_name":"Honda","reasons":["Trusted brand"]}]`, rec.Body.String())
	assert.Equal(t, "target-naked", engine.gotSlug)
	assert.Equal(t, 4, engine.gotLimit)
}

func TestSimilar_TrailingSlashAndLimit(t *testing.T) {
	engine := &fakeEngine{}

	rec := serve(t, engine, "/api/recommendations/similar/target-naked/?limit=2")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())
	assert.Equal(t, "target-naked", engine.gotSlug)
	assert.Equal(t, 2, engine.gotLimit)
}

func TestSimilar_BadLimit(t *testing.T) {
	rec := serve(t, &fakeEngine{}, "/api/recommendations/similar/x?limit=-3")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_INPUT", decodeError(t, rec).Code)
}

func TestSimilar_StoreUnavailable(t *testing.T) {
	engine := &fakeEngine{err: apperrors.NewCandidateQueryFailedError("postgres", stderrors.New("connection refused"))}

	rec := serve(t, engine, "/api/recommendations/similar/x")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	body := decodeError(t, rec)
	assert.Equal(t, "CANDIDATE_QUERY_FAILED", body.Code)
	assert.Empty(t, body.Details)
}

func TestSimilar_UnexpectedError(t *testing.T) {
	rec := serve(t, &fakeEngine{err: stderrors.New("boom")}, "/api/recommendations/similar/x")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "INTERNAL_ERROR", decodeError(t, rec).Code)
}

func TestBudget(t *testing.T) {
	engine := &fakeEngine{budget: []recommendation.BudgetResult{
		{ID: 11, Title: "Pulsar", Price: 98000, Image: "p.jpg", Location: "Dhaka", Year: 2021, Mileage: 9000, BikeName: "Pulsar 150"},
	}}

	rec := serve(t, engine, "/api/recommendations/budget?price=100000&limit=3")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"id":11,"title":"Pulsar","price":98000,"image":"p.jpg","location":"Dhaka","year":2021,"mileage":9000,"bike_name":"Pulsar 150"}]`, rec.Body.String())
	assert.Equal(t, 100000.0, engine.gotBudget)
	assert.Equal(t, 3, engine.gotLimit)
}

func TestBudget_InvalidPrice(t *testing.T) {
	for _, target := range []string{
		"/api/recommendations/budget",
		"/api/recommendations/budget?price=",
		"/api/recommendations/budget?price=cheap",
		"/api/recommendations/budget?price=NaN",
		"/api/recommendations/budget?price=Inf",
		"/api/recommendations/budget?price=-Inf",
		"/api/recommendations/budget?price=1e400",
	} {
		t.Run(target, func(t *testing.T) {
			engine := &fakeEngine{}
			rec := serve(t, engine, target)
			require.Equal(t, http.StatusBadRequest, rec.Code)

			body := decodeError(t, rec)
			assert.Equal(t, "INVALID_BUDGET", body.Code)
			assert.NotEmpty(t, body.Details)
			assert.Zero(t, engine.gotBudget)
		})
	}
}

func TestBudget_ZeroPriceIsEmpty(t *testing.T) {
	rec := serve(t, &fakeEngine{}, "/api/recommendations/budget?price=0")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())
}

func TestHealthAndReady(t *testing.T) {
	rec := serve(t, &fakeEngine{}, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)

	rec = serve(t, &fakeEngine{}, "/ready")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ready","cache":"noop"}`, rec.Body.String())

	rec = serve(t, &fakeEngine{pingErr: stderrors.New("dial tcp: refused")}, "/ready")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"unavailable"`)
}

func TestMetricsEndpoint(t *testing.T) {
	rec := serve(t, &fakeEngine{}, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestRequestID(t *testing.T) {
	rec := serve(t, &fakeEngine{}, "/health")
	_, err := uuid.Parse(rec.Header().Get(RequestIDHeader))
	assert.NoError(t, err)

	rec = serve(t, &fakeEngine{}, "/health", RequestIDHeader, "req-123")
	assert.Equal(t, "req-123", rec.Header().Get(RequestIDHeader))
}

func TestPanicRecovered(t *testing.T) {
	rec := serve(t, &fakeEngine{panicMsg: "nil map"}, "/api/recommendations/similar/x")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
