// internal/common/database/elasticsearch_test.go
package database

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"bike-recommender/internal/common/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// catalogueCluster answers HEAD requests for the cluster root and the given
// indices; anything else is a 404.
func catalogueCluster(t *testing.T, indices ...string) (*httptest.Server, *[]string) {
	t.Helper()
	known := map[string]bool{"/": true}
	for _, idx := range indices {
		known["/"+idx] = true
	}

	var mu sync.Mutex
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.URL.Path)
		mu.Unlock()

		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		if !known[r.URL.Path] {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func TestNewElasticsearch_PingChecksIndices(t *testing.T) {
	srv, seen := catalogueCluster(t, "bikes", "used_listings")

	client, err := NewElasticsearch(config.ElasticsearchConfig{
		Addresses:    []string{srv.URL},
		BikeIndex:    "bikes",
		ListingIndex: "used_listings",
	})
	require.NoError(t, err)
	assert.Equal(t, "bikes", client.BikeIndex)
	assert.Equal(t, "used_listings", client.ListingIndex)

	require.NoError(t, client.Ping(context.Background()))
	assert.Equal(t, []string{"/", "/bikes", "/used_listings"}, *seen)
}

func TestNewElasticsearch_MissingListingIndex(t *testing.T) {
	srv, _ := catalogueCluster(t, "bikes")

	client, err := NewElasticsearch(config.ElasticsearchConfig{
		Addresses:    []string{srv.URL},
		BikeIndex:    "bikes",
		ListingIndex: "used_listings",
	})
	require.NoError(t, err)

	err = client.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "used_listings")
}
