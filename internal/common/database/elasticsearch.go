// internal/common/database/elasticsearch.go
package database

import (
	"context"
	"fmt"
	"time"

	"bike-recommender/internal/common/config"

	"github.com/elastic/go-elasticsearch/v8"
)

// ElasticsearchClient is the search client over the catalogue indices: bike
// models in BikeIndex and used listings in ListingIndex.
type ElasticsearchClient struct {
	Client       *elasticsearch.Client
	BikeIndex    string
	ListingIndex string
}

// NewElasticsearch builds a client for the catalogue cluster. No request is
// made until Ping.
func NewElasticsearch(cfg config.ElasticsearchConfig) (*ElasticsearchClient, error) {
	esCfg := elasticsearch.Config{
		Addresses: cfg.Addresses,
	}
	if cfg.Username != "" {
		esCfg.Username = cfg.Username
		esCfg.Password = cfg.Password
	}

	es, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}
	return &ElasticsearchClient{
		Client:       es,
		BikeIndex:    cfg.BikeIndex,
		ListingIndex: cfg.ListingIndex,
	}, nil
}

// Ping checks the cluster and that both catalogue indices exist. A missing
// index fails startup instead of every later search.
func (c *ElasticsearchClient) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := c.Client.Ping(c.Client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch ping failed: %w", err)
	}
	res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("elasticsearch ping error: %s", res.Status())
	}

	for _, index := range []string{c.BikeIndex, c.ListingIndex} {
		res, err := c.Client.Indices.Exists([]string{index}, c.Client.Indices.Exists.WithContext(ctx))
		if err != nil {
			return fmt.Errorf("elasticsearch index check %s failed: %w", index, err)
		}
		res.Body.Close()
		if res.IsError() {
			return fmt.Errorf("elasticsearch index %s unavailable: %s", index, res.Status())
		}
	}
	return nil
}
