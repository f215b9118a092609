package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/hrygo/bazaarbot/store"
)

// DefaultElasticIndex holds one document per published product.
const DefaultElasticIndex = "products"

var elasticSearchFields = []string{
	"name^3",
	"search_description^2",
	"description",
	"category_name",
	"subcategory_name",
	"tag_names",
}

// ElasticConfig configures ElasticTextSearcher.
type ElasticConfig struct {
	Addresses []string
	Username  string
	Password  string
	Index     string
}

// ElasticTextSearcher is a TextSearcher backed by an Elasticsearch index.
type ElasticTextSearcher struct {
	client *elasticsearch.Client
	index  string
}

// NewElasticTextSearcher creates the client. It does not contact the cluster.
func NewElasticTextSearcher(cfg ElasticConfig) (*ElasticTextSearcher, error) {
	esCfg := elasticsearch.Config{
		Addresses: cfg.Addresses,
	}
	if cfg.Username != "" {
		esCfg.Username = cfg.Username
		esCfg.Password = cfg.Password
	}

	client, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}

	index := cfg.Index
	if index == "" {
		index = DefaultElasticIndex
	}
	return &ElasticTextSearcher{client: client, index: index}, nil
}

type elasticSearchResponse struct {
	Hits struct {
		Hits []struct {
			Source store.Product `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// SearchProductsByText runs a multi_match query filtered to published products.
func (s *ElasticTextSearcher) SearchProductsByText(ctx context.Context, find *store.SearchProductsByText) ([]*store.Product, error) {
	limit := find.Limit
	if limit <= 0 {
		limit = DefaultMatchCount
	}

	body := map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"must": map[string]any{
					"multi_match": map[string]any{
						"query":    find.Query,
						"fields":   elasticSearchFields,
						"operator": "or",
					},
				},
				"filter": map[string]any{
					"term": map[string]any{"status": store.ProductStatusPublished},
				},
			},
		},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, fmt.Errorf("encode search body: %w", err)
	}

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(s.index),
		s.client.Search.WithBody(&buf),
		s.client.Search.WithSize(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch search error: %s", res.Status())
	}

	var decoded elasticSearchResponse
	if err := json.NewDecoder(res.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	products := make([]*store.Product, 0, len(decoded.Hits.Hits))
	for _, hit := range decoded.Hits.Hits {
		p := hit.Source
		products = append(products, &p)
	}
	return products, nil
}

var _ TextSearcher = (*ElasticTextSearcher)(nil)
