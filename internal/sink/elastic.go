package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/mukhulaazam/large-req-handling/internal/config"
	"github.com/mukhulaazam/large-req-handling/internal/model"
)

// ElasticSink indexes entries into a single Elasticsearch index, one
// document per entry with the entry ID as document ID.
type ElasticSink struct {
	client *elasticsearch.Client
	index  string
}

// NewElasticSink builds a client for the configured nodes.
func NewElasticSink(cfg *config.ElasticConfig) (*ElasticSink, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: cfg.Nodes})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}
	return &ElasticSink{client: client, index: cfg.Index}, nil
}

// Append indexes every entry of the batch. The first failed document
// fails the batch; the tracker keeps its buffer and the caller decides
// what to do with the error.
func (s *ElasticSink) Append(ctx context.Context, entries []model.LogEntry) error {
	for _, entry := range entries {
		doc, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("encode entry %s: %w", entry.ID, err)
		}
		res, err := s.client.Index(
			s.index,
			bytes.NewReader(doc),
			s.client.Index.WithDocumentID(entry.ID.String()),
			s.client.Index.WithContext(ctx),
		)
		if err != nil {
			return fmt.Errorf("index entry %s: %w", entry.ID, err)
		}
		if res.IsError() {
			res.Body.Close()
			return fmt.Errorf("index entry %s: %s", entry.ID, res.Status())
		}
		res.Body.Close()
	}
	return nil
}
