package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mukhulaazam/large-req-handling/internal/model"
)

// RequestLogRepository appends observed request entries to the
// request_logs table. It implements tracker.Store.
type RequestLogRepository struct {
	pool *pgxpool.Pool
}

// NewRequestLogRepository returns a RequestLogRepository using the given pool.
func NewRequestLogRepository(pool *pgxpool.Pool) *RequestLogRepository {
	return &RequestLogRepository{pool: pool}
}

const insertRequestLog = `
	INSERT INTO request_logs (id, request, metadata, time, created_at, updated_at)
	VALUES ($1, $2, $3, $4, now(), now())`

// Append inserts the whole batch inside one pgx batch round trip. pgx
// runs the batch in an implicit transaction, so either every row lands
// or the error is returned and nothing is kept.
func (r *RequestLogRepository) Append(ctx context.Context, entries []model.LogEntry) error {
	if len(entries) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, entry := range entries {
		request, err := json.Marshal(entry.Request)
		if err != nil {
			return fmt.Errorf("encode request %s: %w", entry.ID, err)
		}
		metadata, err := json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("encode metadata %s: %w", entry.ID, err)
		}
		batch.Queue(insertRequestLog, entry.ID, json.RawMessage(request), json.RawMessage(metadata), entry.Time)
	}

	results := r.pool.SendBatch(ctx, batch)
	for range entries {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return fmt.Errorf("insert request log: %w", err)
		}
	}
	return results.Close()
}
