// Package tracker converts in-flight HTTP requests into log entries and
// moves them to a durable store. A Tracker owns a private buffer and is
// scoped to a single request-handling lifetime; sharing one instance
// across concurrent requests would interleave unrelated entries in one
// buffer, so callers construct a fresh Tracker per request and share only
// the Store behind it.
package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mukhulaazam/large-req-handling/internal/model"
)

// Store is an append-only sink for observed entries. Implementations must
// treat the batch as a unit: either every row is accepted or an error is
// returned. The tracker does not retry.
type Store interface {
	Append(ctx context.Context, entries []model.LogEntry) error
}

// RequestSource exposes the readable parts of one in-flight request.
// All methods are pure reads with no side effects on request handling.
type RequestSource interface {
	URL() string
	Method() string
	Headers() map[string][]string
	Body() map[string]any
	IP() string
	UserAgent() string
	Identity() (model.Identity, bool)
}

// Tracker accumulates log entries and flushes them to a Store once the
// buffer reaches the configured threshold. A threshold of 1 flushes after
// every observation.
type Tracker struct {
	store     Store
	threshold int
	now       func() time.Time
	buffer    []model.LogEntry
}

// New returns a Tracker flushing to store. A threshold below 1 is
// treated as 1.
func New(store Store, threshold int) *Tracker {
	if threshold < 1 {
		threshold = 1
	}
	return &Tracker{
		store:     store,
		threshold: threshold,
		now:       time.Now,
	}
}

// Observe builds a log entry from src, appends it to the buffer and
// flushes if the threshold is reached. Absent optional fields (user
// agent, identity) degrade to nil, never to an error; the only error
// Observe can return is a failed flush.
func (t *Tracker) Observe(ctx context.Context, src RequestSource) error {
	body := src.Body()
	if body == nil {
		body = map[string]any{}
	}
	entry := model.LogEntry{
		ID: uuid.New(),
		Request: model.RequestData{
			URL:     src.URL(),
			Method:  src.Method(),
			Headers: src.Headers(),
			Body:    body,
		},
		Metadata: model.Metadata{IP: src.IP()},
		Time:     t.now().UTC(),
	}
	if ua := src.UserAgent(); ua != "" {
		entry.Metadata.UserAgent = &ua
	}
	if ident, ok := src.Identity(); ok {
		entry.Metadata = entry.Metadata.WithIdentity(ident)
	}

	t.buffer = append(t.buffer, entry)
	if len(t.buffer) >= t.threshold {
		return t.Flush(ctx)
	}
	return nil
}

// Flush hands the whole buffer to the store in one append and clears it
// on success. On failure the buffer is kept intact and the error
// propagates to the caller.
func (t *Tracker) Flush(ctx context.Context) error {
	if len(t.buffer) == 0 {
		return nil
	}
	batch := make([]model.LogEntry, len(t.buffer))
	copy(batch, t.buffer)
	if err := t.store.Append(ctx, batch); err != nil {
		return fmt.Errorf("append %d request log(s): %w", len(batch), err)
	}
	t.buffer = t.buffer[:0]
	return nil
}

// Buffered reports how many entries are waiting for the next flush.
func (t *Tracker) Buffered() int {
	return len(t.buffer)
}
