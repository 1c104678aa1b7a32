package model

import (
	"time"

	"github.com/google/uuid"
)

// RequestData holds the request-side fields of one observation.
type RequestData struct {
	URL     string              `json:"url"`
	Method  string              `json:"method"`
	Headers map[string][]string `json:"headers"`
	Body    map[string]any      `json:"body"`
}

// Metadata holds the client-side fields of one observation. The three
// user fields are either all set or all nil; a request without an
// authenticated identity never yields a partially populated triple.
type Metadata struct {
	IP        string  `json:"ip"`
	UserAgent *string `json:"user_agent"`
	UserID    *int64  `json:"user_id"`
	UserName  *string `json:"user_name"`
	UserEmail *string `json:"user_email"`
}

// LogEntry is one observed HTTP request. Entries are never mutated after
// creation; they are only buffered and handed to a store in batches.
type LogEntry struct {
	ID       uuid.UUID   `json:"id"`
	Request  RequestData `json:"request"`
	Metadata Metadata    `json:"metadata"`
	Time     time.Time   `json:"time"`
}

// WithIdentity returns a copy of m with all three user fields populated.
func (m Metadata) WithIdentity(ident Identity) Metadata {
	id, name, email := ident.ID, ident.Name, ident.Email
	m.UserID = &id
	m.UserName = &name
	m.UserEmail = &email
	return m
}
