// Package middleware provides the per-request tracking hook and the
// identity resolution it reads from. It adapts echo requests to the
// tracker's source contract; the store behind the tracker is supplied by
// the caller.
package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/mukhulaazam/large-req-handling/internal/tracker"
)

// Config controls the request logger middleware.
type Config struct {
	// Store receives flushed entries. Shared across requests; must be
	// safe for concurrent use.
	Store tracker.Store
	// FlushThreshold is the buffer size that triggers a flush. 1 means
	// every observation is written immediately.
	FlushThreshold int
	// MaxBodyBytes caps how much of a request body is read for capture.
	// Larger bodies pass through untouched and are recorded as empty.
	MaxBodyBytes int64
}

// RequestLogger observes every request passing through it and then hands
// control to the next handler. A fresh tracker is built per request so
// concurrent requests never share a buffer. Tracking is not optional and
// does not touch the response; if the observation cannot be stored the
// error is returned without invoking the next handler.
func RequestLogger(cfg Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			t := tracker.New(cfg.Store, cfg.FlushThreshold)
			src := newEchoSource(c, cfg.MaxBodyBytes)
			if err := t.Observe(c.Request().Context(), src); err != nil {
				return err
			}
			return next(c)
		}
	}
}
