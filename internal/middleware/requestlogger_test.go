package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/mukhulaazam/large-req-handling/internal/model"
)

type fakeStore struct {
	mu      sync.Mutex
	appends [][]model.LogEntry
	err     error
}

func (s *fakeStore) Append(_ context.Context, entries []model.LogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	batch := make([]model.LogEntry, len(entries))
	copy(batch, entries)
	s.appends = append(s.appends, batch)
	return nil
}

func (s *fakeStore) lastEntry(t *testing.T) model.LogEntry {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.appends) == 0 {
		t.Fatal("store received no appends")
	}
	last := s.appends[len(s.appends)-1]
	return last[len(last)-1]
}

func newTrackedEcho(store *fakeStore, mw ...echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	chain := append(mw, RequestLogger(Config{Store: store, FlushThreshold: 1, MaxBodyBytes: 1 << 16}))
	g := e.Group("/api", chain...)
	g.GET("/user", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"route": "user"})
	})
	g.POST("/echo", func(c echo.Context) error {
		var body map[string]any
		if err := c.Bind(&body); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return c.JSON(http.StatusOK, body)
	})
	return e
}

func TestRequestLoggerAnonymousRequest(t *testing.T) {
	store := &fakeStore{}
	e := newTrackedEcho(store)

	req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set("X-Real-Ip", "10.0.0.1")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	entry := store.lastEntry(t)
	if !strings.HasSuffix(entry.Request.URL, "/api/user") {
		t.Errorf("expected url ending in /api/user, got %q", entry.Request.URL)
	}
	if entry.Request.Method != http.MethodGet {
		t.Errorf("expected method GET, got %q", entry.Request.Method)
	}
	if got := entry.Request.Headers["User-Agent"]; len(got) != 1 || got[0] != "test-agent" {
		t.Errorf("expected User-Agent header captured, got %v", got)
	}
	if len(entry.Request.Body) != 0 {
		t.Errorf("expected empty body, got %v", entry.Request.Body)
	}
	if entry.Metadata.IP != "10.0.0.1" {
		t.Errorf("expected ip 10.0.0.1, got %q", entry.Metadata.IP)
	}
	if entry.Metadata.UserAgent == nil || *entry.Metadata.UserAgent != "test-agent" {
		t.Errorf("expected user_agent test-agent, got %v", entry.Metadata.UserAgent)
	}
	if entry.Metadata.UserID != nil || entry.Metadata.UserName != nil || entry.Metadata.UserEmail != nil {
		t.Errorf("expected nil user fields, got %+v", entry.Metadata)
	}
}

func TestRequestLoggerAuthenticatedRequest(t *testing.T) {
	store := &fakeStore{}
	lookup := func(_ context.Context, key string) (model.Identity, bool, error) {
		if key != "secret-key" {
			return model.Identity{}, false, nil
		}
		return model.Identity{ID: 123, Name: "John Doe", Email: "john@example.com"}, true, nil
	}
	e := newTrackedEcho(store, Identity(lookup))

	req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
	req.Header.Set("Authorization", "Bearer secret-key")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	meta := store.lastEntry(t).Metadata
	if meta.UserID == nil || *meta.UserID != 123 {
		t.Errorf("expected user_id 123, got %v", meta.UserID)
	}
	if meta.UserName == nil || *meta.UserName != "John Doe" {
		t.Errorf("expected user_name John Doe, got %v", meta.UserName)
	}
	if meta.UserEmail == nil || *meta.UserEmail != "john@example.com" {
		t.Errorf("expected user_email john@example.com, got %v", meta.UserEmail)
	}
}

func TestRequestLoggerUnknownKeyStaysAnonymous(t *testing.T) {
	store := &fakeStore{}
	lookup := func(_ context.Context, _ string) (model.Identity, bool, error) {
		return model.Identity{}, false, nil
	}
	e := newTrackedEcho(store, Identity(lookup))

	req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
	req.Header.Set("X-API-Key", "nobody-knows-this")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	meta := store.lastEntry(t).Metadata
	if meta.UserID != nil || meta.UserName != nil || meta.UserEmail != nil {
		t.Errorf("expected anonymous metadata for unknown key, got %+v", meta)
	}
}

func TestRequestLoggerCapturesJSONBodyAndQuery(t *testing.T) {
	store := &fakeStore{}
	e := newTrackedEcho(store)

	req := httptest.NewRequest(http.MethodPost, "/api/echo?source=cli", strings.NewReader(`{"title":"hello","count":2}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	// Handler still saw the body after capture.
	if !strings.Contains(rec.Body.String(), `"title":"hello"`) {
		t.Errorf("expected handler to echo the body, got %s", rec.Body.String())
	}

	body := store.lastEntry(t).Request.Body
	if body["title"] != "hello" {
		t.Errorf("expected captured title hello, got %v", body["title"])
	}
	if body["count"] != float64(2) {
		t.Errorf("expected captured count 2, got %v", body["count"])
	}
	if body["source"] != "cli" {
		t.Errorf("expected query param merged into body, got %v", body["source"])
	}
}

func TestRequestLoggerSkipsOversizedBody(t *testing.T) {
	store := &fakeStore{}
	e := echo.New()
	g := e.Group("/api", RequestLogger(Config{Store: store, FlushThreshold: 1, MaxBodyBytes: 8}))
	g.POST("/echo", func(c echo.Context) error {
		raw, err := io.ReadAll(c.Request().Body)
		if err != nil {
			return err
		}
		return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, raw)
	})

	payload := `{"note":"this payload is longer than eight bytes"}`
	req := httptest.NewRequest(http.MethodPost, "/api/echo", strings.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != payload {
		t.Errorf("expected full body passed through, got %s", rec.Body.String())
	}
	if body := store.lastEntry(t).Request.Body; len(body) != 0 {
		t.Errorf("expected oversized body not captured, got %v", body)
	}
}

func TestRequestLoggerStoreFailureAbortsRequest(t *testing.T) {
	store := &fakeStore{err: errors.New("store unavailable")}
	handlerRan := false
	e := echo.New()
	g := e.Group("/api", RequestLogger(Config{Store: store, FlushThreshold: 1}))
	g.GET("/user", func(c echo.Context) error {
		handlerRan = true
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 when store fails, got %d", rec.Code)
	}
	if handlerRan {
		t.Fatal("handler must not run when tracking fails")
	}
}

func TestRequestLoggerFormBodyCaptured(t *testing.T) {
	store := &fakeStore{}
	e := echo.New()
	g := e.Group("/api", RequestLogger(Config{Store: store, FlushThreshold: 1}))
	g.POST("/form", func(c echo.Context) error {
		return c.String(http.StatusOK, c.FormValue("name"))
	})

	form := "name=ada&tags=x&tags=y"
	req := httptest.NewRequest(http.MethodPost, "/api/form", strings.NewReader(form))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || rec.Body.String() != "ada" {
		t.Fatalf("expected handler to read form after capture, got %d %q", rec.Code, rec.Body.String())
	}
	body := store.lastEntry(t).Request.Body
	if body["name"] != "ada" {
		t.Errorf("expected form field captured, got %v", body["name"])
	}
	tags, ok := body["tags"].([]string)
	if !ok || len(tags) != 2 {
		t.Errorf("expected multi-valued field captured as slice, got %v", body["tags"])
	}
}
