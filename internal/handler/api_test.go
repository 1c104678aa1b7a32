package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/mukhulaazam/large-req-handling/internal/middleware"
	"github.com/mukhulaazam/large-req-handling/internal/model"
)

func TestCurrentUserAnonymous(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := &API{}
	if err := h.CurrentUser(c); err != nil {
		t.Fatalf("current user: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"message":"anonymous"`) {
		t.Errorf("expected anonymous marker, got %s", rec.Body.String())
	}
}

func TestCurrentUserAuthenticated(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	middleware.SetIdentity(c, model.Identity{ID: 7, Name: "Grace", Email: "grace@example.com"})

	h := &API{}
	if err := h.CurrentUser(c); err != nil {
		t.Fatalf("current user: %v", err)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"email":"grace@example.com"`) {
		t.Errorf("expected identity in response, got %s", body)
	}
}

func TestEchoReturnsBody(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/echo", strings.NewReader(`{"ping":"pong"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := &API{}
	if err := h.Echo(c); err != nil {
		t.Fatalf("echo: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"ping":"pong"`) {
		t.Errorf("expected body echoed back, got %s", rec.Body.String())
	}
}
