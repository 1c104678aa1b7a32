package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/mukhulaazam/large-req-handling/internal/middleware"
	"github.com/mukhulaazam/large-req-handling/internal/response"
)

// API serves the routes the request logger is mounted on.
type API struct{}

// CurrentUser returns the authenticated identity, or an anonymous
// marker when the request carried no valid key (GET /api/user).
func (h *API) CurrentUser(c echo.Context) error {
	if ident, ok := middleware.IdentityFrom(c); ok {
		return response.OK(c, ident, "")
	}
	return response.OK(c, nil, "anonymous")
}

// Echo returns the parsed JSON body unchanged (POST /api/echo). Useful
// for verifying that tracking leaves the request intact.
func (h *API) Echo(c echo.Context) error {
	var body map[string]any
	if err := c.Bind(&body); err != nil {
		return response.BadRequest(c, "invalid JSON body", err.Error())
	}
	return response.OK(c, body, "")
}
