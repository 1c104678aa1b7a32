package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mukhulaazam/large-req-handling/internal/model"
)

// identityContextKey is where the resolved identity lives in the echo
// context. Request-scoped, so concurrent requests cannot see each other's
// principal.
const identityContextKey = "auth.identity"

// IdentityLookup resolves an API key to an identity. The second return
// value reports whether the key matched a known user.
type IdentityLookup func(ctx context.Context, apiKey string) (model.Identity, bool, error)

// Identity resolves the caller's identity from a bearer token or
// X-API-Key header and stores it in the request context. Requests
// without a key, or with an unknown key, continue anonymously; only a
// lookup failure aborts the request.
func Identity(lookup IdentityLookup) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := requestAPIKey(c.Request())
			if key == "" {
				return next(c)
			}
			ident, ok, err := lookup(c.Request().Context(), key)
			if err != nil {
				return fmt.Errorf("resolve identity: %w", err)
			}
			if ok {
				c.Set(identityContextKey, ident)
			}
			return next(c)
		}
	}
}

// IdentityFrom returns the identity attached to this request, if any.
func IdentityFrom(c echo.Context) (model.Identity, bool) {
	ident, ok := c.Get(identityContextKey).(model.Identity)
	return ident, ok
}

// SetIdentity attaches an identity to the request context. Exposed for
// hosts that authenticate by other means than API keys.
func SetIdentity(c echo.Context, ident model.Identity) {
	c.Set(identityContextKey, ident)
}

func requestAPIKey(r *http.Request) string {
	if auth := r.Header.Get(echo.HeaderAuthorization); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return r.Header.Get("X-API-Key")
}
