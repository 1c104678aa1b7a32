package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mukhulaazam/large-req-handling/internal/model"
)

// echoSource adapts an echo request to the tracker.RequestSource
// contract. All reads are side-effect free from the handler's point of
// view: a consumed JSON body is rewound before the handler runs.
type echoSource struct {
	c       echo.Context
	maxBody int64
}

func newEchoSource(c echo.Context, maxBodyBytes int64) *echoSource {
	if maxBodyBytes <= 0 {
		maxBodyBytes = 1 << 16
	}
	return &echoSource{c: c, maxBody: maxBodyBytes}
}

func (s *echoSource) URL() string {
	req := s.c.Request()
	return s.c.Scheme() + "://" + req.Host + req.RequestURI
}

func (s *echoSource) Method() string {
	return s.c.Request().Method
}

// Headers returns a copy so the entry stays immutable even if a handler
// mutates the live header map afterwards.
func (s *echoSource) Headers() map[string][]string {
	src := s.c.Request().Header
	headers := make(map[string][]string, len(src))
	for name, values := range src {
		headers[name] = append([]string(nil), values...)
	}
	return headers
}

// Body merges query parameters and the parsed request payload into one
// mapping. JSON objects contribute their top-level fields; form payloads
// contribute their values. Anything unparseable yields an empty mapping,
// never an error.
func (s *echoSource) Body() map[string]any {
	params := map[string]any{}
	for name, values := range s.c.QueryParams() {
		params[name] = flatten(values)
	}

	req := s.c.Request()
	contentType := req.Header.Get(echo.HeaderContentType)
	switch {
	case req.Body == nil || req.ContentLength == 0:
	case strings.HasPrefix(contentType, echo.MIMEApplicationJSON):
		raw, err := io.ReadAll(io.LimitReader(req.Body, s.maxBody+1))
		if err != nil {
			break
		}
		// Hand the bytes back so c.Bind still works downstream.
		req.Body = rewoundBody{io.MultiReader(bytes.NewReader(raw), req.Body), req.Body}
		if int64(len(raw)) > s.maxBody {
			break
		}
		var fields map[string]any
		if json.Unmarshal(raw, &fields) == nil {
			for name, value := range fields {
				params[name] = value
			}
		}
	case strings.HasPrefix(contentType, echo.MIMEApplicationForm),
		strings.HasPrefix(contentType, echo.MIMEMultipartForm):
		if form, err := s.c.FormParams(); err == nil {
			for name, values := range form {
				params[name] = flatten(values)
			}
		}
	}
	return params
}

func (s *echoSource) IP() string {
	return s.c.RealIP()
}

func (s *echoSource) UserAgent() string {
	return s.c.Request().UserAgent()
}

func (s *echoSource) Identity() (model.Identity, bool) {
	return IdentityFrom(s.c)
}

func flatten(values []string) any {
	if len(values) == 1 {
		return values[0]
	}
	return values
}

// rewoundBody re-chains already-read bytes with the untouched remainder
// while keeping the original Close behavior.
type rewoundBody struct {
	io.Reader
	io.Closer
}
