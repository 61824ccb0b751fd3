// Package provider contains the remote service clients (Spotify, Last.fm,
// Gemini) that back the interfaces declared in internal/metadata.
//
// Interfaces are defined where they are consumed; each sub-package here
// satisfies one or more of them for a specific service.
package provider

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/imroc/req/v3"
)

// UserAgent is sent with every request.
const UserAgent = "metafetch/1.0 (+https://github.com/metafetch/metafetch)"

// HTTPError is a non-success response from a remote service.
type HTTPError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s returned %d: %s", e.Service, e.StatusCode, e.Body)
}

// Temporary reports whether retrying later could succeed.
func (e *HTTPError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// NewHTTPError builds an HTTPError from resp, trimming long bodies.
func NewHTTPError(service string, resp *req.Response) *HTTPError {
	body := strings.TrimSpace(resp.String())
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return &HTTPError{Service: service, StatusCode: resp.StatusCode, Body: body}
}

// NewClient returns a req client with the shared user agent and timeout.
func NewClient(baseURL string, timeout time.Duration) *req.Client {
	c := req.C().
		SetUserAgent(UserAgent).
		SetTimeout(timeout)
	if baseURL != "" {
		c.SetBaseURL(baseURL)
	}
	return c
}
