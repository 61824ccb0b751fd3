// Package lastfm reads community tag clouds from the Last.fm API.
package lastfm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"metafetch/internal/metadata"
	"metafetch/internal/provider"

	"github.com/imroc/req/v3"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

const (
	defaultAPIURL = "https://ws.audioscrobbler.com"

	// Last.fm asks clients to stay under five requests per second.
	requestInterval = 200 * time.Millisecond

	// errNotFound is the API error code for unknown artists and tracks.
	errNotFound = 6
)

// Client implements metadata.TagCloud.
type Client struct {
	http    *req.Client
	apiKey  string
	limiter *rate.Limiter
}

// New creates a new Last.fm client.
func New(apiKey string) *Client {
	return newClient(apiKey, defaultAPIURL)
}

func newClient(apiKey, apiURL string) *Client {
	return &Client{
		http:    provider.NewClient(apiURL, 6*time.Second),
		apiKey:  apiKey,
		limiter: rate.NewLimiter(rate.Every(requestInterval), 1),
	}
}

func (c *Client) Name() string { return "lastfm" }

// TrackTopTags returns the tag cloud of a single track.
func (c *Client) TrackTopTags(ctx context.Context, artist, track string) ([]metadata.Tag, error) {
	return c.topTags(ctx, map[string]string{
		"method": "track.gettoptags",
		"artist": artist,
		"track":  track,
	})
}

// ArtistTopTags returns the tag cloud of an artist.
func (c *Client) ArtistTopTags(ctx context.Context, artist string) ([]metadata.Tag, error) {
	return c.topTags(ctx, map[string]string{
		"method": "artist.gettoptags",
		"artist": artist,
	})
}

func (c *Client) topTags(ctx context.Context, params map[string]string) ([]metadata.Tag, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetQueryParam("api_key", c.apiKey).
		SetQueryParam("format", "json").
		Get("/2.0/")
	if err != nil {
		return nil, fmt.Errorf("lastfm %s request failed: %w", params["method"], err)
	}

	body := resp.Bytes()
	if code := gjson.GetBytes(body, "error"); code.Exists() {
		if code.Int() == errNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("lastfm API error %d: %s", code.Int(), gjson.GetBytes(body, "message").String())
	}
	if resp.IsErrorState() {
		return nil, provider.NewHTTPError("lastfm", resp)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("lastfm %s: invalid JSON response", params["method"])
	}

	return parseTags(gjson.GetBytes(body, "toptags.tag")), nil
}

// parseTags accepts both a tag array and the single-object form Last.fm
// uses when there is exactly one tag. Tags without a positive count are
// dropped.
func parseTags(node gjson.Result) []metadata.Tag {
	var items []gjson.Result
	switch {
	case node.IsArray():
		items = node.Array()
	case node.IsObject():
		items = []gjson.Result{node}
	}

	tags := make([]metadata.Tag, 0, len(items))
	for _, item := range items {
		name := strings.TrimSpace(item.Get("name").String())
		count := int(item.Get("count").Int())
		if name == "" || count <= 0 {
			continue
		}
		tags = append(tags, metadata.Tag{Name: name, Count: count})
	}
	return tags
}
