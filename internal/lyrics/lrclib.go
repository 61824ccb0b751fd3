// Package lyrics finds plain lyrics on LRCLib.
package lyrics

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"metafetch/internal/provider"

	"github.com/imroc/req/v3"
	"golang.org/x/time/rate"
)

const defaultAPIURL = "https://lrclib.net/api"

var lrcTimestamp = regexp.MustCompile(`^\[\d+:\d+(?:\.\d+)?\]\s?`)

// Client implements metadata.LyricsSearcher.
type Client struct {
	http    *req.Client
	limiter *rate.Limiter
}

func NewClient() *Client {
	return newClient(defaultAPIURL, rate.Every(time.Second))
}

func newClient(apiURL string, every rate.Limit) *Client {
	return &Client{
		http:    provider.NewClient(apiURL, 10*time.Second),
		limiter: rate.NewLimiter(every, 1),
	}
}

// SearchLyrics returns cleaned plain lyrics, or "" (no error) when LRCLib
// has nothing for the track. An exact lookup is tried first, then a search.
func (c *Client) SearchLyrics(ctx context.Context, title, artist string) (string, error) {
	rec, err := c.get(ctx, title, artist)
	if err != nil {
		return "", err
	}
	if rec == nil || rec.text() == "" {
		rec, err = c.search(ctx, title, artist)
		if err != nil {
			return "", err
		}
	}
	if rec == nil {
		return "", nil
	}
	return Clean(rec.text()), nil
}

func (c *Client) get(ctx context.Context, title, artist string) (*record, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var rec record
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"artist_name": artist,
			"track_name":  title,
		}).
		SetSuccessResult(&rec).
		Get("/get")
	if err != nil {
		return nil, fmt.Errorf("lrclib request failed: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.IsErrorState() {
		return nil, provider.NewHTTPError("lrclib", resp)
	}
	return &rec, nil
}

func (c *Client) search(ctx context.Context, title, artist string) (*record, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var recs []record
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"artist_name": artist,
			"track_name":  title,
		}).
		SetSuccessResult(&recs).
		Get("/search")
	if err != nil {
		return nil, fmt.Errorf("lrclib search failed: %w", err)
	}
	if resp.IsErrorState() {
		return nil, provider.NewHTTPError("lrclib", resp)
	}

	for i := range recs {
		if !recs[i].Instrumental && recs[i].text() != "" {
			return &recs[i], nil
		}
	}
	return nil, nil
}

type record struct {
	Instrumental bool   `json:"instrumental"`
	SyncedLyrics string `json:"syncedLyrics"`
	PlainLyrics  string `json:"plainLyrics"`
}

// text prefers plain lyrics and falls back to synced ones without their
// timestamps.
func (r *record) text() string {
	if strings.TrimSpace(r.PlainLyrics) != "" {
		return r.PlainLyrics
	}
	if r.SyncedLyrics == "" {
		return ""
	}
	lines := strings.Split(r.SyncedLyrics, "\n")
	for i, line := range lines {
		lines[i] = lrcTimestamp.ReplaceAllString(line, "")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
