package spotify

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"metafetch/internal/metadata"
	"metafetch/internal/provider"

	"github.com/imroc/req/v3"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	defaultTokenURL = "https://accounts.spotify.com/api/token"
	defaultAPIURL   = "https://api.spotify.com/v1"

	// maxBatchArtists is the most ids the several-artists endpoint accepts.
	maxBatchArtists = 50
)

// Client is a Spotify Web API client for catalog search and artist genres.
type Client struct {
	http   *req.Client
	tokens oauth2.TokenSource
}

// New creates a new Spotify client using the client-credentials flow.
func New(clientID, clientSecret string) *Client {
	return newClient(clientID, clientSecret, defaultTokenURL, defaultAPIURL)
}

func newClient(clientID, clientSecret, tokenURL, apiURL string) *Client {
	cfg := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
	}

	httpClient := provider.NewClient(apiURL, 10*time.Second).
		SetCommonRetryCount(1).
		SetCommonRetryCondition(func(resp *req.Response, err error) bool {
			return err == nil && resp.StatusCode == http.StatusTooManyRequests
		}).
		SetCommonRetryInterval(retryAfter)

	return &Client{
		http:   httpClient,
		tokens: cfg.TokenSource(context.Background()),
	}
}

func (c *Client) Name() string { return "spotify" }

// retryAfter honours the Retry-After header of a 429 response.
func retryAfter(resp *req.Response, _ int) time.Duration {
	wait := time.Second
	if resp != nil && resp.Response != nil {
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if parsed, err := strconv.Atoi(ra); err == nil {
				wait = time.Duration(parsed) * time.Second
			}
		}
	}
	return wait
}

func (c *Client) request(ctx context.Context) (*req.Request, error) {
	tok, err := c.tokens.Token()
	if err != nil {
		return nil, fmt.Errorf("spotify auth failed: %w", err)
	}
	return c.http.R().SetContext(ctx).SetBearerAuthToken(tok.AccessToken), nil
}

// Search queries the Spotify search API. Only kind "track" is supported.
func (c *Client) Search(ctx context.Context, query, kind string, limit int) ([]metadata.TrackRecord, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	if kind != metadata.KindTrack {
		return nil, fmt.Errorf("unsupported search type %q", kind)
	}

	r, err := c.request(ctx)
	if err != nil {
		return nil, err
	}

	var result searchResponse
	resp, err := r.
		SetQueryParams(map[string]string{
			"q":     query,
			"type":  kind,
			"limit": strconv.Itoa(limit),
		}).
		SetSuccessResult(&result).
		Get("/search")
	if err != nil {
		return nil, fmt.Errorf("spotify search request failed: %w", err)
	}
	if resp.IsErrorState() {
		return nil, provider.NewHTTPError("spotify", resp)
	}

	return parseSearchResults(result), nil
}

// ArtistsGenres looks up genres for up to fifty artists per request. Ids
// Spotify does not know are absent from the result.
func (c *Client) ArtistsGenres(ctx context.Context, ids []string) (map[string][]string, error) {
	out := make(map[string][]string, len(ids))
	for start := 0; start < len(ids); start += maxBatchArtists {
		end := min(start+maxBatchArtists, len(ids))

		r, err := c.request(ctx)
		if err != nil {
			return nil, err
		}

		var result severalArtistsResponse
		resp, err := r.
			SetQueryParam("ids", strings.Join(ids[start:end], ",")).
			SetSuccessResult(&result).
			Get("/artists")
		if err != nil {
			return nil, fmt.Errorf("spotify artists request failed: %w", err)
		}
		if resp.IsErrorState() {
			return nil, provider.NewHTTPError("spotify", resp)
		}

		for _, a := range result.Artists {
			if a == nil || a.ID == "" {
				continue
			}
			out[a.ID] = a.Genres
		}
	}
	return out, nil
}

// ArtistGenres looks up a single artist's genres.
func (c *Client) ArtistGenres(ctx context.Context, id string) ([]string, error) {
	r, err := c.request(ctx)
	if err != nil {
		return nil, err
	}

	var result artistResponse
	resp, err := r.
		SetPathParam("id", id).
		SetSuccessResult(&result).
		Get("/artists/{id}")
	if err != nil {
		return nil, fmt.Errorf("spotify artist request failed: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, metadata.ErrNotFound
	}
	if resp.IsErrorState() {
		return nil, provider.NewHTTPError("spotify", resp)
	}
	return result.Genres, nil
}

func parseSearchResults(resp searchResponse) []metadata.TrackRecord {
	results := make([]metadata.TrackRecord, 0, len(resp.Tracks.Items))
	for _, item := range resp.Tracks.Items {
		images := make([]metadata.Image, 0, len(item.Album.Images))
		for _, img := range item.Album.Images {
			images = append(images, metadata.Image{URL: img.URL, Width: img.Width, Height: img.Height})
		}

		results = append(results, metadata.TrackRecord{
			ID:           item.ID,
			Title:        item.Name,
			Artists:      toRefs(item.Artists),
			Album:        item.Album.Name,
			AlbumArtists: toRefs(item.Album.Artists),
			TrackNumber:  item.TrackNumber,
			TotalTracks:  item.Album.TotalTracks,
			DiscNumber:   item.DiscNumber,
			ReleaseDate:  item.Album.ReleaseDate,
			Images:       images,
		})
	}
	return results
}

func toRefs(artists []artist) []metadata.ArtistRef {
	refs := make([]metadata.ArtistRef, 0, len(artists))
	for _, a := range artists {
		refs = append(refs, metadata.ArtistRef{ID: a.ID, Name: a.Name})
	}
	return refs
}

// Spotify API response types

type searchResponse struct {
	Tracks struct {
		Items []trackItem `json:"items"`
	} `json:"tracks"`
}

type trackItem struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Artists     []artist  `json:"artists"`
	Album       albumInfo `json:"album"`
	TrackNumber int       `json:"track_number"`
	DiscNumber  int       `json:"disc_number"`
}

type artist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type albumInfo struct {
	Name        string   `json:"name"`
	Artists     []artist `json:"artists"`
	ReleaseDate string   `json:"release_date"`
	TotalTracks int      `json:"total_tracks"`
	Images      []image  `json:"images"`
}

type image struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type artistResponse struct {
	ID     string   `json:"id"`
	Genres []string `json:"genres"`
}

type severalArtistsResponse struct {
	Artists []*artistResponse `json:"artists"`
}
