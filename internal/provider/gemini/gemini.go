// Package gemini talks to the Generative Language API for filename cleanup
// and track analysis.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"metafetch/internal/metadata"
	"metafetch/internal/provider"

	"github.com/imroc/req/v3"
	"github.com/tidwall/gjson"
)

const (
	defaultAPIURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel  = "gemma-3-27b-it"
)

var (
	errEmptyResponse = errors.New("gemini returned no text")
	errBadAnalysis   = errors.New("analysis is not the expected record")
)

// analysisFields is the exact shape an analysis answer must have.
var analysisFields = []struct {
	name string
	typ  gjson.Type
}{
	{"bpm", gjson.Number},
	{"key", gjson.String},
	{"mood", gjson.String},
	{"danceability", gjson.Number},
	{"popularity", gjson.Number},
}

const cleanupPrompt = `Clean up this music filename for a search query. Remove numbers, version info, and fix typos. Just return the cleaned title, nothing else.

Filename: %q

Cleaned title:`

const analysisPrompt = `You are a music analysis expert. For the song "%s - %s", provide the following details.
Return ONLY a valid JSON object. No other text, no markdown.

{
  "bpm": <integer>,
  "key": "<e.g., C#m>",
  "mood": "<e.g., Energetic, Hopeful, Melancholic>",
  "danceability": <integer from 0-10>,
  "popularity": <integer from 0-10>
}`

// Client implements metadata.FilenameCleaner and metadata.Analyzer.
type Client struct {
	http   *req.Client
	apiKey string
	model  string
}

// New creates a new client for the given model; an empty model selects
// DefaultModel.
func New(apiKey, model string) *Client {
	return newClient(apiKey, model, defaultAPIURL)
}

func newClient(apiKey, model, apiURL string) *Client {
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		http:   provider.NewClient(apiURL, 30*time.Second),
		apiKey: apiKey,
		model:  model,
	}
}

func (c *Client) Name() string { return "gemini" }

// CleanFilename asks the model to turn a filename stem into a search query.
func (c *Client) CleanFilename(ctx context.Context, raw string) (string, error) {
	text, err := c.generate(ctx, fmt.Sprintf(cleanupPrompt, raw))
	if err != nil {
		return "", err
	}
	return strings.Trim(strings.TrimSpace(text), `"`), nil
}

// Analyze asks the model for tempo, key, mood and ratings.
func (c *Client) Analyze(ctx context.Context, artist, title string) (*metadata.Analysis, error) {
	text, err := c.generate(ctx, fmt.Sprintf(analysisPrompt, artist, title))
	if err != nil {
		return nil, err
	}

	return parseAnalysis(stripFences(text))
}

// parseAnalysis accepts only an object carrying every analysis field with
// the right JSON type. Anything else is treated as no answer.
func parseAnalysis(text string) (*metadata.Analysis, error) {
	if !gjson.Valid(text) {
		return nil, fmt.Errorf("%w: not JSON", errBadAnalysis)
	}
	doc := gjson.Parse(text)
	if !doc.IsObject() {
		return nil, fmt.Errorf("%w: got %s", errBadAnalysis, doc.Type)
	}
	for _, f := range analysisFields {
		v := doc.Get(f.name)
		if !v.Exists() {
			return nil, fmt.Errorf("%w: missing %q", errBadAnalysis, f.name)
		}
		if v.Type != f.typ {
			return nil, fmt.Errorf("%w: %q is %s", errBadAnalysis, f.name, v.Type)
		}
	}

	return &metadata.Analysis{
		BPM:          int(doc.Get("bpm").Int()),
		Key:          strings.TrimSpace(doc.Get("key").String()),
		Mood:         strings.TrimSpace(doc.Get("mood").String()),
		Danceability: int(doc.Get("danceability").Int()),
		Popularity:   int(doc.Get("popularity").Int()),
	}, nil
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	body := map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]string{{"text": prompt}}},
		},
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("model", c.model).
		SetQueryParam("key", c.apiKey).
		SetBodyJsonMarshal(body).
		Post("/models/{model}:generateContent")
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	if resp.IsErrorState() {
		return "", provider.NewHTTPError("gemini", resp)
	}

	parts := gjson.GetBytes(resp.Bytes(), "candidates.0.content.parts.#.text")
	var sb strings.Builder
	for _, p := range parts.Array() {
		sb.WriteString(p.String())
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", errEmptyResponse
	}
	return text, nil
}

// stripFences removes markdown code fences models like to add anyway.
func stripFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}
