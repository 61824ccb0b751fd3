package metadata

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"

	"metafetch/internal/logger"
)

var errRemote = errors.New("remote unavailable")

func quietLogger() *logger.Logger { return logger.Discard() }

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
}

type fakeSearcher struct {
	mu      sync.Mutex
	results map[string][]TrackRecord
	err     error
	queries []string
}

func (f *fakeSearcher) Search(ctx context.Context, query, kind string, limit int) ([]TrackRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	r := f.results[query]
	if len(r) > limit {
		r = r[:limit]
	}
	return r, nil
}

func (f *fakeSearcher) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

type fakeCleaner struct {
	answer string
	err    error
	calls  int
}

func (f *fakeCleaner) CleanFilename(ctx context.Context, raw string) (string, error) {
	f.calls++
	return f.answer, f.err
}

type fakeTagCloud struct {
	track       map[string][]Tag
	artist      map[string][]Tag
	err         error
	trackCalls  int
	artistCalls int
}

func (f *fakeTagCloud) TrackTopTags(ctx context.Context, artist, track string) ([]Tag, error) {
	f.trackCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.track[strings.ToLower(artist+"|"+track)], nil
}

func (f *fakeTagCloud) ArtistTopTags(ctx context.Context, artist string) ([]Tag, error) {
	f.artistCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.artist[strings.ToLower(artist)], nil
}

type fakeArtistGenres struct {
	genres      map[string][]string
	batchErr    error
	batchCalls  int
	singleCalls int
}

func (f *fakeArtistGenres) ArtistsGenres(ctx context.Context, ids []string) (map[string][]string, error) {
	f.batchCalls++
	if f.batchErr != nil {
		return nil, f.batchErr
	}
	out := make(map[string][]string)
	for _, id := range ids {
		if g, ok := f.genres[id]; ok {
			out[id] = g
		}
	}
	return out, nil
}

func (f *fakeArtistGenres) ArtistGenres(ctx context.Context, id string) ([]string, error) {
	f.singleCalls++
	g, ok := f.genres[id]
	if !ok {
		return nil, ErrNotFound
	}
	return g, nil
}

type fakeFetcher struct {
	images map[string][]byte
	urls   []string
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	f.urls = append(f.urls, url)
	data, ok := f.images[url]
	if !ok {
		return nil, errRemote
	}
	return data, nil
}
