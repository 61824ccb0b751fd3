package metadata

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"metafetch/internal/cache"
	"metafetch/internal/config"
)

// Caches bundles the three lookup stores shared by the resolvers.
type Caches struct {
	Search       *cache.Store[[]TrackRecord]
	ArtistGenres *cache.Store[[]string]
	TrackGenres  *cache.Store[string]
}

// NewMemoryCaches returns caches that are never persisted.
func NewMemoryCaches() *Caches {
	return &Caches{
		Search:       cache.NewMemory[[]TrackRecord](),
		ArtistGenres: cache.NewMemory[[]string](),
		TrackGenres:  cache.NewMemory[string](),
	}
}

// OpenCaches loads the caches stored in dir. With memorySearch the search
// cache starts empty and is never written back. Load problems are returned
// as warnings; the caches are usable regardless.
func OpenCaches(dir string, memorySearch bool) (*Caches, []error) {
	c := &Caches{
		Search:       cache.New[[]TrackRecord](filepath.Join(dir, config.SearchCacheFile)),
		ArtistGenres: cache.New[[]string](filepath.Join(dir, config.ArtistGenreCacheFile)),
		TrackGenres:  cache.New[string](filepath.Join(dir, config.TrackGenreCacheFile)),
	}
	if memorySearch {
		c.Search = cache.NewMemory[[]TrackRecord]()
	}

	var warnings []error
	for _, load := range []func() error{c.Search.Load, c.ArtistGenres.Load, c.TrackGenres.Load} {
		if err := load(); err != nil {
			warnings = append(warnings, err)
		}
	}
	return c, warnings
}

// Save flushes every cache, returning the first error.
func (c *Caches) Save() error {
	var firstErr error
	for _, save := range []func() error{c.Search.Save, c.ArtistGenres.Save, c.TrackGenres.Save} {
		if err := save(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return fmt.Errorf("failed to save caches: %w", firstErr)
	}
	return nil
}

// SearchKey builds the search cache key from the exact query parameters.
func SearchKey(query, kind string, limit int) string {
	return query + "|" + kind + "|" + strconv.Itoa(limit)
}

// TrackGenreKey builds the case-insensitive track genre cache key.
func TrackGenreKey(artist, title string) string {
	return strings.ToLower(artist) + "|" + strings.ToLower(title)
}
