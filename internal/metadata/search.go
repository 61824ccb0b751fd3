package metadata

import (
	"context"
	"fmt"

	"metafetch/internal/cache"
	"metafetch/internal/logger"
	"metafetch/internal/retry"
)

// Search kinds understood by the catalog.
const KindTrack = "track"

// CachedSearch answers repeated queries from the search cache. Successful
// remote answers, empty ones included, are stored; failures are not.
type CachedSearch struct {
	remote Searcher
	cache  *cache.Store[[]TrackRecord]
	policy retry.Policy
	logger *logger.Logger
}

// NewCachedSearch wraps remote with store. Remote calls use policy.
func NewCachedSearch(remote Searcher, store *cache.Store[[]TrackRecord], policy retry.Policy, log *logger.Logger) *CachedSearch {
	return &CachedSearch{remote: remote, cache: store, policy: policy, logger: log}
}

func (s *CachedSearch) Search(ctx context.Context, query, kind string, limit int) ([]TrackRecord, error) {
	key := SearchKey(query, kind, limit)
	if hit := s.cache.Get(key); hit.Known() {
		s.logger.Debug("  search cache hit: %q", query)
		return hit.Value, nil
	}

	results, err := retry.Do(ctx, s.policy, func(ctx context.Context) ([]TrackRecord, error) {
		return s.remote.Search(ctx, query, kind, limit)
	})
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	if results == nil {
		results = []TrackRecord{}
	}
	s.cache.Put(key, results)
	return results, nil
}

// First runs a limit-1 track search and returns its hit, if any.
func (s *CachedSearch) First(ctx context.Context, query string) (*TrackRecord, error) {
	results, err := s.Search(ctx, query, KindTrack, 1)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return &results[0], nil
}
