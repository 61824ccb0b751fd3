package metadata

import (
	"context"
	"fmt"
	"strings"

	"metafetch/internal/cache"
	"metafetch/internal/genre"
	"metafetch/internal/logger"
	"metafetch/internal/retry"
)

// GenreSource yields a canonical genre for a track, or "" when it has
// nothing to say.
type GenreSource interface {
	Name() string
	Genre(ctx context.Context, artist, title string, track TrackRecord) (string, error)
}

// GenreResolver tries sources in order and returns the first genre found.
type GenreResolver struct {
	sources []GenreSource
	logger  *logger.Logger
}

// NewGenreResolver builds the fixed source order: tag cloud first, then
// artist genres. Either collaborator may be nil to leave its source out.
func NewGenreResolver(tags TagCloud, artists ArtistGenreLookup, caches *Caches, policy retry.Policy, log *logger.Logger) *GenreResolver {
	var sources []GenreSource
	if tags != nil {
		sources = append(sources, &TagCloudSource{client: tags, cache: caches.TrackGenres, policy: policy, logger: log})
	}
	if artists != nil {
		sources = append(sources, &ArtistGenreSource{client: artists, cache: caches.ArtistGenres, policy: policy, logger: log})
	}
	return &GenreResolver{sources: sources, logger: log}
}

// Resolve never fails: remote errors fall through to the next source and
// the last resort is genre.Unknown.
func (g *GenreResolver) Resolve(ctx context.Context, artist, title string, track TrackRecord) string {
	for _, s := range g.sources {
		label, err := s.Genre(ctx, artist, title, track)
		if err != nil {
			g.logger.Debug("  genre source %s failed: %v", s.Name(), err)
			continue
		}
		if label != "" {
			g.logger.Debug("  genre %q from %s", label, s.Name())
			return label
		}
	}
	return genre.Unknown
}

// TagCloudSource weighs community tags, track first then artist.
type TagCloudSource struct {
	client TagCloud
	cache  *cache.Store[string]
	policy retry.Policy
	logger *logger.Logger
}

func (s *TagCloudSource) Name() string { return "tags" }

func (s *TagCloudSource) Genre(ctx context.Context, artist, title string, _ TrackRecord) (string, error) {
	if strings.TrimSpace(artist) == "" || strings.TrimSpace(title) == "" {
		return "", nil
	}
	key := TrackGenreKey(artist, title)
	switch hit := s.cache.Get(key); hit.State {
	case cache.Present:
		return hit.Value, nil
	case cache.Absent:
		return "", nil
	}

	tags, err := retry.Do(ctx, s.policy, func(ctx context.Context) ([]Tag, error) {
		return s.client.TrackTopTags(ctx, artist, title)
	})
	if err != nil {
		return "", fmt.Errorf("track tags: %w", err)
	}
	if !hasUsableTags(tags) {
		tags, err = retry.Do(ctx, s.policy, func(ctx context.Context) ([]Tag, error) {
			return s.client.ArtistTopTags(ctx, artist)
		})
		if err != nil {
			return "", fmt.Errorf("artist tags: %w", err)
		}
	}

	tally := genre.NewTally()
	for _, t := range tags {
		tally.Add(t.Name, t.Count)
	}
	label, ok := tally.Best()
	if !ok {
		s.cache.PutAbsent(key)
		return "", nil
	}
	s.cache.Put(key, label)
	return label, nil
}

func hasUsableTags(tags []Tag) bool {
	for _, t := range tags {
		if t.Name != "" && t.Count > 0 {
			return true
		}
	}
	return false
}

// ArtistGenreSource counts the catalog genres of every contributing artist.
type ArtistGenreSource struct {
	client ArtistGenreLookup
	cache  *cache.Store[[]string]
	policy retry.Policy
	logger *logger.Logger
}

func (s *ArtistGenreSource) Name() string { return "artists" }

func (s *ArtistGenreSource) Genre(ctx context.Context, _, _ string, track TrackRecord) (string, error) {
	ids := track.ContributorIDs()
	if len(ids) == 0 {
		return "", nil
	}

	genres := make(map[string][]string, len(ids))
	var missing []string
	for _, id := range ids {
		if hit := s.cache.Get(id); hit.Known() {
			genres[id] = hit.Value
			continue
		}
		missing = append(missing, id)
	}

	if len(missing) > 0 {
		for id, g := range s.fetch(ctx, missing) {
			genres[id] = g
		}
	}

	tally := genre.NewTally()
	for _, id := range ids {
		for _, g := range genres[id] {
			tally.Add(g, 1)
		}
	}
	label, _ := tally.Best()
	return label, nil
}

// fetch looks up ids in one batch, falling back to one call per id when the
// batch fails. Every answer the catalog gives is cached; failures are not.
func (s *ArtistGenreSource) fetch(ctx context.Context, ids []string) map[string][]string {
	out := make(map[string][]string, len(ids))

	batch, err := retry.Do(ctx, s.policy, func(ctx context.Context) (map[string][]string, error) {
		return s.client.ArtistsGenres(ctx, ids)
	})
	if err == nil {
		for _, id := range ids {
			g, ok := batch[id]
			if !ok {
				s.cache.PutAbsent(id)
				continue
			}
			if g == nil {
				g = []string{}
			}
			s.cache.Put(id, g)
			out[id] = g
		}
		return out
	}

	s.logger.Debug("  batch artist lookup failed, falling back to single lookups: %v", err)
	for _, id := range ids {
		g, err := s.client.ArtistGenres(ctx, id)
		switch {
		case err == nil:
			if g == nil {
				g = []string{}
			}
			s.cache.Put(id, g)
			out[id] = g
		case isNotFound(err):
			s.cache.PutAbsent(id)
		default:
			s.logger.Debug("  artist %s lookup failed: %v", id, err)
		}
	}
	return out
}
