package metadata

import (
	"context"
	"fmt"
	"strings"

	"metafetch/internal/logger"
)

// maxArtTitleLength keeps compact art queries under the catalog's query
// length limit.
const maxArtTitleLength = 120

// ShouldFetchArt decides whether cover art is fetched for a file.
func ShouldFetchArt(hasArt, force, suppress bool) bool {
	return !suppress && (force || !hasArt)
}

// CompactArtQuery builds a short field-qualified search from the title and
// the primary artist.
func CompactArtQuery(title, artist string) string {
	title = strings.ReplaceAll(title, `"`, "")
	if r := []rune(title); len(r) > maxArtTitleLength {
		title = string(r[:maxArtTitleLength])
	}
	title = strings.TrimSpace(title)

	primary, _, _ := strings.Cut(artist, ",")
	primary = strings.TrimSpace(strings.ReplaceAll(primary, `"`, ""))

	return fmt.Sprintf(`track:"%s" artist:"%s"`, title, primary)
}

// ArtResolver finds and downloads cover art.
type ArtResolver struct {
	search  *CachedSearch
	fetcher ArtFetcher
	logger  *logger.Logger
}

func NewArtResolver(search *CachedSearch, fetcher ArtFetcher, log *logger.Logger) *ArtResolver {
	return &ArtResolver{search: search, fetcher: fetcher, logger: log}
}

// Find prefers the images already on track and otherwise runs a compact
// search. track may be nil. Returns ErrNoArt when nothing was downloaded.
func (a *ArtResolver) Find(ctx context.Context, track *TrackRecord, artist, title string) ([]byte, error) {
	if track != nil {
		if url := track.FirstImageURL(); url != "" {
			data, err := a.fetcher.Fetch(ctx, url)
			if err == nil && len(data) > 0 {
				return data, nil
			}
			a.logger.Debug("  art download from track record failed: %v", err)
		}
	}

	query := CompactArtQuery(title, artist)
	hit, err := a.search.First(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoArt, err)
	}
	if hit == nil || hit.FirstImageURL() == "" {
		return nil, ErrNoArt
	}

	data, err := a.fetcher.Fetch(ctx, hit.FirstImageURL())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoArt, err)
	}
	if len(data) == 0 {
		return nil, ErrNoArt
	}
	return data, nil
}
