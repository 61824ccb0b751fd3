package metadata

import (
	"context"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"metafetch/internal/logger"
	"metafetch/internal/retry"
)

// maxCleanedLength bounds an acceptable filename cleanup answer; anything
// longer is treated as the model talking instead of answering.
const maxCleanedLength = 100

const filenameSeparator = " - "

// IdentityResolver works out artist and title for a file from, in order,
// its tags, its filename and a catalog search.
type IdentityResolver struct {
	search  *CachedSearch
	cleaner FilenameCleaner
	policy  retry.Policy
	logger  *logger.Logger
}

// NewIdentityResolver creates a resolver. cleaner may be nil.
func NewIdentityResolver(search *CachedSearch, cleaner FilenameCleaner, policy retry.Policy, log *logger.Logger) *IdentityResolver {
	return &IdentityResolver{search: search, cleaner: cleaner, policy: policy, logger: log}
}

// Resolve returns the identity and true, or false when the file should be
// skipped.
func (r *IdentityResolver) Resolve(ctx context.Context, existing Identity, path string) (Identity, bool) {
	if existing.Complete() {
		return Identity{Artist: existing.Artist, Title: existing.Title, Source: SourceTags}, true
	}

	stem := Stem(path)
	if id, ok := SplitFilename(stem); ok {
		return id, true
	}

	query := r.cleanQuery(ctx, stem)
	hit, err := r.search.First(ctx, query)
	if err != nil {
		r.logger.Warn("  search failed for %q: %v", query, err)
		return Identity{}, false
	}
	if hit == nil || hit.PrimaryArtist() == "" || hit.Title == "" {
		r.logger.Debug("  no search result for %q", query)
		return Identity{}, false
	}

	return Identity{Artist: hit.PrimaryArtist(), Title: hit.Title, Source: SourceSearch}, true
}

func (r *IdentityResolver) cleanQuery(ctx context.Context, stem string) string {
	if r.cleaner == nil {
		return stem
	}

	cleaned, err := retry.Do(ctx, r.policy, func(ctx context.Context) (string, error) {
		return r.cleaner.CleanFilename(ctx, stem)
	})
	if err != nil {
		r.logger.Debug("  filename cleanup failed: %v", err)
		return stem
	}

	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" || utf8.RuneCountInString(cleaned) > maxCleanedLength {
		r.logger.Debug("  rejected filename cleanup answer (%d chars)", utf8.RuneCountInString(cleaned))
		return stem
	}

	r.logger.Debug("  cleaned filename %q -> %q", stem, cleaned)
	return cleaned
}

// Stem returns the file name without directory and extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// SplitFilename splits "Artist - Title" at the first separator. Both halves
// must be non-empty.
func SplitFilename(stem string) (Identity, bool) {
	parts := strings.SplitN(stem, filenameSeparator, 2)
	if len(parts) != 2 {
		return Identity{}, false
	}

	artist := strings.TrimSpace(parts[0])
	title := strings.TrimSpace(parts[1])
	if artist == "" || title == "" {
		return Identity{}, false
	}
	return Identity{Artist: artist, Title: title, Source: SourceFilename}, true
}
