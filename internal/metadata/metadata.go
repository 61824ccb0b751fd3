// Package metadata resolves what a file is (identity), which catalog track it
// maps to, and which genre and cover art belong to it. Remote services are
// reached through the small interfaces below; implementations live under
// internal/provider and internal/lyrics.
package metadata

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

var (
	// ErrNotFound is returned by single lookups when the service has no
	// record. Empty search results are not errors.
	ErrNotFound = errors.New("not found")
	// ErrNoArt means no cover image could be downloaded.
	ErrNoArt = errors.New("no cover art available")
)

// maxContributors caps how many artist ids feed the genre lookup.
const maxContributors = 10

// ArtistRef is an artist as listed on a track or album.
type ArtistRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Image is a cover image; catalog services list the largest first.
type Image struct {
	URL    string `json:"url"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// TrackRecord is a catalog track as returned by search.
type TrackRecord struct {
	ID           string      `json:"id"`
	Title        string      `json:"title"`
	Artists      []ArtistRef `json:"artists"`
	Album        string      `json:"album"`
	AlbumArtists []ArtistRef `json:"album_artists"`
	TrackNumber  int         `json:"track_number"`
	TotalTracks  int         `json:"total_tracks"`
	DiscNumber   int         `json:"disc_number,omitempty"`
	ReleaseDate  string      `json:"release_date"`
	Images       []Image     `json:"images"`
}

// PrimaryArtist returns the first listed artist's name.
func (t TrackRecord) PrimaryArtist() string {
	if len(t.Artists) == 0 {
		return ""
	}
	return t.Artists[0].Name
}

// ArtistNames joins every track artist with ", ".
func (t TrackRecord) ArtistNames() string {
	return joinNames(t.Artists)
}

// AlbumArtistNames joins every album artist with ", ".
func (t TrackRecord) AlbumArtistNames() string {
	return joinNames(t.AlbumArtists)
}

// ContributorIDs lists track artist ids then album artist ids, without
// duplicates or blanks, capped at ten.
func (t TrackRecord) ContributorIDs() []string {
	all := append(lo.Map(t.Artists, refID), lo.Map(t.AlbumArtists, refID)...)
	ids := lo.Uniq(lo.Compact(all))
	if len(ids) > maxContributors {
		ids = ids[:maxContributors]
	}
	return ids
}

// Year returns the first four characters of the release date.
func (t TrackRecord) Year() string {
	if len(t.ReleaseDate) < 4 {
		return t.ReleaseDate
	}
	return t.ReleaseDate[:4]
}

// TrackPosition formats the track number as "n/total".
func (t TrackRecord) TrackPosition() string {
	if t.TrackNumber <= 0 {
		return ""
	}
	if t.TotalTracks <= 0 {
		return strconv.Itoa(t.TrackNumber)
	}
	return strconv.Itoa(t.TrackNumber) + "/" + strconv.Itoa(t.TotalTracks)
}

// FirstImageURL returns the URL of the largest listed image.
func (t TrackRecord) FirstImageURL() string {
	for _, img := range t.Images {
		if img.URL != "" {
			return img.URL
		}
	}
	return ""
}

func refID(a ArtistRef, _ int) string { return a.ID }

func joinNames(refs []ArtistRef) string {
	names := lo.Compact(lo.Map(refs, func(a ArtistRef, _ int) string { return a.Name }))
	return strings.Join(names, ", ")
}

// IdentitySource records which step produced an Identity.
type IdentitySource int

const (
	SourceNone IdentitySource = iota
	SourceTags
	SourceFilename
	SourceSearch
)

func (s IdentitySource) String() string {
	switch s {
	case SourceTags:
		return "tags"
	case SourceFilename:
		return "filename"
	case SourceSearch:
		return "search"
	default:
		return "none"
	}
}

// Identity is the best guess of what a file contains.
type Identity struct {
	Artist string
	Title  string
	Source IdentitySource
}

// Complete reports whether both artist and title are set.
func (i Identity) Complete() bool {
	return strings.TrimSpace(i.Artist) != "" && strings.TrimSpace(i.Title) != ""
}

// Analysis is the structured answer of the track analyser.
type Analysis struct {
	BPM          int    `json:"bpm"`
	Key          string `json:"key"`
	Mood         string `json:"mood"`
	Danceability int    `json:"danceability"`
	Popularity   int    `json:"popularity"`
}

// Resolved is everything written to one file. It lives only for the
// duration of that file's write.
type Resolved struct {
	Artist      string
	Title       string
	Album       string
	AlbumArtist string
	Track       string
	Year        string
	Genre       string
	Analysis    *Analysis
	Lyrics      string
}

// NewResolved fills the catalog fields from a track record.
func NewResolved(t TrackRecord, genre string) *Resolved {
	return &Resolved{
		Artist:      t.ArtistNames(),
		Title:       t.Title,
		Album:       t.Album,
		AlbumArtist: t.AlbumArtistNames(),
		Track:       t.TrackPosition(),
		Year:        t.Year(),
		Genre:       genre,
	}
}

// Searcher queries the catalog.
type Searcher interface {
	Search(ctx context.Context, query, kind string, limit int) ([]TrackRecord, error)
}

// ArtistGenreLookup fetches the genre lists the catalog keeps per artist.
// Batch results omit ids the catalog does not know; the single lookup
// returns ErrNotFound for them.
type ArtistGenreLookup interface {
	ArtistsGenres(ctx context.Context, ids []string) (map[string][]string, error)
	ArtistGenres(ctx context.Context, id string) ([]string, error)
}

// Tag is a weighted folksonomy label.
type Tag struct {
	Name  string
	Count int
}

// TagCloud fetches community tags for tracks and artists.
type TagCloud interface {
	TrackTopTags(ctx context.Context, artist, track string) ([]Tag, error)
	ArtistTopTags(ctx context.Context, artist string) ([]Tag, error)
}

// FilenameCleaner turns a messy filename into a search query.
type FilenameCleaner interface {
	CleanFilename(ctx context.Context, raw string) (string, error)
}

// Analyzer estimates tempo, key and mood for a track.
type Analyzer interface {
	Analyze(ctx context.Context, artist, title string) (*Analysis, error)
}

// LyricsSearcher finds plain lyrics for a track.
type LyricsSearcher interface {
	SearchLyrics(ctx context.Context, title, artist string) (string, error)
}

// ArtFetcher downloads an image.
type ArtFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
