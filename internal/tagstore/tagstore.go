// Package tagstore reads and writes embedded tags through one Container
// interface, choosing a backend by file extension: id3v2 for MP3, native
// Vorbis comments for FLAC and TagLib for everything else.
package tagstore

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// Field names a text tag independent of the container format.
type Field string

const (
	Artist       Field = "artist"
	Title        Field = "title"
	Album        Field = "album"
	AlbumArtist  Field = "album_artist"
	Genre        Field = "genre"
	Year         Field = "year"
	Track        Field = "track"
	BPM          Field = "bpm"
	Key          Field = "key"
	Mood         Field = "mood"
	Danceability Field = "danceability"
	Popularity   Field = "popularity"
)

// Container is the in-memory view of one file's tags. Changes are kept in
// memory until Save, which writes all of them or none.
type Container interface {
	Path() string
	// Empty reports whether the file had no tag data when opened.
	Empty() bool

	Get(f Field) string
	// Set overwrites a field; an empty value removes it.
	Set(f Field, value string)

	Lyrics() string
	SetLyrics(text string)

	HasArt() bool
	// SetArt replaces every embedded picture with a single front cover.
	SetArt(data []byte)
	RemoveArt()

	StripComments()
	// Clear removes every tag and picture.
	Clear()

	Save() error
	Close() error
}

// Open picks the backend for path's extension and reads its tags.
func Open(path string) (Container, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return openID3(path)
	case ".flac":
		return openFLAC(path)
	default:
		return openTaglib(path)
	}
}

// imageMIME sniffs the picture type, defaulting to JPEG.
func imageMIME(data []byte) string {
	mime := http.DetectContentType(data)
	if strings.HasPrefix(mime, "image/") {
		return mime
	}
	return "image/jpeg"
}

// replaceFile copies src next to dst, lets write modify the copy and then
// renames it over dst so a failed write leaves dst untouched.
func replaceFile(dst string, write func(tmp string) error) error {
	dir := filepath.Dir(dst)
	tmpFile, err := os.CreateTemp(dir, ".metafetch-*"+filepath.Ext(dst))
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmp := tmpFile.Name()
	defer os.Remove(tmp)

	src, err := os.Open(dst)
	if err != nil {
		tmpFile.Close()
		return err
	}
	_, err = io.Copy(tmpFile, src)
	src.Close()
	if cerr := tmpFile.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("failed to copy %s: %w", dst, err)
	}

	if err := write(tmp); err != nil {
		return err
	}
	if err := os.Rename(tmp, dst); err != nil {
		return fmt.Errorf("failed to replace %s: %w", dst, err)
	}
	return nil
}
