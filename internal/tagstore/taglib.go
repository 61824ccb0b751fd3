package tagstore

import (
	"fmt"
	"strings"

	"go.senan.xyz/taglib"
)

var taglibFields = map[Field]string{
	Artist:       taglib.Artist,
	Title:        taglib.Title,
	Album:        taglib.Album,
	AlbumArtist:  taglib.AlbumArtist,
	Genre:        taglib.Genre,
	Year:         taglib.Date,
	Track:        taglib.TrackNumber,
	BPM:          "BPM",
	Key:          "INITIALKEY",
	Mood:         "MOOD",
	Danceability: "DANCEABILITY",
	Popularity:   "POPULARITY",
}

const (
	taglibLyrics  = "LYRICS"
	taglibComment = "COMMENT"
)

// taglibContainer covers every format TagLib understands that has no
// dedicated backend (m4a, ogg, opus, wav, aiff...).
type taglibContainer struct {
	path   string
	tags   map[string][]string
	hadArt bool
	art    []byte
	artSet bool
	noArt  bool
}

func openTaglib(path string) (*taglibContainer, error) {
	tags, err := taglib.ReadTags(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tags of %s: %w", path, err)
	}
	if tags == nil {
		tags = make(map[string][]string)
	}

	img, _ := taglib.ReadImage(path)
	return &taglibContainer{path: path, tags: tags, hadArt: len(img) > 0}, nil
}

func (c *taglibContainer) Path() string { return c.path }
func (c *taglibContainer) Empty() bool  { return len(c.tags) == 0 && !c.hadArt }

func (c *taglibContainer) Get(f Field) string {
	if key, ok := taglibFields[f]; ok {
		return firstTag(c.tags, key)
	}
	return ""
}

func (c *taglibContainer) Set(f Field, value string) {
	if key, ok := taglibFields[f]; ok {
		c.set(key, value)
	}
}

func (c *taglibContainer) Lyrics() string       { return firstTag(c.tags, taglibLyrics) }
func (c *taglibContainer) SetLyrics(text string) { c.set(taglibLyrics, text) }

func (c *taglibContainer) HasArt() bool {
	if c.artSet {
		return true
	}
	return c.hadArt && !c.noArt
}

func (c *taglibContainer) SetArt(data []byte) {
	c.art = data
	c.artSet = true
	c.noArt = true
}

func (c *taglibContainer) RemoveArt() {
	c.art = nil
	c.artSet = false
	c.noArt = true
}

func (c *taglibContainer) StripComments() {
	for key := range c.tags {
		if strings.EqualFold(key, taglibComment) {
			delete(c.tags, key)
		}
	}
}

func (c *taglibContainer) Clear() {
	c.tags = make(map[string][]string)
	c.RemoveArt()
}

func (c *taglibContainer) Save() error {
	return replaceFile(c.path, func(tmp string) error {
		if err := taglib.WriteTags(tmp, c.tags, taglib.Clear); err != nil {
			return fmt.Errorf("failed to write tags to %s: %w", c.path, err)
		}
		switch {
		case c.artSet:
			if err := taglib.WriteImage(tmp, c.art); err != nil {
				return fmt.Errorf("failed to write artwork to %s: %w", c.path, err)
			}
		case c.noArt && c.hadArt:
			if err := taglib.WriteImage(tmp, nil); err != nil {
				return fmt.Errorf("failed to remove artwork from %s: %w", c.path, err)
			}
		}
		return nil
	})
}

func (c *taglibContainer) Close() error { return nil }

func (c *taglibContainer) set(key, value string) {
	if value == "" {
		delete(c.tags, key)
		return
	}
	c.tags[key] = []string{value}
}

func firstTag(tags map[string][]string, key string) string {
	if vals, ok := tags[key]; ok && len(vals) > 0 {
		return vals[0]
	}
	return ""
}
