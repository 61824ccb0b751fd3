package enrich

import (
	"strconv"

	"metafetch/internal/metadata"
	"metafetch/internal/tagstore"
)

// apply copies res into the container. Every text field is overwritten;
// art replaces all existing pictures.
func apply(c tagstore.Container, res *metadata.Resolved, art []byte, keepComments bool) {
	c.Set(tagstore.Artist, res.Artist)
	c.Set(tagstore.Title, res.Title)
	c.Set(tagstore.Album, res.Album)
	c.Set(tagstore.AlbumArtist, res.AlbumArtist)
	c.Set(tagstore.Genre, res.Genre)
	c.Set(tagstore.Year, res.Year)
	c.Set(tagstore.Track, res.Track)

	if a := res.Analysis; a != nil {
		if a.BPM > 0 {
			c.Set(tagstore.BPM, strconv.Itoa(a.BPM))
		}
		if a.Key != "" {
			c.Set(tagstore.Key, a.Key)
		}
		if a.Mood != "" {
			c.Set(tagstore.Mood, a.Mood)
		}
		c.Set(tagstore.Danceability, strconv.Itoa(a.Danceability))
		c.Set(tagstore.Popularity, strconv.Itoa(a.Popularity))
	}

	if res.Lyrics != "" {
		c.SetLyrics(res.Lyrics)
	}
	if art != nil {
		c.SetArt(art)
	}
	if !keepComments {
		c.StripComments()
	}
}
