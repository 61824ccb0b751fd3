package tagstore

import (
	"fmt"
	"strings"

	"github.com/go-flac/flacpicture"
	"github.com/go-flac/flacvorbis"
	"github.com/go-flac/go-flac"
)

var vorbisFields = map[Field]string{
	Artist:       "ARTIST",
	Title:        "TITLE",
	Album:        "ALBUM",
	AlbumArtist:  "ALBUMARTIST",
	Genre:        "GENRE",
	Year:         "DATE",
	Track:        "TRACKNUMBER",
	BPM:          "BPM",
	Key:          "INITIALKEY",
	Mood:         "MOOD",
	Danceability: "DANCEABILITY",
	Popularity:   "POPULARITY",
}

const (
	vorbisLyrics     = "LYRICS"
	vorbisTrackTotal = "TRACKTOTAL"
)

var vorbisCommentKeys = []string{"COMMENT", "DESCRIPTION"}

type flacContainer struct {
	path    string
	file    *flac.File
	comment *flacvorbis.MetaDataBlockVorbisComment
	art     []byte
	artSet  bool
	noArt   bool
	hadArt  bool
	empty   bool
}

func openFLAC(path string) (*flacContainer, error) {
	f, err := flac.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse flac %s: %w", path, err)
	}

	c := &flacContainer{path: path, file: f}
	for _, block := range f.Meta {
		switch block.Type {
		case flac.VorbisComment:
			if c.comment != nil {
				continue
			}
			cmt, err := flacvorbis.ParseFromMetaDataBlock(*block)
			if err != nil {
				return nil, fmt.Errorf("failed to parse vorbis comment of %s: %w", path, err)
			}
			c.comment = cmt
		case flac.Picture:
			c.hadArt = true
		}
	}

	c.empty = !c.hadArt && (c.comment == nil || len(c.comment.Comments) == 0)
	if c.comment == nil {
		c.comment = flacvorbis.New()
	}
	return c, nil
}

func (c *flacContainer) Path() string { return c.path }
func (c *flacContainer) Empty() bool  { return c.empty }

func (c *flacContainer) Get(f Field) string {
	key, ok := vorbisFields[f]
	if !ok {
		return ""
	}
	v := c.first(key)
	if f == Track {
		if total := c.first(vorbisTrackTotal); v != "" && total != "" && !strings.Contains(v, "/") {
			v += "/" + total
		}
	}
	return v
}

func (c *flacContainer) Set(f Field, value string) {
	key, ok := vorbisFields[f]
	if !ok {
		return
	}
	if f == Track {
		num, total, _ := strings.Cut(value, "/")
		c.replace(key, num)
		c.replace(vorbisTrackTotal, total)
		return
	}
	c.replace(key, value)
}

func (c *flacContainer) Lyrics() string       { return c.first(vorbisLyrics) }
func (c *flacContainer) SetLyrics(text string) { c.replace(vorbisLyrics, text) }

func (c *flacContainer) HasArt() bool {
	if c.artSet {
		return true
	}
	return c.hadArt && !c.noArt
}

func (c *flacContainer) SetArt(data []byte) {
	c.art = data
	c.artSet = true
	c.noArt = true
}

func (c *flacContainer) RemoveArt() {
	c.art = nil
	c.artSet = false
	c.noArt = true
}

func (c *flacContainer) StripComments() {
	for _, key := range vorbisCommentKeys {
		c.replace(key, "")
	}
}

func (c *flacContainer) Clear() {
	c.comment.Comments = []string{}
	c.RemoveArt()
}

func (c *flacContainer) Save() error {
	meta := make([]*flac.MetaDataBlock, 0, len(c.file.Meta)+2)
	commentWritten := false
	for _, block := range c.file.Meta {
		switch block.Type {
		case flac.VorbisComment:
			if commentWritten {
				continue
			}
			b := c.comment.Marshal()
			meta = append(meta, &b)
			commentWritten = true
		case flac.Picture:
			if !c.noArt {
				meta = append(meta, block)
			}
		default:
			meta = append(meta, block)
		}
	}
	if !commentWritten && len(c.comment.Comments) > 0 {
		b := c.comment.Marshal()
		meta = append(meta, &b)
	}
	if c.artSet {
		mime := imageMIME(c.art)
		pic, err := flacpicture.NewFromImageData(flacpicture.PictureTypeFrontCover, "Cover", c.art, mime)
		if err != nil {
			// Undecodable images are embedded without dimensions.
			pic = &flacpicture.MetadataBlockPicture{
				PictureType: flacpicture.PictureTypeFrontCover,
				MIME:        mime,
				Description: "Cover",
				ImageData:   c.art,
			}
		}
		b := pic.Marshal()
		meta = append(meta, &b)
	}

	c.file.Meta = meta
	return replaceFile(c.path, func(tmp string) error {
		if err := c.file.Save(tmp); err != nil {
			return fmt.Errorf("failed to save flac %s: %w", c.path, err)
		}
		return nil
	})
}

func (c *flacContainer) Close() error { return nil }

func (c *flacContainer) first(key string) string {
	for _, cmt := range c.comment.Comments {
		k, v, ok := strings.Cut(cmt, "=")
		if ok && strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}

// replace drops every comment named key and adds value when non-empty.
func (c *flacContainer) replace(key, value string) {
	kept := c.comment.Comments[:0]
	for _, cmt := range c.comment.Comments {
		k, _, _ := strings.Cut(cmt, "=")
		if !strings.EqualFold(k, key) {
			kept = append(kept, cmt)
		}
	}
	c.comment.Comments = kept
	if value != "" {
		_ = c.comment.Add(key, value)
	}
}
