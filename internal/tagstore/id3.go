package tagstore

import (
	"fmt"

	"github.com/bogem/id3v2/v2"
)

const (
	id3Comments = "COMM"
	id3Lyrics   = "USLT"
	id3UserText = "TXXX"
	id3Picture  = "APIC"
)

var id3TextFrames = map[Field]string{
	Artist:      "TPE1",
	Title:       "TIT2",
	Album:       "TALB",
	AlbumArtist: "TPE2",
	Genre:       "TCON",
	Year:        "TDRC",
	Track:       "TRCK",
	BPM:         "TBPM",
	Key:         "TKEY",
}

// Fields stored as TXXX frames, keyed by description.
var id3UserFrames = map[Field]string{
	Mood:         "Mood",
	Danceability: "Danceability",
	Popularity:   "Popularity",
}

type id3Container struct {
	path  string
	tag   *id3v2.Tag
	empty bool
}

func openID3(path string) (*id3Container, error) {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read id3 tag of %s: %w", path, err)
	}
	return &id3Container{path: path, tag: tag, empty: !tag.HasFrames()}, nil
}

func (c *id3Container) Path() string { return c.path }
func (c *id3Container) Empty() bool  { return c.empty }

func (c *id3Container) Get(f Field) string {
	if id, ok := id3TextFrames[f]; ok {
		return c.tag.GetTextFrame(id).Text
	}
	if desc, ok := id3UserFrames[f]; ok {
		for _, fr := range c.tag.GetFrames(id3UserText) {
			if udf, ok := fr.(id3v2.UserDefinedTextFrame); ok && udf.Description == desc {
				return udf.Value
			}
		}
	}
	return ""
}

func (c *id3Container) Set(f Field, value string) {
	if id, ok := id3TextFrames[f]; ok {
		c.tag.DeleteFrames(id)
		if value != "" {
			c.tag.AddTextFrame(id, id3v2.EncodingUTF8, value)
		}
		return
	}
	if desc, ok := id3UserFrames[f]; ok {
		c.setUserText(desc, value)
	}
}

// setUserText replaces the TXXX frame with the given description and keeps
// the others.
func (c *id3Container) setUserText(desc, value string) {
	var keep []id3v2.UserDefinedTextFrame
	for _, fr := range c.tag.GetFrames(id3UserText) {
		if udf, ok := fr.(id3v2.UserDefinedTextFrame); ok && udf.Description != desc {
			keep = append(keep, udf)
		}
	}
	c.tag.DeleteFrames(id3UserText)
	for _, udf := range keep {
		c.tag.AddUserDefinedTextFrame(udf)
	}
	if value != "" {
		c.tag.AddUserDefinedTextFrame(id3v2.UserDefinedTextFrame{
			Encoding:    id3v2.EncodingUTF8,
			Description: desc,
			Value:       value,
		})
	}
}

func (c *id3Container) Lyrics() string {
	for _, fr := range c.tag.GetFrames(id3Lyrics) {
		if uslf, ok := fr.(id3v2.UnsynchronisedLyricsFrame); ok && uslf.Lyrics != "" {
			return uslf.Lyrics
		}
	}
	return ""
}

func (c *id3Container) SetLyrics(text string) {
	c.tag.DeleteFrames(id3Lyrics)
	if text == "" {
		return
	}
	c.tag.AddUnsynchronisedLyricsFrame(id3v2.UnsynchronisedLyricsFrame{
		Encoding:          id3v2.EncodingUTF8,
		Language:          "eng",
		ContentDescriptor: "Lyrics",
		Lyrics:            text,
	})
}

func (c *id3Container) HasArt() bool {
	return len(c.tag.GetFrames(id3Picture)) > 0
}

func (c *id3Container) SetArt(data []byte) {
	c.RemoveArt()
	c.tag.AddAttachedPicture(id3v2.PictureFrame{
		Encoding:    id3v2.EncodingUTF8,
		MimeType:    imageMIME(data),
		PictureType: id3v2.PTFrontCover,
		Description: "Cover",
		Picture:     data,
	})
}

func (c *id3Container) RemoveArt()     { c.tag.DeleteFrames(id3Picture) }
func (c *id3Container) StripComments() { c.tag.DeleteFrames(id3Comments) }
func (c *id3Container) Clear()         { c.tag.DeleteAllFrames() }

func (c *id3Container) Save() error {
	c.tag.SetVersion(4)
	if err := c.tag.Save(); err != nil {
		return fmt.Errorf("failed to save id3 tag of %s: %w", c.path, err)
	}
	return nil
}

func (c *id3Container) Close() error { return c.tag.Close() }
