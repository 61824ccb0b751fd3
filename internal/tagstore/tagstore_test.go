package tagstore

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// writeFakeMP3 creates a file with MP3-looking bytes and no ID3 header.
func writeFakeMP3(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "song.mp3")
	audio := append([]byte{0xff, 0xfb, 0x90, 0x64}, bytes.Repeat([]byte{0}, 256)...)
	if err := os.WriteFile(path, audio, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// writeFakeFLAC creates a FLAC file holding only a STREAMINFO block.
func writeFakeFLAC(t *testing.T, dir string) string {
	t.Helper()
	var b bytes.Buffer
	b.WriteString("fLaC")
	b.Write([]byte{0x80, 0x00, 0x00, 0x22})
	b.Write(make([]byte, 34))
	b.Write([]byte{0xff, 0xf8, 0x01, 0x02, 0x03})
	path := filepath.Join(dir, "song.flac")
	if err := os.WriteFile(path, b.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// createTestAudioFile generates a short M4A using ffmpeg.
// Skips the test if ffmpeg is not available.
func createTestAudioFile(t *testing.T, dir string) string {
	t.Helper()
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not available, skipping taglib test")
	}

	path := filepath.Join(dir, "song.m4a")
	cmd := exec.Command("ffmpeg", "-f", "lavfi", "-i", "anullsrc=r=44100:cl=mono", "-t", "0.1", "-c:a", "aac", path)
	if err := cmd.Run(); err != nil {
		t.Fatalf("failed to create test audio file: %v", err)
	}
	return path
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestContainers(t *testing.T) {
	backends := []struct {
		name   string
		create func(*testing.T, string) string
	}{
		{"id3", writeFakeMP3},
		{"flac", writeFakeFLAC},
		{"taglib", createTestAudioFile},
	}

	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			path := b.create(t, t.TempDir())
			art := testPNG(t)

			c, err := Open(path)
			if err != nil {
				t.Fatalf("Open() error: %v", err)
			}
			// ffmpeg stamps an encoder tag, so only the synthetic files start empty.
			if b.name != "taglib" && !c.Empty() {
				t.Error("Empty() = false for an untagged file")
			}
			if c.HasArt() {
				t.Error("HasArt() = true for an untagged file")
			}

			fields := map[Field]string{
				Artist:      "Queen",
				Title:       "Bohemian Rhapsody",
				Album:       "A Night at the Opera",
				AlbumArtist: "Queen",
				Genre:       "Rock",
				Year:        "1975",
				Track:       "11/12",
				BPM:         "72",
				Mood:        "dramatic",
			}
			for f, v := range fields {
				c.Set(f, v)
			}
			c.SetLyrics("Is this the real life?")
			c.SetArt(art)
			if err := c.Save(); err != nil {
				t.Fatalf("Save() error: %v", err)
			}
			c.Close()

			reopened, err := Open(path)
			if err != nil {
				t.Fatalf("reopen error: %v", err)
			}
			defer reopened.Close()

			for f, want := range fields {
				if got := reopened.Get(f); got != want {
					t.Errorf("Get(%s) = %q, want %q", f, got, want)
				}
			}
			if got := reopened.Lyrics(); got != "Is this the real life?" {
				t.Errorf("Lyrics() = %q", got)
			}
			if !reopened.HasArt() {
				t.Error("HasArt() = false after SetArt")
			}
			if reopened.Empty() {
				t.Error("Empty() = true after writing tags")
			}
		})
	}
}

func TestClearKeepsNothing(t *testing.T) {
	backends := map[string]func(*testing.T, string) string{
		"id3":  writeFakeMP3,
		"flac": writeFakeFLAC,
	}

	for name, create := range backends {
		t.Run(name, func(t *testing.T) {
			path := create(t, t.TempDir())

			c, err := Open(path)
			if err != nil {
				t.Fatal(err)
			}
			c.Set(Artist, "Daft Punk")
			c.Set(Title, "One More Time")
			c.SetArt(testPNG(t))
			if err := c.Save(); err != nil {
				t.Fatal(err)
			}
			c.Close()

			c, err = Open(path)
			if err != nil {
				t.Fatal(err)
			}
			c.Clear()
			if err := c.Save(); err != nil {
				t.Fatalf("Save() after Clear error: %v", err)
			}
			c.Close()

			c, err = Open(path)
			if err != nil {
				t.Fatal(err)
			}
			defer c.Close()
			if !c.Empty() {
				t.Errorf("file still has tags after Clear: artist=%q art=%v", c.Get(Artist), c.HasArt())
			}
		})
	}
}

func TestSetEmptyRemovesField(t *testing.T) {
	path := writeFakeMP3(t, t.TempDir())
	c, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	c.Set(Genre, "Pop")
	c.Set(Genre, "")
	if got := c.Get(Genre); got != "" {
		t.Errorf("Get(Genre) = %q after clearing", got)
	}

	c.Set(Mood, "calm")
	c.Set(Popularity, "7")
	c.Set(Mood, "")
	if got := c.Get(Popularity); got != "7" {
		t.Errorf("clearing Mood dropped Popularity: %q", got)
	}
}

func TestOpenMissingFile(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "missing.mp3")); err == nil {
		t.Error("Open() on a missing file should fail")
	}
}

func TestFLACEmbedsUndecodableArt(t *testing.T) {
	path := writeFakeFLAC(t, t.TempDir())
	art := []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10}

	c, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	c.SetArt(art)
	if err := c.Save(); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	c.Close()

	c, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	if !c.HasArt() {
		t.Error("picture should survive a save even without dimensions")
	}
}
