package strip

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"metafetch/internal/logger"
	"metafetch/internal/retry"
	"metafetch/internal/tagstore"
)

func writeTaggedMP3(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	audio := append([]byte{0xff, 0xfb, 0x90, 0x64}, bytes.Repeat([]byte{0}, 256)...)
	if err := os.WriteFile(path, audio, 0644); err != nil {
		t.Fatal(err)
	}

	c, err := tagstore.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	c.Set(tagstore.Artist, "Massive Attack")
	c.Set(tagstore.Title, "Teardrop")
	c.Set(tagstore.Album, "Mezzanine")
	c.Set(tagstore.Genre, "Trip-Hop")
	c.SetLyrics("Love, love is a verb")
	c.SetArt([]byte{0xff, 0xd8, 0xff, 0xe0})
	if err := c.Save(); err != nil {
		t.Fatal(err)
	}
	return path
}

func open(t *testing.T, path string) tagstore.Container {
	t.Helper()
	c, err := tagstore.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestRunKeepBasics(t *testing.T) {
	path := writeTaggedMP3(t, t.TempDir(), "a.mp3")

	s := New(retry.Once, false, logger.Discard())
	stats, err := s.Run(context.Background(), []string{path}, KeepBasics)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats != (Stats{Total: 1, Success: 1}) {
		t.Errorf("stats = %+v", stats)
	}

	c := open(t, path)
	if c.Get(tagstore.Artist) != "Massive Attack" || c.Get(tagstore.Title) != "Teardrop" {
		t.Errorf("basics lost: %q - %q", c.Get(tagstore.Artist), c.Get(tagstore.Title))
	}
	if c.Get(tagstore.Album) != "" || c.Get(tagstore.Genre) != "" {
		t.Error("album and genre should be gone")
	}
	if c.HasArt() || c.Lyrics() != "" {
		t.Error("art and lyrics should be gone")
	}
}

func TestRunAll(t *testing.T) {
	path := writeTaggedMP3(t, t.TempDir(), "a.mp3")

	s := New(retry.Once, false, logger.Discard())
	if _, err := s.Run(context.Background(), []string{path}, All); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c := open(t, path)
	if c.Get(tagstore.Artist) != "" || c.Get(tagstore.Title) != "" || c.HasArt() {
		t.Error("expected every tag removed")
	}
}

func TestRunUntaggedAndMissing(t *testing.T) {
	dir := t.TempDir()
	untagged := filepath.Join(dir, "plain.mp3")
	if err := os.WriteFile(untagged, append([]byte{0xff, 0xfb, 0x90, 0x64}, make([]byte, 64)...), 0644); err != nil {
		t.Fatal(err)
	}
	missing := filepath.Join(dir, "missing.mp3")

	var failed []string
	s := New(retry.Policy{Attempts: 2}, false, logger.Discard())
	s.OnFile = func(path string, err error) {
		if err != nil {
			failed = append(failed, filepath.Base(path))
		}
	}

	stats, err := s.Run(context.Background(), []string{untagged, missing}, All)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats != (Stats{Total: 2, Success: 1, Failed: 1}) {
		t.Errorf("stats = %+v", stats)
	}
	if len(failed) != 1 || failed[0] != "missing.mp3" {
		t.Errorf("failed = %v", failed)
	}
}

func TestDryRunLeavesFile(t *testing.T) {
	path := writeTaggedMP3(t, t.TempDir(), "a.mp3")
	before, _ := os.ReadFile(path)

	s := New(retry.Once, true, logger.Discard())
	if _, err := s.Run(context.Background(), []string{path}, All); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	after, _ := os.ReadFile(path)
	if !bytes.Equal(before, after) {
		t.Error("dry run modified the file")
	}
}
