package ledger

import (
	"path/filepath"
	"testing"
)

func TestLedgerPersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processed.db")

	l, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	if l.Contains("/music/a.mp3") {
		t.Error("fresh ledger contains a path")
	}
	for _, p := range []string{"/music/a.mp3", "/music/b.flac", "/music/a.mp3"} {
		if err := l.Add(p); err != nil {
			t.Fatalf("Add(%q) error: %v", p, err)
		}
	}
	if l.Len() != 2 {
		t.Errorf("Len() = %d, want 2", l.Len())
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	defer reopened.Close()

	tests := []struct {
		path string
		want bool
	}{
		{"/music/a.mp3", true},
		{"/music/b.flac", true},
		{"/music/c.mp3", false},
	}
	for _, tt := range tests {
		if got := reopened.Contains(tt.path); got != tt.want {
			t.Errorf("Contains(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestMemoryLedger(t *testing.T) {
	l, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) error: %v", err)
	}
	defer l.Close()

	if err := l.Add("x.mp3"); err != nil {
		t.Fatal(err)
	}
	if !l.Contains("x.mp3") {
		t.Error("memory ledger lost entry")
	}
}
