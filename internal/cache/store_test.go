package cache

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStoreTriState(t *testing.T) {
	s := NewMemory[string]()
	s.Put("queen|bohemian rhapsody", "Rock")
	s.PutAbsent("nobody|nothing")

	tests := []struct {
		key       string
		wantState State
		wantValue string
	}{
		{"queen|bohemian rhapsody", Present, "Rock"},
		{"nobody|nothing", Absent, ""},
		{"never|asked", Unknown, ""},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got := s.Get(tt.key)
			if got.State != tt.wantState || got.Value != tt.wantValue {
				t.Errorf("Get(%q) = {%v %q}, want {%v %q}", tt.key, got.State, got.Value, tt.wantState, tt.wantValue)
			}
		})
	}
}

func TestStoreRoundTripKeepsNegativeEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genres.json")

	s := New[[]string](path)
	s.Put("artist-1", []string{"classic rock", "art rock"})
	s.Put("artist-2", []string{})
	s.PutAbsent("artist-3")
	if err := s.Save(); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	loaded := New[[]string](path)
	if err := loaded.Load(); err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if got := loaded.Get("artist-1"); got.State != Present || len(got.Value) != 2 {
		t.Errorf("artist-1 = %+v, want two genres", got)
	}
	if got := loaded.Get("artist-2"); got.State != Present || len(got.Value) != 0 {
		t.Errorf("artist-2 = %+v, want present and empty", got)
	}
	if got := loaded.Get("artist-3"); got.State != Absent {
		t.Errorf("artist-3 state = %v, want absent", got.State)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temp file left behind: %v", err)
	}
}

func TestStoreLoadIsBestEffort(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		s := New[string](filepath.Join(dir, "missing.json"))
		if err := s.Load(); err != nil {
			t.Errorf("Load() error = %v, want nil", err)
		}
		if s.Len() != 0 {
			t.Errorf("Len() = %d, want 0", s.Len())
		}
	})

	t.Run("corrupt file", func(t *testing.T) {
		path := filepath.Join(dir, "corrupt.json")
		if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
			t.Fatal(err)
		}
		s := New[string](path)
		s.Put("stale", "value")
		if err := s.Load(); err == nil {
			t.Error("Load() error = nil, want parse error")
		}
		if s.Len() != 0 {
			t.Errorf("Len() = %d, want 0 after corrupt load", s.Len())
		}
		s.Put("fresh", "Pop")
		if got := s.Get("fresh"); got.State != Present {
			t.Errorf("store unusable after corrupt load: %+v", got)
		}
	})
}

func TestMemoryStoreNeverTouchesDisk(t *testing.T) {
	s := NewMemory[string]()
	s.Put("k", "v")
	if err := s.Save(); err != nil {
		t.Errorf("Save() error = %v", err)
	}
	if err := s.Load(); err != nil {
		t.Errorf("Load() error = %v", err)
	}
	if got := s.Get("k"); got.State != Present {
		t.Errorf("memory store lost entry on Load: %+v", got)
	}
}
