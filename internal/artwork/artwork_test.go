package artwork

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFetch(t *testing.T) {
	jpeg := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F'}

	mux := http.NewServeMux()
	mux.HandleFunc("/cover.jpg", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write(jpeg)
	})
	mux.HandleFunc("/empty.jpg", func(w http.ResponseWriter, r *http.Request) {})
	mux.HandleFunc("/gone.jpg", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f := NewFetcher()

	got, err := f.Fetch(context.Background(), srv.URL+"/cover.jpg")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(got, jpeg) {
		t.Errorf("got %v, want %v", got, jpeg)
	}

	if _, err := f.Fetch(context.Background(), srv.URL+"/empty.jpg"); !errors.Is(err, errEmptyImage) {
		t.Errorf("expected errEmptyImage, got %v", err)
	}
	if _, err := f.Fetch(context.Background(), srv.URL+"/gone.jpg"); err == nil {
		t.Error("expected error for 404")
	}
}
