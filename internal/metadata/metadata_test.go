package metadata

import (
	"reflect"
	"testing"
)

func TestTrackRecordHelpers(t *testing.T) {
	tr := TrackRecord{
		Title:        "Get Lucky",
		Artists:      []ArtistRef{{ID: "dp", Name: "Daft Punk"}, {ID: "pw", Name: "Pharrell Williams"}, {ID: "dp", Name: "Daft Punk"}},
		AlbumArtists: []ArtistRef{{ID: "dp", Name: "Daft Punk"}, {ID: "", Name: ""}},
		TrackNumber:  8,
		TotalTracks:  13,
		ReleaseDate:  "2013-05-17",
		Images:       []Image{{URL: ""}, {URL: "https://img/1.jpg"}},
	}

	if got := tr.PrimaryArtist(); got != "Daft Punk" {
		t.Errorf("PrimaryArtist = %q", got)
	}
	if got := tr.AlbumArtistNames(); got != "Daft Punk" {
		t.Errorf("AlbumArtistNames = %q", got)
	}
	if got := tr.ContributorIDs(); !reflect.DeepEqual(got, []string{"dp", "pw"}) {
		t.Errorf("ContributorIDs = %v", got)
	}
	if got := tr.Year(); got != "2013" {
		t.Errorf("Year = %q", got)
	}
	if got := tr.TrackPosition(); got != "8/13" {
		t.Errorf("TrackPosition = %q", got)
	}
	if got := tr.FirstImageURL(); got != "https://img/1.jpg" {
		t.Errorf("FirstImageURL = %q", got)
	}
}

func TestContributorIDsCapped(t *testing.T) {
	var tr TrackRecord
	for _, id := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"} {
		tr.Artists = append(tr.Artists, ArtistRef{ID: id})
	}
	if got := len(tr.ContributorIDs()); got != maxContributors {
		t.Errorf("len = %d, want %d", got, maxContributors)
	}
}

func TestTrackPosition(t *testing.T) {
	tests := []struct {
		number, total int
		want          string
	}{
		{0, 10, ""},
		{3, 0, "3"},
		{3, 10, "3/10"},
	}
	for _, tt := range tests {
		tr := TrackRecord{TrackNumber: tt.number, TotalTracks: tt.total}
		if got := tr.TrackPosition(); got != tt.want {
			t.Errorf("TrackPosition(%d, %d) = %q, want %q", tt.number, tt.total, got, tt.want)
		}
	}
}

func TestNewResolved(t *testing.T) {
	tr := TrackRecord{
		Title:        "One More Time",
		Artists:      []ArtistRef{{Name: "Daft Punk"}},
		Album:        "Discovery",
		AlbumArtists: []ArtistRef{{Name: "Daft Punk"}},
		TrackNumber:  1,
		TotalTracks:  14,
		ReleaseDate:  "2001",
	}
	got := NewResolved(tr, "Electronic")
	want := &Resolved{
		Artist:      "Daft Punk",
		Title:       "One More Time",
		Album:       "Discovery",
		AlbumArtist: "Daft Punk",
		Track:       "1/14",
		Year:        "2001",
		Genre:       "Electronic",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NewResolved = %+v, want %+v", got, want)
	}
}

func TestIdentitySourceString(t *testing.T) {
	if SourceFilename.String() != "filename" || IdentitySource(99).String() != "none" {
		t.Error("unexpected IdentitySource strings")
	}
}
