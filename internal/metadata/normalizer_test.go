package metadata

import "testing"

func TestCleanTitle(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"clean title", "Blinding Lights", "Blinding Lights"},
		{"official video parentheses", "Blinding Lights (Official Video)", "Blinding Lights"},
		{"official music video brackets", "Blinding Lights [Official Music Video]", "Blinding Lights"},
		{"lyric video", "Blinding Lights (Official Lyric Video)", "Blinding Lights"},
		{"lyrics suffix", "Blinding Lights (Lyrics)", "Blinding Lights"},
		{"remaster suffix", "Bohemian Rhapsody - Remastered 2011", "Bohemian Rhapsody"},
		{"remaster brackets", "Heroes (2017 Remaster)", "Heroes"},
		{"featuring", "Stay (feat. Justin Bieber)", "Stay"},
		{"radio edit", "Levels (Radio Edit)", "Levels"},
		{"keeps live marker", "One More Time (Live)", "One More Time (Live)"},
		{"whitespace", "  Song  ", "Song"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanTitle(tt.title); got != tt.want {
				t.Errorf("CleanTitle(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}

func TestLooksLikeSameTrack(t *testing.T) {
	tests := []struct {
		wanted string
		got    string
		want   bool
	}{
		{"Bohemian Rhapsody", "Bohemian Rhapsody - Remastered 2011", true},
		{"one more time", "One More Time", true},
		{"Blinding Lights", "Blinding Lights (Official Video)", true},
		{"Blinding Lights", "Save Your Tears", false},
		{"Song", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.wanted+"/"+tt.got, func(t *testing.T) {
			if got := LooksLikeSameTrack(tt.wanted, tt.got); got != tt.want {
				t.Errorf("LooksLikeSameTrack(%q, %q) = %v, want %v (score %.2f)",
					tt.wanted, tt.got, got, tt.want, TitleSimilarity(tt.wanted, tt.got))
			}
		})
	}
}
