// Package genre maps free-text genre and tag labels onto a small canonical
// vocabulary and picks a winner from weighted label sets.
package genre

import (
	"sort"
	"strings"
	"unicode"
)

// Unknown is the label written when no source yields a genre.
const Unknown = "Unknown"

type rule struct {
	label    string
	keywords []string
}

// rules is scanned in order and the first keyword contained in the
// lowercased input wins. K-Pop and J-Pop sit ahead of Pop so that "k-pop"
// is not swallowed by the "pop" keyword.
var rules = []rule{
	{"Hip-Hop", []string{"hip hop", "hip-hop", "rap", "trap", "drill"}},
	{"R&B", []string{"r&b", "rnb", "neo-soul"}},
	{"K-Pop", []string{"k-pop", "kpop"}},
	{"J-Pop", []string{"j-pop", "jpop"}},
	{"Pop", []string{"pop", "synthpop", "electropop", "dance pop"}},
	{"Metal", []string{"metal"}},
	{"Punk", []string{"punk"}},
	{"Indie", []string{"indie"}},
	{"Rock", []string{"rock", "alt rock", "classic rock", "hard rock"}},
	{"Electronic", []string{"edm", "electronic", "house", "techno", "trance", "dubstep", "drum and bass", "dnb"}},
	{"Classical", []string{"classical", "orchestra", "symphony", "opera", "choir", "choral", "baroque", "romantic"}},
	{"Jazz", []string{"jazz", "bebop", "swing", "fusion"}},
	{"Blues", []string{"blues"}},
	{"Country", []string{"country"}},
	{"Folk", []string{"folk"}},
	{"Latin", []string{"latin", "reggaeton", "salsa", "bachata", "cumbia", "tango"}},
	{"Afrobeats", []string{"afrobeats", "afrobeat", "afro"}},
	{"Soundtrack", []string{"soundtrack", "score"}},
	{"Lo-Fi", []string{"lo-fi", "lofi"}},
	{"Ambient", []string{"ambient"}},
	{"Soul", []string{"soul"}},
	{"Gospel", []string{"gospel"}},
	{"Reggae", []string{"reggae", "dancehall"}},
	{"World", []string{"world"}},
}

// Normalize returns the canonical genre for raw, or raw title-cased when no
// keyword matches.
func Normalize(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	lower := strings.ToLower(raw)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				return r.label
			}
		}
	}
	return titleCase(lower)
}

// titleCase upper-cases every letter that follows a non-letter.
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
			continue
		}
		b.WriteRune(r)
		prevLetter = false
	}
	return b.String()
}

// Tally accumulates weights per canonical label.
type Tally struct {
	weights map[string]int
}

func NewTally() *Tally {
	return &Tally{weights: make(map[string]int)}
}

// Add normalizes raw and adds weight to its label. Empty labels and
// non-positive weights are ignored.
func (t *Tally) Add(raw string, weight int) {
	if weight <= 0 {
		return
	}
	label := Normalize(raw)
	if label == "" {
		return
	}
	t.weights[label] += weight
}

// Len reports how many distinct labels have been tallied.
func (t *Tally) Len() int { return len(t.weights) }

// Best returns the label with the highest total weight. Ties go to the
// lexicographically smallest label.
func (t *Tally) Best() (string, bool) {
	if len(t.weights) == 0 {
		return "", false
	}

	labels := make([]string, 0, len(t.weights))
	for l := range t.weights {
		labels = append(labels, l)
	}
	sort.Slice(labels, func(i, j int) bool {
		wi, wj := t.weights[labels[i]], t.weights[labels[j]]
		if wi != wj {
			return wi > wj
		}
		return labels[i] < labels[j]
	})
	return labels[0], true
}
