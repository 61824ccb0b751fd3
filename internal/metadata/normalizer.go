package metadata

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/hbollon/go-edlib"
)

// Decorations that do not change which recording a title refers to.
var titleCleanupPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\s*[\(\[]official\s+(music\s+|lyric\s+)?(video|audio|visualizer)[\)\]]`),
	regexp.MustCompile(`(?i)\s*[\(\[](lyrics?|visual(?:izer)?|audio|hd|hq|4k|explicit|clean)[\)\]]`),
	regexp.MustCompile(`(?i)\s*[\(\[](\d{4}\s+)?remaster(ed)?(\s+\d{4})?(\s+version)?[\)\]]`),
	regexp.MustCompile(`(?i)\s+-\s+(\d{4}\s+)?remaster(ed)?(\s+\d{4})?(\s+version)?$`),
	regexp.MustCompile(`(?i)\s*[\(\[](radio\s+edit|single\s+version|album\s+version|mono|stereo)[\)\]]`),
}

// Featured artists in the title
var featuringPattern = regexp.MustCompile(`(?i)\s*[\(\[]\s*(?:feat\.?|ft\.?|featuring|with)\s+([^\)\]]+)[\)\]]`)

// minTitleSimilarity is the Jaro-Winkler score below which two titles are
// reported as probably different recordings.
const minTitleSimilarity = 0.8

// CleanTitle strips release decorations and featured artists from a title.
func CleanTitle(title string) string {
	title = strings.TrimSpace(title)
	for _, p := range titleCleanupPatterns {
		title = p.ReplaceAllString(title, "")
	}
	title = featuringPattern.ReplaceAllString(title, "")
	return strings.TrimSpace(title)
}

// TitleSimilarity compares two titles after cleaning and case folding.
func TitleSimilarity(a, b string) float32 {
	na, nb := normalize(CleanTitle(a)), normalize(CleanTitle(b))
	if na == nb {
		return 1
	}
	if na == "" || nb == "" {
		return 0
	}
	score, err := edlib.StringsSimilarity(na, nb, edlib.JaroWinkler)
	if err != nil {
		return 0
	}
	return score
}

// LooksLikeSameTrack reports whether the canonical hit plausibly is the
// track that was asked for.
func LooksLikeSameTrack(wanted, got string) bool {
	return TitleSimilarity(wanted, got) >= minTitleSimilarity
}

// normalize lowercases and strips non-alphanumeric characters for comparison.
func normalize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
