package progress

import (
	"bytes"
	"strings"
	"testing"
)

func TestBar(t *testing.T) {
	var buf bytes.Buffer
	b := NewWithWriter(&buf, 3, "Enriching")

	b.Increment("/music/a.mp3")
	b.Increment("/music/b.mp3")
	if got := b.Current(); got != 2 {
		t.Errorf("current = %d, want 2", got)
	}

	b.Increment("")
	b.Finish()
	b.Finish()
	b.Increment("/music/late.mp3")

	if got := b.Current(); got != 3 {
		t.Errorf("current after finish = %d, want 3", got)
	}
	if !strings.Contains(buf.String(), "3 / 3") {
		t.Errorf("final render missing counters: %q", buf.String())
	}
}
