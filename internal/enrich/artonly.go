package enrich

import (
	"context"
	"path/filepath"

	"metafetch/internal/retry"
	"metafetch/internal/tagstore"
)

// ArtOutcome classifies a file in art-only mode.
type ArtOutcome int

const (
	ArtAdded ArtOutcome = iota
	ArtAlreadyPresent
	ArtNoMetadata
	ArtFailed
)

// ArtOnlyStats summarises an art-only run.
type ArtOnlyStats struct {
	Total         int
	Success       int
	AlreadyHadArt int
	NoMetadata    int
	Failed        int
	LyricsAdded   int
}

// ArtOnly adds cover art to files that already carry artist and title tags
// and no picture, plus lyrics when enabled and missing. The ledger and the
// genre chain are not consulted.
func (e *Enricher) ArtOnly(ctx context.Context, files []string) (ArtOnlyStats, error) {
	stats := ArtOnlyStats{Total: len(files)}
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		outcome, lyrics, err := e.artOnlyFile(context.WithoutCancel(ctx), path)
		switch outcome {
		case ArtAdded:
			stats.Success++
		case ArtAlreadyPresent:
			stats.AlreadyHadArt++
		case ArtNoMetadata:
			stats.NoMetadata++
		case ArtFailed:
			stats.Failed++
			e.logger.Debug("Failed to add art to %q: %v", filepath.Base(path), err)
		}
		if lyrics {
			stats.LyricsAdded++
		}
		if e.OnResult != nil {
			r := Result{Path: path, State: Success, ArtAdded: outcome == ArtAdded, LyricsAdded: lyrics, Err: err}
			switch outcome {
			case ArtFailed:
				r.State = Failed
			case ArtAlreadyPresent, ArtNoMetadata:
				r.State = Skipped
			}
			e.OnResult(r)
		}
	}
	return stats, nil
}

func (e *Enricher) artOnlyFile(ctx context.Context, path string) (ArtOutcome, bool, error) {
	type outcome struct {
		kind   ArtOutcome
		lyrics bool
	}

	var last outcome
	err := retry.Run(ctx, e.policies.File, func(ctx context.Context) error {
		c, err := tagstore.Open(path)
		if err != nil {
			return err
		}
		defer c.Close()

		if c.HasArt() {
			last = outcome{kind: ArtAlreadyPresent}
			return nil
		}
		artist, title := c.Get(tagstore.Artist), c.Get(tagstore.Title)
		if artist == "" || title == "" {
			last = outcome{kind: ArtNoMetadata}
			return nil
		}

		if e.opts.DryRun {
			e.logger.Info("[dry-run] would fetch cover art for %s - %s", artist, title)
			last = outcome{kind: ArtAdded}
			return nil
		}

		art, err := e.deps.Art.Find(ctx, nil, artist, title)
		if err != nil {
			return err
		}
		c.SetArt(art)

		var lyrics bool
		if c.Lyrics() == "" {
			if text := e.lyricsFor(ctx, title, artist); text != "" {
				c.SetLyrics(text)
				lyrics = true
			}
		}

		if err := c.Save(); err != nil {
			return err
		}
		last = outcome{kind: ArtAdded, lyrics: lyrics}
		return nil
	})
	if err != nil {
		return ArtFailed, false, err
	}
	return last.kind, last.lyrics, nil
}
