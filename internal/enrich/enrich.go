// Package enrich drives one file at a time through identity resolution,
// canonical lookup, genre/analysis/lyrics/art enrichment and the final tag
// write.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"metafetch/internal/logger"
	"metafetch/internal/metadata"
	"metafetch/internal/retry"
	"metafetch/internal/tagstore"
)

// State is where a file is in the enrichment state machine.
type State int

const (
	Pending State = iota
	ResolvingIdentity
	ResolvingTrack
	Enriching
	Writing
	Success
	Skipped
	Failed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case ResolvingIdentity:
		return "resolving identity"
	case ResolvingTrack:
		return "resolving track"
	case Enriching:
		return "enriching"
	case Writing:
		return "writing"
	case Success:
		return "success"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Ledger remembers files that were fully processed.
type Ledger interface {
	Contains(path string) bool
	Add(path string) error
}

// Options are the per-run switches.
type Options struct {
	ForceArt     bool
	NoArt        bool
	Analyze      bool
	Lyrics       bool
	KeepComments bool
	DryRun       bool
}

// Policies holds the retry budget of every best-effort step.
type Policies struct {
	Search   retry.Policy
	Analysis retry.Policy
	Lyrics   retry.Policy
	File     retry.Policy
}

// DefaultPolicies returns the budgets used by the CLI.
func DefaultPolicies() Policies {
	return Policies{
		Search:   retry.Once,
		Analysis: retry.Policy{Attempts: 2, Delay: time.Second},
		Lyrics:   retry.Policy{Attempts: 2, Delay: 2 * time.Second, Before: time.Second},
		File:     retry.Policy{Attempts: 2, Delay: 500 * time.Millisecond},
	}
}

// Deps are the collaborators of an Enricher. Analyzer and Lyrics may be nil.
type Deps struct {
	Identity *metadata.IdentityResolver
	Search   *metadata.CachedSearch
	Genres   *metadata.GenreResolver
	Art      *metadata.ArtResolver
	Analyzer metadata.Analyzer
	Lyrics   metadata.LyricsSearcher
	Ledger   Ledger
}

// Result is the outcome of one file.
type Result struct {
	Path             string
	State            State
	Artist           string
	Title            string
	AlreadyProcessed bool
	ArtAdded         bool
	ArtFailed        bool
	LyricsAdded      bool
	Err              error
}

// FailedFile is one entry of the failure report.
type FailedFile struct {
	Name string
	Err  string
}

// Stats summarises a run.
type Stats struct {
	Total            int
	Success          int
	Skipped          int
	Failed           int
	AlreadyProcessed int
	ArtAdded         int
	ArtFailed        int
	LyricsAdded      int
	FailedFiles      []FailedFile
}

func (s *Stats) add(r Result) {
	switch {
	case r.AlreadyProcessed:
		s.AlreadyProcessed++
	case r.State == Success:
		s.Success++
	case r.State == Skipped:
		s.Skipped++
	case r.State == Failed:
		s.Failed++
		s.FailedFiles = append(s.FailedFiles, FailedFile{Name: filepath.Base(r.Path), Err: r.Err.Error()})
	}
	if r.ArtAdded {
		s.ArtAdded++
	}
	if r.ArtFailed {
		s.ArtFailed++
	}
	if r.LyricsAdded {
		s.LyricsAdded++
	}
}

// Enricher processes files sequentially.
type Enricher struct {
	deps     Deps
	opts     Options
	policies Policies
	logger   *logger.Logger

	// OnResult is called after every file, including already processed ones.
	OnResult func(Result)
}

func New(deps Deps, opts Options, policies Policies, log *logger.Logger) *Enricher {
	return &Enricher{deps: deps, opts: opts, policies: policies, logger: log}
}

// Run processes files in order. Cancellation is checked between files; the
// stats gathered so far are returned with the context error.
func (e *Enricher) Run(ctx context.Context, files []string) (Stats, error) {
	stats := Stats{Total: len(files)}
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		r := e.ProcessFile(ctx, path)
		stats.add(r)
		if e.OnResult != nil {
			e.OnResult(r)
		}
	}
	return stats, nil
}

// ProcessFile enriches a single file. A failed attempt is retried according
// to the file policy; skips are final.
func (e *Enricher) ProcessFile(ctx context.Context, path string) Result {
	if e.deps.Ledger != nil && e.deps.Ledger.Contains(path) {
		e.logger.Debug("Already processed: %s", filepath.Base(path))
		return Result{Path: path, State: Skipped, AlreadyProcessed: true}
	}

	// In-flight work finishes even when the run is cancelled.
	ctx = context.WithoutCancel(ctx)

	e.logger.Debug("Now processing: %s", filepath.Base(path))
	r, err := retry.Do(ctx, e.policies.File, func(ctx context.Context) (Result, error) {
		return e.attempt(ctx, path)
	})
	if err != nil {
		e.logger.Error("Failed to process %q: %v", filepath.Base(path), err)
		return Result{Path: path, State: Failed, Err: err}
	}

	switch r.State {
	case Success:
		e.logger.Success("✓ %s - %s", r.Artist, r.Title)
	case Skipped:
		e.logger.Warn("Skipping %q: %v", filepath.Base(path), r.Err)
	}
	return r
}

var (
	errUnresolved = errors.New("could not determine artist and title")
	errNoMatch    = errors.New("no catalog match")
)

func (e *Enricher) transition(path string, s State) {
	e.logger.Debug("  [%s] %s", s, filepath.Base(path))
}

func (e *Enricher) attempt(ctx context.Context, path string) (Result, error) {
	r := Result{Path: path, State: Pending}

	c, err := tagstore.Open(path)
	if err != nil {
		return r, err
	}
	defer c.Close()

	e.transition(path, ResolvingIdentity)
	existing := metadata.Identity{Artist: c.Get(tagstore.Artist), Title: c.Get(tagstore.Title)}
	id, ok := e.deps.Identity.Resolve(ctx, existing, path)
	if !ok {
		r.State, r.Err = Skipped, errUnresolved
		return r, nil
	}
	e.logger.Debug("  identity from %s: %s - %s", id.Source, id.Artist, id.Title)

	e.transition(path, ResolvingTrack)
	query := fmt.Sprintf("artist:%s track:%s", id.Artist, id.Title)
	track, err := e.deps.Search.First(ctx, query)
	if err != nil {
		r.State, r.Err = Skipped, fmt.Errorf("%w: %v", errNoMatch, err)
		return r, nil
	}
	if track == nil {
		r.State, r.Err = Skipped, fmt.Errorf("%w for %q", errNoMatch, id.Artist+" - "+id.Title)
		return r, nil
	}
	if !metadata.LooksLikeSameTrack(id.Title, track.Title) {
		e.logger.Warn("  %q matched %q - %q, which may be a different track", filepath.Base(path), track.PrimaryArtist(), track.Title)
	}

	e.transition(path, Enriching)
	res := metadata.NewResolved(*track, e.deps.Genres.Resolve(ctx, track.PrimaryArtist(), track.Title, *track))
	e.analyze(ctx, res)
	if c.Lyrics() == "" {
		res.Lyrics = e.lyricsFor(ctx, res.Title, res.Artist)
	}

	var art []byte
	if metadata.ShouldFetchArt(c.HasArt(), e.opts.ForceArt, e.opts.NoArt) {
		if e.opts.DryRun {
			e.logger.Debug("  would fetch cover art")
		} else if art, err = e.deps.Art.Find(ctx, track, res.Artist, res.Title); err != nil {
			e.logger.Warn("  no cover art for %q: %v", filepath.Base(path), err)
			r.ArtFailed = true
		}
	}

	r.Artist, r.Title = res.Artist, res.Title
	if e.opts.DryRun {
		e.logger.Info("[dry-run] %s -> %s - %s (%s, %s)", filepath.Base(path), res.Artist, res.Title, res.Album, res.Genre)
		r.State = Success
		return r, nil
	}

	e.transition(path, Writing)
	apply(c, res, art, e.opts.KeepComments)
	if err := c.Save(); err != nil {
		return r, err
	}
	if e.deps.Ledger != nil {
		if err := e.deps.Ledger.Add(path); err != nil {
			e.logger.Warn("  could not record %q as processed: %v", filepath.Base(path), err)
		}
	}

	r.State = Success
	r.ArtAdded = art != nil
	r.LyricsAdded = res.Lyrics != ""
	return r, nil
}

func (e *Enricher) analyze(ctx context.Context, res *metadata.Resolved) {
	if !e.opts.Analyze || e.deps.Analyzer == nil {
		return
	}
	a, err := retry.Do(ctx, e.policies.Analysis, func(ctx context.Context) (*metadata.Analysis, error) {
		return e.deps.Analyzer.Analyze(ctx, res.Artist, res.Title)
	})
	if err != nil {
		e.logger.Warn("  analysis failed for %q: %v", res.Title, err)
		return
	}
	res.Analysis = a
}

// lyricsFor returns "" when lyrics are disabled, not found or failing.
func (e *Enricher) lyricsFor(ctx context.Context, title, artist string) string {
	if !e.opts.Lyrics || e.deps.Lyrics == nil {
		return ""
	}
	text, err := retry.Do(ctx, e.policies.Lyrics, func(ctx context.Context) (string, error) {
		return e.deps.Lyrics.SearchLyrics(ctx, title, artist)
	})
	if err != nil {
		e.logger.Warn("  lyrics search failed for %q: %v", title, err)
		return ""
	}
	return text
}
