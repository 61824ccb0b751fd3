// Package pipeline wires configuration, caches, ledger and remote clients
// into one run of the selected mode.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"metafetch/internal/artwork"
	"metafetch/internal/config"
	"metafetch/internal/enrich"
	"metafetch/internal/ledger"
	"metafetch/internal/logger"
	"metafetch/internal/lyrics"
	"metafetch/internal/metadata"
	"metafetch/internal/provider/gemini"
	"metafetch/internal/provider/lastfm"
	"metafetch/internal/provider/spotify"
	"metafetch/internal/retry"
	"metafetch/internal/strip"
	"metafetch/pkg/utils"
)

// Mode is the operation a run performs.
type Mode int

const (
	ModeEnrich Mode = iota
	ModeStripBasic
	ModeStripAll
	ModeArtOnly
)

func (m Mode) String() string {
	switch m {
	case ModeStripBasic:
		return "strip-basic"
	case ModeStripAll:
		return "strip-all"
	case ModeArtOnly:
		return "art-only"
	default:
		return "enrich"
	}
}

// ParseMode is the inverse of Mode.String.
func ParseMode(s string) (Mode, error) {
	for _, m := range []Mode{ModeEnrich, ModeStripBasic, ModeStripAll, ModeArtOnly} {
		if m.String() == s {
			return m, nil
		}
	}
	return ModeEnrich, fmt.Errorf("unknown mode %q", s)
}

// ModeOf derives the mode from the mutually exclusive config switches.
func ModeOf(cfg config.Config) Mode {
	switch {
	case cfg.StripBasic:
		return ModeStripBasic
	case cfg.StripAll:
		return ModeStripAll
	case cfg.ArtOnly:
		return ModeArtOnly
	default:
		return ModeEnrich
	}
}

// Apply sets the config switches for m.
func (m Mode) Apply(cfg *config.Config) {
	cfg.StripBasic = m == ModeStripBasic
	cfg.StripAll = m == ModeStripAll
	cfg.ArtOnly = m == ModeArtOnly
}

type Hooks struct {
	OnFilesFound func(total int)
	OnProgress   func(path string)
	OnWarning    func(msg string)
}

// Summary is what a run reports back. Exactly one of the stats pointers is
// set, matching Mode.
type Summary struct {
	Mode     Mode
	Files    int
	Enrich   *enrich.Stats
	ArtOnly  *enrich.ArtOnlyStats
	Strip    *strip.Stats
	Duration time.Duration
}

// Clients are the remote services a run talks to. Nil fields disable the
// feature they back.
type Clients struct {
	Search   metadata.Searcher
	Artists  metadata.ArtistGenreLookup
	Tags     metadata.TagCloud
	Cleaner  metadata.FilenameCleaner
	Analyzer metadata.Analyzer
	Lyrics   metadata.LyricsSearcher
	Art      metadata.ArtFetcher
}

// NewClients builds the production clients for the credentials in cfg.
func NewClients(cfg config.Config) Clients {
	var c Clients

	sp := spotify.New(cfg.SpotifyClientID, cfg.SpotifyClientSecret)
	c.Search = sp
	c.Artists = sp

	if cfg.LastFMAPIKey != "" {
		c.Tags = lastfm.New(cfg.LastFMAPIKey)
	}
	if cfg.GeminiAPIKey != "" {
		g := gemini.New(cfg.GeminiAPIKey, cfg.GeminiModel)
		c.Cleaner = g
		if cfg.Analyze {
			c.Analyzer = g
		}
	}
	if !cfg.NoLyrics {
		c.Lyrics = lyrics.NewClient()
	}
	c.Art = artwork.NewFetcher()
	return c
}

// Runner executes one run. Run is the usual entry point; Runner lets
// callers substitute clients and retry budgets.
type Runner struct {
	Config   config.Config
	Logger   *logger.Logger
	Clients  Clients
	Policies enrich.Policies
	Hooks    Hooks
}

// Run executes the mode selected by cfg with production clients.
func Run(ctx context.Context, cfg config.Config, log *logger.Logger, hooks Hooks) (*Summary, error) {
	r := &Runner{
		Config:   cfg,
		Logger:   log,
		Clients:  NewClients(cfg),
		Policies: enrich.DefaultPolicies(),
		Hooks:    hooks,
	}
	return r.Run(ctx)
}

// Run discovers audio files and dispatches to the mode. On cancellation the
// partial summary is returned together with the context error.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	mode := ModeOf(r.Config)

	files, err := utils.FindAudioFiles(r.Config.MusicDir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan music directory: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no audio files found in %s", r.Config.MusicDir)
	}

	r.Logger.Info("Found %d audio files in %s (%s)", len(files), r.Config.MusicDir, mode)
	if r.Hooks.OnFilesFound != nil {
		r.Hooks.OnFilesFound(len(files))
	}

	summary := &Summary{Mode: mode, Files: len(files)}
	defer func() { summary.Duration = time.Since(start) }()

	switch mode {
	case ModeStripBasic, ModeStripAll:
		err = r.runStrip(ctx, mode, files, summary)
	default:
		err = r.runCatalog(ctx, mode, files, summary)
	}
	return summary, err
}

func (r *Runner) runStrip(ctx context.Context, mode Mode, files []string, summary *Summary) error {
	s := strip.New(strip.DefaultPolicy, r.Config.DryRun, r.Logger)
	s.OnFile = func(path string, _ error) { r.progress(path) }

	stripMode := strip.KeepBasics
	if mode == ModeStripAll {
		stripMode = strip.All
	}

	stats, err := s.Run(ctx, files, stripMode)
	summary.Strip = &stats
	if stats.Failed > 0 {
		r.warn(fmt.Sprintf("%d of %d files could not be stripped", stats.Failed, stats.Total))
	}
	return err
}

func (r *Runner) runCatalog(ctx context.Context, mode Mode, files []string, summary *Summary) error {
	if err := os.MkdirAll(r.Config.StateDir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	caches, warnings := metadata.OpenCaches(r.Config.StateDir, r.Config.NoCache)
	for _, w := range warnings {
		r.warn(fmt.Sprintf("cache not loaded, starting empty: %v", w))
	}
	defer func() {
		if err := caches.Save(); err != nil {
			r.warn(err.Error())
		}
	}()

	var led *ledger.Ledger
	if mode == ModeEnrich {
		var err error
		led, err = ledger.Open(r.Config.StatePath(config.LedgerFile))
		if err != nil {
			return fmt.Errorf("failed to open processed ledger: %w", err)
		}
		defer led.Close()
		r.Logger.Debug("Ledger holds %d processed files", led.Len())
	}

	e := r.newEnricher(caches, led)
	e.OnResult = func(res enrich.Result) { r.progress(res.Path) }

	if mode == ModeArtOnly {
		stats, err := e.ArtOnly(ctx, files)
		summary.ArtOnly = &stats
		if stats.Failed > 0 {
			r.warn(fmt.Sprintf("%d of %d files got no cover art", stats.Failed, stats.Total))
		}
		return err
	}

	stats, err := e.Run(ctx, files)
	summary.Enrich = &stats
	if stats.Failed > 0 {
		r.warn(fmt.Sprintf("%d of %d files failed", stats.Failed, stats.Total))
	}
	return err
}

func (r *Runner) newEnricher(caches *metadata.Caches, led *ledger.Ledger) *enrich.Enricher {
	cl := r.Clients
	search := metadata.NewCachedSearch(cl.Search, caches.Search, r.Policies.Search, r.Logger)

	deps := enrich.Deps{
		Identity: metadata.NewIdentityResolver(search, cl.Cleaner, retry.Once, r.Logger),
		Search:   search,
		Genres:   metadata.NewGenreResolver(cl.Tags, cl.Artists, caches, retry.Once, r.Logger),
		Art:      metadata.NewArtResolver(search, cl.Art, r.Logger),
		Analyzer: cl.Analyzer,
		Lyrics:   cl.Lyrics,
	}
	if led != nil {
		deps.Ledger = led
	}

	opts := enrich.Options{
		ForceArt:     r.Config.ForceArt,
		NoArt:        r.Config.NoArt,
		Analyze:      r.Config.Analyze,
		Lyrics:       !r.Config.NoLyrics,
		KeepComments: r.Config.KeepComments,
		DryRun:       r.Config.DryRun,
	}
	return enrich.New(deps, opts, r.Policies, r.Logger)
}

func (r *Runner) progress(path string) {
	if r.Hooks.OnProgress != nil {
		r.Hooks.OnProgress(path)
	}
}

func (r *Runner) warn(msg string) {
	r.Logger.Warn("%s", msg)
	if r.Hooks.OnWarning != nil {
		r.Hooks.OnWarning(msg)
	}
}

// Cleanup deletes the ledger, the search cache and stray .cache directories
// in the working and music directories. Genre caches are kept. It returns
// the removed paths.
func Cleanup(cfg config.Config, log *logger.Logger) ([]string, error) {
	paths := []string{
		cfg.StatePath(config.LedgerFile),
		cfg.StatePath(config.SearchCacheFile),
		".cache",
	}
	if cfg.MusicDir != "" {
		paths = append(paths, filepath.Join(cfg.MusicDir, ".cache"))
	}

	removed, err := utils.RemovePaths(paths...)
	for _, p := range removed {
		log.Info("Deleted: %s", p)
	}
	if err != nil {
		return removed, err
	}
	if len(removed) == 0 {
		log.Info("Nothing to clean up")
	}
	return removed, nil
}

// IsCancelled reports whether err comes from an interrupted run.
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled)
}
