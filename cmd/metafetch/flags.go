package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"metafetch/internal/config"
)

// options holds the command-line flags. Booleans only ever switch features
// on, so an unset flag leaves the config file value in place.
type options struct {
	path         string
	envFile      string
	configPath   string
	forceArt     bool
	noArt        bool
	gem          bool
	noLyrics     bool
	keepComments bool
	noCache      bool
	rmMetadata   bool
	nuke         bool
	skipMetadata bool
	quiet        bool
	verbose      bool
	dryRun       bool
	cleanup      bool
}

func (o *options) register(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.StringVarP(&o.path, "path", "p", "", "Music directory to process (default: music_dir from config, else .)")
	pf.StringVar(&o.configPath, "config", "", "Path to config file")

	f := cmd.Flags()
	f.StringVarP(&o.envFile, "env-file", "e", "", "Load credentials from this env file instead of ./.env")
	f.BoolVarP(&o.forceArt, "force-art", "i", false, "Replace embedded cover art even when present")
	f.BoolVar(&o.noArt, "no-art", false, "Never fetch cover art")
	f.BoolVarP(&o.gem, "gem", "g", false, "Clean filenames and add BPM, key and mood with Gemini")
	f.BoolVar(&o.noLyrics, "no-lyrics", false, "Do not fetch lyrics")
	f.BoolVar(&o.keepComments, "keep-comments", false, "Keep existing comment tags")
	f.BoolVar(&o.noCache, "no-cache", false, "Start with an empty search cache and do not save it")
	f.BoolVarP(&o.rmMetadata, "rm-metadata", "r", false, "Strip all tags except artist and title")
	f.BoolVarP(&o.nuke, "nuke", "n", false, "Strip every tag")
	f.BoolVarP(&o.skipMetadata, "skip-metadata", "s", false, "Only add missing cover art (and lyrics)")
	f.BoolVarP(&o.quiet, "quiet", "q", false, "Only print errors and the final summary")
	f.BoolVarP(&o.verbose, "verbose", "v", false, "Show detailed output instead of a progress bar")
	f.BoolVar(&o.dryRun, "dry-run", false, "Resolve everything but write nothing")
	f.BoolVarP(&o.cleanup, "cleanup", "c", false, "Delete the ledger and search cache, then exit")
}

// loadConfig builds the run configuration. Priority: flags > env > config
// file > defaults.
func (o *options) loadConfig() (config.Config, error) {
	cfg, err := config.LoadConfigFile(o.configPath)
	if err != nil {
		return cfg, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.ApplyEnv(o.envFile); err != nil {
		return cfg, err
	}

	if o.path != "" {
		cfg.MusicDir = config.ExpandHome(o.path)
	}
	cfg.ForceArt = cfg.ForceArt || o.forceArt
	cfg.NoArt = cfg.NoArt || o.noArt
	cfg.Analyze = cfg.Analyze || o.gem
	cfg.NoLyrics = cfg.NoLyrics || o.noLyrics
	cfg.KeepComments = cfg.KeepComments || o.keepComments
	cfg.NoCache = cfg.NoCache || o.noCache
	cfg.Quiet = cfg.Quiet || o.quiet
	cfg.Verbose = cfg.Verbose || o.verbose
	cfg.DryRun = cfg.DryRun || o.dryRun
	cfg.StripBasic = o.rmMetadata
	cfg.StripAll = o.nuke
	cfg.ArtOnly = o.skipMetadata

	// An explicit --verbose beats a quiet config file, and vice versa.
	if o.verbose && !o.quiet {
		cfg.Quiet = false
	}
	if o.quiet && !o.verbose {
		cfg.Verbose = false
	}

	return cfg, nil
}
