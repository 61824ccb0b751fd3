package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"metafetch/internal/config"
	"metafetch/internal/logger"
	"metafetch/internal/pipeline"
	"metafetch/internal/progress"
	"metafetch/internal/shutdown"
)

// exitError carries a process exit status out of a cobra command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func main() {
	if err := newRootCmd().Execute(); err != nil {
		code := 1
		var ee *exitError
		if errors.As(err, &ee) {
			code = ee.code
		}
		if code != shutdown.ExitInterrupted {
			fmt.Fprintf(os.Stderr, "[ERROR] %v\n", err)
		}
		os.Exit(code)
	}
}

func newRootCmd() *cobra.Command {
	o := &options{}

	root := &cobra.Command{
		Use:   "metafetch",
		Short: "Fill in artist, title, genre, album, art and lyrics for a music folder",
		Long: `metafetch walks a music directory and enriches every audio file with
metadata from Spotify: canonical artist and title, album, year, track number,
a normalized genre, cover art and lyrics. Files already enriched are recorded
in a ledger and skipped on later runs.

Credentials are read from the environment or a .env file:
  SPOTIFY_CLIENT_ID, SPOTIFY_CLIENT_SECRET   required for enrichment
  LASTFM_API_KEY                              optional, better genres
  GEMINI_API_KEY                              required with --gem`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if o.cleanup {
				return runCleanup(o)
			}
			return runPipeline(o)
		},
	}
	o.register(root)

	root.AddCommand(&cobra.Command{
		Use:   "cleanup",
		Short: "Delete the processed ledger and the search cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCleanup(o)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "init-config",
		Short: "Create a default config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return initConfigFile(cmd)
		},
	})

	return root
}

func runPipeline(o *options) error {
	cfg, err := o.loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := newLogger(cfg)
	defer log.Close()

	sh := shutdown.New()
	sh.Listen()
	defer sh.Stop()
	sh.AddCleanup(func() {
		log.Warn("Interrupted: finishing the current file (press Ctrl+C again to quit now)")
	})

	var bar *progress.Bar
	mode := pipeline.ModeOf(cfg)
	hooks := pipeline.Hooks{
		OnFilesFound: func(total int) {
			if !cfg.Verbose && !cfg.Quiet && logger.IsTerminal() {
				bar = progress.New(total, mode.String())
				log.SetProgressBar(true)
			}
		},
		OnProgress: func(path string) {
			if bar != nil {
				bar.Increment(path)
			}
		},
	}

	summary, err := pipeline.Run(sh.Context(), cfg, log, hooks)

	if bar != nil {
		bar.Finish()
		log.SetProgressBar(false)
	}

	printSummary(os.Stdout, summary)

	switch {
	case pipeline.IsCancelled(err):
		log.Warn("Run interrupted; progress so far has been saved")
		return &exitError{code: shutdown.ExitInterrupted, err: err}
	case err != nil:
		return err
	}

	if cfg.DryRun {
		log.Info("Dry run: no files were modified")
	}
	return nil
}

func runCleanup(o *options) error {
	cfg, err := config.LoadConfigFile(o.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if o.path != "" {
		cfg.MusicDir = config.ExpandHome(o.path)
	}

	log := logger.New(o.verbose)
	defer log.Close()

	_, err = pipeline.Cleanup(cfg, log)
	return err
}

// newLogger writes a timestamped log file under the log directory unless
// output is verbose, in which case everything goes to the terminal.
func newLogger(cfg config.Config) *logger.Logger {
	log := logger.New(cfg.Verbose)
	log.Quiet = cfg.Quiet

	if cfg.Verbose {
		return log
	}

	if err := os.MkdirAll(cfg.LogDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "[WARN] Failed to create log directory: %v\n", err)
		return log
	}
	logFile := filepath.Join(cfg.LogDir, fmt.Sprintf("metafetch_%s.log", time.Now().Format("2006-01-02_15-04-05")))
	if err := log.SetFileLog(logFile); err != nil {
		fmt.Fprintf(os.Stderr, "[WARN] Failed to setup file logging: %v\n", err)
	} else {
		log.Debug("Logging to file: %s", logFile)
	}
	return log
}

func initConfigFile(cmd *cobra.Command) error {
	path := config.GetDefaultConfigPath()
	out := cmd.OutOrStdout()

	if _, err := os.Stat(path); err == nil {
		fmt.Fprintf(out, "Config file already exists at: %s\n", path)
		fmt.Fprintln(out, "Delete it first if you want to recreate it.")
		return nil
	}

	if err := config.SaveConfigFile(config.DefaultConfig(), path); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	fmt.Fprintf(out, "Created default config file at: %s\n", path)
	fmt.Fprintln(out, "\nAvailable options:")
	fmt.Fprintln(out, "  music_dir: directory to process when --path is not given")
	fmt.Fprintln(out, "  state_dir: where caches and the processed ledger live")
	fmt.Fprintln(out, "  force_art, no_art, analyze, no_lyrics, keep_comments: run defaults")
	fmt.Fprintln(out, "  spotify_client_id, spotify_client_secret, lastfm_api_key, gemini_api_key")
	fmt.Fprintln(out, "  gemini_model: model used with --gem (default: gemma-3-27b-it)")
	return nil
}
