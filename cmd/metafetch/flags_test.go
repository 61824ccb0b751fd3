package main

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "metafetch.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigPriority(t *testing.T) {
	t.Setenv("SPOTIFY_CLIENT_ID", "env-id")
	t.Setenv("SPOTIFY_CLIENT_SECRET", "env-secret")

	path := writeConfig(t, `
music_dir: /from/config
no_art: true
quiet: true
spotify_client_id: file-id
`)

	o := optionsOf(t, "/from/flag", path)
	o.gem = true
	o.verbose = true

	cfg, err := o.loadConfig()
	if err != nil {
		t.Fatal(err)
	}

	if cfg.MusicDir != "/from/flag" {
		t.Errorf("MusicDir = %q, want flag value", cfg.MusicDir)
	}
	if cfg.SpotifyClientID != "env-id" {
		t.Errorf("SpotifyClientID = %q, want env value", cfg.SpotifyClientID)
	}
	if !cfg.NoArt {
		t.Error("no_art from config file was lost")
	}
	if !cfg.Analyze {
		t.Error("--gem did not enable analysis")
	}
	if !cfg.Verbose || cfg.Quiet {
		t.Errorf("--verbose should override quiet config: verbose=%v quiet=%v", cfg.Verbose, cfg.Quiet)
	}
}

func TestLoadConfigModes(t *testing.T) {
	path := writeConfig(t, "music_dir: /music\n")

	tests := []struct {
		name    string
		set     func(o *options)
		basic   bool
		all     bool
		artOnly bool
	}{
		{"enrich", func(o *options) {}, false, false, false},
		{"rm-metadata", func(o *options) { o.rmMetadata = true }, true, false, false},
		{"nuke", func(o *options) { o.nuke = true }, false, true, false},
		{"skip-metadata", func(o *options) { o.skipMetadata = true }, false, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := optionsOf(t, "", path)
			tt.set(o)
			cfg, err := o.loadConfig()
			if err != nil {
				t.Fatal(err)
			}
			if cfg.StripBasic != tt.basic || cfg.StripAll != tt.all || cfg.ArtOnly != tt.artOnly {
				t.Errorf("modes = %v/%v/%v", cfg.StripBasic, cfg.StripAll, cfg.ArtOnly)
			}
		})
	}
}

func TestLoadConfigMissingEnvFile(t *testing.T) {
	o := optionsOf(t, "", writeConfig(t, ""))
	o.envFile = filepath.Join(t.TempDir(), "missing.env")
	if _, err := o.loadConfig(); err == nil {
		t.Error("expected an error for a missing env file")
	}
}

func TestLoadConfigEnvFile(t *testing.T) {
	t.Setenv("LASTFM_API_KEY", "")
	os.Unsetenv("LASTFM_API_KEY")

	envFile := filepath.Join(t.TempDir(), "creds.env")
	if err := os.WriteFile(envFile, []byte("LASTFM_API_KEY=from-file\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("LASTFM_API_KEY") })

	o := optionsOf(t, "", writeConfig(t, ""))
	o.envFile = envFile
	cfg, err := o.loadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LastFMAPIKey != "from-file" {
		t.Errorf("LastFMAPIKey = %q, want from-file", cfg.LastFMAPIKey)
	}
}

func TestRootFlags(t *testing.T) {
	cmd := newRootCmd()
	for _, name := range []string{
		"path", "env-file", "force-art", "no-art", "gem", "no-lyrics", "keep-comments",
		"no-cache", "rm-metadata", "nuke", "skip-metadata", "quiet", "verbose", "dry-run",
		"config", "cleanup",
	} {
		if cmd.Flags().Lookup(name) == nil && cmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("missing flag --%s", name)
		}
	}

	var sub []string
	for _, c := range cmd.Commands() {
		sub = append(sub, c.Name())
	}
	for _, want := range []string{"cleanup", "init-config"} {
		found := false
		for _, s := range sub {
			found = found || s == want
		}
		if !found {
			t.Errorf("missing subcommand %q (have %v)", want, sub)
		}
	}
}

func optionsOf(t *testing.T, path, configPath string) *options {
	t.Helper()
	return &options{path: path, configPath: configPath}
}
