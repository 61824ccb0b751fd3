package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			MusicDir:            "/tmp/music",
			StateDir:            "/tmp/state",
			SpotifyClientID:     "id",
			SpotifyClientSecret: "secret",
		}
	}

	tests := []struct {
		name       string
		modify     func(*Config)
		wantErr    bool
		wantConfig bool
	}{
		{
			name:   "valid config",
			modify: func(c *Config) {},
		},
		{
			name:    "empty music dir",
			modify:  func(c *Config) { c.MusicDir = "" },
			wantErr: true,
		},
		{
			name:    "empty state dir",
			modify:  func(c *Config) { c.StateDir = "" },
			wantErr: true,
		},
		{
			name: "force art and no art together",
			modify: func(c *Config) {
				c.ForceArt = true
				c.NoArt = true
			},
			wantErr: true,
		},
		{
			name: "verbose and quiet together",
			modify: func(c *Config) {
				c.Verbose = true
				c.Quiet = true
			},
			wantErr: true,
		},
		{
			name: "two modes selected",
			modify: func(c *Config) {
				c.StripBasic = true
				c.ArtOnly = true
			},
			wantErr: true,
		},
		{
			name:       "missing spotify id",
			modify:     func(c *Config) { c.SpotifyClientID = "" },
			wantErr:    true,
			wantConfig: true,
		},
		{
			name: "missing spotify secret in art-only mode",
			modify: func(c *Config) {
				c.ArtOnly = true
				c.SpotifyClientSecret = ""
			},
			wantErr:    true,
			wantConfig: true,
		},
		{
			name: "strip modes need no credentials",
			modify: func(c *Config) {
				c.StripAll = true
				c.SpotifyClientID = ""
				c.SpotifyClientSecret = ""
			},
		},
		{
			name:       "analysis without gemini key",
			modify:     func(c *Config) { c.Analyze = true },
			wantErr:    true,
			wantConfig: true,
		},
		{
			name: "analysis with gemini key",
			modify: func(c *Config) {
				c.Analyze = true
				c.GeminiAPIKey = "key"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.modify(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr = %v", err, tt.wantErr)
			}
			var cfgErr *ConfigurationError
			if got := errors.As(err, &cfgErr); got != tt.wantConfig {
				t.Errorf("errors.As(ConfigurationError) = %v, want %v (err: %v)", got, tt.wantConfig, err)
			}
			if tt.wantConfig && !errors.Is(err, ErrMissingCredential) {
				t.Errorf("error %v does not wrap ErrMissingCredential", err)
			}
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `music_dir: /tmp/test-music
state_dir: /tmp/test-state
keep_comments: true
gemini_model: gemini-2.0-flash
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile() error: %v", err)
	}

	if cfg.MusicDir != "/tmp/test-music" {
		t.Errorf("MusicDir = %q, want %q", cfg.MusicDir, "/tmp/test-music")
	}
	if cfg.StateDir != "/tmp/test-state" {
		t.Errorf("StateDir = %q, want %q", cfg.StateDir, "/tmp/test-state")
	}
	if !cfg.KeepComments {
		t.Error("KeepComments = false, want true")
	}
	if cfg.GeminiModel != "gemini-2.0-flash" {
		t.Errorf("GeminiModel = %q, want %q", cfg.GeminiModel, "gemini-2.0-flash")
	}
}

func TestLoadConfigFileNotFound(t *testing.T) {
	cfg, err := LoadConfigFile("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("LoadConfigFile() should return defaults for missing file, got error: %v", err)
	}
	if cfg.MusicDir != "." {
		t.Errorf("expected default MusicDir=., got %q", cfg.MusicDir)
	}
	if cfg.GeminiModel != "gemma-3-27b-it" {
		t.Errorf("expected default GeminiModel, got %q", cfg.GeminiModel)
	}
}

func TestApplyEnv(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), "creds.env")
	content := "SPOTIPY_CLIENT_ID=file-id\nSPOTIPY_CLIENT_SECRET=file-secret\nLASTFM_API_KEY=file-lastfm\n"
	if err := os.WriteFile(envFile, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"SPOTIFY_CLIENT_ID", "SPOTIPY_CLIENT_ID", "SPOTIFY_CLIENT_SECRET", "SPOTIPY_CLIENT_SECRET", "LASTFM_API_KEY", "GEMINI_API_KEY"} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
	t.Setenv("SPOTIFY_CLIENT_ID", "exported-id")

	cfg := DefaultConfig()
	cfg.GeminiAPIKey = "from-yaml"
	if err := cfg.ApplyEnv(envFile); err != nil {
		t.Fatalf("ApplyEnv() error: %v", err)
	}

	if cfg.SpotifyClientID != "exported-id" {
		t.Errorf("SpotifyClientID = %q, want exported value", cfg.SpotifyClientID)
	}
	if cfg.SpotifyClientSecret != "file-secret" {
		t.Errorf("SpotifyClientSecret = %q, want value from env file", cfg.SpotifyClientSecret)
	}
	if cfg.LastFMAPIKey != "file-lastfm" {
		t.Errorf("LastFMAPIKey = %q, want value from env file", cfg.LastFMAPIKey)
	}
	if cfg.GeminiAPIKey != "from-yaml" {
		t.Errorf("GeminiAPIKey = %q, want config file value kept", cfg.GeminiAPIKey)
	}
}

func TestApplyEnvMissingExplicitFile(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.ApplyEnv(filepath.Join(t.TempDir(), "nope.env")); err == nil {
		t.Error("ApplyEnv() with missing explicit file should fail")
	}
}

func TestExpandHome(t *testing.T) {
	home := homeDir()
	tests := []struct {
		input string
		want  string
	}{
		{"~/Music", filepath.Join(home, "Music")},
		{"/absolute/path", "/absolute/path"},
		{"relative/path", "relative/path"},
		{"~notslash", "~notslash"},
	}

	for _, tt := range tests {
		got := ExpandHome(tt.input)
		if got != tt.want {
			t.Errorf("ExpandHome(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
