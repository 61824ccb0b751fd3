package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrMissingCredential is wrapped by ConfigurationError when a required
// credential is not set.
var ErrMissingCredential = errors.New("missing credential")

// ConfigurationError is fatal at startup: nothing has been touched yet.
type ConfigurationError struct {
	Field string
	Err   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %v", e.Field, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// Cache file names inside StateDir.
const (
	SearchCacheFile      = "search_cache.json"
	ArtistGenreCacheFile = "artist_genres.json"
	TrackGenreCacheFile  = "track_genres.json"
	LedgerFile           = "processed.db"
)

// Environment variables holding credentials. The SPOTIPY_ spellings are
// accepted for compatibility with existing .env files.
var (
	envSpotifyID     = []string{"SPOTIFY_CLIENT_ID", "SPOTIPY_CLIENT_ID"}
	envSpotifySecret = []string{"SPOTIFY_CLIENT_SECRET", "SPOTIPY_CLIENT_SECRET"}
	envGemini        = []string{"GEMINI_API_KEY"}
	envLastFM        = []string{"LASTFM_API_KEY"}
)

// Config contains the program configuration
type Config struct {
	MusicDir string `yaml:"music_dir"`
	StateDir string `yaml:"state_dir"`
	LogDir   string `yaml:"log_dir"`
	Verbose  bool   `yaml:"verbose"`
	Quiet    bool   `yaml:"quiet"`
	DryRun   bool   `yaml:"dry_run"`

	ForceArt     bool `yaml:"force_art"`
	NoArt        bool `yaml:"no_art"`
	Analyze      bool `yaml:"analyze"`
	NoLyrics     bool `yaml:"no_lyrics"`
	KeepComments bool `yaml:"keep_comments"`
	NoCache      bool `yaml:"no_cache"`

	// Destructive and alternative modes are only ever set from the command
	// line.
	StripBasic bool `yaml:"-"`
	StripAll   bool `yaml:"-"`
	ArtOnly    bool `yaml:"-"`

	SpotifyClientID     string `yaml:"spotify_client_id"`
	SpotifyClientSecret string `yaml:"spotify_client_secret"`
	GeminiAPIKey        string `yaml:"gemini_api_key"`
	GeminiModel         string `yaml:"gemini_model"`
	LastFMAPIKey        string `yaml:"lastfm_api_key"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		MusicDir:    ".",
		StateDir:    GetDefaultStatePath(),
		LogDir:      GetDefaultLogPath(),
		GeminiModel: "gemma-3-27b-it",
	}
}

// LoadConfigFile loads configuration from a YAML file.
// If path is empty, searches standard locations. Returns defaults if no file found.
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = FindConfigFile()
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	cfg.MusicDir = ExpandHome(cfg.MusicDir)
	cfg.StateDir = ExpandHome(cfg.StateDir)
	cfg.LogDir = ExpandHome(cfg.LogDir)

	return cfg, nil
}

// ApplyEnv overlays credentials from the environment. If envFile is set it
// must exist; otherwise a ./.env file is read when present. Variables that
// are already exported win over file values.
func (c *Config) ApplyEnv(envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(ExpandHome(envFile)); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	} else if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	overlay(&c.SpotifyClientID, envSpotifyID)
	overlay(&c.SpotifyClientSecret, envSpotifySecret)
	overlay(&c.GeminiAPIKey, envGemini)
	overlay(&c.LastFMAPIKey, envLastFM)
	return nil
}

func overlay(dst *string, names []string) {
	for _, name := range names {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			*dst = v
			return
		}
	}
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir(), path[2:])
	}
	return path
}

// FindConfigFile searches for a config file in standard locations
func FindConfigFile() string {
	home := homeDir()
	locations := []string{
		"./metafetch.yaml",
		"./metafetch.yml",
		filepath.Join(home, ".config", "metafetch", "config.yaml"),
		filepath.Join(home, ".config", "metafetch", "config.yml"),
		filepath.Join(home, ".metafetch.yaml"),
		filepath.Join(home, ".metafetch.yml"),
	}

	for _, path := range locations {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// SaveConfigFile saves the current configuration to a YAML file
func SaveConfigFile(cfg Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetDefaultConfigPath returns the default config file path
func GetDefaultConfigPath() string {
	return filepath.Join(homeDir(), ".config", "metafetch", "config.yaml")
}

// GetDefaultStatePath returns the directory holding caches and the ledger
func GetDefaultStatePath() string {
	return filepath.Join(homeDir(), ".local", "share", "metafetch")
}

// GetDefaultLogPath returns the default log directory path
func GetDefaultLogPath() string {
	return filepath.Join(GetDefaultStatePath(), "logs")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return os.Getenv("HOME")
	}
	return home
}

// StatePath joins name onto the state directory.
func (c *Config) StatePath(name string) string {
	return filepath.Join(c.StateDir, name)
}

// NeedsCatalog reports whether the selected mode talks to the catalog
// service. The destructive modes work offline.
func (c *Config) NeedsCatalog() bool {
	return !c.StripBasic && !c.StripAll
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.MusicDir == "" {
		return fmt.Errorf("music_dir cannot be empty")
	}
	if c.StateDir == "" {
		return fmt.Errorf("state_dir cannot be empty")
	}

	if c.ForceArt && c.NoArt {
		return fmt.Errorf("--force-art and --no-art cannot be used together")
	}
	if c.Verbose && c.Quiet {
		return fmt.Errorf("--verbose and --quiet cannot be used together")
	}

	modes := 0
	for _, on := range []bool{c.StripBasic, c.StripAll, c.ArtOnly} {
		if on {
			modes++
		}
	}
	if modes > 1 {
		return fmt.Errorf("--rm-metadata, --nuke and --skip-metadata are mutually exclusive")
	}

	if c.NeedsCatalog() {
		if c.SpotifyClientID == "" {
			return &ConfigurationError{Field: "SPOTIFY_CLIENT_ID", Err: ErrMissingCredential}
		}
		if c.SpotifyClientSecret == "" {
			return &ConfigurationError{Field: "SPOTIFY_CLIENT_SECRET", Err: ErrMissingCredential}
		}
	}

	if c.Analyze && c.GeminiAPIKey == "" {
		return &ConfigurationError{Field: "GEMINI_API_KEY", Err: ErrMissingCredential}
	}

	return nil
}
