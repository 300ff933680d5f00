package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPlaylistURL is the remote playlist fetched when none was configured.
const DefaultPlaylistURL = "https://hub.gitmirror.com/raw.githubusercontent.com/Benjmmi/iptv-api/refs/heads/master/output/user_result.txt"

// Config holds the complete application configuration
type Config struct {
	// Playlist sync settings
	Playlist struct {
		URL        string        `yaml:"url"`
		File       string        `yaml:"file"`
		TTL        time.Duration `yaml:"ttl"`
		RetryDelay time.Duration `yaml:"retry_delay"`
	} `yaml:"playlist"`

	// Remote fetch settings
	Fetch struct {
		ConnectTimeout time.Duration `yaml:"connect_timeout"`
		ReadTimeout    time.Duration `yaml:"read_timeout"`
		UserAgent      string        `yaml:"user_agent"`
	} `yaml:"fetch"`

	// Storage settings
	Storage struct {
		DBPath string `yaml:"db_path"`
	} `yaml:"storage"`

	// HTTP status API settings. An empty port disables the API.
	HTTP struct {
		Address string `yaml:"address"`
		Port    string `yaml:"port"`
	} `yaml:"http"`

	// Rendering surface settings. An empty DevTools URL runs headless.
	Surface struct {
		DevToolsURL       string        `yaml:"devtools_url"`
		ActivationTimeout time.Duration `yaml:"activation_timeout"`
		StartChannel      string        `yaml:"start_channel"`
	} `yaml:"surface"`

	// Logging settings
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// Validate performs validation on the configuration
func (c *Config) Validate() error {
	var errors []string

	if c.Playlist.URL == "" {
		errors = append(errors, "Playlist URL is required")
	}
	if c.Playlist.File == "" {
		errors = append(errors, "Playlist file is required")
	}
	if c.Playlist.TTL <= 0 {
		errors = append(errors, "Playlist TTL must be positive")
	}
	if c.Playlist.RetryDelay <= 0 {
		errors = append(errors, "Playlist retry delay must be positive")
	}

	if c.Fetch.ConnectTimeout <= 0 {
		errors = append(errors, "Fetch connect timeout must be positive")
	}
	if c.Fetch.ReadTimeout <= 0 {
		errors = append(errors, "Fetch read timeout must be positive")
	}

	if c.Storage.DBPath == "" {
		errors = append(errors, "Database path is required")
	}

	if c.HTTP.Port != "" && c.HTTP.Address == "" {
		errors = append(errors, "HTTP address is required when a port is set")
	}

	if c.Surface.ActivationTimeout <= 0 {
		errors = append(errors, "Surface activation timeout must be positive")
	}

	if !validLogLevels[strings.ToUpper(c.Log.Level)] {
		errors = append(errors, fmt.Sprintf("Log level %q is invalid", c.Log.Level))
	}
	if !validLogFormats[strings.ToLower(c.Log.Format)] {
		errors = append(errors, fmt.Sprintf("Log format %q is invalid", c.Log.Format))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

var (
	validLogLevels = map[string]bool{
		"DEBUG": true,
		"INFO":  true,
		"WARN":  true,
		"ERROR": true,
	}
	validLogFormats = map[string]bool{
		"json": true,
		"text": true,
	}
)

// Default returns a Config with sensible default values
func Default() *Config {
	cfg := &Config{}

	// Playlist defaults
	cfg.Playlist.URL = DefaultPlaylistURL
	cfg.Playlist.File = filepath.Join("data", "playlist.json")
	cfg.Playlist.TTL = 24 * time.Hour
	cfg.Playlist.RetryDelay = 10 * time.Second

	// Fetch defaults
	cfg.Fetch.ConnectTimeout = 5 * time.Second
	cfg.Fetch.ReadTimeout = 5 * time.Second
	cfg.Fetch.UserAgent = "iptv-player/1.0"

	// Storage defaults
	cfg.Storage.DBPath = filepath.Join("data", "iptv-player.db")

	// HTTP defaults
	cfg.HTTP.Address = "127.0.0.1"
	cfg.HTTP.Port = "8080"

	// Surface defaults
	cfg.Surface.ActivationTimeout = 5 * time.Second

	// Logging defaults
	cfg.Log.Level = "INFO"
	cfg.Log.Format = "json"

	return cfg
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Load loads configuration from a file (if provided) and applies environment variable overrides
func Load() (*Config, error) {
	configPath := os.Getenv("CONFIG_FILE")
	if configPath == "" {
		configPath = "config.yaml"
	}

	var cfg *Config

	if _, err := os.Stat(configPath); err == nil {
		cfg, err = LoadFromFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
		}
	} else {
		cfg = Default()
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Print outputs the configuration to stdout
func (c *Config) Print() {
	fmt.Printf("playlistUrl: %v\n", c.Playlist.URL)
	fmt.Printf("playlistFile: %v\n", c.Playlist.File)
	fmt.Printf("playlistTTL: %v\n", c.Playlist.TTL)
	fmt.Printf("playlistRetryDelay: %v\n", c.Playlist.RetryDelay)
	fmt.Printf("fetchConnectTimeout: %v\n", c.Fetch.ConnectTimeout)
	fmt.Printf("fetchReadTimeout: %v\n", c.Fetch.ReadTimeout)
	fmt.Printf("dbPath: %v\n", c.Storage.DBPath)
	fmt.Printf("httpAddress: %v\n", c.HTTP.Address)
	fmt.Printf("httpPort: %v\n", c.HTTP.Port)
	fmt.Printf("devtoolsUrl: %v\n", c.Surface.DevToolsURL)
	fmt.Printf("activationTimeout: %v\n", c.Surface.ActivationTimeout)
	fmt.Printf("logLevel: %v\n", c.Log.Level)
}
