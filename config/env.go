package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// envParser is a helper for parsing environment variables with validation.
// Every invalid value is collected so they can be reported together.
type envParser struct {
	errors []string
}

// parseString copies a non-empty environment variable into target.
func (p *envParser) parseString(envName string, target *string) {
	if val := os.Getenv(envName); val != "" {
		*target = val
	}
}

// parsePath parses a filesystem path environment variable, normalized to an absolute path
func (p *envParser) parsePath(envName string, target *string) {
	val := os.Getenv(envName)
	if val == "" {
		return
	}

	abs, err := filepath.Abs(val)
	if err != nil {
		p.errors = append(p.errors, fmt.Sprintf("%s: failed to resolve absolute path: %v", envName, err))
		return
	}

	*target = abs
}

// parseDuration parses a duration environment variable, ensuring it's positive
func (p *envParser) parseDuration(envName string, target *time.Duration) {
	val := os.Getenv(envName)
	if val == "" {
		return
	}

	duration, err := time.ParseDuration(val)
	if err != nil {
		p.errors = append(p.errors, fmt.Sprintf("%s: invalid duration format (use '30s', '1m', etc.)", envName))
		return
	}

	if duration <= 0 {
		p.errors = append(p.errors, fmt.Sprintf("%s must be positive", envName))
		return
	}

	*target = duration
}

// parseEnum parses an enum environment variable from a set of valid values
func (p *envParser) parseEnum(envName string, target *string, validValues map[string]bool, normalize func(string) string) {
	val := os.Getenv(envName)
	if val == "" {
		return
	}

	normalized := normalize(val)
	if !validValues[normalized] {
		validList := make([]string, 0, len(validValues))
		for k := range validValues {
			validList = append(validList, k)
		}
		sort.Strings(validList)
		p.errors = append(p.errors, fmt.Sprintf("%s must be one of: %s", envName, strings.Join(validList, ", ")))
		return
	}

	*target = normalized
}

// applyEnvOverrides applies environment variable overrides to the configuration
func applyEnvOverrides(cfg *Config) error {
	parser := &envParser{}

	// Playlist settings
	parser.parseString("PLAYLIST_URL", &cfg.Playlist.URL)
	parser.parsePath("PLAYLIST_FILE", &cfg.Playlist.File)
	parser.parseDuration("PLAYLIST_TTL", &cfg.Playlist.TTL)
	parser.parseDuration("PLAYLIST_RETRY_DELAY", &cfg.Playlist.RetryDelay)

	// Fetch settings
	parser.parseDuration("FETCH_CONNECT_TIMEOUT", &cfg.Fetch.ConnectTimeout)
	parser.parseDuration("FETCH_READ_TIMEOUT", &cfg.Fetch.ReadTimeout)
	parser.parseString("FETCH_USER_AGENT", &cfg.Fetch.UserAgent)

	// Storage settings
	parser.parsePath("DB_PATH", &cfg.Storage.DBPath)

	// HTTP settings
	parser.parseString("HTTP_ADDRESS", &cfg.HTTP.Address)
	parser.parseString("HTTP_PORT", &cfg.HTTP.Port)

	// Surface settings
	parser.parseString("DEVTOOLS_URL", &cfg.Surface.DevToolsURL)
	parser.parseDuration("ACTIVATION_TIMEOUT", &cfg.Surface.ActivationTimeout)
	parser.parseString("START_CHANNEL", &cfg.Surface.StartChannel)

	// Logging settings
	parser.parseEnum("LOG_LEVEL", &cfg.Log.Level, validLogLevels, strings.ToUpper)
	parser.parseEnum("LOG_FORMAT", &cfg.Log.Format, validLogFormats, strings.ToLower)

	if len(parser.errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(parser.errors, "\n  - "))
	}

	return nil
}
