package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/garry/localify/matcher"
)

// Config holds all configuration values
type Config struct {
	Spotify     SpotifyConfig
	Library     LibraryConfig
	Match       MatchConfig
	Search      SearchConfig
	MusicBrainz MusicBrainzConfig

	// invalid collects values that could not be parsed, reported by validate
	invalid []string
}

// SpotifyConfig holds Spotify API configuration
type SpotifyConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	PlaylistID   string // Existing playlist to append to
	PlaylistName string // Name of a playlist to create
}

// LibraryConfig describes where local tracks are read from
type LibraryConfig struct {
	Path       string
	Separator  string
	Extensions []string
	SkipTags   bool
}

// MatchConfig tunes reconciliation
type MatchConfig struct {
	Threshold    float64
	Workers      int
	Scorer       string
	Escalation   string
	TrackTimeout time.Duration
}

// SearchConfig controls catalog requests
type SearchConfig struct {
	Limit         int
	RatePerSecond float64
}

// MusicBrainzConfig controls the optional recording lookups for unmatched tracks
type MusicBrainzConfig struct {
	Hints bool
}

// Keys recognised in the environment, .env file and overrides
const (
	KeySpotifyClientID     = "SPOTIFY_CLIENT_ID"
	KeySpotifyClientSecret = "SPOTIFY_CLIENT_SECRET"
	KeySpotifyRedirectURI  = "SPOTIFY_REDIRECT_URI"
	KeySpotifyPlaylistID   = "SPOTIFY_PLAYLIST_ID"
	KeySpotifyPlaylistName = "SPOTIFY_PLAYLIST_NAME"
	KeyLibraryPath         = "LIBRARY_PATH"
	KeyLibrarySeparator    = "LIBRARY_SEPARATOR"
	KeyLibraryExtensions   = "LIBRARY_EXTENSIONS"
	KeyLibrarySkipTags     = "LIBRARY_SKIP_TAGS"
	KeyMatchThreshold      = "MATCH_THRESHOLD"
	KeyMatchWorkers        = "MATCH_WORKERS"
	KeyMatchScorer         = "MATCH_SCORER"
	KeyMatchEscalation     = "MATCH_ESCALATION"
	KeyMatchTrackTimeout   = "MATCH_TRACK_TIMEOUT"
	KeySearchLimit         = "SEARCH_LIMIT"
	KeySearchRate          = "SEARCH_RATE"
	KeyMusicBrainzHints    = "MUSICBRAINZ_HINTS"
)

var keys = []string{
	KeySpotifyClientID, KeySpotifyClientSecret, KeySpotifyRedirectURI,
	KeySpotifyPlaylistID, KeySpotifyPlaylistName,
	KeyLibraryPath, KeyLibrarySeparator, KeyLibraryExtensions, KeyLibrarySkipTags,
	KeyMatchThreshold, KeyMatchWorkers, KeyMatchScorer, KeyMatchEscalation, KeyMatchTrackTimeout,
	KeySearchLimit, KeySearchRate, KeyMusicBrainzHints,
}

// Load loads configuration in order:
// 1. Defaults
// 2. OS environment variables (only if they exist)
// 3. .env file (only if it exists and values exist)
func Load() (*Config, error) {
	return LoadWithOverrides(nil)
}

// LoadWithOverrides loads configuration and applies CLI flag overrides last
func LoadWithOverrides(overrides map[string]string) (*Config, error) {
	config := &Config{}

	config.initializeDefaults()
	config.loadFromOSEnv()
	config.loadFromEnvFile()
	config.applyOverrides(overrides)

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// initializeDefaults sets up the initial configuration with default values
func (c *Config) initializeDefaults() {
	c.Spotify = SpotifyConfig{
		RedirectURI: "http://127.0.0.1:9090/callback",
	}

	c.Library = LibraryConfig{
		Separator:  " - ",
		Extensions: []string{"mp3", "flac"},
	}

	c.Match = MatchConfig{
		Threshold:    0.6,
		Workers:      4,
		Scorer:       matcher.ScorerJaroWinkler,
		Escalation:   "score",
		TrackTimeout: 30 * time.Second,
	}

	c.Search = SearchConfig{
		Limit:         20,
		RatePerSecond: 5,
	}
}

// loadFromOSEnv loads configuration from OS environment variables (only if they exist)
func (c *Config) loadFromOSEnv() {
	c.invalid = nil
	for _, key := range keys {
		if value := os.Getenv(key); value != "" {
			c.set(key, value)
		}
	}
}

// loadFromEnvFile loads configuration from .env file (only if it exists and values exist)
func (c *Config) loadFromEnvFile() {
	if err := godotenv.Load(); err != nil {
		// .env file doesn't exist, skip this step
		return
	}

	c.loadFromOSEnv()
}

// applyOverrides applies CLI flag overrides to the configuration (only if they exist)
func (c *Config) applyOverrides(overrides map[string]string) {
	for key, value := range overrides {
		if value == "" {
			continue
		}
		c.set(key, value)
	}
}

// set assigns a single key. The separator is taken verbatim since it is
// usually padded with spaces.
func (c *Config) set(key, value string) {
	if key != KeyLibrarySeparator {
		value = strings.TrimSpace(value)
	}

	switch key {
	case KeySpotifyClientID:
		c.Spotify.ClientID = value
	case KeySpotifyClientSecret:
		c.Spotify.ClientSecret = value
	case KeySpotifyRedirectURI:
		c.Spotify.RedirectURI = value
	case KeySpotifyPlaylistID:
		c.Spotify.PlaylistID = value
	case KeySpotifyPlaylistName:
		c.Spotify.PlaylistName = value
	case KeyLibraryPath:
		c.Library.Path = value
	case KeyLibrarySeparator:
		c.Library.Separator = value
	case KeyLibraryExtensions:
		c.Library.Extensions = parseCommaSeparatedList(value)
	case KeyLibrarySkipTags:
		c.parse(key, value, func(v string) (err error) {
			c.Library.SkipTags, err = strconv.ParseBool(v)
			return
		})
	case KeyMatchThreshold:
		c.parse(key, value, func(v string) (err error) {
			c.Match.Threshold, err = strconv.ParseFloat(v, 64)
			return
		})
	case KeyMatchWorkers:
		c.parse(key, value, func(v string) (err error) {
			c.Match.Workers, err = strconv.Atoi(v)
			return
		})
	case KeyMatchScorer:
		c.Match.Scorer = strings.ToLower(value)
	case KeyMatchEscalation:
		c.Match.Escalation = strings.ToLower(value)
	case KeyMatchTrackTimeout:
		c.parse(key, value, func(v string) (err error) {
			c.Match.TrackTimeout, err = time.ParseDuration(v)
			return
		})
	case KeySearchLimit:
		c.parse(key, value, func(v string) (err error) {
			c.Search.Limit, err = strconv.Atoi(v)
			return
		})
	case KeySearchRate:
		c.parse(key, value, func(v string) (err error) {
			c.Search.RatePerSecond, err = strconv.ParseFloat(v, 64)
			return
		})
	case KeyMusicBrainzHints:
		c.parse(key, value, func(v string) (err error) {
			c.MusicBrainz.Hints, err = strconv.ParseBool(v)
			return
		})
	}
}

func (c *Config) parse(key, value string, fn func(string) error) {
	if err := fn(value); err != nil {
		c.invalid = append(c.invalid, fmt.Sprintf("%s (%q)", key, value))
	}
}

// parseCommaSeparatedList parses a comma-separated string into a slice of trimmed strings
func parseCommaSeparatedList(input string) []string {
	if input == "" {
		return nil
	}

	var items []string
	for _, item := range strings.Split(input, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}

	return items
}

// validate checks that all required configuration values are present and in range
func (c *Config) validate() error {
	var missingFields []string

	if c.Spotify.ClientID == "" {
		missingFields = append(missingFields, KeySpotifyClientID)
	}
	if c.Spotify.ClientSecret == "" {
		missingFields = append(missingFields, KeySpotifyClientSecret)
	}
	if c.Library.Path == "" {
		missingFields = append(missingFields, KeyLibraryPath)
	}
	if len(c.Library.Extensions) == 0 {
		missingFields = append(missingFields, KeyLibraryExtensions)
	}

	if len(missingFields) > 0 {
		return fmt.Errorf("missing required configuration values:\n%s\n\nSet these values via environment variables, .env file, or CLI flags", strings.Join(missingFields, "\n"))
	}

	invalid := append([]string(nil), c.invalid...)

	if c.Match.Threshold < 0 || c.Match.Threshold > 1 {
		invalid = append(invalid, fmt.Sprintf("%s must be between 0 and 1, got %v", KeyMatchThreshold, c.Match.Threshold))
	}
	if c.Match.Workers < 1 {
		invalid = append(invalid, fmt.Sprintf("%s must be at least 1, got %d", KeyMatchWorkers, c.Match.Workers))
	}
	if c.Match.TrackTimeout < 0 {
		invalid = append(invalid, fmt.Sprintf("%s must not be negative, got %s", KeyMatchTrackTimeout, c.Match.TrackTimeout))
	}
	if _, err := matcher.ScorerByName(c.Match.Scorer); err != nil {
		invalid = append(invalid, fmt.Sprintf("%s: %v", KeyMatchScorer, err))
	}
	if _, err := matcher.EscalationByName(c.Match.Escalation); err != nil {
		invalid = append(invalid, fmt.Sprintf("%s: %v", KeyMatchEscalation, err))
	}
	if c.Search.Limit < 1 || c.Search.Limit > 50 {
		invalid = append(invalid, fmt.Sprintf("%s must be between 1 and 50, got %d", KeySearchLimit, c.Search.Limit))
	}
	if c.Search.RatePerSecond <= 0 {
		invalid = append(invalid, fmt.Sprintf("%s must be positive, got %v", KeySearchRate, c.Search.RatePerSecond))
	}

	if len(invalid) > 0 {
		return fmt.Errorf("invalid configuration values:\n%s", strings.Join(invalid, "\n"))
	}

	return nil
}
