package shared

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Paths       PathsConfig       `toml:"paths"`
	Downloads   DownloadsConfig   `toml:"downloads"`
	Server      ServerConfig      `toml:"server"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify   SpotifyConfig   `toml:"spotify"`
	YTDLP     YTDLPConfig     `toml:"ytdlp"`
	Navidrome NavidromeConfig `toml:"navidrome"`
}

// SpotifyConfig contains Spotify API credentials for the client-credentials flow.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
}

// YTDLPConfig points at the yt-dlp sidecar API.
type YTDLPConfig struct {
	APIURL      string `toml:"api_url"`
	HeadersPath string `toml:"headers_path"`
}

// NavidromeConfig contains Navidrome (Subsonic API) connection settings.
type NavidromeConfig struct {
	URL      string `toml:"url"`
	Username string `toml:"username"`
	Password string `toml:"password"`
}

// PathsConfig contains filesystem locations for downloads.
type PathsConfig struct {
	Downloads      string `toml:"downloads"`
	NavidromeMusic string `toml:"navidrome_music"`
}

// DownloadsConfig tunes the download engine.
type DownloadsConfig struct {
	Workers           int     `toml:"workers"`
	RateLimit         float64 `toml:"rate_limit"`
	SearchLimit       int     `toml:"search_limit"`
	MatchThreshold    float64 `toml:"match_threshold"`
	DurationTolerance int     `toml:"duration_tolerance_secs"`
	CleanupGrace      int     `toml:"cleanup_grace_secs"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// LoadConfig reads and parses a TOML configuration file from the specified
// path, then applies environment overrides.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyEnv(&config)
	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// ApplyEnv overrides config values from environment variables. A .env file in
// the working directory is loaded first when present.
func ApplyEnv(c *Config) {
	_ = godotenv.Load()

	setString := func(target *string, key string) {
		if v := os.Getenv(key); v != "" {
			*target = v
		}
	}

	setString(&c.Credentials.Spotify.ClientID, "SPOTIFY_CLIENT_ID")
	setString(&c.Credentials.Spotify.ClientSecret, "SPOTIFY_CLIENT_SECRET")
	setString(&c.Credentials.YTDLP.APIURL, "YTDLP_API_URL")
	setString(&c.Credentials.YTDLP.HeadersPath, "YTDLP_HEADERS_PATH")
	setString(&c.Credentials.Navidrome.URL, "NAVIDROME_URL")
	setString(&c.Credentials.Navidrome.Username, "NAVIDROME_USER")
	setString(&c.Credentials.Navidrome.Password, "NAVIDROME_PASSWORD")
	setString(&c.Paths.Downloads, "DOWNLOADS_PATH")
	setString(&c.Paths.NavidromeMusic, "NAVIDROME_MUSIC_PATH")
	setString(&c.Server.Host, "HOST")

	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
}

// SaveConfig writes the config to the specified path as TOML.
func SaveConfig(path string, config *Config) error {
	if config == nil {
		return fmt.Errorf("%w: config is nil", ErrInvalidConfig)
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SpotifyConfigured reports whether catalog credentials are present.
func (c *Config) SpotifyConfigured() bool {
	return c.Credentials.Spotify.ClientID != "" && c.Credentials.Spotify.ClientSecret != ""
}

// NavidromeConfigured reports whether the library destination is usable:
// a music directory to copy into plus server credentials for rescans.
func (c *Config) NavidromeConfigured() bool {
	return c.Paths.NavidromeMusic != "" &&
		c.Credentials.Navidrome.URL != "" &&
		c.Credentials.Navidrome.Username != "" &&
		c.Credentials.Navidrome.Password != ""
}

// Addr returns the host:port pair the HTTP server binds to.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
