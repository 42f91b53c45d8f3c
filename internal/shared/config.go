package shared

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"golang.org/x/oauth2"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
// It is passed explicitly to constructors; the matching pipeline never reads
// the environment.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Matching    MatchingConfig    `toml:"matching"`
	Library     LibraryConfig     `toml:"library"`
	Backup      BackupConfig      `toml:"backup"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
}

// CredentialsConfig contains service credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify API credentials and the persisted token.
type SpotifyConfig struct {
	ClientID     string      `toml:"client_id"`
	ClientSecret string      `toml:"client_secret"`
	RedirectURI  string      `toml:"redirect_uri"`
	Token        TokenConfig `toml:"token"`
}

// TokenConfig persists an OAuth token between runs.
type TokenConfig struct {
	AccessToken  string    `toml:"access_token"`
	RefreshToken string    `toml:"refresh_token"`
	TokenType    string    `toml:"token_type"`
	Expiry       time.Time `toml:"expiry"`
}

// Validate reports which credential fields are missing, wrapped in
// [ErrMissingCredentials], so callers can fail before any catalog call.
func (c CredentialsConfig) Validate() error {
	var missing []string
	if c.Spotify.ClientID == "" {
		missing = append(missing, "spotify client_id")
	}
	if c.Spotify.ClientSecret == "" {
		missing = append(missing, "spotify client_secret")
	}
	if c.Spotify.RedirectURI == "" {
		missing = append(missing, "spotify redirect_uri")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingCredentials, strings.Join(missing, ", "))
	}
	return nil
}

// OAuthToken returns the persisted token as an [oauth2.Token], or nil when no
// token has been stored yet.
func (s SpotifyConfig) OAuthToken() *oauth2.Token {
	if s.Token.AccessToken == "" && s.Token.RefreshToken == "" {
		return nil
	}
	return &oauth2.Token{
		AccessToken:  s.Token.AccessToken,
		RefreshToken: s.Token.RefreshToken,
		TokenType:    s.Token.TokenType,
		Expiry:       s.Token.Expiry,
	}
}

// Update stores tok on the config so a later [SaveConfig] persists it.
func (s *SpotifyConfig) Update(tok *oauth2.Token) {
	if tok == nil {
		return
	}
	s.Token = TokenConfig{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		Expiry:       tok.Expiry,
	}
}

// MatchingConfig tunes the match pipeline: encoding repair, catalog pacing,
// and batch retry behavior.
type MatchingConfig struct {
	FallbackEncoding string  `toml:"fallback_encoding"`
	MinConfidence    float64 `toml:"min_confidence"`
	BatchSize        int     `toml:"batch_size"`
	MaxRetries       int     `toml:"max_retries"`
	RetryBackoffMS   int     `toml:"retry_backoff_ms"`
	QueryDelayMS     int     `toml:"query_delay_ms"`
	PauseEvery       int     `toml:"pause_every"`
	PauseMS          int     `toml:"pause_ms"`
}

// QueryDelay is the wait between consecutive catalog queries for one song.
func (m MatchingConfig) QueryDelay() time.Duration {
	return time.Duration(m.QueryDelayMS) * time.Millisecond
}

// Pause is the extra wait inserted every [MatchingConfig.PauseEvery] songs.
func (m MatchingConfig) Pause() time.Duration {
	return time.Duration(m.PauseMS) * time.Millisecond
}

// Backoff returns the linear backoff before retry attempt n (zero-based).
func (m MatchingConfig) Backoff(attempt int) time.Duration {
	return time.Duration(m.RetryBackoffMS*(attempt+1)) * time.Millisecond
}

// LibraryConfig controls which files the library scanner picks up.
type LibraryConfig struct {
	Extensions []string `toml:"extensions"`
}

// BackupConfig controls where playlist backups are written.
type BackupConfig struct {
	Dir string `toml:"dir"`
}

// Resolve returns the backup directory, defaulting to
// ~/Documents/MP3toSpotify/backups when unset.
func (b BackupConfig) Resolve() (string, error) {
	if b.Dir != "" {
		return b.Dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate home directory: %w", err)
	}
	return filepath.Join(home, "Documents", "MP3toSpotify", "backups"), nil
}

// DatabaseConfig contains run-history database settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains OAuth callback server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	return &config, nil
}

// SaveConfig writes the configuration back to path as TOML, creating parent
// directories as needed. Used to persist refreshed tokens.
func SaveConfig(path string, config *Config) error {
	data, err := toml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
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
