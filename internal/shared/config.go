package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"
)

//go:embed config.example.toml
var exampleConf []byte

// EnvPrefix is the prefix for environment variable overrides, e.g. TELTUBE_ENDPOINTS_UPLOAD_URL.
const EnvPrefix = "teltube"

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Endpoints   EndpointsConfig   `toml:"endpoints" envconfig:"endpoints"`
	Credentials CredentialsConfig `toml:"credentials" envconfig:"credentials"`
	Database    DatabaseConfig    `toml:"database" envconfig:"database"`
	Server      ServerConfig      `toml:"server" envconfig:"server"`
	Upload      UploadConfig      `toml:"upload" envconfig:"upload"`
}

// EndpointsConfig contains the remote identity, upload and catalog endpoint URLs.
type EndpointsConfig struct {
	IdentityURL    string  `toml:"identity_url" envconfig:"identity_url"`
	UploadURL      string  `toml:"upload_url" envconfig:"upload_url"`
	CatalogURL     string  `toml:"catalog_url" envconfig:"catalog_url"`
	TimeoutSeconds int     `toml:"timeout_seconds" envconfig:"timeout_seconds"`
	RateLimit      float64 `toml:"rate_limit" envconfig:"rate_limit"` // requests per second, 0 disables limiting
}

// Timeout returns the HTTP client timeout; zero means no timeout.
func (e EndpointsConfig) Timeout() time.Duration {
	if e.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(e.TimeoutSeconds) * time.Second
}

// CredentialsConfig contains identity-provider credentials.
type CredentialsConfig struct {
	Google GoogleConfig `toml:"google" envconfig:"google"`
}

// GoogleConfig contains Google OAuth2 client credentials used for sign-in.
type GoogleConfig struct {
	ClientID     string `toml:"client_id" envconfig:"client_id"`
	ClientSecret string `toml:"client_secret" envconfig:"client_secret"`
	RedirectURI  string `toml:"redirect_uri" envconfig:"redirect_uri"`
}

// DatabaseConfig contains local database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path" envconfig:"path"`
	MaxOpenConns int    `toml:"max_open_conns" envconfig:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns" envconfig:"max_idle_conns"`
}

// ServerConfig contains the local OAuth callback listener settings.
type ServerConfig struct {
	Host string `toml:"host" envconfig:"host"`
	Port int    `toml:"port" envconfig:"port"`
}

// Addr returns host:port for the callback listener.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// UploadConfig contains upload pipeline limits.
type UploadConfig struct {
	MaxFileMB    int  `toml:"max_file_mb" envconfig:"max_file_mb"` // 0 disables the size check
	SingleFlight bool `toml:"single_flight" envconfig:"single_flight"`
}

// MaxFileBytes returns the upload size cap in bytes, or 0 when unlimited.
func (u UploadConfig) MaxFileBytes() int64 {
	if u.MaxFileMB <= 0 {
		return 0
	}
	return int64(u.MaxFileMB) << 20
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

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

// ApplyEnv overlays TELTUBE_* environment variables onto config.
//
// Only variables that are set replace values; everything else keeps what the TOML file provided.
func ApplyEnv(config *Config) error {
	if err := envconfig.Process(EnvPrefix, config); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
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
