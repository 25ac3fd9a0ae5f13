package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./teltube.db" {
			t.Errorf("expected database path ./teltube.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 3000 {
			t.Errorf("expected server port 3000, got %d", config.Server.Port)
		}

		if config.Endpoints.UploadURL != "http://127.0.0.1:8080/upload" {
			t.Errorf("expected upload URL http://127.0.0.1:8080/upload, got %s", config.Endpoints.UploadURL)
		}

		if config.Credentials.Google.ClientID != "your_google_client_id" {
			t.Errorf("expected google client_id your_google_client_id, got %s", config.Credentials.Google.ClientID)
		}

		if config.Upload.SingleFlight {
			t.Error("expected single flight to be disabled by default")
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Database.Path != defaultConfig.Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[endpoints]
identity_url = "https://api.example.com/auth"
upload_url = "https://api.example.com/upload"
catalog_url = "https://api.example.com/videos"
timeout_seconds = 30
rate_limit = 2.5

[database]
path = "/custom/path.db"
max_open_conns = 2
max_idle_conns = 1

[server]
host = "0.0.0.0"
port = 8081

[credentials.google]
client_id = "test_client_id"
client_secret = "test_secret"
redirect_uri = "http://localhost:8081/callback"

[upload]
max_file_mb = 64
single_flight = true
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}

		if config.Server.Addr() != "0.0.0.0:8081" {
			t.Errorf("expected server addr 0.0.0.0:8081, got %s", config.Server.Addr())
		}

		if config.Endpoints.Timeout() != 30*time.Second {
			t.Errorf("expected 30s timeout, got %v", config.Endpoints.Timeout())
		}

		if config.Endpoints.RateLimit != 2.5 {
			t.Errorf("expected rate limit 2.5, got %v", config.Endpoints.RateLimit)
		}

		if config.Upload.MaxFileBytes() != 64<<20 {
			t.Errorf("expected 64MiB cap, got %d", config.Upload.MaxFileBytes())
		}

		if !config.Upload.SingleFlight {
			t.Error("expected single flight to be enabled")
		}

		if config.Credentials.Google.ClientID != "test_client_id" {
			t.Errorf("expected google client_id test_client_id, got %s", config.Credentials.Google.ClientID)
		}
	})

	t.Run("LoadConfig With Invalid TOML", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[endpoints\nnope"), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfig(configPath); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("ApplyEnv", func(t *testing.T) {
		t.Setenv("TELTUBE_ENDPOINTS_UPLOAD_URL", "https://cdn.example.com/upload")
		t.Setenv("TELTUBE_UPLOAD_SINGLE_FLIGHT", "true")
		t.Setenv("TELTUBE_DATABASE_PATH", "/tmp/env.db")

		config := DefaultConfig()
		if err := ApplyEnv(config); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if config.Endpoints.UploadURL != "https://cdn.example.com/upload" {
			t.Errorf("expected env upload URL, got %s", config.Endpoints.UploadURL)
		}
		if !config.Upload.SingleFlight {
			t.Error("expected single flight from env")
		}
		if config.Database.Path != "/tmp/env.db" {
			t.Errorf("expected env database path, got %s", config.Database.Path)
		}
		if config.Endpoints.IdentityURL != "http://127.0.0.1:8080/auth" {
			t.Errorf("expected unset values to keep defaults, got %s", config.Endpoints.IdentityURL)
		}
	})

	t.Run("ApplyEnv With Invalid Value", func(t *testing.T) {
		t.Setenv("TELTUBE_SERVER_PORT", "not-a-port")

		if err := ApplyEnv(DefaultConfig()); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}
