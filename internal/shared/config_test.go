package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./unanetx.db" {
			t.Errorf("expected database path ./unanetx.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 7071 {
			t.Errorf("expected server port 7071, got %d", config.Server.Port)
		}

		if config.Unanet.BaseURL != "https://oteemo.unanet.biz" {
			t.Errorf("unexpected unanet base URL %s", config.Unanet.BaseURL)
		}

		if config.Blobs.LaborCategory != "Labor Category.csv" {
			t.Errorf("expected labor category blob 'Labor Category.csv', got %s", config.Blobs.LaborCategory)
		}

		if config.Fetch.PlannedTimeStart != 2000 || config.Fetch.PlannedTimeMaxMisses != 200 {
			t.Errorf("unexpected planned time scan bounds %+v", config.Fetch)
		}

		if err := config.Validate(); err != nil {
			t.Errorf("default config should validate: %v", err)
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

		testConfig := `[database]
path = "/custom/path.db"

[server]
host = "0.0.0.0"
port = 8080

[unanet]
base_url = "https://example.unanet.biz"
username = "svc"

[storage]
driver = "sqlite"
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

		if config.Server.Addr() != "0.0.0.0:8080" {
			t.Errorf("expected addr 0.0.0.0:8080, got %s", config.Server.Addr())
		}

		if config.Unanet.Username != "svc" {
			t.Errorf("expected username svc, got %s", config.Unanet.Username)
		}

		if config.Blobs.PlannedMatrix != "planned_matrix.csv" {
			t.Errorf("expected omitted keys to keep defaults, got %q", config.Blobs.PlannedMatrix)
		}

		if config.Storage.Driver != "sqlite" {
			t.Errorf("expected sqlite driver, got %s", config.Storage.Driver)
		}
	})

	t.Run("LoadConfig with malformed file", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[server\nport ="), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		_, err := LoadConfig(configPath)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("ApplyEnv", func(t *testing.T) {
		config := DefaultConfig()
		env := map[string]string{
			"UNANET_USERNAME": "env-user",
			"UNANET_PASSWORD": "env-pass",
			"UNANET_BASE_URL": "",
		}
		config.ApplyEnv(func(k string) (string, bool) {
			v, ok := env[k]
			return v, ok
		})

		if config.Unanet.Username != "env-user" || config.Unanet.Password != "env-pass" {
			t.Errorf("expected credentials from env, got %+v", config.Unanet)
		}
		if config.Unanet.BaseURL != "https://oteemo.unanet.biz" {
			t.Errorf("empty env value should not override base URL, got %s", config.Unanet.BaseURL)
		}
		if !config.Unanet.HasCredentials() {
			t.Error("expected HasCredentials to be true")
		}
	})

	t.Run("Validate", func(t *testing.T) {
		config := DefaultConfig()
		config.Storage.Driver = "s3"
		if err := config.Validate(); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig for unknown driver, got %v", err)
		}

		config = DefaultConfig()
		config.Storage.Dir = ""
		if err := config.Validate(); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig for empty dir, got %v", err)
		}

		config = DefaultConfig()
		config.Storage.Driver = "bolt"
		if err := config.Validate(); err != nil {
			t.Errorf("expected bolt driver with a directory to validate, got %v", err)
		}
		config.Storage.Dir = ""
		if err := config.Validate(); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig for bolt without dir, got %v", err)
		}
	})
}
