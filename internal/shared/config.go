package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Unanet   UnanetConfig   `toml:"unanet"`
	Storage  StorageConfig  `toml:"storage"`
	Blobs    BlobsConfig    `toml:"blobs"`
	Fetch    FetchConfig    `toml:"fetch"`
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
}

// UnanetConfig contains the Unanet tenant location and credentials.
type UnanetConfig struct {
	BaseURL           string  `toml:"base_url"`
	Username          string  `toml:"username"`
	Password          string  `toml:"password"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
}

// Timeout returns the per-request timeout as a [time.Duration].
func (u UnanetConfig) Timeout() time.Duration {
	return time.Duration(u.TimeoutSeconds) * time.Second
}

// StorageConfig selects the blob store backend.
type StorageConfig struct {
	Driver string `toml:"driver"`
	Dir    string `toml:"dir"`
}

// BlobsConfig names the blobs each job reads and writes.
type BlobsConfig struct {
	PlannedMatrix      string `toml:"planned_matrix"`
	LaborCategory      string `toml:"labor_category"`
	Projects           string `toml:"projects"`
	Invoices           string `toml:"invoices"`
	FixedPriceSchedule string `toml:"fixed_price_schedule"`
	LeaveRequests      string `toml:"leave_requests"`
	People             string `toml:"people"`
}

// FetchConfig contains the scan bounds used by the refresh jobs.
type FetchConfig struct {
	PlannedTimeStart     int    `toml:"planned_time_start"`
	PlannedTimeMaxMisses int    `toml:"planned_time_max_misses"`
	ProjectLimit         int    `toml:"project_limit"`
	InvoiceMaxMisses     int    `toml:"invoice_max_misses"`
	ItemWorkers          int    `toml:"item_workers"`
	LeaveRequestsQuery   string `toml:"leave_requests_query"`
	PeopleQuery          string `toml:"people_query"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr returns the host:port pair the server listens on.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the values of [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return config, nil
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

// ApplyEnv overrides credentials and the tenant URL from the environment.
//
// lookup defaults to [os.LookupEnv].
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if v, ok := lookup("UNANET_BASE_URL"); ok && v != "" {
		c.Unanet.BaseURL = v
	}
	if v, ok := lookup("UNANET_USERNAME"); ok && v != "" {
		c.Unanet.Username = v
	}
	if v, ok := lookup("UNANET_PASSWORD"); ok && v != "" {
		c.Unanet.Password = v
	}
	if v, ok := lookup("UNANETX_STORAGE_DIR"); ok && v != "" {
		c.Storage.Dir = v
	}
}

// Validate reports configuration that cannot work at all.
//
// Credentials are checked by the jobs that need them, not here.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "file", "bolt":
		if c.Storage.Dir == "" {
			return fmt.Errorf("%w: storage.dir is required for the %s driver", ErrInvalidConfig, c.Storage.Driver)
		}
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("%w: database.path is required for the sqlite driver", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown storage driver %q", ErrInvalidConfig, c.Storage.Driver)
	}
	if c.Blobs.PlannedMatrix == "" || c.Blobs.LaborCategory == "" {
		return fmt.Errorf("%w: blobs.planned_matrix and blobs.labor_category are required", ErrInvalidConfig)
	}
	return nil
}

// HasCredentials reports whether both Unanet username and password are set.
func (u UnanetConfig) HasCredentials() bool {
	return u.Username != "" && u.Password != ""
}
