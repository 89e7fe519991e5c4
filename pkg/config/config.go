package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/user/equipment-scraper/internal/entity"
)

// Store drivers accepted by STORE_DRIVER.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds the application configuration.
type Config struct {
	ServerPort string `mapstructure:"SERVER_PORT"`
	LogLevel   string `mapstructure:"LOG_LEVEL"`

	StoreDriver string `mapstructure:"STORE_DRIVER"`
	SQLitePath  string `mapstructure:"SQLITE_PATH"`
	PostgresURL string `mapstructure:"POSTGRES_URL"`

	// An empty RedisAddr keeps locking in-process and disables the dedup window.
	RedisAddr      string `mapstructure:"REDIS_ADDR"`
	RedisPassword  string `mapstructure:"REDIS_PASSWORD"`
	RedisDB        int    `mapstructure:"REDIS_DB"`
	LockTTLSeconds int    `mapstructure:"LOCK_TTL_SECONDS"`
	DedupTTLHours  int    `mapstructure:"DEDUP_TTL_HOURS"`

	HTTPTimeoutSeconds     int    `mapstructure:"HTTP_TIMEOUT_SECONDS"`
	HTTPRetries            int    `mapstructure:"HTTP_RETRIES"`
	HTTPRetryWaitSeconds   int    `mapstructure:"HTTP_RETRY_WAIT_SECONDS"`
	PageLoadTimeoutSeconds int    `mapstructure:"PAGE_LOAD_TIMEOUT_SECONDS"`
	RenderSettleMS         int    `mapstructure:"RENDER_SETTLE_MS"`
	UserAgents             string `mapstructure:"USER_AGENTS"`
	Proxies                string `mapstructure:"PROXIES"`

	DatasetsFile string `mapstructure:"DATASETS_FILE"`
}

var defaults = map[string]any{
	"SERVER_PORT":               "8080",
	"LOG_LEVEL":                 "info",
	"STORE_DRIVER":              DriverSQLite,
	"SQLITE_PATH":               "equipment_data.db",
	"POSTGRES_URL":              "",
	"REDIS_ADDR":                "",
	"REDIS_PASSWORD":            "",
	"REDIS_DB":                  0,
	"LOCK_TTL_SECONDS":          30,
	"DEDUP_TTL_HOURS":           0,
	"HTTP_TIMEOUT_SECONDS":      30,
	"HTTP_RETRIES":              5,
	"HTTP_RETRY_WAIT_SECONDS":   5,
	"PAGE_LOAD_TIMEOUT_SECONDS": 60,
	"RENDER_SETTLE_MS":          1500,
	"USER_AGENTS":               "",
	"PROXIES":                   "",
	"DATASETS_FILE":             "datasets.yaml",
}

// Load reads configuration from a .env file in the working directory and
// the environment. Environment variables win over the file.
func Load() (*Config, error) {
	return load(".env")
}

func load(envFile string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(envFile)
	v.SetConfigType("env")
	v.AutomaticEnv()

	// A missing .env is fine; production configures through the environment.
	_ = v.ReadInConfig()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	c.StoreDriver = strings.ToLower(strings.TrimSpace(c.StoreDriver))
	switch c.StoreDriver {
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the %s driver", DriverSQLite)
		}
	case DriverPostgres:
		if c.PostgresURL == "" {
			return fmt.Errorf("POSTGRES_URL is required for the %s driver", DriverPostgres)
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.HTTPRetries < 0 {
		return fmt.Errorf("HTTP_RETRIES must not be negative")
	}
	return nil
}

func (c *Config) LockTTL() time.Duration {
	return time.Duration(c.LockTTLSeconds) * time.Second
}

// DedupTTL is zero when the dedup window is off.
func (c *Config) DedupTTL() time.Duration {
	return time.Duration(c.DedupTTLHours) * time.Hour
}

func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}

func (c *Config) HTTPRetryWait() time.Duration {
	return time.Duration(c.HTTPRetryWaitSeconds) * time.Second
}

func (c *Config) PageLoadTimeout() time.Duration {
	return time.Duration(c.PageLoadTimeoutSeconds) * time.Second
}

func (c *Config) RenderSettle() time.Duration {
	return time.Duration(c.RenderSettleMS) * time.Millisecond
}

// UserAgentList splits the comma-separated USER_AGENTS value.
func (c *Config) UserAgentList() []string {
	return splitList(c.UserAgents)
}

// ProxyList splits the comma-separated PROXIES value.
func (c *Config) ProxyList() []string {
	return splitList(c.Proxies)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// DatasetsFile is the layout of the dataset definitions file.
type DatasetsFile struct {
	Datasets []entity.Dataset `yaml:"datasets"`
}

// LoadDatasets reads dataset definitions from a YAML file. Dataset names
// must be unique and every dataset needs a table and a source kind.
func LoadDatasets(path string) ([]entity.Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read datasets file: %w", err)
	}
	var file DatasetsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse datasets file %s: %w", path, err)
	}

	seen := make(map[string]bool, len(file.Datasets))
	for i := range file.Datasets {
		ds := &file.Datasets[i]
		if ds.Name == "" {
			return nil, fmt.Errorf("dataset #%d has no name", i+1)
		}
		if seen[ds.Name] {
			return nil, fmt.Errorf("dataset %q is defined twice", ds.Name)
		}
		seen[ds.Name] = true
		if ds.Table == "" {
			ds.Table = ds.Name
		}
		if ds.Source.Kind == "" {
			return nil, fmt.Errorf("dataset %q has no source kind", ds.Name)
		}
	}
	return file.Datasets, nil
}
