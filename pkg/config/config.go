package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for gridsync-engine.
// Configuration can come from YAML file (config.yaml) or environment
// variables. Environment variables override YAML values for fields that
// support both. Secrets (passwords, keys) must only come from environment
// variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"3680"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Database configuration (PostgreSQL, backs the document store)
	Database DatabaseConfig `yaml:"database"`

	// Redis configuration (persistent cache; optional)
	Redis RedisConfig `yaml:"redis"`

	// Sheets access configuration
	Sheets SheetsConfig `yaml:"sheets"`

	// Dashboard aggregation defaults
	Dashboard DashboardConfig `yaml:"dashboard"`

	// Operator accounts and session settings
	Auth AuthConfig `yaml:"auth"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"gridsync"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"gridsync_engine"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"10"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MigrationsPath string `yaml:"migrations_path" env:"PGMIGRATIONS_PATH" env-default:"migrations"`
}

// RedisConfig holds Redis configuration for the persistent cache.
// Redis is optional: an empty host disables the persistent cache layer.
type RedisConfig struct {
	Host     string `yaml:"host" env:"REDIS_HOST" env-default:""`
	Port     int    `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string `yaml:"-" env:"REDIS_PASSWORD"` // Secret - not in YAML
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

// SheetsConfig holds sheet-access settings: the backend proxy location,
// the public REST endpoint, and the cache windows for probe results.
type SheetsConfig struct {
	ProxyBaseURL string `yaml:"proxy_base_url" env:"SHEETS_PROXY_BASE_URL" env-default:"http://localhost:8090"`
	PublicAPIURL string `yaml:"public_api_url" env:"SHEETS_PUBLIC_API_URL" env-default:"https://sheets.googleapis.com/v4"`

	// HealthCacheMinutes is how long a proxy health-check result is trusted.
	HealthCacheMinutes int `yaml:"health_cache_minutes" env:"SHEETS_HEALTH_CACHE_MINUTES" env-default:"5"`
	// SheetListCacheMinutes is how long a discovered tab list is reused.
	SheetListCacheMinutes int `yaml:"sheet_list_cache_minutes" env:"SHEETS_LIST_CACHE_MINUTES" env-default:"30"`
	// SheetListMaxAgeHours is how long a database's cached tab list is
	// considered current before an opportunistic re-probe.
	SheetListMaxAgeHours int `yaml:"sheet_list_max_age_hours" env:"SHEETS_LIST_MAX_AGE_HOURS" env-default:"24"`
	// RequestTimeoutSeconds bounds every outbound sheets call.
	RequestTimeoutSeconds int `yaml:"request_timeout_seconds" env:"SHEETS_REQUEST_TIMEOUT_SECONDS" env-default:"30"`
}

// HealthCacheTTL returns the proxy health-check cache window.
func (c *SheetsConfig) HealthCacheTTL() time.Duration {
	return time.Duration(c.HealthCacheMinutes) * time.Minute
}

// SheetListCacheTTL returns the tab-list cache window.
func (c *SheetsConfig) SheetListCacheTTL() time.Duration {
	return time.Duration(c.SheetListCacheMinutes) * time.Minute
}

// SheetListMaxAge returns how long a database's cached tab list stays fresh.
func (c *SheetsConfig) SheetListMaxAge() time.Duration {
	return time.Duration(c.SheetListMaxAgeHours) * time.Hour
}

// RequestTimeout returns the outbound request deadline.
func (c *SheetsConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// DashboardConfig holds aggregation defaults.
type DashboardConfig struct {
	// NoiseToken deprioritizes variable names containing it during
	// amount/date/location field resolution.
	NoiseToken string `yaml:"noise_token" env:"DASHBOARD_NOISE_TOKEN" env-default:"_plus"`
}

// UserConfig is one fixed operator account. Passwords live in YAML here
// because the deployment is a single-operator dashboard with a handful of
// named users; rotate by editing the file.
type UserConfig struct {
	Username    string   `yaml:"username"`
	DisplayName string   `yaml:"display_name"`
	Password    string   `yaml:"password"`
	Role        string   `yaml:"role"`
	Screens     []string `yaml:"screens"`
}

// AuthConfig holds session and operator-account configuration.
type AuthConfig struct {
	// SessionSecret signs session cookies. Secret - env only.
	SessionSecret string `yaml:"-" env:"SESSION_SECRET" env-default:"dev-session-secret"`
	// SessionMaxAgeMinutes bounds how long a login lasts.
	SessionMaxAgeMinutes int `yaml:"session_max_age_minutes" env:"SESSION_MAX_AGE_MINUTES" env-default:"720"`
	// Users is the fixed operator account list.
	Users []UserConfig `yaml:"users"`
}

// Load reads configuration from config.yaml with environment variable
// overrides. The version parameter is injected at build time and set on the
// returned Config.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		return nil, fmt.Errorf("failed to read config.yaml: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	seen := make(map[string]bool, len(c.Auth.Users))
	for _, u := range c.Auth.Users {
		if u.Username == "" {
			return fmt.Errorf("user with empty username")
		}
		if seen[u.Username] {
			return fmt.Errorf("duplicate username %q", u.Username)
		}
		seen[u.Username] = true
		if u.Role != "admin" && u.Role != "viewer" {
			return fmt.Errorf("user %q has invalid role %q", u.Username, u.Role)
		}
	}
	return nil
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
