package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	// dev-only secret, rejected by Validate outside local
	defaultJWTSecret = "local-dev-secret-change-me"
)

type Config struct {
	Env      string `yaml:"env"`
	HTTPAddr string `yaml:"http_addr"`
	LogLevel string `yaml:"log_level"`

	DBDriver   string `yaml:"db_driver"`
	DBHost     string `yaml:"db_host"`
	DBPort     int    `yaml:"db_port"`
	DBUser     string `yaml:"db_user"`
	DBPassword string `yaml:"db_password"`
	DBName     string `yaml:"db_name"`
	DBSSLMode  string `yaml:"db_sslmode"`
	SQLitePath string `yaml:"sqlite_path"`

	JWTSecret    string        `yaml:"jwt_secret"`
	TokenTTL     time.Duration `yaml:"token_ttl"`
	CookieSecure bool          `yaml:"cookie_secure"`

	CacheTTL        time.Duration `yaml:"cache_ttl"`
	CacheMaxEntries int           `yaml:"cache_max_entries"`
	RedisAddr       string        `yaml:"redis_addr"`

	CORSOrigins []string `yaml:"cors_origins"`
	Timezone    string   `yaml:"timezone"`

	TaskPageSize    int `yaml:"task_page_size"`
	CostPageSize    int `yaml:"cost_page_size"`
	ProjectPageSize int `yaml:"project_page_size"`
}

func Default() *Config {
	return &Config{
		Env:             EnvLocal,
		HTTPAddr:        ":8080",
		LogLevel:        "",
		DBDriver:        DriverPostgres,
		DBPort:          5432,
		DBSSLMode:       "disable",
		SQLitePath:      "buildboard.db",
		JWTSecret:       "",
		TokenTTL:        24 * time.Hour,
		CacheTTL:        60 * time.Second,
		CacheMaxEntries: 1000,
		CORSOrigins:     []string{"http://localhost:3000"},
		Timezone:        "UTC",
		TaskPageSize:    10,
		CostPageSize:    10,
		ProjectPageSize: 6,
	}
}

// Load builds the config from defaults, then the optional CONFIG_FILE yaml, then env.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv(os.Getenv)

	if cfg.JWTSecret == "" && cfg.Env == EnvLocal {
		cfg.JWTSecret = defaultJWTSecret
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	setString(&c.Env, getenv("APP_ENV"))
	setString(&c.HTTPAddr, getenv("HTTP_ADDR"))
	setString(&c.LogLevel, getenv("LOG_LEVEL"))

	setString(&c.DBDriver, getenv("DB_DRIVER"))
	setString(&c.DBHost, getenv("DB_HOST"))
	setInt(&c.DBPort, getenv("DB_PORT"))
	setString(&c.DBUser, getenv("DB_USER"))
	setString(&c.DBPassword, getenv("DB_PASSWORD"))
	setString(&c.DBName, getenv("DB_NAME"))
	setString(&c.DBSSLMode, getenv("DB_SSLMODE"))
	setString(&c.SQLitePath, getenv("SQLITE_PATH"))

	setString(&c.JWTSecret, getenv("JWT_SECRET"))
	setDuration(&c.TokenTTL, getenv("TOKEN_TTL"))
	setBool(&c.CookieSecure, getenv("COOKIE_SECURE"))

	setDuration(&c.CacheTTL, getenv("CACHE_TTL"))
	setInt(&c.CacheMaxEntries, getenv("CACHE_MAX_ENTRIES"))
	setString(&c.RedisAddr, getenv("REDIS_ADDR"))

	if v := strings.TrimSpace(getenv("CORS_ORIGINS")); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.CORSOrigins = origins
	}
	setString(&c.Timezone, getenv("TIMEZONE"))

	setInt(&c.TaskPageSize, getenv("TASK_PAGE_SIZE"))
	setInt(&c.CostPageSize, getenv("COST_PAGE_SIZE"))
	setInt(&c.ProjectPageSize, getenv("PROJECT_PAGE_SIZE"))
}

func (c *Config) Validate() error {
	switch c.Env {
	case EnvLocal, EnvDev, EnvProd:
	default:
		return fmt.Errorf("unknown APP_ENV %q", c.Env)
	}
	switch c.DBDriver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unknown DB_DRIVER %q", c.DBDriver)
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.Env != EnvLocal && c.JWTSecret == defaultJWTSecret {
		return errors.New("JWT_SECRET must be set outside local env")
	}
	if c.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}
	if c.CacheTTL <= 0 {
		return errors.New("CACHE_TTL must be positive")
	}
	if c.CacheMaxEntries < 0 {
		return errors.New("CACHE_MAX_ENTRIES must not be negative")
	}
	if c.TaskPageSize <= 0 || c.CostPageSize <= 0 || c.ProjectPageSize <= 0 {
		return errors.New("page sizes must be positive")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("TIMEZONE: %w", err)
	}
	return nil
}

// Location is the zone used to interpret date-only filters. Validate guarantees it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) ConnString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

// DataSource returns the driver name and DSN for the configured database.
func (c *Config) DataSource() (string, string) {
	if c.DBDriver == DriverSQLite {
		return DriverSQLite, c.SQLitePath
	}
	return DriverPostgres, c.ConnString()
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func setInt(dst *int, v string) {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return // fallback keeps the previous value
	}
	*dst = n
}

func setBool(dst *bool, v string) {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return
	}
	*dst = b
}

func setDuration(dst *time.Duration, v string) {
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		return
	}
	*dst = d
}
