// Package config loads gateway and CLI settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/subosito/gotenv"
)

const (
	StoreMemory = "memory"
	StoreMySQL  = "mysql"
	StoreSQLite = "sqlite"
)

type Config struct {
	AppEnv   string
	Port     string
	LogLevel string
	LogDir   string

	// Backend REST API
	APIBaseURL      string
	UpstreamTimeout time.Duration
	PageSize        int

	// Session storage
	SessionStore  string
	SessionSecret string
	DBUser        string
	DBPass        string
	DBHost        string
	DBPort        string
	DBName        string
	FullDSN       string
	SQLitePath    string

	CORSOrigins []string

	// Terminal client
	CLIHome       string
	CLIPassphrase string
}

func Default() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return &Config{
		AppEnv:          "development",
		Port:            "8080",
		LogLevel:        "info",
		LogDir:          "./logging/logs",
		UpstreamTimeout: 15 * time.Second,
		PageSize:        12,
		SessionStore:    StoreMemory,
		DBName:          "intelliwealth",
		SQLitePath:      "intelliwealth.db",
		CORSOrigins:     []string{"*"},
		CLIHome:         home + "/.iwctl",
	}
}

// Load reads an optional .env file and then the process environment.
func Load(envFiles ...string) (*Config, error) {
	if err := gotenv.Load(envFiles...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env variables: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function, which keeps tests off the real environment.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := Default()

	setString(&cfg.AppEnv, getenv("APP_ENV"))
	setString(&cfg.Port, getenv("APP_PORT"))
	setString(&cfg.LogLevel, getenv("LOG_LEVEL"))
	if dir, ok := lookup(getenv, "LOG_DIR"); ok {
		cfg.LogDir = dir
		if dir == "-" {
			cfg.LogDir = ""
		}
	}

	setString(&cfg.APIBaseURL, getenv("VITE_API_BASE_URL"))
	setString(&cfg.APIBaseURL, getenv("IW_API_BASE_URL"))
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")

	if raw := getenv("UPSTREAM_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid UPSTREAM_TIMEOUT %q: %w", raw, err)
		}
		cfg.UpstreamTimeout = d
	}
	if raw := getenv("PAGE_SIZE"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size <= 0 {
			return nil, fmt.Errorf("invalid PAGE_SIZE %q: must be a positive integer", raw)
		}
		cfg.PageSize = size
	}

	setString(&cfg.SessionStore, strings.ToLower(getenv("SESSION_STORE")))
	setString(&cfg.SessionSecret, getenv("SESSION_SECRET"))
	setString(&cfg.DBUser, getenv("DB_USER"))
	setString(&cfg.DBPass, getenv("DB_PASS"))
	setString(&cfg.DBHost, getenv("DB_HOST"))
	setString(&cfg.DBPort, getenv("DB_PORT"))
	setString(&cfg.DBName, getenv("DB_NAME"))
	setString(&cfg.FullDSN, getenv("FULL_DSN"))
	setString(&cfg.SQLitePath, getenv("SQLITE_PATH"))

	if origins := getenv("CORS_ORIGINS"); origins != "" {
		cfg.CORSOrigins = splitList(origins)
	}

	setString(&cfg.CLIHome, getenv("IWCTL_HOME"))
	setString(&cfg.CLIPassphrase, getenv("IWCTL_PASSPHRASE"))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.SessionStore {
	case StoreMemory, StoreMySQL, StoreSQLite:
	default:
		return fmt.Errorf("invalid SESSION_STORE %q: expected memory, mysql or sqlite", c.SessionStore)
	}
	if c.SessionStore != StoreMemory && c.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET is required when SESSION_STORE is %s", c.SessionStore)
	}
	return nil
}

// MySQLDSN returns FULL_DSN when set, otherwise a DSN assembled from the DB_* parts.
func (c *Config) MySQLDSN() (string, error) {
	if c.FullDSN != "" {
		return c.FullDSN, nil
	}
	if c.DBUser == "" || c.DBPass == "" || c.DBHost == "" || c.DBPort == "" {
		return "", fmt.Errorf("missing required DB environment variables")
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true", c.DBUser, c.DBPass, c.DBHost, c.DBPort, c.DBName), nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func lookup(getenv func(string) string, key string) (string, bool) {
	v := getenv(key)
	return v, v != ""
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
