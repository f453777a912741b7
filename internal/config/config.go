// Package config loads server configuration from an optional YAML file,
// an optional .env file and LE_* environment variables, in that order of
// increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/evcraddock/luxury-estates/internal/collection"
)

// Backend kinds.
const (
	BackendSQLite        = "sqlite"
	BackendPostgres      = "postgres"
	BackendMySQL         = "mysql"
	BackendSnapshot      = "snapshot"
	BackendSnapshotRedis = "snapshot-redis"
	BackendREST          = "rest"
)

// Config holds server configuration.
type Config struct {
	DevMode    bool   `yaml:"dev_mode"`
	Port       int    `yaml:"port"`
	BaseURL    string `yaml:"base_url"`
	AdminEmail string `yaml:"admin_email"`

	SMTPHost string `yaml:"smtp_host"`
	SMTPPort string `yaml:"smtp_port"`
	SMTPUser string `yaml:"smtp_user"`
	SMTPPass string `yaml:"smtp_pass"`
	SMTPFrom string `yaml:"smtp_from"`

	DBPath      string `yaml:"db_path"`
	Backend     string `yaml:"backend"`
	PostgresDSN string `yaml:"postgres_dsn"`
	MySQLDSN    string `yaml:"mysql_dsn"`
	RESTURL     string `yaml:"rest_url"`
	RESTKey     string `yaml:"rest_key"`

	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`

	GeocoderURL    string        `yaml:"geocoder_url"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	InsertPolicy   string        `yaml:"insert_policy"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Port:           8080,
		BaseURL:        "http://localhost:8080",
		SMTPPort:       "587",
		Backend:        BackendSQLite,
		RequestTimeout: 15 * time.Second,
		InsertPolicy:   collection.InsertFirst.String(),
	}
}

// Load builds the configuration. path names an optional YAML file; an empty
// path skips it. A .env file in the working directory is loaded if present,
// without overriding variables that are already set.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("loading .env: %w", err)
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("LE_BASE_URL", &c.BaseURL)
	str("LE_ADMIN_EMAIL", &c.AdminEmail)
	str("LE_SMTP_HOST", &c.SMTPHost)
	str("LE_SMTP_PORT", &c.SMTPPort)
	str("LE_SMTP_USER", &c.SMTPUser)
	str("LE_SMTP_PASS", &c.SMTPPass)
	str("LE_SMTP_FROM", &c.SMTPFrom)
	str("LE_DB_PATH", &c.DBPath)
	str("LE_BACKEND", &c.Backend)
	str("LE_POSTGRES_DSN", &c.PostgresDSN)
	str("LE_MYSQL_DSN", &c.MySQLDSN)
	str("LE_REST_URL", &c.RESTURL)
	str("LE_REST_KEY", &c.RESTKey)
	str("LE_REDIS_ADDR", &c.RedisAddr)
	str("LE_REDIS_PASSWORD", &c.RedisPassword)
	str("LE_GEOCODER_URL", &c.GeocoderURL)
	str("LE_INSERT_POLICY", &c.InsertPolicy)

	if v, ok := lookup("LE_DEV_MODE"); ok {
		c.DevMode = v == "true"
	}
	if v, ok := lookup("LE_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("LE_PORT: %w", err)
		}
		c.Port = port
	}
	if v, ok := lookup("LE_REDIS_DB"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("LE_REDIS_DB: %w", err)
		}
		c.RedisDB = n
	}
	if v, ok := lookup("LE_REQUEST_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("LE_REQUEST_TIMEOUT: %w", err)
		}
		c.RequestTimeout = d
	}
	return nil
}

// Validate checks that the selected backend has what it needs.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendSQLite, BackendSnapshot:
	case BackendPostgres:
		if c.PostgresDSN == "" {
			return errors.New("LE_POSTGRES_DSN is required for the postgres backend")
		}
	case BackendMySQL:
		if c.MySQLDSN == "" {
			return errors.New("LE_MYSQL_DSN is required for the mysql backend")
		}
	case BackendSnapshotRedis:
		if c.RedisAddr == "" {
			return errors.New("LE_REDIS_ADDR is required for the snapshot-redis backend")
		}
	case BackendREST:
		if c.RESTURL == "" {
			return errors.New("LE_REST_URL is required for the rest backend")
		}
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}

	if _, err := collection.ParseInsertPolicy(c.InsertPolicy); err != nil {
		return err
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.RequestTimeout <= 0 {
		return errors.New("request timeout must be positive")
	}
	return nil
}

// Policy returns the parsed insert policy.
func (c Config) Policy() collection.InsertPolicy {
	p, err := collection.ParseInsertPolicy(c.InsertPolicy)
	if err != nil {
		return collection.InsertFirst
	}
	return p
}

// Addr returns the listen address.
func (c Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}
