// Package config loads service settings from .env files, environment variables,
// an optional config file and command line flags, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const EnvPrefix = "PACKAGESYNC"

const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	HTTP  HTTPConfig  `mapstructure:"http"`
	Log   LogConfig   `mapstructure:"log"`
	Store StoreConfig `mapstructure:"store"`
	JWT   JWTConfig   `mapstructure:"jwt"`
	Admin AdminConfig `mapstructure:"admin"`
	Seed  SeedConfig  `mapstructure:"seed"`
	Audit AuditConfig `mapstructure:"audit"`
}

type HTTPConfig struct {
	Port string `mapstructure:"port"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type StoreConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type JWTConfig struct {
	Secret   string        `mapstructure:"secret"`
	Issuer   string        `mapstructure:"issuer"`
	Audience string        `mapstructure:"audience"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type AdminConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type SeedConfig struct {
	Packages bool `mapstructure:"packages"`
}

type AuditConfig struct {
	Brokers       []string      `mapstructure:"brokers"`
	Topic         string        `mapstructure:"topic"`
	GroupID       string        `mapstructure:"group_id"`
	Workers       int           `mapstructure:"workers"`
	BatchSize     int           `mapstructure:"batch_size"`
	FlushInterval time.Duration `mapstructure:"flush_interval"`
}

// New returns a viper instance with defaults and PACKAGESYNC_* environment lookup,
// e.g. PACKAGESYNC_HTTP_PORT for http.port.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault("http.port", "9000")
	v.SetDefault("log.level", "info")
	v.SetDefault("store.driver", DriverMemory)
	v.SetDefault("store.dsn", "")
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "packagesync")
	v.SetDefault("jwt.audience", "packagesync-clients")
	v.SetDefault("jwt.ttl", 30*time.Minute)
	v.SetDefault("admin.username", "Admin")
	v.SetDefault("admin.password", "")
	v.SetDefault("seed.packages", false)
	v.SetDefault("audit.brokers", []string{})
	v.SetDefault("audit.topic", "audit_logs")
	v.SetDefault("audit.group_id", "audit-log-consumer-group")
	v.SetDefault("audit.workers", 2)
	v.SetDefault("audit.batch_size", 5)
	v.SetDefault("audit.flush_interval", 500*time.Millisecond)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads configFile when given and decodes everything into a validated Config.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.HTTP.Port == "" {
		errs = append(errs, errors.New("http.port must be set"))
	}
	switch c.Store.Driver {
	case DriverMemory, DriverPostgres:
	case DriverSQLite:
		if c.Store.DSN == "" {
			errs = append(errs, errors.New("store.dsn must be set for the sqlite driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("store.driver %q is not one of memory, sqlite, postgres", c.Store.Driver))
	}
	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("jwt.secret must be set"))
	}
	if c.JWT.TTL <= 0 {
		errs = append(errs, fmt.Errorf("jwt.ttl must be positive, got %s", c.JWT.TTL))
	}
	if c.Audit.Workers <= 0 {
		errs = append(errs, fmt.Errorf("audit.workers must be positive, got %d", c.Audit.Workers))
	}
	if c.Audit.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("audit.batch_size must be positive, got %d", c.Audit.BatchSize))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// LoadEnv loads the first .env (or, failing that, .example.env) found in dir or
// up to two parent directories. Variables already set in the environment win.
// It returns the loaded path, or "" when no file was found.
func LoadEnv(dir string) (string, error) {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get working directory: %w", err)
		}
		dir = wd
	}

	candidates := []string{
		dir,
		filepath.Join(dir, ".."),
		filepath.Join(dir, "..", ".."),
	}

	for _, name := range []string{".env", ".example.env"} {
		for _, candidate := range candidates {
			path := filepath.Join(candidate, name)
			if _, err := os.Stat(path); err != nil {
				continue
			}
			if err := godotenv.Load(path); err != nil {
				return "", fmt.Errorf("failed to load %s: %w", path, err)
			}
			return path, nil
		}
	}
	return "", nil
}
