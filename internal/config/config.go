// Package config loads the indexmeta YAML configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/redbco/redb-indexmeta/internal/dialect"
	"github.com/redbco/redb-indexmeta/internal/indexdef"
	"github.com/redbco/redb-indexmeta/internal/store"
	"github.com/redbco/redb-indexmeta/pkg/keyring"
)

// EnvDSN overrides database.dsn when set.
const EnvDSN = "INDEXMETA_DSN"

// Lock backends.
const (
	LockMemory = "memory"
	LockRedis  = "redis"
)

type Config struct {
	Database Database        `yaml:"database"`
	Layout   store.Layout    `yaml:"layout"`
	Lock     Lock            `yaml:"lock"`
	Engine   Engine          `yaml:"engine"`
	Server   Server          `yaml:"server"`
	Indexes  indexdef.RawSet `yaml:"indexes"`
}

type Database struct {
	Dialect        string `yaml:"dialect"`
	DSN            string `yaml:"dsn,omitempty"`
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	User           string `yaml:"user"`
	Password       string `yaml:"password,omitempty"`
	Name           string `yaml:"name"`
	SSL            bool   `yaml:"ssl"`
	// Keyring reads the password from the keyring when it is not set here.
	Keyring        bool   `yaml:"keyring"`
	CharsetCollate string `yaml:"charset_collate"`
	MaxOpenConns   int    `yaml:"max_open_conns"`
	MaxIdleConns   int    `yaml:"max_idle_conns"`
}

type Lock struct {
	Backend       string        `yaml:"backend"`
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password,omitempty"`
	RedisDB       int           `yaml:"redis_db"`
	TTL           time.Duration `yaml:"ttl"`
}

type Engine struct {
	Workers int           `yaml:"workers"`
	Timeout time.Duration `yaml:"timeout"`
}

type Server struct {
	Addr            string        `yaml:"addr"`
	ReindexInterval time.Duration `yaml:"reindex_interval"`
}

// Default returns the configuration used for keys missing from the file.
func Default() *Config {
	return &Config{
		Database: Database{
			Dialect:        string(dialect.MySQL),
			Host:           "localhost",
			Port:           3306,
			User:           "wordpress",
			Name:           "wordpress",
			CharsetCollate: "DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci",
		},
		Layout: store.DefaultLayout(),
		Lock: Lock{
			Backend:   LockMemory,
			RedisAddr: "localhost:6379",
			TTL:       10 * time.Minute,
		},
		Engine: Engine{
			Workers: 2,
			Timeout: 30 * time.Minute,
		},
		Server: Server{
			Addr: ":8080",
		},
		Indexes: indexdef.RawSet{},
	}
}

// Load reads the configuration file at path. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		//nolint:gosec // path is supplied by the operator
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if dsn := os.Getenv(EnvDSN); dsn != "" {
		cfg.Database.DSN = dsn
	}
	if cfg.Indexes == nil {
		cfg.Indexes = indexdef.RawSet{}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	if _, ok := dialect.ParseID(c.Database.Dialect); !ok {
		return fmt.Errorf("database.dialect: %w: %q", dialect.ErrUnknownDialect, c.Database.Dialect)
	}
	if err := c.Layout.Validate(); err != nil {
		return fmt.Errorf("layout: %w", err)
	}
	switch c.Lock.Backend {
	case LockMemory:
	case LockRedis:
		if c.Lock.RedisAddr == "" {
			return fmt.Errorf("lock.redis_addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("lock.backend: unknown backend %q", c.Lock.Backend)
	}
	if c.Engine.Workers < 1 {
		return fmt.Errorf("engine.workers must be at least 1")
	}
	if c.Engine.Timeout < 0 || c.Server.ReindexInterval < 0 {
		return fmt.Errorf("durations must not be negative")
	}
	return nil
}

// Dialect returns the configured SQL dialect.
func (c *Config) Dialect() (dialect.Dialect, error) {
	return dialect.GetByName(c.Database.Dialect)
}

// DSN returns database.dsn, or a connection string built from the discrete settings.
func (c *Config) DSN(d dialect.Dialect) string {
	if c.Database.DSN != "" {
		return c.Database.DSN
	}
	return d.DSN(dialect.ConnParams{
		Host:     c.Database.Host,
		Port:     c.Database.Port,
		User:     c.Database.User,
		Password: c.Database.Password,
		Database: c.Database.Name,
		SSL:      c.Database.SSL,
	})
}

// StoreOptions returns the connection pool settings.
func (c *Config) StoreOptions() store.Options {
	return store.Options{
		MaxOpenConns: c.Database.MaxOpenConns,
		MaxIdleConns: c.Database.MaxIdleConns,
	}
}

// Account names the database credentials in the keyring.
func (d Database) Account() string {
	return fmt.Sprintf("%s@%s:%d/%s", d.User, d.Host, d.Port, d.Name)
}

// ResolvePassword fills database.password from the keyring when the keyring
// is enabled and neither a password nor a DSN is configured.
func (c *Config) ResolvePassword(store keyring.Store) error {
	db := &c.Database
	if !db.Keyring || db.Password != "" || db.DSN != "" {
		return nil
	}
	password, err := store.Get(db.Account())
	if err != nil {
		return fmt.Errorf("failed to read database password from keyring: %w", err)
	}
	db.Password = password
	return nil
}
