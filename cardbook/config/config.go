// Package config loads the cardbook configuration: the core bot settings
// plus storage and session sections.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	coreconfig "github.com/mohammaddehghani/TelegBotCardNum/core/config"
	coredatabase "github.com/mohammaddehghani/TelegBotCardNum/core/database"
	"github.com/mohammaddehghani/TelegBotCardNum/core/telegram/state"
)

const (
	// StoragePostgres keeps the book in PostgreSQL.
	StoragePostgres = "postgres"
	// StorageMemory keeps the book in process; data is lost on restart.
	StorageMemory = "memory"
)

const (
	defaultSessionTimeout = 10 * time.Minute
	defaultSessionTTL     = 24 * time.Hour
)

// SessionConfig controls conversation sessions.
type SessionConfig struct {
	// Timeout is the idle time after which an unfinished action expires.
	Timeout time.Duration `yaml:"timeout" envconfig:"SESSION_TIMEOUT" validate:"gte=0"`
	// TTL bounds how long an idle session is kept by the store.
	TTL       time.Duration `yaml:"ttl" envconfig:"SESSION_TTL" validate:"gte=0"`
	Backend   string        `yaml:"backend" envconfig:"SESSION_BACKEND" validate:"oneof=memory redis"`
	RedisAddr string        `yaml:"redis_addr" envconfig:"REDIS_ADDR" validate:"required_if=Backend redis"`
	// Prefix namespaces session keys in Redis.
	Prefix string `yaml:"prefix" envconfig:"SESSION_PREFIX"`
}

// Config is the full application configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Storage  string              `yaml:"storage" envconfig:"STORAGE" validate:"oneof=postgres memory"`
	Database coredatabase.Config `yaml:"database"`
	Session  SessionConfig       `yaml:"session"`
}

// CoreConfig returns the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Config
}

// StateOptions maps the session section to store options.
func (c *Config) StateOptions() state.Options {
	return state.Options{
		Backend:   c.Session.Backend,
		TTL:       c.Session.TTL,
		RedisAddr: c.Session.RedisAddr,
		Prefix:    c.Session.Prefix,
	}
}

// Load reads path (optional) and the environment, applies defaults and
// validates the result.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.LoadInto(path, &cfg); err != nil {
		return nil, err
	}
	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	if err := coreconfig.Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize applies defaults and the rules that need more than one field.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return errors.New("nil config")
	}
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return err
	}

	cfg.Storage = strings.ToLower(strings.TrimSpace(cfg.Storage))
	if cfg.Storage == "" {
		cfg.Storage = StoragePostgres
	}
	if cfg.Storage == StoragePostgres && !cfg.Database.Configured() {
		return fmt.Errorf("database: set database.url (DATABASE_URL) or database.host and database.name when storage is %q", StoragePostgres)
	}

	s := &cfg.Session
	if s.Timeout == 0 {
		s.Timeout = defaultSessionTimeout
	}
	if s.TTL == 0 {
		s.TTL = defaultSessionTTL
	}
	if s.TTL < s.Timeout {
		return fmt.Errorf("session.ttl (%s) must not be shorter than session.timeout (%s)", s.TTL, s.Timeout)
	}
	s.Backend = strings.ToLower(strings.TrimSpace(s.Backend))
	if s.Backend == "" {
		s.Backend = state.BackendMemory
	}
	s.RedisAddr = strings.TrimSpace(s.RedisAddr)
	return nil
}
