package database

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Config holds PostgreSQL connection settings. URL, when set, wins over the
// discrete fields.
type Config struct {
	URL            string        `yaml:"url" envconfig:"DATABASE_URL"`
	Host           string        `yaml:"host" envconfig:"DB_HOST"`
	Port           string        `yaml:"port" envconfig:"DB_PORT"`
	User           string        `yaml:"user" envconfig:"DB_USER"`
	Password       string        `yaml:"password" envconfig:"DB_PASSWORD"`
	Name           string        `yaml:"name" envconfig:"DB_NAME"`
	SSLMode        string        `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	MaxConnections int           `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS" validate:"gte=0"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" envconfig:"DB_CONNECT_TIMEOUT"`
}

// DSN returns a postgres:// URL usable by both lib/pq and golang-migrate.
func (c Config) DSN() string {
	if u := strings.TrimSpace(c.URL); u != "" {
		return u
	}
	host := c.Host
	if host == "" {
		host = "localhost"
	}
	port := c.Port
	if port == "" {
		port = "5432"
	}
	ssl := c.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     host + ":" + port,
		Path:     "/" + c.Name,
		RawQuery: "sslmode=" + url.QueryEscape(ssl),
	}
	return u.String()
}

// Target describes the database for logs without leaking credentials.
func (c Config) Target() (host, port, name string) {
	if strings.TrimSpace(c.URL) == "" {
		return c.Host, c.Port, c.Name
	}
	u, err := url.Parse(c.URL)
	if err != nil {
		return "", "", ""
	}
	return u.Hostname(), u.Port(), strings.TrimPrefix(u.Path, "/")
}

// Configured reports whether any connection parameter is present.
func (c Config) Configured() bool {
	return strings.TrimSpace(c.URL) != "" || (c.Host != "" && c.Name != "")
}

func (c Config) validate() error {
	if !c.Configured() {
		return fmt.Errorf("database: set database.url or host and name")
	}
	return nil
}
