package database

import (
	"fmt"
	"net/url"

	coreconfig "github.com/ranggaxyy/deplot-bot/core/config"
)

// Config holds database connection settings.
type Config struct {
	Driver         string
	Path           string
	Host           string
	Port           string
	User           string
	Password       string
	Name           string
	SSLMode        string
	MaxConnections int
}

// FromStorage converts the storage section of the app config.
func FromStorage(s coreconfig.StorageConfig) Config {
	return Config{
		Driver:         s.Driver,
		Path:           s.Path,
		Host:           s.Host,
		Port:           s.Port,
		User:           s.User,
		Password:       s.Password,
		Name:           s.Name,
		SSLMode:        s.SSLMode,
		MaxConnections: s.MaxConnections,
	}
}

// DSN renders the driver-specific data source name for sqlx.
func (c Config) DSN() (string, error) {
	switch c.Driver {
	case coreconfig.DriverPostgres:
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(c.User, c.Password),
			Host:     c.Host + ":" + c.Port,
			Path:     "/" + c.Name,
			RawQuery: "sslmode=" + url.QueryEscape(c.SSLMode),
		}
		return u.String(), nil
	case coreconfig.DriverSQLite:
		return "file:" + c.Path + "?_foreign_keys=on&_busy_timeout=5000", nil
	}
	return "", fmt.Errorf("database: unsupported driver %q", c.Driver)
}
