package config

import (
	"net"
	"net/url"
	"strconv"
)

// MaxConns is the size of the connection pool. It is not configurable: a
// single physical connection forces every statement onto the same session,
// which is what makes the effect of a failed query observable.
const MaxConns = 1

// Config holds all application configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Log      LogConfig      `mapstructure:"log"      validate:"required"`
}

// DatabaseConfig contains the PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"     validate:"required"`
	Port     int    `mapstructure:"port"     validate:"required,gt=0,lt=65536"`
	Name     string `mapstructure:"name"     validate:"required"`
	User     string `mapstructure:"user"     validate:"required"`
	Password string `mapstructure:"password"`
	SSL      bool   `mapstructure:"ssl"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"  validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=json text"`
}

// SSLMode returns the libpq sslmode matching the SSL flag.
func (c DatabaseConfig) SSLMode() string {
	if c.SSL {
		return "require"
	}
	return "disable"
}

// ConnString builds a postgres:// URL from the individual settings.
func (c DatabaseConfig) ConnString() string {
	return c.connURL(url.UserPassword(c.User, c.Password)).String()
}

// Redacted returns the connection URL with the password masked, suitable for logs.
func (c DatabaseConfig) Redacted() string {
	if c.Password == "" {
		return c.connURL(url.User(c.User)).String()
	}
	return c.connURL(url.UserPassword(c.User, c.Password)).Redacted()
}

func (c DatabaseConfig) connURL(user *url.Userinfo) *url.URL {
	return &url.URL{
		Scheme:   "postgres",
		User:     user,
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.Name,
		RawQuery: url.Values{"sslmode": []string{c.SSLMode()}}.Encode(),
	}
}
