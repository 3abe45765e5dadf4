package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Auth     AuthConfig
	Log      LogConfig
}

// DatabaseConfig contains database-related settings.
type DatabaseConfig struct {
	Path string // SQLite database file path
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Address       string
	SecureCookies bool // mark session cookies Secure (serve behind TLS)
}

// AuthConfig contains authentication settings.
type AuthConfig struct {
	JWTSecret string // empty means use the secret persisted in the database
	AdminUser string // account created on first run
}

// LogConfig contains logging settings.
type LogConfig struct {
	Path string // optional log file, in addition to stdout/stderr
}

// Load reads an optional .env file and then builds the configuration from
// environment variables. Variables already set in the environment win over
// the file.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	secure, err := getEnvBool("IZPOSOJA_SECURE_COOKIES", false)
	if err != nil {
		return nil, err
	}

	return &Config{
		Database: DatabaseConfig{
			Path: getEnv("IZPOSOJA_DB", "izposoja.sqlite3"),
		},
		Server: ServerConfig{
			Address:       getEnv("IZPOSOJA_ADDR", ":8080"),
			SecureCookies: secure,
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("IZPOSOJA_JWT_SECRET", ""),
			AdminUser: getEnv("IZPOSOJA_ADMIN", "admin"),
		},
		Log: LogConfig{
			Path: getEnv("IZPOSOJA_LOG", ""),
		},
	}, nil
}

// getEnv retrieves an environment variable with a default fallback.
func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

// getEnvBool retrieves an environment variable as a bool with a default fallback.
func getEnvBool(key string, defaultVal bool) (bool, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid boolean for %s: %w", key, err)
	}
	return b, nil
}

// String returns a string representation of the config (sensitive values are masked).
func (c *Config) String() string {
	secret := "(from database)"
	if c.Auth.JWTSecret != "" {
		secret = "*** (masked) ***"
	}
	return fmt.Sprintf("Config{DB: %s, Addr: %s, SecureCookies: %t, Admin: %s, JWT: %s, Log: %q}",
		c.Database.Path, c.Server.Address, c.Server.SecureCookies, c.Auth.AdminUser, secret, c.Log.Path)
}
