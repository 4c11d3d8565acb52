package config

import (
	"fmt"
	"strings"
	"time"
)

const (
	// DatabaseAuthIAM mints a short-lived IAM token for every connection.
	DatabaseAuthIAM = "iam"
	// DatabaseAuthPassword uses a static password, for local development and tests.
	DatabaseAuthPassword = "password"
)

type DatabaseConfig struct {
	Host     string        `koanf:"host"`
	Port     int           `koanf:"port"`
	Name     string        `koanf:"name"`
	User     string        `koanf:"user"`
	Region   string        `koanf:"region"`
	SSLMode  string        `koanf:"sslmode"`
	Auth     string        `koanf:"auth"`
	Password string        `koanf:"password"`
	Timeout  time.Duration `koanf:"timeout"`
	// Retry bounds token fetching for iam auth.
	Retry RetryConfig `koanf:"retry"`
}

// String returns a string representation of the database configuration with the password masked.
func (c *DatabaseConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Database ---\n")
	b.WriteString(fmt.Sprintf("  host: %s\n", c.Host))
	b.WriteString(fmt.Sprintf("  port: %d\n", c.Port))
	b.WriteString(fmt.Sprintf("  name: %s\n", c.Name))
	b.WriteString(fmt.Sprintf("  user: %s\n", c.User))
	b.WriteString(fmt.Sprintf("  region: %s\n", c.Region))
	b.WriteString(fmt.Sprintf("  sslmode: %s\n", c.SSLMode))
	b.WriteString(fmt.Sprintf("  auth: %s\n", c.Auth))
	b.WriteString(fmt.Sprintf("  password: %s\n", mask(c.Password)))
	b.WriteString(fmt.Sprintf("  timeout: %s\n", c.Timeout))
	if c.Auth == DatabaseAuthIAM {
		b.WriteString(c.Retry.String())
	}
	return b.String()
}

func (c *DatabaseConfig) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("database host is not configured")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Port)
	}
	if c.Name == "" {
		return fmt.Errorf("database name is not configured")
	}
	if c.User == "" {
		return fmt.Errorf("database user is not configured")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("database connect timeout is not configured")
	}
	switch c.Auth {
	case DatabaseAuthIAM:
		if c.Region == "" {
			return fmt.Errorf("database region is required for iam auth")
		}
		if err := c.Retry.Validate(); err != nil {
			return fmt.Errorf("database %w", err)
		}
	case DatabaseAuthPassword:
	default:
		return fmt.Errorf("database auth must be %q or %q, got %q", DatabaseAuthIAM, DatabaseAuthPassword, c.Auth)
	}
	if c.SSLMode == "" {
		c.SSLMode = "require"
	}
	return nil
}

func mask(secret string) string {
	if secret == "" {
		return "<not configured>"
	}
	return "****"
}
