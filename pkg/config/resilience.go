package config

import (
	"fmt"
	"strings"
	"time"
)

type RetryConfig struct {
	MaxAttempts    uint          `koanf:"maxattempts"`
	InitialBackoff time.Duration `koanf:"initialbackoff"`
	MaxBackoff     time.Duration `koanf:"maxbackoff"`
}

// String returns a string representation of the RetryConfig.
func (c *RetryConfig) String() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("  retry.maxattempts: %d\n", c.MaxAttempts))
	b.WriteString(fmt.Sprintf("  retry.initialbackoff: %v\n", c.InitialBackoff))
	b.WriteString(fmt.Sprintf("  retry.maxbackoff: %v\n", c.MaxBackoff))
	return b.String()
}

func (c *RetryConfig) Validate() error {
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("retry.maxattempts must be greater than 0")
	}
	if c.InitialBackoff <= 0 {
		return fmt.Errorf("retry.initialbackoff must be greater than 0")
	}
	if c.MaxBackoff < c.InitialBackoff {
		return fmt.Errorf("retry.maxbackoff must not be less than retry.initialbackoff")
	}
	return nil
}
