package config

import (
	"fmt"
	"strings"
	"time"
)

type WorkflowConfig struct {
	Timeout time.Duration `koanf:"timeout"`
	Retry   RetryConfig   `koanf:"retry"`
}

// String returns a string representation of the workflow configuration.
func (c *WorkflowConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Cancellation Workflow ---\n")
	b.WriteString(fmt.Sprintf("  timeout: %s\n", c.Timeout))
	b.WriteString(c.Retry.String())
	return b.String()
}

func (c *WorkflowConfig) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("workflow timeout must be greater than zero")
	}
	return c.Retry.Validate()
}
