package config

import (
	"fmt"
	"strings"
)

type EventBusConfig struct {
	Name       string `koanf:"name"`
	Stream     string `koanf:"stream"`
	Source     string `koanf:"source"`
	DetailType string `koanf:"detailtype"`
}

// String returns a string representation of the event bus configuration.
func (c *EventBusConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Event Bus ---\n")
	b.WriteString(fmt.Sprintf("  name: %s\n", c.Name))
	b.WriteString(fmt.Sprintf("  stream: %s\n", c.Stream))
	b.WriteString(fmt.Sprintf("  source: %s\n", c.Source))
	b.WriteString(fmt.Sprintf("  detailtype: %s\n", c.DetailType))
	return b.String()
}

func (c *EventBusConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("event bus name is not configured")
	}
	if strings.ContainsAny(c.Name, ".*> ") {
		return fmt.Errorf("event bus name must be a single subject token: %q", c.Name)
	}
	if c.Stream == "" {
		return fmt.Errorf("event bus stream is not configured")
	}
	if c.Source == "" {
		return fmt.Errorf("event source is not configured")
	}
	if c.DetailType == "" {
		return fmt.Errorf("event detail type is not configured")
	}
	return nil
}
