package config

import (
	"fmt"
	"strings"
	"time"
)

const (
	DeadLetterDriverNATS = "nats"
	DeadLetterDriverSQS  = "sqs"
)

// DeadLetterConfig configures the two failure channels: one bound to the
// create-order subscription and one used by the cancellation workflow.
type DeadLetterConfig struct {
	Driver  string        `koanf:"driver"`
	Stream  string        `koanf:"stream"`
	Create  string        `koanf:"create"`
	Cancel  string        `koanf:"cancel"`
	Region  string        `koanf:"region"`
	Timeout time.Duration `koanf:"timeout"`
}

// String returns a string representation of the dead-letter configuration.
func (c *DeadLetterConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Dead Letter ---\n")
	b.WriteString(fmt.Sprintf("  driver: %s\n", c.Driver))
	b.WriteString(fmt.Sprintf("  stream: %s\n", c.Stream))
	b.WriteString(fmt.Sprintf("  create: %s\n", c.Create))
	b.WriteString(fmt.Sprintf("  cancel: %s\n", c.Cancel))
	b.WriteString(fmt.Sprintf("  region: %s\n", c.Region))
	b.WriteString(fmt.Sprintf("  timeout: %s\n", c.Timeout))
	return b.String()
}

func (c *DeadLetterConfig) Validate() error {
	switch c.Driver {
	case DeadLetterDriverNATS:
		if c.Stream == "" {
			return fmt.Errorf("dead-letter stream is required for the nats driver")
		}
	case DeadLetterDriverSQS:
		if c.Region == "" {
			return fmt.Errorf("dead-letter region is required for the sqs driver")
		}
	default:
		return fmt.Errorf("dead-letter driver must be %q or %q, got %q", DeadLetterDriverNATS, DeadLetterDriverSQS, c.Driver)
	}
	if c.Create == "" {
		return fmt.Errorf("create-order dead-letter queue is not configured")
	}
	if c.Cancel == "" {
		return fmt.Errorf("cancel-order failure queue is not configured")
	}
	if c.Create == c.Cancel {
		return fmt.Errorf("create and cancel dead-letter queues must be distinct")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("dead-letter send timeout must be greater than zero")
	}
	return nil
}
