package config

import (
	"fmt"
	"strings"
	"time"
)

type SubscriberConfig struct {
	Consumer     string        `koanf:"consumer"`
	Workers      int           `koanf:"workers"`
	MaxDeliver   int           `koanf:"maxdeliver"`
	AckWait      time.Duration `koanf:"ackwait"`
	NakDelay     time.Duration `koanf:"nakdelay"`
	FetchTimeout time.Duration `koanf:"fetchtimeout"`
	Interval     time.Duration `koanf:"interval"`
}

// String returns a string representation of the NATS Subscriber configuration.
func (c *SubscriberConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- NATS Subscriber ---\n")
	b.WriteString(fmt.Sprintf("  consumer: %s\n", c.Consumer))
	b.WriteString(fmt.Sprintf("  workers: %d\n", c.Workers))
	b.WriteString(fmt.Sprintf("  maxdeliver: %d\n", c.MaxDeliver))
	b.WriteString(fmt.Sprintf("  ackwait: %s\n", c.AckWait))
	b.WriteString(fmt.Sprintf("  nakdelay: %s\n", c.NakDelay))
	b.WriteString(fmt.Sprintf("  fetchtimeout: %s\n", c.FetchTimeout))
	b.WriteString(fmt.Sprintf("  interval: %s\n", c.Interval))
	return b.String()
}

func (c *SubscriberConfig) Validate() error {
	if c.Consumer == "" {
		return fmt.Errorf("SubscriberConfig: consumer is not configured")
	}
	if c.Workers <= 0 {
		return fmt.Errorf("SubscriberConfig: workers must be greater than zero")
	}
	if c.MaxDeliver <= 0 {
		return fmt.Errorf("SubscriberConfig: maxdeliver must be greater than zero")
	}
	if c.AckWait <= 0 {
		return fmt.Errorf("SubscriberConfig: ackwait must be greater than zero")
	}
	if c.NakDelay < 0 {
		return fmt.Errorf("SubscriberConfig: nakdelay must not be negative")
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("SubscriberConfig: fetchtimeout must be greater than zero")
	}
	if c.Interval <= 0 {
		return fmt.Errorf("SubscriberConfig: interval must be greater than zero")
	}
	return nil
}
