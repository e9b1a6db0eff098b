package config

import (
	"fmt"
	"strings"
	"time"
)

// MessagingConfig configures the request-reply message server.
type MessagingConfig struct {
	Enabled bool `koanf:"enabled"`
	// Prefix is prepended to every pattern subject, e.g. "products" -> "products.find_one".
	Prefix string `koanf:"prefix"`
	// Queue is the queue group shared by all replicas.
	Queue   string        `koanf:"queue"`
	Workers int           `koanf:"workers"`
	Buffer  int           `koanf:"buffer"`
	Timeout time.Duration `koanf:"timeout"`
}

// String returns a string representation of the messaging configuration.
func (c *MessagingConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Messaging ---\n")
	b.WriteString(fmt.Sprintf("  enabled: %t\n", c.Enabled))
	b.WriteString(fmt.Sprintf("  prefix: %s\n", c.Prefix))
	b.WriteString(fmt.Sprintf("  queue: %s\n", c.Queue))
	b.WriteString(fmt.Sprintf("  workers: %d\n", c.Workers))
	b.WriteString(fmt.Sprintf("  buffer: %d\n", c.Buffer))
	b.WriteString(fmt.Sprintf("  timeout: %s\n", c.Timeout))
	return b.String()
}

func (c *MessagingConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Prefix == "" {
		return fmt.Errorf("messaging: prefix is not configured")
	}
	if c.Queue == "" {
		return fmt.Errorf("messaging: queue is not configured")
	}
	if c.Workers <= 0 {
		return fmt.Errorf("messaging: workers must be greater than zero")
	}
	if c.Buffer <= 0 {
		return fmt.Errorf("messaging: buffer must be greater than zero")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("messaging: timeout must be greater than zero")
	}
	return nil
}
