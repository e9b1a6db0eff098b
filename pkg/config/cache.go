package config

import (
	"fmt"
	"strings"
	"time"
)

type CacheConfig struct {
	Enabled     bool          `koanf:"enabled"`
	Addr        string        `koanf:"addr"`
	Username    string        `koanf:"username"`
	Password    string        `koanf:"password"`
	DB          int           `koanf:"db"`
	TTL         time.Duration `koanf:"ttl"`
	DialTimeout time.Duration `koanf:"dialtimeout"`
	Timeout     time.Duration `koanf:"timeout"`
	MaxRetries  int           `koanf:"maxretries"`
}

// String returns a string representation of the cache configuration.
func (c *CacheConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Cache ---\n")
	b.WriteString(fmt.Sprintf("  enabled: %t\n", c.Enabled))
	b.WriteString(fmt.Sprintf("  addr: %s\n", c.Addr))
	b.WriteString(fmt.Sprintf("  db: %d\n", c.DB))
	b.WriteString(fmt.Sprintf("  ttl: %s\n", c.TTL))
	b.WriteString(fmt.Sprintf("  dialtimeout: %s\n", c.DialTimeout))
	b.WriteString(fmt.Sprintf("  timeout: %s\n", c.Timeout))
	b.WriteString(fmt.Sprintf("  maxretries: %d\n", c.MaxRetries))
	return b.String()
}

func (c *CacheConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Addr == "" {
		return fmt.Errorf("cache address is not configured")
	}
	if c.TTL <= 0 {
		return fmt.Errorf("cache ttl must be greater than zero")
	}
	return nil
}
