package config

import (
	"fmt"
	"strings"
	"time"
)

const defaultCatalogCallTimeout = 2 * time.Second

// GrpcClientConfig locates the product catalog for pkg/client/catalog.
// Timeout bounds each call, retries included.
type GrpcClientConfig struct {
	Addr    string        `koanf:"addr"`
	Timeout time.Duration `koanf:"timeout"`
}

// String returns a string representation of the catalog client configuration.
func (c *GrpcClientConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Catalog Client ---\n")
	b.WriteString(fmt.Sprintf("  addr: %s\n", c.Addr))
	b.WriteString(fmt.Sprintf("  timeout: %s\n", c.Timeout))
	return b.String()
}

// Validate requires an address and defaults the call timeout to 2s.
func (c *GrpcClientConfig) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("catalog client: address is not configured")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("catalog client: invalid timeout %v", c.Timeout)
	}
	if c.Timeout == 0 {
		c.Timeout = defaultCatalogCallTimeout
	}
	return nil
}
