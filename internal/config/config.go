// Package config holds the product service configuration.
package config

import (
	"fmt"
	"strings"

	"github.com/abgdnv/productcatalog/pkg/config"
	"github.com/abgdnv/productcatalog/pkg/config/configloader"
)

var _ configloader.Validator = (*Config)(nil)

type Config struct {
	HTTPServer config.HTTPConfig       `koanf:"server"`
	Database   config.DatabaseConfig   `koanf:"database"`
	Log        config.LogConfig        `koanf:"log"`
	PProf      config.PProfConfig      `koanf:"pprof"`
	GRPC       config.GrpcServerConfig `koanf:"grpc"`
	Shutdown   config.ShutdownConfig   `koanf:"shutdown"`
	NATS       config.NATSConfig       `koanf:"nats"`
	Messaging  config.MessagingConfig  `koanf:"messaging"`
	Events     config.EventsConfig     `koanf:"events"`
	Cache      config.CacheConfig      `koanf:"cache"`
	Telemetry  config.TelemetryConfig  `koanf:"telemetry"`
	IdP        config.IdP              `koanf:"idp"`
	Pagination config.PaginationConfig `koanf:"pagination"`
}

// NeedsNATS reports whether any enabled component talks to NATS.
func (c *Config) NeedsNATS() bool {
	return c.Messaging.Enabled || c.Events.Driver == config.EventsDriverNATS
}

func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("\n--- Product Service Configuration ---\n")
	for _, section := range []fmt.Stringer{
		&c.HTTPServer, &c.Database, &c.GRPC, &c.Log, &c.PProf, &c.Shutdown,
		&c.NATS, &c.Messaging, &c.Events, &c.Cache, &c.Telemetry, &c.IdP, &c.Pagination,
	} {
		b.WriteString(section.String())
	}
	return b.String()
}

// Validate checks if the configuration values are valid
func (c *Config) Validate() error {
	sections := []configloader.Validator{
		&c.HTTPServer, &c.Database, &c.Log, &c.PProf, &c.Shutdown, &c.GRPC,
		&c.Messaging, &c.Events, &c.Cache, &c.Telemetry, &c.IdP, &c.Pagination,
	}
	if c.NeedsNATS() {
		sections = append(sections, &c.NATS)
	}
	for _, section := range sections {
		if err := section.Validate(); err != nil {
			return err
		}
	}
	return nil
}
