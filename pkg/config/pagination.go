package config

import (
	"fmt"
	"strings"
)

const defaultPageLimit = 10

// PaginationConfig holds the listing defaults applied when a request omits them.
type PaginationConfig struct {
	DefaultLimit int `koanf:"defaultlimit"`
}

// String returns a string representation of the pagination configuration.
func (c *PaginationConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Pagination ---\n")
	b.WriteString(fmt.Sprintf("  defaultlimit: %d\n", c.DefaultLimit))
	return b.String()
}

// Validate fills in the default limit when unset and rejects negative values.
func (c *PaginationConfig) Validate() error {
	if c.DefaultLimit < 0 {
		return fmt.Errorf("pagination: invalid default limit %d", c.DefaultLimit)
	}
	if c.DefaultLimit == 0 {
		c.DefaultLimit = defaultPageLimit
	}
	return nil
}
