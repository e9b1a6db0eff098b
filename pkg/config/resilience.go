package config

import (
	"fmt"
	"strings"
	"time"
)

// Catalog client defaults: three attempts for reads, and a breaker that opens after five
// straight transient failures or a 50% failure rate and probes again after 30s.
const (
	defaultRetryAttempts       = 3
	defaultRetryBackoff        = 100 * time.Millisecond
	defaultConsecutiveFailures = 5
	defaultErrorRatePercent    = 50
	defaultBreakerOpenTimeout  = 30 * time.Second
)

// ResilienceConfig tunes the retry and circuit breaker interceptors of the catalog client.
type ResilienceConfig struct {
	Retry          RetryConfig          `koanf:"retry"`
	CircuitBreaker CircuitBreakerConfig `koanf:"circuitbreaker"`
}

// RetryConfig applies to read calls only.
type RetryConfig struct {
	MaxAttempts    uint          `koanf:"maxattempts"`
	InitialBackoff time.Duration `koanf:"initialbackoff"`
}

type CircuitBreakerConfig struct {
	ConsecutiveFailures uint32        `koanf:"consecutivefailures"`
	ErrorRatePercent    int           `koanf:"errorratepercent"`
	OpenTimeout         time.Duration `koanf:"opentimeout"`
}

// String returns a string representation of the ResilienceConfig.
func (c *ResilienceConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Catalog Client Resilience ---\n")
	b.WriteString(fmt.Sprintf("  retry.maxattempts: %d\n", c.Retry.MaxAttempts))
	b.WriteString(fmt.Sprintf("  retry.initialbackoff: %v\n", c.Retry.InitialBackoff))
	b.WriteString(fmt.Sprintf("  circuitbreaker.consecutivefailures: %d\n", c.CircuitBreaker.ConsecutiveFailures))
	b.WriteString(fmt.Sprintf("  circuitbreaker.errorratepercent: %d\n", c.CircuitBreaker.ErrorRatePercent))
	b.WriteString(fmt.Sprintf("  circuitbreaker.opentimeout: %v\n", c.CircuitBreaker.OpenTimeout))
	return b.String()
}

// Validate fills unset values with the catalog client defaults and rejects invalid ones.
func (c *ResilienceConfig) Validate() error {
	if c.Retry.MaxAttempts == 0 {
		c.Retry.MaxAttempts = defaultRetryAttempts
	}
	if c.Retry.InitialBackoff == 0 {
		c.Retry.InitialBackoff = defaultRetryBackoff
	}
	if c.CircuitBreaker.ConsecutiveFailures == 0 {
		c.CircuitBreaker.ConsecutiveFailures = defaultConsecutiveFailures
	}
	if c.CircuitBreaker.ErrorRatePercent == 0 {
		c.CircuitBreaker.ErrorRatePercent = defaultErrorRatePercent
	}
	if c.CircuitBreaker.OpenTimeout == 0 {
		c.CircuitBreaker.OpenTimeout = defaultBreakerOpenTimeout
	}

	if c.Retry.InitialBackoff < 0 {
		return fmt.Errorf("retry.initialbackoff must be greater than 0")
	}
	if c.CircuitBreaker.ErrorRatePercent < 0 || c.CircuitBreaker.ErrorRatePercent > 100 {
		return fmt.Errorf("circuitbreaker.errorratepercent must be between 0 and 100")
	}
	if c.CircuitBreaker.OpenTimeout < 0 {
		return fmt.Errorf("circuitbreaker.opentimeout must be greater than 0")
	}
	return nil
}
