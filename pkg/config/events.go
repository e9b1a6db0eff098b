package config

import (
	"fmt"
	"strings"
	"time"
)

const (
	EventsDriverNone  = "none"
	EventsDriverNATS  = "nats"
	EventsDriverKafka = "kafka"
)

type EventsConfig struct {
	Driver string      `koanf:"driver"`
	Stream string      `koanf:"stream"`
	Kafka  KafkaConfig `koanf:"kafka"`
}

type KafkaConfig struct {
	Brokers      []string      `koanf:"brokers"`
	Topic        string        `koanf:"topic"`
	BatchTimeout time.Duration `koanf:"batchtimeout"`
	WriteTimeout time.Duration `koanf:"writetimeout"`
}

// String returns a string representation of the events configuration.
func (c *EventsConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Events ---\n")
	b.WriteString(fmt.Sprintf("  driver: %s\n", c.Driver))
	b.WriteString(fmt.Sprintf("  stream: %s\n", c.Stream))
	b.WriteString(fmt.Sprintf("  kafka.brokers: %s\n", strings.Join(c.Kafka.Brokers, ",")))
	b.WriteString(fmt.Sprintf("  kafka.topic: %s\n", c.Kafka.Topic))
	b.WriteString(fmt.Sprintf("  kafka.batchtimeout: %s\n", c.Kafka.BatchTimeout))
	b.WriteString(fmt.Sprintf("  kafka.writetimeout: %s\n", c.Kafka.WriteTimeout))
	return b.String()
}

func (c *EventsConfig) Validate() error {
	switch c.Driver {
	case "":
		c.Driver = EventsDriverNone
	case EventsDriverNone:
	case EventsDriverNATS:
		if c.Stream == "" {
			return fmt.Errorf("events: stream is required for the nats driver")
		}
	case EventsDriverKafka:
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("events: kafka brokers are not configured")
		}
		if c.Kafka.Topic == "" {
			return fmt.Errorf("events: kafka topic is not configured")
		}
		if c.Kafka.WriteTimeout <= 0 {
			return fmt.Errorf("events: kafka write timeout must be greater than zero")
		}
	default:
		return fmt.Errorf("events: unknown driver %q", c.Driver)
	}
	return nil
}
