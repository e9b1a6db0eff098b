// Package messaging defines domain events and the publisher abstraction shared by the event drivers.
package messaging

import (
	"context"
)

const (
	ProductsSubjectPrefix  = "product."
	ProductsStreamSubjects = "product.>"
	ProductCreatedSubject  = "product.created"
	ProductUpdatedSubject  = "product.updated"
	ProductRemovedSubject  = "product.removed"
)

type Event interface {
	Subject() string
	Payload() ([]byte, error)
}

// KeyedEvent is an Event with a partitioning key.
type KeyedEvent interface {
	Event
	Key() []byte
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NoopPublisher discards events.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error {
	return nil
}
