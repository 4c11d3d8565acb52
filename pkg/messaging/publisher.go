// Package messaging defines the transport-neutral publishing contract.
package messaging

import (
	"context"
)

// Event is a message that knows its routing subject and wire payload.
type Event interface {
	Subject() string
	Payload() ([]byte, error)
}

// Identifiable is implemented by events that carry a unique id.
// Publishers use it to deduplicate redelivered publishes.
type Identifiable interface {
	EventID() string
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}
