package interfaces

import "context"

// EventPublisher pushes domain events to an external broker. Publishing
// happens after commit and is best-effort from the caller's view.
type EventPublisher interface {
	Publish(ctx context.Context, event any) error
}
