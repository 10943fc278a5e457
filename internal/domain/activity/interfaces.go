package activity

import "context"

// Repository provides persistence operations for activity events.
// List returns events for one affected user ordered by timestamp, most recent first.
type Repository interface {
	Log(ctx context.Context, event *Event) error
	List(ctx context.Context, affectedUser string, opts ListActivityOptions) ([]Event, error)
}

// Sink receives events after they have been persisted.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}
