package mutation

import (
	"context"

	"github.com/jonwraymond/catalogops/catalog"
)

// EventType names a completed mutation.
type EventType string

const (
	EventCreated       EventType = "created"
	EventUpdated       EventType = "updated"
	EventDeleted       EventType = "deleted"
	EventStatusChanged EventType = "status_changed"
	EventLiked         EventType = "liked"
	EventUnliked       EventType = "unliked"
)

// Event describes a mutation that has already been committed.
type Event struct {
	Type   EventType
	ItemID string

	// Item is the stored item after the write. Nil for deletes.
	Item *catalog.Item

	// Transition is set for EventStatusChanged.
	Transition catalog.Transition

	// UserID is set for like events.
	UserID string
}

// Notifier is an external collaborator invoked after a successful mutation.
//
// Contract:
//   - Concurrency: implementations must be safe for concurrent use.
//   - Errors: a returned error is logged by the pipeline and otherwise ignored.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, ev Event) error

// Notify implements Notifier.
func (f NotifierFunc) Notify(ctx context.Context, ev Event) error {
	return f(ctx, ev)
}

// Notifiers fans an event out to several notifiers, stopping at the first
// error.
type Notifiers []Notifier

// Notify implements Notifier.
func (ns Notifiers) Notify(ctx context.Context, ev Event) error {
	for _, n := range ns {
		if err := n.Notify(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}
