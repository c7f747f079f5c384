package catalog

import "context"

// Reader is the read side of the catalog.
type Reader interface {
	// Query returns items matching the filter set. Missing backing data
	// yields an empty result, not an error.
	Query(ctx context.Context, filters FilterSet) ([]Item, error)

	// GetByID returns the item or nil when it does not exist.
	GetByID(ctx context.Context, id string) (*Item, error)
}

// Writer is the mutation side of the catalog.
type Writer interface {
	// Create stores a new item and returns its generated id.
	Create(ctx context.Context, item Item) (string, error)

	// Update applies a partial update. Updating a missing id fails.
	Update(ctx context.Context, id string, patch Patch) (*Item, error)

	// Delete removes the item.
	Delete(ctx context.Context, id string) error

	// SetStatus applies a moderation or owner status transition.
	SetStatus(ctx context.Context, id string, t Transition) (*Item, error)

	// IncrementViews bumps the view counter by one.
	IncrementViews(ctx context.Context, id string) (*Item, error)

	// ToggleLike adds userID to the like set, or removes it when present.
	ToggleLike(ctx context.Context, id, userID string) (*Item, error)
}

// Service is the full catalog contract. The trusted implementation talks to
// the store; the proxied implementation talks HTTP to a trusted one.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: failures are *storeerr.StoreError values carrying a kind.
type Service interface {
	Reader
	Writer
}

// Compose joins a Reader and a Writer into a Service.
func Compose(r Reader, w Writer) Service {
	return composed{Reader: r, Writer: w}
}

type composed struct {
	Reader
	Writer
}
