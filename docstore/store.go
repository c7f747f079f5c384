package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"
)

// Attribute names with special meaning to the store.
const (
	AttrID        = "id"
	AttrCreatedAt = "createdAt"
)

// Secondary index names.
const (
	IndexCategory = "byCategory"
	IndexOwner    = "byOwner"
	IndexStatus   = "byStatus"
)

// IndexAttrs maps each secondary index to the attribute it is keyed by.
var IndexAttrs = map[string]string{
	IndexCategory: "category",
	IndexOwner:    "ownerId",
	IndexStatus:   "status",
}

var attrPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// ValidAttr reports whether name is usable as an attribute in a filter or update.
func ValidAttr(name string) bool {
	return attrPattern.MatchString(name)
}

// Document is a stored item: a JSON object keyed by attribute name.
type Document map[string]any

// ID returns the document's primary key.
func (d Document) ID() string {
	s, _ := d[AttrID].(string)
	return s
}

// CreatedAt returns the document's index sort key.
func (d Document) CreatedAt() time.Time {
	switch v := d[AttrCreatedAt].(type) {
	case time.Time:
		return v
	case string:
		t, err := time.Parse(time.RFC3339Nano, v)
		if err == nil {
			return t
		}
	}
	return time.Time{}
}

// Clone returns a deep copy of the document.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return map[string]any(Document(val).Clone())
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return val
	}
}

// Encode converts a value into a Document through its JSON representation.
func Encode(v any) (Document, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("docstore: encode: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("docstore: encode: %w", err)
	}
	return doc, nil
}

// Decode fills v from the document through its JSON representation.
func (d Document) Decode(v any) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("docstore: decode: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("docstore: decode: %w", err)
	}
	return nil
}

// PutCondition guards a Put.
type PutCondition int

const (
	// PutAlways writes unconditionally.
	PutAlways PutCondition = iota
	// PutIfNotExists fails with ErrConditionFailed when the id is taken.
	PutIfNotExists
)

// QueryInput is an indexed range query.
type QueryInput struct {
	// Index is one of the secondary index names.
	Index string

	// Key is the value the index attribute must equal.
	Key string

	// Filter is evaluated by the store against each index match.
	Filter Filter

	// Ascending reverses the index's default newest-first order.
	Ascending bool

	// Limit caps the number of returned documents. Zero means no cap.
	Limit int
}

// ScanInput is a full table scan.
type ScanInput struct {
	// Filter is evaluated by the store against every document.
	Filter Filter

	// Limit caps the number of returned documents. Zero means no cap.
	Limit int
}

// Store is the document store contract.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Atomicity: each call is atomic for the single item it touches.
// - Order: Query returns index order; Scan order is unspecified.
// - Errors: ErrNotFound for a missing id, ErrTableNotFound when the backing
//   table is absent; implementations may also return raw driver errors.
type Store interface {
	// Get fetches one document by primary key.
	Get(ctx context.Context, id string) (Document, error)

	// Put writes a whole document.
	Put(ctx context.Context, doc Document, cond PutCondition) error

	// Update applies a partial update and returns the new document.
	// It never creates a document.
	Update(ctx context.Context, id string, u Update) (Document, error)

	// Delete removes a document.
	Delete(ctx context.Context, id string) error

	// Query reads a secondary index.
	Query(ctx context.Context, in QueryInput) ([]Document, error)

	// Scan reads the whole table.
	Scan(ctx context.Context, in ScanInput) ([]Document, error)

	// Ping verifies the store and its table are reachable.
	Ping(ctx context.Context) error
}
