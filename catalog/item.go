package catalog

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Status is the lifecycle status of a catalog item.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusDraft    Status = "draft"
	StatusPending  Status = "pending"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusDraft, StatusPending:
		return true
	}
	return false
}

// ParseStatus parses a status string.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("%w: unknown status %q", ErrInvalidFilter, s)
	}
	return st, nil
}

// Transition is a named status change requested by moderation or the owner.
type Transition string

const (
	TransitionActivate   Transition = "activate"
	TransitionDeactivate Transition = "deactivate"
	TransitionApprove    Transition = "approve"
	TransitionDecline    Transition = "decline"
	TransitionDraft      Transition = "draft"
)

// Target returns the status a transition moves an item to.
func (t Transition) Target() (Status, bool) {
	switch t {
	case TransitionActivate, TransitionApprove:
		return StatusActive, true
	case TransitionDeactivate, TransitionDecline:
		return StatusInactive, true
	case TransitionDraft:
		return StatusDraft, true
	}
	return "", false
}

// Item is a catalog listing. The store owns items; cached copies are
// read-only snapshots.
type Item struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Price       float64  `json:"price"`
	Currency    string   `json:"currency,omitempty"`
	Inventory   int      `json:"inventory"`
	Category    string   `json:"category"`
	OwnerID     string   `json:"ownerId"`
	OwnerName   string   `json:"ownerName,omitempty"`
	Status      Status   `json:"status"`
	ViewCount   int64    `json:"viewCount"`
	Likes       []string `json:"likes"`
	Rating      float64  `json:"rating"`
	ReviewCount int      `json:"reviewCount"`
	Tags        []string `json:"tags"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// LikedBy reports whether userID is in the item's like set.
func (it *Item) LikedBy(userID string) bool {
	return slices.Contains(it.Likes, userID)
}

// Validate checks the fields required to create an item.
func (it *Item) Validate() error {
	var missing []string
	if strings.TrimSpace(it.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(it.OwnerID) == "" {
		missing = append(missing, "ownerId")
	}
	if strings.TrimSpace(it.Category) == "" {
		missing = append(missing, "category")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s is required", ErrInvalidItem, strings.Join(missing, ", "))
	}
	if it.Price < 0 {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidItem)
	}
	if it.Inventory < 0 {
		return fmt.Errorf("%w: inventory must not be negative", ErrInvalidItem)
	}
	if it.Status != "" && !it.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidItem, it.Status)
	}
	return nil
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Price       *float64  `json:"price,omitempty"`
	Currency    *string   `json:"currency,omitempty"`
	Inventory   *int      `json:"inventory,omitempty"`
	Category    *string   `json:"category,omitempty"`
	OwnerName   *string   `json:"ownerName,omitempty"`
	Status      *Status   `json:"status,omitempty"`
	Rating      *float64  `json:"rating,omitempty"`
	ReviewCount *int      `json:"reviewCount,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
}

// Fields returns the patch as a document field map keyed by JSON name.
// Only set fields are present.
func (p Patch) Fields() map[string]any {
	out := make(map[string]any)
	if p.Title != nil {
		out["title"] = *p.Title
	}
	if p.Description != nil {
		out["description"] = *p.Description
	}
	if p.Price != nil {
		out["price"] = *p.Price
	}
	if p.Currency != nil {
		out["currency"] = *p.Currency
	}
	if p.Inventory != nil {
		out["inventory"] = *p.Inventory
	}
	if p.Category != nil {
		out["category"] = *p.Category
	}
	if p.OwnerName != nil {
		out["ownerName"] = *p.OwnerName
	}
	if p.Status != nil {
		out["status"] = string(*p.Status)
	}
	if p.Rating != nil {
		out["rating"] = *p.Rating
	}
	if p.ReviewCount != nil {
		out["reviewCount"] = *p.ReviewCount
	}
	if p.Tags != nil {
		out["tags"] = *p.Tags
	}
	return out
}

// Validate rejects patches that are empty or carry invalid values.
func (p Patch) Validate() error {
	if len(p.Fields()) == 0 {
		return fmt.Errorf("%w: patch has no fields", ErrInvalidItem)
	}
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return fmt.Errorf("%w: title must not be empty", ErrInvalidItem)
	}
	if p.Category != nil && strings.TrimSpace(*p.Category) == "" {
		return fmt.Errorf("%w: category must not be empty", ErrInvalidItem)
	}
	if p.Price != nil && *p.Price < 0 {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidItem)
	}
	if p.Inventory != nil && *p.Inventory < 0 {
		return fmt.Errorf("%w: inventory must not be negative", ErrInvalidItem)
	}
	if p.Status != nil && !p.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidItem, *p.Status)
	}
	return nil
}

// Ptr returns a pointer to v. Handy when building patches.
func Ptr[T any](v T) *T {
	return &v
}
