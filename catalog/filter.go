package catalog

import (
	"cmp"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
)

// Pagination limits applied by Normalize.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Bound is an optional numeric bound.
type Bound struct {
	Value float64
	Set   bool
}

// Some returns a set bound.
func Some(v float64) Bound {
	return Bound{Value: v, Set: true}
}

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// OrderField names an item field results can be ordered by.
type OrderField string

const (
	OrderCreatedAt OrderField = "createdAt"
	OrderUpdatedAt OrderField = "updatedAt"
	OrderPrice     OrderField = "price"
	OrderRating    OrderField = "rating"
	OrderViewCount OrderField = "viewCount"
	OrderTitle     OrderField = "title"
)

// Order is an ordering request.
type Order struct {
	Field     OrderField
	Direction Direction
}

// DefaultOrder is newest first, matching the store's index order.
var DefaultOrder = Order{Field: OrderCreatedAt, Direction: Desc}

func (o Order) valid() bool {
	switch o.Field {
	case OrderCreatedAt, OrderUpdatedAt, OrderPrice, OrderRating, OrderViewCount, OrderTitle:
	default:
		return false
	}
	return o.Direction == Asc || o.Direction == Desc
}

// Compare orders a and b by the requested field and direction.
func (o Order) Compare(a, b *Item) int {
	var c int
	switch o.Field {
	case OrderUpdatedAt:
		c = a.UpdatedAt.Compare(b.UpdatedAt)
	case OrderPrice:
		c = cmp.Compare(a.Price, b.Price)
	case OrderRating:
		c = cmp.Compare(a.Rating, b.Rating)
	case OrderViewCount:
		c = cmp.Compare(a.ViewCount, b.ViewCount)
	case OrderTitle:
		c = strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
	default:
		c = a.CreatedAt.Compare(b.CreatedAt)
	}
	if o.Direction == Desc {
		return -c
	}
	return c
}

// FilterSet is an immutable set of catalog query criteria. It is passed by
// value; Normalize returns a new value rather than modifying the receiver.
type FilterSet struct {
	ID       string
	Category string
	OwnerID  string
	Status   Status
	MinPrice Bound
	MaxPrice Bound
	Search   string
	Limit    int
	Order    Order
}

// Normalize trims strings and applies default limit and ordering.
func (f FilterSet) Normalize() FilterSet {
	f.ID = strings.TrimSpace(f.ID)
	f.Category = strings.TrimSpace(f.Category)
	f.OwnerID = strings.TrimSpace(f.OwnerID)
	f.Status = Status(strings.ToLower(strings.TrimSpace(string(f.Status))))
	f.Search = strings.TrimSpace(f.Search)
	if f.Limit <= 0 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	if f.Order.Field == "" {
		f.Order.Field = DefaultOrder.Field
	}
	if f.Order.Direction == "" {
		f.Order.Direction = DefaultOrder.Direction
	}
	return f
}

// Validate reports malformed criteria.
func (f FilterSet) Validate() error {
	if f.Status != "" && !f.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidFilter, f.Status)
	}
	for name, b := range map[string]Bound{ParamMinPrice: f.MinPrice, ParamMaxPrice: f.MaxPrice} {
		if b.Set && (math.IsNaN(b.Value) || math.IsInf(b.Value, 0)) {
			return fmt.Errorf("%w: %s must be a finite number", ErrInvalidFilter, name)
		}
	}
	if f.MinPrice.Set && f.MaxPrice.Set && f.MinPrice.Value > f.MaxPrice.Value {
		return fmt.Errorf("%w: minPrice %v exceeds maxPrice %v", ErrInvalidFilter, f.MinPrice.Value, f.MaxPrice.Value)
	}
	if f.Order.Field != "" && !f.Order.valid() {
		return fmt.Errorf("%w: unsupported ordering %s %s", ErrInvalidFilter, f.Order.Field, f.Order.Direction)
	}
	return nil
}

// EqualityFilters returns how many of category, owner and status are set.
func (f FilterSet) EqualityFilters() int {
	n := 0
	if f.Category != "" {
		n++
	}
	if f.OwnerID != "" {
		n++
	}
	if f.Status != "" {
		n++
	}
	return n
}

// MatchesSearch reports whether the item matches the free-text term as a
// case-insensitive substring of its title, description or any tag.
func (f FilterSet) MatchesSearch(it *Item) bool {
	if f.Search == "" {
		return true
	}
	term := strings.ToLower(f.Search)
	if strings.Contains(strings.ToLower(it.Title), term) ||
		strings.Contains(strings.ToLower(it.Description), term) {
		return true
	}
	for _, tag := range it.Tags {
		if strings.Contains(strings.ToLower(tag), term) {
			return true
		}
	}
	return false
}

// Canonical returns a deterministic representation used for cache keys.
// Unset criteria are omitted so equivalent filter sets share a key.
func (f FilterSet) Canonical() map[string]any {
	out := map[string]any{
		"limit":          f.Limit,
		"orderByField":   string(f.Order.Field),
		"orderDirection": string(f.Order.Direction),
	}
	if f.ID != "" {
		out["id"] = f.ID
	}
	if f.Category != "" {
		out["category"] = f.Category
	}
	if f.OwnerID != "" {
		out["sellerId"] = f.OwnerID
	}
	if f.Status != "" {
		out["status"] = string(f.Status)
	}
	if f.MinPrice.Set {
		out["minPrice"] = f.MinPrice.Value
	}
	if f.MaxPrice.Set {
		out["maxPrice"] = f.MaxPrice.Value
	}
	if f.Search != "" {
		out["search"] = strings.ToLower(f.Search)
	}
	return out
}

// Query parameter names used across the proxy boundary.
const (
	ParamID             = "id"
	ParamCategory       = "category"
	ParamSellerID       = "sellerId"
	ParamStatus         = "status"
	ParamMinPrice       = "minPrice"
	ParamMaxPrice       = "maxPrice"
	ParamSearch         = "search"
	ParamOrderByField   = "orderByField"
	ParamOrderDirection = "orderDirection"
	ParamLimit          = "limit"
)

// Values encodes the filter set as proxy query parameters.
func (f FilterSet) Values() url.Values {
	v := url.Values{}
	set := func(k, s string) {
		if s != "" {
			v.Set(k, s)
		}
	}
	set(ParamID, f.ID)
	set(ParamCategory, f.Category)
	set(ParamSellerID, f.OwnerID)
	set(ParamStatus, string(f.Status))
	set(ParamSearch, f.Search)
	set(ParamOrderByField, string(f.Order.Field))
	set(ParamOrderDirection, string(f.Order.Direction))
	if f.MinPrice.Set {
		v.Set(ParamMinPrice, strconv.FormatFloat(f.MinPrice.Value, 'f', -1, 64))
	}
	if f.MaxPrice.Set {
		v.Set(ParamMaxPrice, strconv.FormatFloat(f.MaxPrice.Value, 'f', -1, 64))
	}
	if f.Limit > 0 {
		v.Set(ParamLimit, strconv.Itoa(f.Limit))
	}
	return v
}

// ParseValues decodes proxy query parameters into a filter set.
func ParseValues(v url.Values) (FilterSet, error) {
	f := FilterSet{
		ID:       v.Get(ParamID),
		Category: v.Get(ParamCategory),
		OwnerID:  v.Get(ParamSellerID),
		Status:   Status(v.Get(ParamStatus)),
		Search:   v.Get(ParamSearch),
		Order: Order{
			Field:     OrderField(v.Get(ParamOrderByField)),
			Direction: Direction(strings.ToLower(v.Get(ParamOrderDirection))),
		},
	}
	for _, p := range []struct {
		name string
		dst  *Bound
	}{
		{ParamMinPrice, &f.MinPrice},
		{ParamMaxPrice, &f.MaxPrice},
	} {
		raw := strings.TrimSpace(v.Get(p.name))
		if raw == "" {
			continue
		}
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return FilterSet{}, fmt.Errorf("%w: %s: %v", ErrInvalidFilter, p.name, err)
		}
		*p.dst = Some(n)
	}
	if raw := strings.TrimSpace(v.Get(ParamLimit)); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return FilterSet{}, fmt.Errorf("%w: limit: %v", ErrInvalidFilter, err)
		}
		f.Limit = n
	}
	f = f.Normalize()
	if err := f.Validate(); err != nil {
		return FilterSet{}, err
	}
	return f, nil
}
