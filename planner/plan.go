package planner

import (
	"github.com/jonwraymond/catalogops/catalog"
	"github.com/jonwraymond/catalogops/docstore"
)

// Kind is an access pattern.
type Kind int

const (
	// PlanGet is a point lookup by primary key.
	PlanGet Kind = iota
	// PlanIndex is a range query on one secondary index.
	PlanIndex
	// PlanScan is a full table scan with a combined filter.
	PlanScan
)

func (k Kind) String() string {
	switch k {
	case PlanGet:
		return "get"
	case PlanIndex:
		return "index"
	default:
		return "scan"
	}
}

// Plan is a fully resolved store access.
type Plan struct {
	Kind Kind

	// ID is the primary key for PlanGet.
	ID string

	// Index and Key select the secondary index for PlanIndex.
	Index string
	Key   string

	// Filter is pushed to the store.
	Filter docstore.Filter

	// Ascending requests oldest-first index order.
	Ascending bool

	// StoreLimit is the limit pushed to the store. Zero means unbounded.
	StoreLimit int

	// SortClient reports whether results are sorted after retrieval.
	SortClient bool
}

// Choose selects the access pattern for f. f should already be normalized.
func Choose(f catalog.FilterSet) Plan {
	if f.ID != "" {
		return Plan{Kind: PlanGet, ID: f.ID}
	}

	if f.EqualityFilters() == 1 {
		p := Plan{Kind: PlanIndex, Filter: priceFilter(f)}
		switch {
		case f.Category != "":
			p.Index, p.Key = docstore.IndexCategory, f.Category
		case f.OwnerID != "":
			p.Index, p.Key = docstore.IndexOwner, f.OwnerID
		default:
			p.Index, p.Key = docstore.IndexStatus, string(f.Status)
		}
		if f.Order.Field == catalog.OrderCreatedAt {
			p.Ascending = f.Order.Direction == catalog.Asc
			if f.Search == "" {
				p.StoreLimit = f.Limit
			}
		} else {
			p.SortClient = true
		}
		return p
	}

	var filter docstore.Filter
	if f.Category != "" {
		filter = append(filter, docstore.Eq("category", f.Category))
	}
	if f.OwnerID != "" {
		filter = append(filter, docstore.Eq("ownerId", f.OwnerID))
	}
	if f.Status != "" {
		filter = append(filter, docstore.Eq("status", string(f.Status)))
	}
	filter = append(filter, priceFilter(f)...)
	return Plan{Kind: PlanScan, Filter: filter, SortClient: true}
}

func priceFilter(f catalog.FilterSet) docstore.Filter {
	var filter docstore.Filter
	if f.MinPrice.Set {
		filter = append(filter, docstore.GTE("price", f.MinPrice.Value))
	}
	if f.MaxPrice.Set {
		filter = append(filter, docstore.LTE("price", f.MaxPrice.Value))
	}
	return filter
}

// matches re-checks every criterion against an item fetched by id, since a
// point lookup ignores the other criteria.
func matches(f catalog.FilterSet, it *catalog.Item) bool {
	switch {
	case f.Category != "" && it.Category != f.Category:
		return false
	case f.OwnerID != "" && it.OwnerID != f.OwnerID:
		return false
	case f.Status != "" && it.Status != f.Status:
		return false
	case f.MinPrice.Set && it.Price < f.MinPrice.Value:
		return false
	case f.MaxPrice.Set && it.Price > f.MaxPrice.Value:
		return false
	}
	return true
}
