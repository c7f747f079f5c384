package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonwraymond/catalogops/catalog"
	"github.com/jonwraymond/catalogops/docstore"
)

func TestChoose(t *testing.T) {
	tests := []struct {
		name    string
		filters catalog.FilterSet
		want    Plan
	}{
		{
			name:    "id wins over everything",
			filters: catalog.FilterSet{ID: "item_1", Category: "books", OwnerID: "u1"},
			want:    Plan{Kind: PlanGet, ID: "item_1"},
		},
		{
			name:    "category only uses index order",
			filters: catalog.FilterSet{Category: "books"},
			want:    Plan{Kind: PlanIndex, Index: docstore.IndexCategory, Key: "books", StoreLimit: catalog.DefaultLimit},
		},
		{
			name:    "owner with price bounds",
			filters: catalog.FilterSet{OwnerID: "u1", MinPrice: catalog.Some(10), MaxPrice: catalog.Some(100)},
			want: Plan{
				Kind:       PlanIndex,
				Index:      docstore.IndexOwner,
				Key:        "u1",
				Filter:     docstore.Filter{docstore.GTE("price", 10.0), docstore.LTE("price", 100.0)},
				StoreLimit: catalog.DefaultLimit,
			},
		},
		{
			name:    "status ascending",
			filters: catalog.FilterSet{Status: catalog.StatusActive, Order: catalog.Order{Field: catalog.OrderCreatedAt, Direction: catalog.Asc}},
			want:    Plan{Kind: PlanIndex, Index: docstore.IndexStatus, Key: "active", Ascending: true, StoreLimit: catalog.DefaultLimit},
		},
		{
			name:    "index with non-index order sorts client-side",
			filters: catalog.FilterSet{Category: "books", Order: catalog.Order{Field: catalog.OrderPrice, Direction: catalog.Asc}},
			want:    Plan{Kind: PlanIndex, Index: docstore.IndexCategory, Key: "books", SortClient: true},
		},
		{
			name:    "search keeps the limit client-side",
			filters: catalog.FilterSet{Category: "books", Search: "go"},
			want:    Plan{Kind: PlanIndex, Index: docstore.IndexCategory, Key: "books"},
		},
		{
			name:    "two equality filters scan",
			filters: catalog.FilterSet{Category: "books", Status: catalog.StatusActive},
			want: Plan{
				Kind:       PlanScan,
				Filter:     docstore.Filter{docstore.Eq("category", "books"), docstore.Eq("status", "active")},
				SortClient: true,
			},
		},
		{
			name:    "no equality filters scan",
			filters: catalog.FilterSet{MaxPrice: catalog.Some(20)},
			want:    Plan{Kind: PlanScan, Filter: docstore.Filter{docstore.LTE("price", 20.0)}, SortClient: true},
		},
		{
			name:    "empty scan",
			filters: catalog.FilterSet{},
			want:    Plan{Kind: PlanScan, SortClient: true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Choose(tt.filters.Normalize()))
		})
	}
}

func TestChoose_ExactlyOneEqualityFilterNeverScans(t *testing.T) {
	for _, f := range []catalog.FilterSet{
		{Category: "c"},
		{OwnerID: "o"},
		{Status: catalog.StatusDraft},
		{Category: "c", Search: "x", MinPrice: catalog.Some(1)},
	} {
		assert.Equal(t, PlanIndex, Choose(f.Normalize()).Kind, "%+v", f)
	}
	for _, f := range []catalog.FilterSet{
		{Category: "c", OwnerID: "o"},
		{OwnerID: "o", Status: catalog.StatusActive},
		{Category: "c", OwnerID: "o", Status: catalog.StatusActive},
	} {
		assert.Equal(t, PlanScan, Choose(f.Normalize()).Kind, "%+v", f)
	}
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "get", PlanGet.String())
	assert.Equal(t, "index", PlanIndex.String())
	assert.Equal(t, "scan", PlanScan.String())
}
