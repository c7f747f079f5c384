package docstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilter_Match(t *testing.T) {
	d := Document{"category": "books", "price": 12.5, "status": "active"}

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"empty", nil, true},
		{"eq string", Filter{Eq("category", "books")}, true},
		{"eq mismatch", Filter{Eq("category", "toys")}, false},
		{"range inside", Filter{GTE("price", 10), LTE("price", 20.0)}, true},
		{"range inclusive", Filter{GTE("price", 12.5), LTE("price", 12.5)}, true},
		{"below min", Filter{GTE("price", 13)}, false},
		{"missing attr", Filter{Eq("ownerId", "u1")}, false},
		{"kind mismatch", Filter{Eq("price", "12.5")}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Match(d))
		})
	}
}

func TestFilter_String(t *testing.T) {
	f := Filter{Eq("category", "books"), GTE("price", 5)}
	assert.Equal(t, "category = books AND price >= 5", f.String())
}

func TestDocument_EncodeDecode(t *testing.T) {
	type item struct {
		ID        string    `json:"id"`
		Views     int64     `json:"viewCount"`
		CreatedAt time.Time `json:"createdAt"`
	}
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	d, err := Encode(item{ID: "x", Views: 3, CreatedAt: created})
	require.NoError(t, err)
	assert.Equal(t, "x", d.ID())
	assert.Equal(t, 3.0, d["viewCount"])
	assert.True(t, created.Equal(d.CreatedAt()))

	var back item
	require.NoError(t, d.Decode(&back))
	assert.Equal(t, int64(3), back.Views)
}

func TestUpdate_ApplyLeavesInputUntouched(t *testing.T) {
	d := Document{"id": "a", "likes": []any{"u1"}}
	out, err := Update{Toggle: map[string]string{"likes": "u2"}}.Apply(d)
	require.NoError(t, err)
	assert.Equal(t, []any{"u1"}, d["likes"])
	assert.Equal(t, []any{"u1", "u2"}, out["likes"])
}

func TestUpdate_IncrementNonNumeric(t *testing.T) {
	_, err := Update{Increment: map[string]float64{"title": 1}}.Apply(Document{"title": "x"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
