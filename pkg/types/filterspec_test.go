package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestFilterSpec_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		spec      FilterSpec
		wantField string
	}{
		{name: "empty spec", spec: FilterSpec{}},
		{name: "equal bounds", spec: FilterSpec{PriceMin: ptr(10.0), PriceMax: ptr(10.0)}},
		{name: "only min", spec: FilterSpec{PriceMin: ptr(500.0)}},
		{
			name:      "min above max",
			spec:      FilterSpec{PriceMin: ptr(200.0), PriceMax: ptr(100.0)},
			wantField: "price_min",
		},
		{
			name:      "NaN rating",
			spec:      FilterSpec{RatingMin: ptr(math.NaN())},
			wantField: "rating_min",
		},
		{
			name:      "infinite max",
			spec:      FilterSpec{PriceMax: ptr(math.Inf(1))},
			wantField: "price_max",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.spec.Validate()
			if tt.wantField == "" {
				require.NoError(t, err)
				return
			}

			var fe *InvalidFilterError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, tt.wantField, fe.Field)
		})
	}
}

func TestFilterSpec_HasCategory(t *testing.T) {
	t.Parallel()

	open := FilterSpec{}
	assert.True(t, open.HasCategory("Tech"), "empty set means no restriction")

	closed := FilterSpec{Categories: []string{"Home"}}
	assert.True(t, closed.HasCategory("Home"))
	assert.False(t, closed.HasCategory("Tech"))
}

func TestFilterSpec_Key(t *testing.T) {
	t.Parallel()

	a := FilterSpec{Categories: []string{"Tech", "Home", "Tech"}, SearchTerm: "Widget"}
	b := FilterSpec{Categories: []string{"Home", "Tech"}, SearchTerm: "widget"}
	assert.Equal(t, a.Key(), b.Key(), "order, duplicates and case do not change the key")

	c := FilterSpec{Categories: []string{"Home"}}
	assert.NotEqual(t, a.Key(), c.Key())

	d := FilterSpec{PriceMin: ptr(0.0)}
	e := FilterSpec{}
	assert.NotEqual(t, d.Key(), e.Key(), "explicit zero bound differs from absent bound")
}

func TestFilterSpec_WithDefaults(t *testing.T) {
	t.Parallel()

	got := FilterSpec{}.WithDefaults(1.0)
	require.NotNil(t, got.RatingMin)
	assert.InDelta(t, 1.0, *got.RatingMin, 0)

	kept := FilterSpec{RatingMin: ptr(4.0)}.WithDefaults(1.0)
	assert.InDelta(t, 4.0, *kept.RatingMin, 0)
}

func TestSchema_Column(t *testing.T) {
	t.Parallel()

	s := Schema{Category: "Category", Name: "App", Price: "Price", Rating: "Rating"}
	assert.Equal(t, "App", s.Column(RoleName))
	assert.Equal(t, DefaultRevenueColumn, s.Column(RoleRevenue))
	assert.Empty(t, s.Column(RoleSuccess))
	assert.True(t, IsNumericRole(RolePrice))
	assert.False(t, IsNumericRole(RoleCategory))
}
