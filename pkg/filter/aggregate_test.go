package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/donaldgifford/smartsell/pkg/types"
)

func allRows(t *testing.T) *domain.View {
	t.Helper()

	v, err := Apply(catalogDataset(), domain.FilterSpec{RatingMin: ptrTo(0)})
	require.NoError(t, err)
	return v
}

func keys(s domain.AggregateSeries) []string {
	out := make([]string, 0, len(s.Points))
	for _, p := range s.Points {
		out = append(out, p.Key)
	}
	return out
}

func TestAggregate_Reducers(t *testing.T) {
	t.Parallel()

	v := allRows(t)

	tests := []struct {
		name    string
		value   string
		reducer domain.Reducer
		want    map[string]float64
	}{
		{
			name:    "mean price",
			value:   "Price",
			reducer: domain.ReduceMean,
			want:    map[string]float64{"Tech": 470.0 / 3, "Home": 32.5, "Beauty": 21, "Sports": 150},
		},
		{
			name:    "sum sales",
			value:   "Sales",
			reducer: domain.ReduceSum,
			want:    map[string]float64{"Tech": 1220, "Home": 960, "Beauty": 4000, "Sports": 80},
		},
		{
			name:    "count without value column",
			reducer: domain.ReduceCount,
			want:    map[string]float64{"Tech": 3, "Home": 2, "Beauty": 2, "Sports": 1},
		},
		{
			name:    "min rating",
			value:   "Rating",
			reducer: domain.ReduceMin,
			want:    map[string]float64{"Tech": 3.2, "Home": 0.5, "Beauty": 4.4, "Sports": 4.0},
		},
		{
			name:    "max revenue",
			value:   "Revenue",
			reducer: domain.ReduceMax,
			want:    map[string]float64{"Tech": 63000, "Home": 36000, "Beauty": 45000, "Sports": 12000},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s, err := Aggregate(v, "Category", tt.value, tt.reducer, domain.OrderNone)
			require.NoError(t, err)

			assert.Equal(t, []string{"Tech", "Home", "Beauty", "Sports"}, keys(s),
				"first-appearance order")
			for _, p := range s.Points {
				require.NotNil(t, p.Value, p.Key)
				assert.InDelta(t, tt.want[p.Key], *p.Value, 1e-9, p.Key)
			}
		})
	}
}

func TestAggregate_Order(t *testing.T) {
	t.Parallel()

	v := allRows(t)

	tests := []struct {
		order domain.Order
		want  []string
	}{
		{order: domain.OrderNone, want: []string{"Tech", "Home", "Beauty", "Sports"}},
		{order: domain.OrderByKey, want: []string{"Beauty", "Home", "Sports", "Tech"}},
		{order: domain.OrderByValueAsc, want: []string{"Sports", "Home", "Beauty", "Tech"}},
		{order: domain.OrderByValueDesc, want: []string{"Tech", "Home", "Beauty", "Sports"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.order), func(t *testing.T) {
			t.Parallel()

			s, err := Aggregate(v, "Category", "", domain.ReduceCount, tt.order)
			require.NoError(t, err)

			// Home and Beauty tie on count and keep first-appearance order.
			assert.Equal(t, tt.want, keys(s))
		})
	}
}

func TestAggregate_CountsSumToViewSize(t *testing.T) {
	t.Parallel()

	ds := catalogDataset()
	for _, spec := range propertySpecs() {
		v, err := Apply(ds, spec)
		require.NoError(t, err)

		for _, col := range []string{"Category", "Sub_Category", "Product_Name"} {
			s, err := Aggregate(v, col, "", domain.ReduceCount, domain.OrderNone)
			require.NoError(t, err)
			assert.Equal(t, v.Len(), s.Total())

			var fromValues float64
			for _, p := range s.Points {
				fromValues += *p.Value
			}
			assert.InDelta(t, float64(v.Len()), fromValues, 0)
		}
	}
}

func TestAggregate_EmptyView(t *testing.T) {
	t.Parallel()

	v, err := Apply(catalogDataset(), domain.FilterSpec{Categories: []string{"Garden"}})
	require.NoError(t, err)
	require.Zero(t, v.Len())

	for _, col := range []string{"Category", "Sub_Category", "Product_Name"} {
		s, err := Aggregate(v, col, "Price", domain.ReduceMean, domain.OrderByValueAsc)
		require.NoError(t, err)
		assert.NotNil(t, s.Points)
		assert.Empty(t, s.Points)
	}
}

func TestAggregate_GroupWithoutValues(t *testing.T) {
	t.Parallel()

	ds := newDataset(
		row{cat: "Tech", name: "Widget", price: 100, rating: 4.5, success: 10},
		row{cat: "Home", name: "Gadget", price: 50, rating: 3.0},
		row{cat: "Sports", name: "Ball", price: 20, rating: 4.0, success: 30},
	)
	delete(ds.Records[1].Numbers, "Success")

	v, err := Apply(ds, domain.FilterSpec{})
	require.NoError(t, err)

	tests := []struct {
		reducer   domain.Reducer
		order     domain.Order
		wantKeys  []string
		wantValue bool
	}{
		{reducer: domain.ReduceMean, order: domain.OrderNone, wantKeys: []string{"Tech", "Home", "Sports"}},
		{reducer: domain.ReduceMin, order: domain.OrderByValueAsc, wantKeys: []string{"Tech", "Sports", "Home"}},
		{reducer: domain.ReduceMax, order: domain.OrderByValueDesc, wantKeys: []string{"Sports", "Tech", "Home"}},
		{reducer: domain.ReduceSum, order: domain.OrderByValueAsc, wantKeys: []string{"Home", "Tech", "Sports"}, wantValue: true},
	}

	for _, tt := range tests {
		t.Run(string(tt.reducer), func(t *testing.T) {
			t.Parallel()

			s, err := Aggregate(v, "Category", "Success", tt.reducer, tt.order)
			require.NoError(t, err)
			assert.Equal(t, tt.wantKeys, keys(s))

			for _, p := range s.Points {
				if p.Key != "Home" {
					require.NotNil(t, p.Value)
					continue
				}
				assert.Equal(t, 1, p.Count)
				if tt.wantValue {
					require.NotNil(t, p.Value)
					assert.InDelta(t, 0.0, *p.Value, 0)
				} else {
					assert.Nil(t, p.Value, "no data, not zero")
				}
			}
		})
	}
}

func TestAggregate_Errors(t *testing.T) {
	t.Parallel()

	v := allRows(t)

	tests := []struct {
		name    string
		group   string
		value   string
		reducer domain.Reducer
		order   domain.Order
		wantErr error
	}{
		{name: "unknown group column", group: "Region", value: "Price", reducer: domain.ReduceSum, wantErr: domain.ErrUnknownColumn},
		{name: "numeric group column", group: "Price", value: "Sales", reducer: domain.ReduceSum, wantErr: domain.ErrNotCategorical},
		{name: "text value column", group: "Category", value: "Product_Name", reducer: domain.ReduceSum, wantErr: domain.ErrNotNumeric},
		{name: "unknown reducer", group: "Category", value: "Price", reducer: "median", wantErr: domain.ErrUnknownReducer},
		{name: "mean without value", group: "Category", reducer: domain.ReduceMean, wantErr: domain.ErrUnknownColumn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Aggregate(v, tt.group, tt.value, tt.reducer, tt.order)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, err := Aggregate(v, "Category", "", domain.ReduceCount, "sideways")
	var fe *domain.InvalidFilterError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "order", fe.Field)
}

func TestTrend(t *testing.T) {
	t.Parallel()

	s, err := Trend(allRows(t), "Year", "Revenue", domain.ReduceSum)
	require.NoError(t, err)

	assert.Equal(t, []string{"2020", "2021", "2022"}, keys(s))
	assert.InDelta(t, 36000+1500+45000, *s.Points[0].Value, 0)
	assert.InDelta(t, 36000+32000+12000, *s.Points[1].Value, 0)
	assert.InDelta(t, 30000+63000, *s.Points[2].Value, 0)
	assert.Equal(t, domain.OrderByKey, s.Order)
}

func TestTrend_TextPeriods(t *testing.T) {
	t.Parallel()

	assert.Negative(t, comparePeriods("9", "10"), "numeric, not lexical")
	assert.Negative(t, comparePeriods("2021", "FY22"), "numbers before text")
	assert.Positive(t, comparePeriods("Q2", "Q1"))
}

func TestHierarchy(t *testing.T) {
	t.Parallel()

	nodes, err := Hierarchy(allRows(t), []string{"Category", "Sub_Category"}, "Sales")
	require.NoError(t, err)
	require.Len(t, nodes, 4)

	tech := nodes[0]
	assert.Equal(t, "Tech", tech.Key)
	assert.InDelta(t, 1220, tech.Value, 0)
	assert.Equal(t, 3, tech.Count)
	require.Len(t, tech.Children, 2)
	assert.Equal(t, "Phones", tech.Children[0].Key)
	assert.InDelta(t, 820, tech.Children[0].Value, 0)
	assert.Equal(t, "Audio", tech.Children[1].Key)
	assert.Empty(t, tech.Children[0].Children)

	counted, err := Hierarchy(allRows(t), []string{"Category"}, "")
	require.NoError(t, err)
	assert.InDelta(t, 3, counted[0].Value, 0)

	_, err = Hierarchy(allRows(t), nil, "Sales")
	require.ErrorIs(t, err, domain.ErrUnknownColumn)

	_, err = Hierarchy(allRows(t), []string{"Category"}, "Product_Name")
	require.ErrorIs(t, err, domain.ErrNotNumeric)
}
