package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/donaldgifford/smartsell/pkg/types"
)

var testSchema = domain.Schema{
	Category:    "Category",
	SubCategory: "Sub_Category",
	Name:        "Product_Name",
	Price:       "Price",
	Rating:      "Rating",
	Sales:       "Sales",
	Success:     "Success",
	Year:        "Year",
}

type row struct {
	cat, sub, name                      string
	price, rating, sales, success, year float64
}

func newDataset(rows ...row) *domain.Dataset {
	ds := &domain.Dataset{
		ID:     "test",
		LoadID: "load-1",
		Schema: testSchema,
		Columns: []domain.Column{
			{Name: "Category", Kind: domain.KindText, Role: domain.RoleCategory},
			{Name: "Sub_Category", Kind: domain.KindText, Role: domain.RoleSubCategory},
			{Name: "Product_Name", Kind: domain.KindText, Role: domain.RoleName},
			{Name: "Price", Kind: domain.KindNumber, Role: domain.RolePrice},
			{Name: "Rating", Kind: domain.KindNumber, Role: domain.RoleRating},
			{Name: "Sales", Kind: domain.KindNumber, Role: domain.RoleSales},
			{Name: "Success", Kind: domain.KindNumber, Role: domain.RoleSuccess},
			{Name: "Year", Kind: domain.KindNumber, Role: domain.RoleYear},
			{Name: "Revenue", Kind: domain.KindNumber, Role: domain.RoleRevenue, Derived: true},
		},
	}
	for i, r := range rows {
		ds.Records = append(ds.Records, domain.Record{
			Index: i,
			Text: map[string]string{
				"Category":     r.cat,
				"Sub_Category": r.sub,
				"Product_Name": r.name,
			},
			Numbers: map[string]float64{
				"Price":   r.price,
				"Rating":  r.rating,
				"Sales":   r.sales,
				"Success": r.success,
				"Year":    r.year,
				"Revenue": r.price * r.sales,
			},
		})
	}
	return ds
}

func scenarioDataset() *domain.Dataset {
	return newDataset(
		row{cat: "Tech", name: "Widget", price: 100, rating: 4.5},
		row{cat: "Home", name: "Gadget", price: 50, rating: 3.0},
	)
}

func catalogDataset() *domain.Dataset {
	return newDataset(
		row{"Tech", "Phones", "Smart Widget", 300, 4.6, 120, 72, 2021},
		row{"Home", "Kitchen", "Steel Pan", 40, 4.1, 900, 65, 2020},
		row{"Tech", "Audio", "Widget Buds", 80, 3.8, 400, 45, 2021},
		row{"Beauty", "Makeup", "Lip Gloss", 12, 4.4, 2500, 81, 2022},
		row{"Home", "Decor", "Wall Clock", 25, 0.5, 60, 20, 2020},
		row{"Tech", "Phones", "Basic Phone", 90, 3.2, 700, 58, 2022},
		row{"Sports", "Camping", "Tent", 150, 4.0, 80, 66, 2021},
		row{"Beauty", "Skincare", "Face Cream", 30, 4.8, 1500, 90, 2020},
	)
}

func ptrTo(v float64) *float64 { return &v }

func names(rs []domain.Record) []string {
	out := make([]string, 0, len(rs))
	for i := range rs {
		out = append(out, rs[i].Str("Product_Name"))
	}
	return out
}

func TestApply_ScenarioA(t *testing.T) {
	t.Parallel()

	ds := scenarioDataset()
	v, err := Apply(ds, domain.FilterSpec{
		Categories: []string{"Tech"},
		PriceMin:   ptrTo(0),
		PriceMax:   ptrTo(200),
		RatingMin:  ptrTo(4.0),
	})
	require.NoError(t, err)

	require.Equal(t, 1, v.Len())
	assert.Equal(t, ds.Records[0], v.Records[0])
}

func TestApply_ScenarioB(t *testing.T) {
	t.Parallel()

	v, err := Apply(scenarioDataset(), domain.FilterSpec{
		Categories: []string{},
		PriceMin:   ptrTo(0),
		PriceMax:   ptrTo(40),
	})
	require.NoError(t, err, "empty result is not an error")

	assert.Zero(t, v.Len())
	assert.NotNil(t, v.Records)
}

func TestApply_Constraints(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		spec domain.FilterSpec
		want []string
	}{
		{
			name: "no constraints applies default rating",
			spec: domain.FilterSpec{},
			want: []string{
				"Smart Widget", "Steel Pan", "Widget Buds", "Lip Gloss",
				"Basic Phone", "Tent", "Face Cream",
			},
		},
		{
			name: "explicit zero rating keeps low-rated rows",
			spec: domain.FilterSpec{RatingMin: ptrTo(0)},
			want: []string{
				"Smart Widget", "Steel Pan", "Widget Buds", "Lip Gloss",
				"Wall Clock", "Basic Phone", "Tent", "Face Cream",
			},
		},
		{
			name: "categories",
			spec: domain.FilterSpec{Categories: []string{"Beauty", "Sports"}},
			want: []string{"Lip Gloss", "Tent", "Face Cream"},
		},
		{
			name: "inclusive price bounds",
			spec: domain.FilterSpec{PriceMin: ptrTo(40), PriceMax: ptrTo(90)},
			want: []string{"Steel Pan", "Widget Buds", "Basic Phone"},
		},
		{
			name: "only upper bound",
			spec: domain.FilterSpec{PriceMax: ptrTo(30)},
			want: []string{"Lip Gloss", "Face Cream"},
		},
		{
			name: "inclusive rating bound",
			spec: domain.FilterSpec{RatingMin: ptrTo(4.4)},
			want: []string{"Smart Widget", "Lip Gloss", "Face Cream"},
		},
		{
			name: "case-insensitive search",
			spec: domain.FilterSpec{SearchTerm: "wIdGeT"},
			want: []string{"Smart Widget", "Widget Buds"},
		},
		{
			name: "all constraints combined",
			spec: domain.FilterSpec{
				Categories: []string{"Tech"},
				PriceMax:   ptrTo(100),
				RatingMin:  ptrTo(3.5),
				SearchTerm: "widget",
			},
			want: []string{"Widget Buds"},
		},
		{
			name: "unknown category matches nothing",
			spec: domain.FilterSpec{Categories: []string{"Garden"}},
			want: []string{},
		},
	}

	ds := catalogDataset()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			v, err := Apply(ds, tt.spec)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(v.Records))
		})
	}
}

func TestApply_InvalidSpec(t *testing.T) {
	t.Parallel()

	_, err := Apply(catalogDataset(), domain.FilterSpec{PriceMin: ptrTo(200), PriceMax: ptrTo(100)})

	var fe *domain.InvalidFilterError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "price_min", fe.Field)
}

func TestApply_DoesNotMutateDataset(t *testing.T) {
	t.Parallel()

	ds := catalogDataset()
	before := names(ds.Records)

	v, err := Apply(ds, domain.FilterSpec{Categories: []string{"Home"}})
	require.NoError(t, err)
	require.NotEmpty(t, v.Records)

	v.Records[0] = domain.Record{}
	assert.Equal(t, before, names(ds.Records))
	assert.Equal(t, "load-1", v.LoadID)
	require.NotNil(t, v.Spec.RatingMin, "view records the effective spec")
	assert.InDelta(t, DefaultRatingMin, *v.Spec.RatingMin, 0)
}

// specs used by the property tests below.
func propertySpecs() []domain.FilterSpec {
	return []domain.FilterSpec{
		{},
		{Categories: []string{"Tech"}},
		{Categories: []string{"Home", "Beauty"}},
		{PriceMin: ptrTo(25)},
		{PriceMax: ptrTo(90)},
		{PriceMin: ptrTo(25), PriceMax: ptrTo(150), RatingMin: ptrTo(4)},
		{SearchTerm: "e"},
		{RatingMin: ptrTo(0)},
		{Categories: []string{"Tech", "Sports"}, SearchTerm: "t", RatingMin: ptrTo(3.5)},
	}
}

func TestApply_SubsetInOrder(t *testing.T) {
	t.Parallel()

	ds := catalogDataset()
	for _, spec := range propertySpecs() {
		v, err := Apply(ds, spec)
		require.NoError(t, err)

		last := -1
		for _, r := range v.Records {
			require.Greater(t, r.Index, last, "original order is preserved")
			assert.Equal(t, ds.Records[r.Index], r, "no synthesized rows")
			last = r.Index
		}
	}
}

func TestApply_Monotonic(t *testing.T) {
	t.Parallel()

	ds := catalogDataset()

	tests := []struct {
		name           string
		wide, narrower domain.FilterSpec
	}{
		{
			name:     "raise price_min",
			wide:     domain.FilterSpec{PriceMin: ptrTo(10)},
			narrower: domain.FilterSpec{PriceMin: ptrTo(50)},
		},
		{
			name:     "lower price_max",
			wide:     domain.FilterSpec{PriceMax: ptrTo(300)},
			narrower: domain.FilterSpec{PriceMax: ptrTo(60)},
		},
		{
			name:     "raise rating_min",
			wide:     domain.FilterSpec{RatingMin: ptrTo(1)},
			narrower: domain.FilterSpec{RatingMin: ptrTo(4.2)},
		},
		{
			name:     "remove a category",
			wide:     domain.FilterSpec{Categories: []string{"Tech", "Home"}},
			narrower: domain.FilterSpec{Categories: []string{"Tech"}},
		},
		{
			name:     "add search term",
			wide:     domain.FilterSpec{},
			narrower: domain.FilterSpec{SearchTerm: "widget"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			wide, err := Apply(ds, tt.wide)
			require.NoError(t, err)
			narrow, err := Apply(ds, tt.narrower)
			require.NoError(t, err)

			assert.LessOrEqual(t, narrow.Len(), wide.Len())
		})
	}
}

func TestApply_Idempotent(t *testing.T) {
	t.Parallel()

	ds := catalogDataset()
	for _, spec := range propertySpecs() {
		first, err := Apply(ds, spec)
		require.NoError(t, err)

		again, err := Apply(ds, spec)
		require.NoError(t, err)
		assert.Equal(t, first.Records, again.Records, "deterministic")

		second, err := Reapply(first, spec)
		require.NoError(t, err)
		assert.Equal(t, first.Records, second.Records, "filtering a filtered view changes nothing")
	}
}

func TestApply_EmptyCategoriesMeansAll(t *testing.T) {
	t.Parallel()

	ds := catalogDataset()
	all := Options(ds).Categories

	for _, spec := range propertySpecs() {
		if len(spec.Categories) > 0 {
			continue
		}
		withAll := spec
		withAll.Categories = all

		open, err := Apply(ds, spec)
		require.NoError(t, err)
		closed, err := Apply(ds, withAll)
		require.NoError(t, err)

		assert.Equal(t, open.Records, closed.Records)
	}
}
