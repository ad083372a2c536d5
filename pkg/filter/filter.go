// Package filter implements the filter-and-aggregate pipeline: applying a
// FilterSpec to a dataset, grouping and reducing the resulting view, and
// deriving the pricing insight and rankings shown on the dashboard.
//
// Every function is pure. Datasets are never mutated, and a View shares
// record values with the dataset it came from.
package filter

import (
	"strings"

	domain "github.com/donaldgifford/smartsell/pkg/types"
)

// DefaultRatingMin is applied when a spec carries no rating bound.
const DefaultRatingMin = 1.0

// Apply returns the records of ds that satisfy every constraint in spec,
// in dataset order. An invalid spec is rejected before any row is read.
// An empty result is not an error.
func Apply(ds *domain.Dataset, spec domain.FilterSpec) (*domain.View, error) {
	spec = spec.WithDefaults(DefaultRatingMin)
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	m := newMatcher(ds.Schema, &spec)

	records := make([]domain.Record, 0, len(ds.Records))
	for i := range ds.Records {
		if m.match(&ds.Records[i]) {
			records = append(records, ds.Records[i])
		}
	}

	return &domain.View{
		DatasetID: ds.ID,
		LoadID:    ds.LoadID,
		Spec:      spec,
		Schema:    ds.Schema,
		Columns:   ds.Columns,
		Records:   records,
	}, nil
}

// Reapply filters an existing view again with spec. The result is always a
// subset of v.
func Reapply(v *domain.View, spec domain.FilterSpec) (*domain.View, error) {
	return Apply(&domain.Dataset{
		ID:      v.DatasetID,
		LoadID:  v.LoadID,
		Schema:  v.Schema,
		Columns: v.Columns,
		Records: v.Records,
	}, spec)
}

// matcher is a FilterSpec compiled against one schema.
type matcher struct {
	spec     *domain.FilterSpec
	category string
	price    string
	rating   string
	name     string
	search   string
}

func newMatcher(schema domain.Schema, spec *domain.FilterSpec) *matcher {
	return &matcher{
		spec:     spec,
		category: schema.Category,
		price:    schema.Price,
		rating:   schema.Rating,
		name:     schema.Name,
		search:   strings.ToLower(spec.SearchTerm),
	}
}

func (m *matcher) match(r *domain.Record) bool {
	if !m.matchCategory(r) {
		return false
	}
	if !m.matchPrice(r) {
		return false
	}
	if !m.matchRating(r) {
		return false
	}
	return m.matchSearch(r)
}

func (m *matcher) matchCategory(r *domain.Record) bool {
	return m.spec.HasCategory(r.Str(m.category))
}

func (m *matcher) matchPrice(r *domain.Record) bool {
	if m.spec.PriceMin == nil && m.spec.PriceMax == nil {
		return true
	}
	price, ok := r.Num(m.price)
	if !ok {
		return false
	}
	if m.spec.PriceMin != nil && price < *m.spec.PriceMin {
		return false
	}
	if m.spec.PriceMax != nil && price > *m.spec.PriceMax {
		return false
	}
	return true
}

func (m *matcher) matchRating(r *domain.Record) bool {
	if m.spec.RatingMin == nil {
		return true
	}
	rating, ok := r.Num(m.rating)
	return ok && rating >= *m.spec.RatingMin
}

func (m *matcher) matchSearch(r *domain.Record) bool {
	if m.search == "" {
		return true
	}
	return strings.Contains(strings.ToLower(r.Str(m.name)), m.search)
}
