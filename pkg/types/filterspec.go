package domain

import (
	"math"
	"slices"
	"strconv"
	"strings"
)

// Validate checks the spec for contradictory or non-finite bounds.
func (f *FilterSpec) Validate() error {
	for _, b := range []struct {
		field string
		v     *float64
	}{
		{"price_min", f.PriceMin},
		{"price_max", f.PriceMax},
		{"rating_min", f.RatingMin},
	} {
		if b.v != nil && (math.IsNaN(*b.v) || math.IsInf(*b.v, 0)) {
			return &InvalidFilterError{Field: b.field, Reason: "must be a finite number"}
		}
	}

	if f.PriceMin != nil && f.PriceMax != nil && *f.PriceMin > *f.PriceMax {
		return &InvalidFilterError{
			Field: "price_min",
			Reason: "must not exceed price_max (" +
				formatFloat(*f.PriceMin) + " > " + formatFloat(*f.PriceMax) + ")",
		}
	}

	return nil
}

// HasCategory reports whether category passes the category constraint.
func (f *FilterSpec) HasCategory(category string) bool {
	if len(f.Categories) == 0 {
		return true
	}
	return slices.Contains(f.Categories, category)
}

// Key returns a canonical string for the spec. Two specs with the same key
// select the same rows from the same dataset.
func (f *FilterSpec) Key() string {
	var b strings.Builder

	cats := slices.Clone(f.Categories)
	slices.Sort(cats)
	cats = slices.Compact(cats)

	b.WriteString("c=")
	for i, c := range cats {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Quote(c))
	}
	b.WriteString(";pmin=")
	writeBound(&b, f.PriceMin)
	b.WriteString(";pmax=")
	writeBound(&b, f.PriceMax)
	b.WriteString(";rmin=")
	writeBound(&b, f.RatingMin)
	b.WriteString(";q=")
	b.WriteString(strconv.Quote(strings.ToLower(f.SearchTerm)))

	return b.String()
}

// WithDefaults returns a copy of f where an absent rating bound is
// replaced by ratingMin.
func (f FilterSpec) WithDefaults(ratingMin float64) FilterSpec {
	if f.RatingMin == nil {
		f.RatingMin = &ratingMin
	}
	return f
}

func writeBound(b *strings.Builder, v *float64) {
	if v == nil {
		b.WriteByte('-')
		return
	}
	b.WriteString(formatFloat(*v))
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
