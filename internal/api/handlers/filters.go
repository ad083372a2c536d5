package handlers

import (
	"fmt"
	"strconv"
	"strings"

	domain "github.com/donaldgifford/smartsell/pkg/types"
)

// ParseFilters parses CLI --filter flags into a FilterSpec.
// Supported formats:
//
//	category=Electronics
//	categories=Electronics,Home
//	price_min=10
//	price_max=250.50
//	rating_min=3.5
//	search=widget
//
// category takes one literal value, commas included; categories splits on
// commas. Category flags accumulate; the other keys overwrite earlier
// values.
func ParseFilters(filters []string) (domain.FilterSpec, error) {
	var spec domain.FilterSpec

	for _, f := range filters {
		key, value, ok := strings.Cut(f, "=")
		if !ok {
			return spec, fmt.Errorf("invalid filter format %q: expected key=value", f)
		}

		if err := parseFilter(&spec, strings.TrimSpace(key), value); err != nil {
			return spec, err
		}
	}

	return spec, nil
}

func parseFilter(spec *domain.FilterSpec, key, value string) error {
	switch key {
	case "category":
		if c := strings.TrimSpace(value); c != "" {
			spec.Categories = append(spec.Categories, c)
		}
	case "categories":
		for _, c := range strings.Split(value, ",") {
			if c = strings.TrimSpace(c); c != "" {
				spec.Categories = append(spec.Categories, c)
			}
		}
	case "price_min":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid price_min %q: %w", value, err)
		}
		spec.PriceMin = &v
	case "price_max":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid price_max %q: %w", value, err)
		}
		spec.PriceMax = &v
	case "rating_min":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid rating_min %q: %w", value, err)
		}
		spec.RatingMin = &v
	case "search":
		spec.SearchTerm = value
	default:
		return fmt.Errorf("unknown filter key %q", key)
	}
	return nil
}

// ParseSortKeys parses CLI --sort flags. Each flag is a column name,
// optionally suffixed with ":desc" or ":asc"; a leading "-" also means
// descending.
//
//	Rating:desc
//	-Price
//	Product_Name
func ParseSortKeys(keys []string) ([]domain.SortKey, error) {
	out := make([]domain.SortKey, 0, len(keys))

	for _, k := range keys {
		col, dir, hasDir := strings.Cut(k, ":")
		sk := domain.SortKey{Column: strings.TrimSpace(col)}

		if strings.HasPrefix(sk.Column, "-") {
			sk.Column = strings.TrimPrefix(sk.Column, "-")
			sk.Descending = true
		}

		if hasDir {
			switch strings.ToLower(dir) {
			case "desc":
				sk.Descending = true
			case "asc":
				sk.Descending = false
			default:
				return nil, fmt.Errorf("invalid sort direction %q in %q: expected asc or desc", dir, k)
			}
		}

		if sk.Column == "" {
			return nil, fmt.Errorf("invalid sort key %q: column is empty", k)
		}
		out = append(out, sk)
	}

	return out, nil
}
