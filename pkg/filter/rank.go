package filter

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	domain "github.com/donaldgifford/smartsell/pkg/types"
)

// RankTop sorts a copy of the view's records by keys, in priority order,
// and truncates the result to limit (limit <= 0 keeps every record). The
// sort is stable: rows that tie on every key keep their view order.
// Records missing a numeric key sort last in either direction.
func RankTop(v *domain.View, keys []domain.SortKey, limit int) ([]domain.Record, error) {
	cmps := make([]func(a, b *domain.Record) int, 0, len(keys))
	for _, k := range keys {
		col, ok := v.Column(k.Column)
		if !ok {
			return nil, fmt.Errorf("%w: %q", domain.ErrUnknownColumn, k.Column)
		}
		cmps = append(cmps, keyCompare(col, k.Descending))
	}

	ranked := slices.Clone(v.Records)
	if ranked == nil {
		ranked = make([]domain.Record, 0)
	}

	slices.SortStableFunc(ranked, func(a, b domain.Record) int {
		for _, c := range cmps {
			if n := c(&a, &b); n != 0 {
				return n
			}
		}
		return 0
	})

	return truncate(ranked, limit), nil
}

func keyCompare(col domain.Column, desc bool) func(a, b *domain.Record) int {
	if col.Kind == domain.KindText {
		return func(a, b *domain.Record) int {
			n := strings.Compare(a.Str(col.Name), b.Str(col.Name))
			if desc {
				return -n
			}
			return n
		}
	}

	return func(a, b *domain.Record) int {
		va, okA := a.Num(col.Name)
		vb, okB := b.Num(col.Name)
		switch {
		case !okA && !okB:
			return 0
		case !okA:
			return 1
		case !okB:
			return -1
		case desc:
			return cmp.Compare(vb, va)
		default:
			return cmp.Compare(va, vb)
		}
	}
}
