package filter

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"

	domain "github.com/donaldgifford/smartsell/pkg/types"
)

// Aggregate groups the view by the categorical column groupCol and reduces
// valueCol within each group. valueCol may be empty for ReduceCount. Every
// distinct key present in the view yields exactly one point; an empty view
// yields an empty, non-nil series.
func Aggregate(
	v *domain.View,
	groupCol, valueCol string,
	reducer domain.Reducer,
	order domain.Order,
) (domain.AggregateSeries, error) {
	if err := requireText(v, groupCol); err != nil {
		return domain.AggregateSeries{}, err
	}
	if err := checkReduction(v, valueCol, reducer); err != nil {
		return domain.AggregateSeries{}, err
	}
	if err := checkOrder(order); err != nil {
		return domain.AggregateSeries{}, err
	}

	groups := groupBy(v.Records, textKey(groupCol), valueCol)
	points := reduceGroups(groups, reducer)
	sortPoints(points, order, strings.Compare)

	return domain.AggregateSeries{
		GroupBy: groupCol,
		Value:   valueCol,
		Reducer: reducer,
		Order:   order,
		Points:  points,
	}, nil
}

// Trend aggregates by a period column (typically a year) and orders the
// points by period ascending. Numeric periods sort numerically; anything
// else sorts after them by text.
func Trend(v *domain.View, periodCol, valueCol string, reducer domain.Reducer) (domain.AggregateSeries, error) {
	col, ok := v.Column(periodCol)
	if !ok {
		return domain.AggregateSeries{}, fmt.Errorf("%w: %q", domain.ErrUnknownColumn, periodCol)
	}
	if err := checkReduction(v, valueCol, reducer); err != nil {
		return domain.AggregateSeries{}, err
	}

	key := textKey(periodCol)
	if col.Kind == domain.KindNumber {
		key = numberKey(periodCol)
	}

	groups := groupBy(v.Records, key, valueCol)
	points := reduceGroups(groups, reducer)
	sortPoints(points, domain.OrderByKey, comparePeriods)

	return domain.AggregateSeries{
		GroupBy: periodCol,
		Value:   valueCol,
		Reducer: reducer,
		Order:   domain.OrderByKey,
		Points:  points,
	}, nil
}

// Hierarchy nests the view by each of levels in turn. Node values are the
// sum of valueCol, or the row count when valueCol is empty. Siblings keep
// first-appearance order.
func Hierarchy(v *domain.View, levels []string, valueCol string) ([]domain.HierarchyNode, error) {
	if len(levels) == 0 {
		return nil, fmt.Errorf("%w: hierarchy needs at least one level", domain.ErrUnknownColumn)
	}
	for _, l := range levels {
		if err := requireText(v, l); err != nil {
			return nil, err
		}
	}
	if valueCol != "" {
		if err := requireNumber(v, valueCol); err != nil {
			return nil, err
		}
	}

	return nest(v.Records, levels, valueCol), nil
}

func nest(records []domain.Record, levels []string, valueCol string) []domain.HierarchyNode {
	if len(levels) == 0 {
		return nil
	}

	order := make([]string, 0)
	members := make(map[string][]domain.Record)
	for i := range records {
		k := records[i].Str(levels[0])
		if _, seen := members[k]; !seen {
			order = append(order, k)
		}
		members[k] = append(members[k], records[i])
	}

	nodes := make([]domain.HierarchyNode, 0, len(order))
	for _, k := range order {
		rs := members[k]
		node := domain.HierarchyNode{
			Key:      k,
			Count:    len(rs),
			Value:    float64(len(rs)),
			Children: nest(rs, levels[1:], valueCol),
		}
		if valueCol != "" {
			node.Value = sum(values(rs, valueCol))
		}
		nodes = append(nodes, node)
	}
	return nodes
}

type group struct {
	key   string
	vals  []float64
	count int
}

type keyFunc func(r *domain.Record) string

func textKey(col string) keyFunc {
	return func(r *domain.Record) string {
		return r.Str(col)
	}
}

func numberKey(col string) keyFunc {
	return func(r *domain.Record) string {
		v, ok := r.Num(col)
		if !ok {
			return ""
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
}

// groupBy partitions records by key in first-appearance order.
func groupBy(records []domain.Record, key keyFunc, valueCol string) []*group {
	index := make(map[string]*group)
	groups := make([]*group, 0)

	for i := range records {
		k := key(&records[i])
		g, ok := index[k]
		if !ok {
			g = &group{key: k}
			index[k] = g
			groups = append(groups, g)
		}
		g.count++
		if valueCol == "" {
			continue
		}
		if v, ok := records[i].Num(valueCol); ok {
			g.vals = append(g.vals, v)
		}
	}

	return groups
}

func reduceGroups(groups []*group, reducer domain.Reducer) []domain.SeriesPoint {
	points := make([]domain.SeriesPoint, 0, len(groups))
	for _, g := range groups {
		p := domain.SeriesPoint{Key: g.key, Count: g.count}
		if v, ok := reduce(reducer, g.vals, g.count); ok {
			p.Value = ptr(v)
		}
		points = append(points, p)
	}
	return points
}

// sortPoints orders points stably; ties keep first-appearance order.
func sortPoints(points []domain.SeriesPoint, order domain.Order, keyCmp func(a, b string) int) {
	switch order {
	case domain.OrderByKey:
		slices.SortStableFunc(points, func(a, b domain.SeriesPoint) int {
			return keyCmp(a.Key, b.Key)
		})
	case domain.OrderByValueAsc:
		slices.SortStableFunc(points, func(a, b domain.SeriesPoint) int {
			return compareValues(a.Value, b.Value, false)
		})
	case domain.OrderByValueDesc:
		slices.SortStableFunc(points, func(a, b domain.SeriesPoint) int {
			return compareValues(a.Value, b.Value, true)
		})
	case domain.OrderNone:
	}
}

// compareValues orders points without a value last in either direction.
func compareValues(a, b *float64, desc bool) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	case desc:
		return cmp.Compare(*b, *a)
	default:
		return cmp.Compare(*a, *b)
	}
}

func comparePeriods(a, b string) int {
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	switch {
	case errA == nil && errB == nil:
		return cmp.Compare(fa, fb)
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	default:
		return strings.Compare(a, b)
	}
}

func checkReduction(v *domain.View, valueCol string, reducer domain.Reducer) error {
	if !validReducer(reducer) {
		return fmt.Errorf("%w: %q", domain.ErrUnknownReducer, reducer)
	}
	if valueCol == "" {
		if reducer == domain.ReduceCount {
			return nil
		}
		return fmt.Errorf("%w: reducer %s needs a value column", domain.ErrUnknownColumn, reducer)
	}
	return requireNumber(v, valueCol)
}

func checkOrder(o domain.Order) error {
	switch o {
	case domain.OrderNone, domain.OrderByKey, domain.OrderByValueAsc, domain.OrderByValueDesc:
		return nil
	default:
		return &domain.InvalidFilterError{Field: "order", Reason: fmt.Sprintf("unknown order %q", o)}
	}
}

func requireText(v *domain.View, col string) error {
	c, ok := v.Column(col)
	if !ok {
		return fmt.Errorf("%w: %q", domain.ErrUnknownColumn, col)
	}
	if c.Kind != domain.KindText {
		return fmt.Errorf("%w: %q", domain.ErrNotCategorical, col)
	}
	return nil
}

func requireNumber(v *domain.View, col string) error {
	c, ok := v.Column(col)
	if !ok {
		return fmt.Errorf("%w: %q", domain.ErrUnknownColumn, col)
	}
	if c.Kind != domain.KindNumber {
		return fmt.Errorf("%w: %q", domain.ErrNotNumeric, col)
	}
	return nil
}
