package filter

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	domain "github.com/donaldgifford/smartsell/pkg/types"
)

// DeriveInsight compares the view's mean price against the median price of
// the whole dataset. The baseline ignores the view so the signal reads as
// "current selection vs. market".
func DeriveInsight(v *domain.View, ds *domain.Dataset) domain.Insight {
	med, _ := median(values(ds.Records, ds.Schema.Price))

	in := domain.Insight{
		Signal:      domain.SignalNoData,
		MedianPrice: med,
		ViewSize:    v.Len(),
	}

	avg, ok := mean(values(v.Records, v.Schema.Price))
	if !ok {
		return in
	}

	in.MeanPrice = ptr(avg)
	if avg > med {
		in.Signal = domain.SignalAboveMedian
	} else {
		in.Signal = domain.SignalAtOrBelowMedian
	}
	return in
}

// Summarize computes the KPI block. Averages are nil when the view holds
// no values for them. TotalRevenue is nil only when the dataset has no
// revenue column.
func Summarize(v *domain.View) domain.Summary {
	s := domain.Summary{Count: v.Len()}

	if rev := v.Schema.RevenueColumn(); hasColumn(v, rev) {
		s.TotalRevenue = ptr(sum(values(v.Records, rev)))
	}
	if avg, ok := mean(values(v.Records, v.Schema.Price)); ok {
		s.AvgPrice = ptr(avg)
	}
	if avg, ok := mean(values(v.Records, v.Schema.Rating)); ok {
		s.AvgRating = ptr(avg)
	}
	if v.Schema.Success != "" {
		if avg, ok := mean(values(v.Records, v.Schema.Success)); ok {
			s.AvgSuccess = ptr(avg)
		}
	}

	return s
}

// OptimizationPicks returns records whose success value is above
// minSuccess and whose price is below the view's mean price, in view
// order. limit <= 0 returns every match.
func OptimizationPicks(v *domain.View, minSuccess float64, limit int) ([]domain.Record, error) {
	success := v.Schema.Success
	if success == "" {
		return nil, fmt.Errorf("%w: success", domain.ErrRoleUnmapped)
	}

	picks := make([]domain.Record, 0)
	avg, ok := mean(values(v.Records, v.Schema.Price))
	if !ok {
		return picks, nil
	}

	for i := range v.Records {
		r := &v.Records[i]
		s, okS := r.Num(success)
		p, okP := r.Num(v.Schema.Price)
		if okS && okP && s > minSuccess && p < avg {
			picks = append(picks, *r)
		}
	}

	return truncate(picks, limit), nil
}

// LowPerformers returns records whose success value is below maxSuccess,
// most expensive first. Equal prices keep view order.
func LowPerformers(v *domain.View, maxSuccess float64, limit int) ([]domain.Record, error) {
	success := v.Schema.Success
	if success == "" {
		return nil, fmt.Errorf("%w: success", domain.ErrRoleUnmapped)
	}

	low := make([]domain.Record, 0)
	for i := range v.Records {
		if s, ok := v.Records[i].Num(success); ok && s < maxSuccess {
			low = append(low, v.Records[i])
		}
	}

	price := v.Schema.Price
	slices.SortStableFunc(low, func(a, b domain.Record) int {
		pa, _ := a.Num(price)
		pb, _ := b.Num(price)
		return cmp.Compare(pb, pa)
	})

	return truncate(low, limit), nil
}

// HighPotential returns well-rated records that still sell below the view's
// median success: rating at least minRating and success strictly below the
// median, in view order.
func HighPotential(v *domain.View, minRating float64, limit int) ([]domain.Record, error) {
	success := v.Schema.Success
	if success == "" {
		return nil, fmt.Errorf("%w: success", domain.ErrRoleUnmapped)
	}

	out := make([]domain.Record, 0)
	med, ok := median(values(v.Records, success))
	if !ok {
		return out, nil
	}

	for i := range v.Records {
		r := &v.Records[i]
		s, okS := r.Num(success)
		rating, okR := r.Num(v.Schema.Rating)
		if okS && okR && rating >= minRating && s < med {
			out = append(out, *r)
		}
	}

	return truncate(out, limit), nil
}

// Overpriced returns records priced above the q-quantile of the view's
// prices whose success is below maxSuccess, in view order.
func Overpriced(v *domain.View, q, maxSuccess float64, limit int) ([]domain.Record, error) {
	success := v.Schema.Success
	if success == "" {
		return nil, fmt.Errorf("%w: success", domain.ErrRoleUnmapped)
	}
	if q < 0 || q > 1 || math.IsNaN(q) {
		return nil, &domain.InvalidFilterError{Field: "quantile", Reason: "must be between 0 and 1"}
	}

	out := make([]domain.Record, 0)
	cut, ok := quantile(values(v.Records, v.Schema.Price), q)
	if !ok {
		return out, nil
	}

	for i := range v.Records {
		r := &v.Records[i]
		s, okS := r.Num(success)
		p, okP := r.Num(v.Schema.Price)
		if okS && okP && p > cut && s < maxSuccess {
			out = append(out, *r)
		}
	}

	return truncate(out, limit), nil
}

// HighSuccess returns records whose success is above minSuccess, in view
// order.
func HighSuccess(v *domain.View, minSuccess float64, limit int) ([]domain.Record, error) {
	success := v.Schema.Success
	if success == "" {
		return nil, fmt.Errorf("%w: success", domain.ErrRoleUnmapped)
	}

	out := make([]domain.Record, 0)
	for i := range v.Records {
		if s, ok := v.Records[i].Num(success); ok && s > minSuccess {
			out = append(out, v.Records[i])
		}
	}

	return truncate(out, limit), nil
}

// Options describes the domain of the filter widgets for ds: categories
// in first-appearance order and the observed price and rating ranges.
func Options(ds *domain.Dataset) domain.FilterOptions {
	opts := domain.FilterOptions{Categories: make([]string, 0)}

	seen := make(map[string]bool)
	for i := range ds.Records {
		c := ds.Records[i].Str(ds.Schema.Category)
		if !seen[c] {
			seen[c] = true
			opts.Categories = append(opts.Categories, c)
		}
	}

	if prices := values(ds.Records, ds.Schema.Price); len(prices) > 0 {
		opts.PriceMin = slices.Min(prices)
		opts.PriceMax = slices.Max(prices)
	}
	if ratings := values(ds.Records, ds.Schema.Rating); len(ratings) > 0 {
		opts.RatingMin = slices.Min(ratings)
		opts.RatingMax = slices.Max(ratings)
	}

	return opts
}

func hasColumn(v *domain.View, col string) bool {
	_, ok := v.Column(col)
	return ok
}

func truncate(rs []domain.Record, limit int) []domain.Record {
	if limit > 0 && len(rs) > limit {
		return rs[:limit]
	}
	return rs
}
