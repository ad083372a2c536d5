package filter

import (
	"math"
	"slices"

	domain "github.com/donaldgifford/smartsell/pkg/types"
)

// values collects the numeric cells of col, skipping records without one.
func values(records []domain.Record, col string) []float64 {
	out := make([]float64, 0, len(records))
	for i := range records {
		if v, ok := records[i].Num(col); ok {
			out = append(out, v)
		}
	}
	return out
}

func sum(vs []float64) float64 {
	var s float64
	for _, v := range vs {
		s += v
	}
	return s
}

// mean reports false for an empty input instead of returning NaN.
func mean(vs []float64) (float64, bool) {
	if len(vs) == 0 {
		return 0, false
	}
	return sum(vs) / float64(len(vs)), true
}

// median of an even-length input is the mean of the two middle values.
func median(vs []float64) (float64, bool) {
	if len(vs) == 0 {
		return 0, false
	}
	sorted := slices.Clone(vs)
	slices.Sort(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid], true
	}
	return (sorted[mid-1] + sorted[mid]) / 2, true
}

// quantile interpolates linearly between the two nearest ranks, so q=0.5
// agrees with median. q must lie in [0, 1].
func quantile(vs []float64, q float64) (float64, bool) {
	if len(vs) == 0 {
		return 0, false
	}
	sorted := slices.Clone(vs)
	slices.Sort(sorted)

	h := float64(len(sorted)-1) * q
	lo := int(math.Floor(h))
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1], true
	}
	return sorted[lo] + (h-float64(lo))*(sorted[lo+1]-sorted[lo]), true
}

// reduce reports false when the reducer has no values to work on. Count and
// sum are always defined.
func reduce(r domain.Reducer, vs []float64, count int) (float64, bool) {
	switch r {
	case domain.ReduceCount:
		return float64(count), true
	case domain.ReduceSum:
		return sum(vs), true
	case domain.ReduceMean:
		return mean(vs)
	case domain.ReduceMin:
		if len(vs) == 0 {
			return 0, false
		}
		return slices.Min(vs), true
	case domain.ReduceMax:
		if len(vs) == 0 {
			return 0, false
		}
		return slices.Max(vs), true
	default:
		return 0, false
	}
}

func validReducer(r domain.Reducer) bool {
	switch r {
	case domain.ReduceMean, domain.ReduceSum, domain.ReduceCount, domain.ReduceMin, domain.ReduceMax:
		return true
	default:
		return false
	}
}

func ptr(v float64) *float64 { return &v }
