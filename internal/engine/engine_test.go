package engine

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	ptestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogMocks "github.com/donaldgifford/smartsell/internal/catalog/mocks"
	"github.com/donaldgifford/smartsell/internal/metrics"
	"github.com/donaldgifford/smartsell/pkg/table"
	domain "github.com/donaldgifford/smartsell/pkg/types"
)

const productsCSV = `Product_Name,Category,Sub_Category,Price,Rating,Sales_y,Success_Percentage,Year
Smart Widget,Tech,Phones,300,4.6,120,72,2021
Steel Pan,Home,Kitchen,40,4.1,900,65,2020
Widget Buds,Tech,Audio,80,3.8,400,45,2021
Lip Gloss,Beauty,Makeup,12,4.4,2500,81,2022
Wall Clock,Home,Decor,25,0.5,60,20,2020
Basic Phone,Tech,Phones,90,3.2,700,58,2022
`

var productsSchema = domain.Schema{
	Category:    "Category",
	SubCategory: "Sub_Category",
	Name:        "Product_Name",
	Price:       "Price",
	Rating:      "Rating",
	Sales:       "Sales_y",
	Success:     "Success_Percentage",
	Year:        "Year",
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func loadProducts(t *testing.T, id string) *domain.Dataset {
	t.Helper()

	ds, err := table.Load(strings.NewReader(productsCSV), id, productsSchema)
	require.NoError(t, err)
	return ds
}

func newTestEngine(t *testing.T, mc *catalogMocks.MockCatalog, opts ...EngineOption) *Engine {
	t.Helper()

	eng, err := NewEngine(mc, append([]EngineOption{WithLogger(quietLogger())}, opts...)...)
	require.NoError(t, err)
	return eng
}

func ptr(v float64) *float64 { return &v }

func names(rs []domain.Record) []string {
	out := make([]string, 0, len(rs))
	for i := range rs {
		out = append(out, rs[i].Str("Product_Name"))
	}
	return out
}

func TestEngine_View(t *testing.T) {
	t.Parallel()

	ds := loadProducts(t, "view")
	mc := catalogMocks.NewMockCatalog(t)
	mc.EXPECT().Get("view").Return(ds, nil)

	eng := newTestEngine(t, mc)

	v, err := eng.View(context.Background(), "view", domain.FilterSpec{Categories: []string{"Tech"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Smart Widget", "Widget Buds", "Basic Phone"}, names(v.Records))
	assert.Equal(t, ds.LoadID, v.LoadID)
}

func TestEngine_View_DefaultRatingOption(t *testing.T) {
	t.Parallel()

	ds := loadProducts(t, "rating")
	mc := catalogMocks.NewMockCatalog(t)
	mc.EXPECT().Get("rating").Return(ds, nil)

	strict := newTestEngine(t, mc)
	v, err := strict.View(context.Background(), "rating", domain.FilterSpec{})
	require.NoError(t, err)
	assert.Equal(t, 5, v.Len(), "default 1.0 drops the 0.5 rating")

	loose := newTestEngine(t, mc, WithDefaultRatingMin(0))
	v, err = loose.View(context.Background(), "rating", domain.FilterSpec{})
	require.NoError(t, err)
	assert.Equal(t, 6, v.Len())
}

func TestEngine_View_Errors(t *testing.T) {
	t.Parallel()

	mc := catalogMocks.NewMockCatalog(t)
	mc.EXPECT().Get("missing").Return(nil, domain.ErrDatasetNotFound).Once()
	mc.EXPECT().Get("errs").Return(loadProducts(t, "errs"), nil).Once()

	eng := newTestEngine(t, mc)

	_, err := eng.View(context.Background(), "missing", domain.FilterSpec{})
	require.ErrorIs(t, err, domain.ErrDatasetNotFound)

	_, err = eng.View(context.Background(), "errs", domain.FilterSpec{PriceMin: ptr(10), PriceMax: ptr(5)})
	var fe *domain.InvalidFilterError
	require.ErrorAs(t, err, &fe)
}

func TestEngine_ViewCache(t *testing.T) {
	ds := loadProducts(t, "cache")
	mc := catalogMocks.NewMockCatalog(t)
	mc.EXPECT().Get("cache").Return(ds, nil)

	eng := newTestEngine(t, mc, WithViewCacheSize(8))
	hits := ptestutil.ToFloat64(metrics.ViewCacheHitsTotal)
	misses := ptestutil.ToFloat64(metrics.ViewCacheMissesTotal)

	first, err := eng.View(context.Background(), "cache", domain.FilterSpec{Categories: []string{"Home", "Tech"}})
	require.NoError(t, err)

	// Same constraints in a different category order.
	second, err := eng.View(context.Background(), "cache", domain.FilterSpec{Categories: []string{"Tech", "Home"}})
	require.NoError(t, err)

	require.NotEmpty(t, second.Records)
	assert.Same(t, &first.Records[0], &second.Records[0], "cached records are shared")
	assert.Equal(t, []string{"Tech", "Home"}, second.Spec.Categories)
	assert.InDelta(t, hits+1, ptestutil.ToFloat64(metrics.ViewCacheHitsTotal), 0)
	assert.InDelta(t, misses+1, ptestutil.ToFloat64(metrics.ViewCacheMissesTotal), 0)
}

func TestEngine_ViewCache_NewSnapshotIsNotServedStale(t *testing.T) {
	t.Parallel()

	old := loadProducts(t, "reload")
	fresh := loadProducts(t, "reload")
	require.NotEqual(t, old.LoadID, fresh.LoadID)

	mc := catalogMocks.NewMockCatalog(t)
	mc.EXPECT().Get("reload").Return(old, nil).Once()
	mc.EXPECT().Get("reload").Return(fresh, nil).Once()

	eng := newTestEngine(t, mc)

	a, err := eng.View(context.Background(), "reload", domain.FilterSpec{})
	require.NoError(t, err)
	b, err := eng.View(context.Background(), "reload", domain.FilterSpec{})
	require.NoError(t, err)

	assert.Equal(t, old.LoadID, a.LoadID)
	assert.Equal(t, fresh.LoadID, b.LoadID)
}

func TestEngine_ViewCache_EchoesCallerSpec(t *testing.T) {
	t.Parallel()

	ds := loadProducts(t, "echo")
	mc := catalogMocks.NewMockCatalog(t)
	mc.EXPECT().Get("echo").Return(ds, nil)

	eng := newTestEngine(t, mc, WithViewCacheSize(8))

	upper, err := eng.View(context.Background(), "echo", domain.FilterSpec{SearchTerm: "WIDGET"})
	require.NoError(t, err)
	lower, err := eng.View(context.Background(), "echo", domain.FilterSpec{SearchTerm: "widget"})
	require.NoError(t, err)

	assert.Equal(t, names(upper.Records), names(lower.Records))
	assert.Equal(t, "WIDGET", upper.Spec.SearchTerm)
	assert.Equal(t, "widget", lower.Spec.SearchTerm)
	require.NotNil(t, lower.Spec.RatingMin, "defaults applied")
	assert.InDelta(t, 1.0, *lower.Spec.RatingMin, 0)
}

func TestEngine_CacheDisabled(t *testing.T) {
	t.Parallel()

	ds := loadProducts(t, "nocache")
	mc := catalogMocks.NewMockCatalog(t)
	mc.EXPECT().Get("nocache").Return(ds, nil)

	eng := newTestEngine(t, mc, WithViewCacheSize(0))
	assert.Nil(t, eng.views)

	a, err := eng.View(context.Background(), "nocache", domain.FilterSpec{})
	require.NoError(t, err)
	b, err := eng.View(context.Background(), "nocache", domain.FilterSpec{})
	require.NoError(t, err)
	assert.NotSame(t, a, b)
	assert.Equal(t, a.Records, b.Records)
}

func TestEngine_FilterEvaluationMetrics(t *testing.T) {
	ds := loadProducts(t, "evals")
	mc := catalogMocks.NewMockCatalog(t)
	mc.EXPECT().Get("evals").Return(ds, nil)

	eng := newTestEngine(t, mc, WithViewCacheSize(0))
	ok := ptestutil.ToFloat64(metrics.FilterEvaluationsTotal.WithLabelValues("ok"))
	empty := ptestutil.ToFloat64(metrics.FilterEvaluationsTotal.WithLabelValues("empty"))
	invalid := ptestutil.ToFloat64(metrics.FilterEvaluationsTotal.WithLabelValues("invalid"))

	_, err := eng.View(context.Background(), "evals", domain.FilterSpec{})
	require.NoError(t, err)
	_, err = eng.View(context.Background(), "evals", domain.FilterSpec{SearchTerm: "nothing like this"})
	require.NoError(t, err)
	_, err = eng.View(context.Background(), "evals", domain.FilterSpec{PriceMin: ptr(9), PriceMax: ptr(1)})
	require.Error(t, err)

	assert.InDelta(t, ok+1, ptestutil.ToFloat64(metrics.FilterEvaluationsTotal.WithLabelValues("ok")), 0)
	assert.InDelta(t, empty+1, ptestutil.ToFloat64(metrics.FilterEvaluationsTotal.WithLabelValues("empty")), 0)
	assert.InDelta(t, invalid+1, ptestutil.ToFloat64(metrics.FilterEvaluationsTotal.WithLabelValues("invalid")), 0)
}

func TestEngine_Operations(t *testing.T) {
	t.Parallel()

	ds := loadProducts(t, "ops")
	mc := catalogMocks.NewMockCatalog(t)
	mc.EXPECT().Get("ops").Return(ds, nil)

	eng := newTestEngine(t, mc)
	ctx := context.Background()
	all := domain.FilterSpec{RatingMin: ptr(0)}

	t.Run("aggregate", func(t *testing.T) {
		s, err := eng.Aggregate(ctx, "ops", all, AggregateRequest{
			GroupBy: "Category",
			Value:   "Revenue",
			Reducer: domain.ReduceSum,
			Order:   domain.OrderByValueDesc,
		})
		require.NoError(t, err)
		require.Len(t, s.Points, 3)
		assert.Equal(t, "Tech", s.Points[0].Key)
		require.NotNil(t, s.Points[0].Value)
		assert.InDelta(t, 36000+32000+63000, *s.Points[0].Value, 0)
	})

	t.Run("aggregate empty view", func(t *testing.T) {
		s, err := eng.Aggregate(ctx, "ops", domain.FilterSpec{Categories: []string{"Garden"}}, AggregateRequest{
			GroupBy: "Category", Reducer: domain.ReduceCount,
		})
		require.NoError(t, err)
		assert.Empty(t, s.Points)
	})

	t.Run("insight", func(t *testing.T) {
		in, err := eng.Insight(ctx, "ops", domain.FilterSpec{Categories: []string{"Tech"}})
		require.NoError(t, err)
		// Dataset median of 12,25,40,80,90,300 is 60; Tech mean is 156.67.
		assert.InDelta(t, 60, in.MedianPrice, 0)
		assert.Equal(t, domain.SignalAboveMedian, in.Signal)
	})

	t.Run("insight no data", func(t *testing.T) {
		in, err := eng.Insight(ctx, "ops", domain.FilterSpec{SearchTerm: "zzz"})
		require.NoError(t, err)
		assert.Equal(t, domain.SignalNoData, in.Signal)
	})

	t.Run("top", func(t *testing.T) {
		rs, err := eng.Top(ctx, "ops", all, []domain.SortKey{{Column: "Success_Percentage", Descending: true}}, 2)
		require.NoError(t, err)
		assert.Equal(t, []string{"Lip Gloss", "Smart Widget"}, names(rs))
	})

	t.Run("top unknown column", func(t *testing.T) {
		_, err := eng.Top(ctx, "ops", all, []domain.SortKey{{Column: "Nope"}}, 2)
		require.ErrorIs(t, err, domain.ErrUnknownColumn)
	})

	t.Run("summary", func(t *testing.T) {
		s, err := eng.Summary(ctx, "ops", all)
		require.NoError(t, err)
		assert.Equal(t, 6, s.Count)
		require.NotNil(t, s.TotalRevenue)
		assert.InDelta(t, 36000+36000+32000+30000+1500+63000, *s.TotalRevenue, 0)
	})

	t.Run("picks", func(t *testing.T) {
		rs, err := eng.Picks(ctx, "ops", all, 60, 5)
		require.NoError(t, err)
		// Mean price 91.17: Steel Pan and Lip Gloss qualify.
		assert.Equal(t, []string{"Steel Pan", "Lip Gloss"}, names(rs))
	})

	t.Run("low performers", func(t *testing.T) {
		rs, err := eng.LowPerformers(ctx, "ops", all, 60, 0)
		require.NoError(t, err)
		assert.Equal(t, []string{"Basic Phone", "Widget Buds", "Wall Clock"}, names(rs))
	})

	t.Run("high potential", func(t *testing.T) {
		// Median success is 61.5.
		rs, err := eng.HighPotential(ctx, "ops", all, 3.0, 0)
		require.NoError(t, err)
		assert.Equal(t, []string{"Widget Buds", "Basic Phone"}, names(rs))

		rs, err = eng.HighPotential(ctx, "ops", all, 4.0, 0)
		require.NoError(t, err)
		assert.Empty(t, rs)
	})

	t.Run("overpriced", func(t *testing.T) {
		// Upper quartile of 12,25,40,80,90,300 is 87.5.
		rs, err := eng.Overpriced(ctx, "ops", all, 0.75, 60, 0)
		require.NoError(t, err)
		assert.Equal(t, []string{"Basic Phone"}, names(rs))
	})

	t.Run("overpriced bad quantile", func(t *testing.T) {
		_, err := eng.Overpriced(ctx, "ops", all, -0.1, 60, 0)
		var fe *domain.InvalidFilterError
		require.ErrorAs(t, err, &fe)
	})

	t.Run("high success", func(t *testing.T) {
		rs, err := eng.HighSuccess(ctx, "ops", all, 75, 0)
		require.NoError(t, err)
		assert.Equal(t, []string{"Lip Gloss"}, names(rs))
	})

	t.Run("hierarchy", func(t *testing.T) {
		nodes, err := eng.Hierarchy(ctx, "ops", all, []string{"Category", "Sub_Category"}, "")
		require.NoError(t, err)
		require.Len(t, nodes, 3)
		assert.Equal(t, 3, nodes[0].Count)
	})

	t.Run("trend", func(t *testing.T) {
		s, err := eng.Trend(ctx, "ops", all, "Year", "", domain.ReduceCount)
		require.NoError(t, err)
		require.Len(t, s.Points, 3)
		assert.Equal(t, "2020", s.Points[0].Key)
	})

	t.Run("options", func(t *testing.T) {
		opts, err := eng.Options("ops")
		require.NoError(t, err)
		assert.Equal(t, []string{"Tech", "Home", "Beauty"}, opts.Categories)
	})
}

func TestEngine_Datasets(t *testing.T) {
	t.Parallel()

	ds := loadProducts(t, "list")
	mc := catalogMocks.NewMockCatalog(t)
	mc.EXPECT().List().Return([]*domain.Dataset{ds}).Once()

	eng := newTestEngine(t, mc)
	assert.Len(t, eng.Datasets(), 1)
}
