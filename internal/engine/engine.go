// Package engine is the application service behind the API: it resolves
// datasets from the catalog, memoizes filtered views, and runs the filter
// pipeline with tracing and metrics around every call.
package engine

import (
	"context"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/donaldgifford/smartsell/internal/catalog"
	"github.com/donaldgifford/smartsell/internal/metrics"
	"github.com/donaldgifford/smartsell/pkg/filter"
	domain "github.com/donaldgifford/smartsell/pkg/types"
)

const (
	tracerName           = "github.com/donaldgifford/smartsell/internal/engine"
	defaultViewCacheSize = 256
)

// Engine evaluates filter requests against catalog snapshots.
type Engine struct {
	catalog   catalog.Catalog
	log       *slog.Logger
	tracer    trace.Tracer
	ratingMin float64
	cacheSize int

	views *lru.Cache[string, *domain.View]
}

// NewEngine creates a new Engine with injected dependencies.
func NewEngine(c catalog.Catalog, opts ...EngineOption) (*Engine, error) {
	eng := &Engine{
		catalog:   c,
		log:       slog.Default(),
		tracer:    otel.Tracer(tracerName),
		ratingMin: filter.DefaultRatingMin,
		cacheSize: defaultViewCacheSize,
	}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.cacheSize > 0 {
		cache, err := lru.New[string, *domain.View](eng.cacheSize)
		if err != nil {
			return nil, err
		}
		eng.views = cache
	}

	return eng, nil
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.log = l
	}
}

// WithTracer sets the tracer used for engine spans.
func WithTracer(t trace.Tracer) EngineOption {
	return func(e *Engine) {
		e.tracer = t
	}
}

// WithViewCacheSize sets the number of filtered views kept in memory.
// Zero disables the cache.
func WithViewCacheSize(n int) EngineOption {
	return func(e *Engine) {
		e.cacheSize = n
	}
}

// WithDefaultRatingMin sets the rating bound used when a spec omits one.
func WithDefaultRatingMin(r float64) EngineOption {
	return func(e *Engine) {
		e.ratingMin = r
	}
}

// AggregateRequest names the grouping, value column, reducer and order of
// an aggregate.
type AggregateRequest struct {
	GroupBy string
	Value   string
	Reducer domain.Reducer
	Order   domain.Order
}

// Datasets lists the current snapshots.
func (eng *Engine) Datasets() []*domain.Dataset {
	return eng.catalog.List()
}

// Dataset returns the current snapshot for id.
func (eng *Engine) Dataset(id string) (*domain.Dataset, error) {
	return eng.catalog.Get(id)
}

// Options returns the filter-widget domain of a dataset.
func (eng *Engine) Options(id string) (domain.FilterOptions, error) {
	ds, err := eng.catalog.Get(id)
	if err != nil {
		return domain.FilterOptions{}, err
	}
	return filter.Options(ds), nil
}

// View applies spec to the current snapshot of a dataset.
func (eng *Engine) View(ctx context.Context, datasetID string, spec domain.FilterSpec) (*domain.View, error) {
	ctx, span := eng.start(ctx, "engine.View", datasetID)
	defer span.End()

	ds, err := eng.catalog.Get(datasetID)
	if err != nil {
		return nil, fail(span, err)
	}

	v, err := eng.view(ctx, ds, spec)
	if err != nil {
		return nil, fail(span, err)
	}
	span.SetAttributes(attribute.Int("view.size", v.Len()))
	return v, nil
}

// Aggregate filters then groups and reduces.
func (eng *Engine) Aggregate(
	ctx context.Context,
	datasetID string,
	spec domain.FilterSpec,
	req AggregateRequest,
) (domain.AggregateSeries, error) {
	ctx, span := eng.start(ctx, "engine.Aggregate", datasetID)
	defer span.End()
	span.SetAttributes(
		attribute.String("aggregate.group_by", req.GroupBy),
		attribute.String("aggregate.reducer", string(req.Reducer)),
	)

	v, _, err := eng.resolve(ctx, datasetID, spec)
	if err != nil {
		return domain.AggregateSeries{}, fail(span, err)
	}

	s, err := filter.Aggregate(v, req.GroupBy, req.Value, req.Reducer, req.Order)
	if err != nil {
		return domain.AggregateSeries{}, fail(span, err)
	}
	return s, nil
}

// Trend filters then aggregates by a period column in period order.
func (eng *Engine) Trend(
	ctx context.Context,
	datasetID string,
	spec domain.FilterSpec,
	period, value string,
	reducer domain.Reducer,
) (domain.AggregateSeries, error) {
	ctx, span := eng.start(ctx, "engine.Trend", datasetID)
	defer span.End()

	v, _, err := eng.resolve(ctx, datasetID, spec)
	if err != nil {
		return domain.AggregateSeries{}, fail(span, err)
	}

	s, err := filter.Trend(v, period, value, reducer)
	if err != nil {
		return domain.AggregateSeries{}, fail(span, err)
	}
	return s, nil
}

// Insight filters then compares the view's mean price with the dataset
// median.
func (eng *Engine) Insight(ctx context.Context, datasetID string, spec domain.FilterSpec) (domain.Insight, error) {
	ctx, span := eng.start(ctx, "engine.Insight", datasetID)
	defer span.End()

	v, ds, err := eng.resolve(ctx, datasetID, spec)
	if err != nil {
		return domain.Insight{}, fail(span, err)
	}

	in := filter.DeriveInsight(v, ds)
	span.SetAttributes(attribute.String("insight.signal", string(in.Signal)))
	return in, nil
}

// Top filters then ranks by keys.
func (eng *Engine) Top(
	ctx context.Context,
	datasetID string,
	spec domain.FilterSpec,
	keys []domain.SortKey,
	limit int,
) ([]domain.Record, error) {
	ctx, span := eng.start(ctx, "engine.Top", datasetID)
	defer span.End()
	span.SetAttributes(attribute.Int("top.limit", limit))

	v, _, err := eng.resolve(ctx, datasetID, spec)
	if err != nil {
		return nil, fail(span, err)
	}

	rs, err := filter.RankTop(v, keys, limit)
	if err != nil {
		return nil, fail(span, err)
	}
	return rs, nil
}

// Summary filters then computes the KPI block.
func (eng *Engine) Summary(ctx context.Context, datasetID string, spec domain.FilterSpec) (domain.Summary, error) {
	ctx, span := eng.start(ctx, "engine.Summary", datasetID)
	defer span.End()

	v, _, err := eng.resolve(ctx, datasetID, spec)
	if err != nil {
		return domain.Summary{}, fail(span, err)
	}
	return filter.Summarize(v), nil
}

// Picks filters then selects the price-optimization picks.
func (eng *Engine) Picks(
	ctx context.Context,
	datasetID string,
	spec domain.FilterSpec,
	minSuccess float64,
	limit int,
) ([]domain.Record, error) {
	return eng.selectRecords(ctx, "engine.Picks", datasetID, spec, func(v *domain.View) ([]domain.Record, error) {
		return filter.OptimizationPicks(v, minSuccess, limit)
	})
}

// LowPerformers filters then lists low-success products, priciest first.
func (eng *Engine) LowPerformers(
	ctx context.Context,
	datasetID string,
	spec domain.FilterSpec,
	maxSuccess float64,
	limit int,
) ([]domain.Record, error) {
	return eng.selectRecords(ctx, "engine.LowPerformers", datasetID, spec, func(v *domain.View) ([]domain.Record, error) {
		return filter.LowPerformers(v, maxSuccess, limit)
	})
}

// HighPotential filters then lists well-rated products selling below the
// view's median success.
func (eng *Engine) HighPotential(
	ctx context.Context,
	datasetID string,
	spec domain.FilterSpec,
	minRating float64,
	limit int,
) ([]domain.Record, error) {
	return eng.selectRecords(ctx, "engine.HighPotential", datasetID, spec, func(v *domain.View) ([]domain.Record, error) {
		return filter.HighPotential(v, minRating, limit)
	})
}

// Overpriced filters then lists products priced above the view's
// q-quantile with success below maxSuccess.
func (eng *Engine) Overpriced(
	ctx context.Context,
	datasetID string,
	spec domain.FilterSpec,
	q, maxSuccess float64,
	limit int,
) ([]domain.Record, error) {
	return eng.selectRecords(ctx, "engine.Overpriced", datasetID, spec, func(v *domain.View) ([]domain.Record, error) {
		return filter.Overpriced(v, q, maxSuccess, limit)
	})
}

// HighSuccess filters then lists products above minSuccess.
func (eng *Engine) HighSuccess(
	ctx context.Context,
	datasetID string,
	spec domain.FilterSpec,
	minSuccess float64,
	limit int,
) ([]domain.Record, error) {
	return eng.selectRecords(ctx, "engine.HighSuccess", datasetID, spec, func(v *domain.View) ([]domain.Record, error) {
		return filter.HighSuccess(v, minSuccess, limit)
	})
}

func (eng *Engine) selectRecords(
	ctx context.Context,
	name, datasetID string,
	spec domain.FilterSpec,
	pick func(*domain.View) ([]domain.Record, error),
) ([]domain.Record, error) {
	ctx, span := eng.start(ctx, name, datasetID)
	defer span.End()

	v, _, err := eng.resolve(ctx, datasetID, spec)
	if err != nil {
		return nil, fail(span, err)
	}

	rs, err := pick(v)
	if err != nil {
		return nil, fail(span, err)
	}
	return rs, nil
}

// Hierarchy filters then nests the view by levels.
func (eng *Engine) Hierarchy(
	ctx context.Context,
	datasetID string,
	spec domain.FilterSpec,
	levels []string,
	value string,
) ([]domain.HierarchyNode, error) {
	ctx, span := eng.start(ctx, "engine.Hierarchy", datasetID)
	defer span.End()

	v, _, err := eng.resolve(ctx, datasetID, spec)
	if err != nil {
		return nil, fail(span, err)
	}

	nodes, err := filter.Hierarchy(v, levels, value)
	if err != nil {
		return nil, fail(span, err)
	}
	return nodes, nil
}

// resolve fetches the snapshot once so the view and any baseline computed
// from the dataset always come from the same load.
func (eng *Engine) resolve(
	ctx context.Context,
	datasetID string,
	spec domain.FilterSpec,
) (*domain.View, *domain.Dataset, error) {
	ds, err := eng.catalog.Get(datasetID)
	if err != nil {
		return nil, nil, err
	}
	v, err := eng.view(ctx, ds, spec)
	if err != nil {
		return nil, nil, err
	}
	return v, ds, nil
}

func (eng *Engine) view(_ context.Context, ds *domain.Dataset, spec domain.FilterSpec) (*domain.View, error) {
	spec = spec.WithDefaults(eng.ratingMin)
	if err := spec.Validate(); err != nil {
		metrics.FilterEvaluationsTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	key := ds.ID + "|" + ds.LoadID + "|" + spec.Key()
	if eng.views != nil {
		if v, ok := eng.views.Get(key); ok {
			metrics.ViewCacheHitsTotal.Inc()
			// Equal keys can come from specs that differ in search casing
			// or category order; echo the caller's own spec.
			hit := *v
			hit.Spec = spec
			return &hit, nil
		}
		metrics.ViewCacheMissesTotal.Inc()
	}

	start := time.Now()
	v, err := filter.Apply(ds, spec)
	metrics.FilterDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.FilterEvaluationsTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	result := "ok"
	if v.Len() == 0 {
		result = "empty"
	}
	metrics.FilterEvaluationsTotal.WithLabelValues(result).Inc()

	if eng.views != nil {
		eng.views.Add(key, v)
	}

	eng.log.Debug("filter applied",
		"dataset", ds.ID,
		"spec", spec.Key(),
		"rows", v.Len(),
		"of", ds.Len(),
	)

	return v, nil
}

func (eng *Engine) start(ctx context.Context, name, datasetID string) (context.Context, trace.Span) {
	return eng.tracer.Start(ctx, name, trace.WithAttributes(attribute.String("dataset.id", datasetID)))
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
