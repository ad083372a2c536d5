// Package catalog holds the loaded dataset snapshots served by the API.
//
// A snapshot is immutable once published. Refresh replaces a snapshot only
// when its source file changed and the new load succeeded, so readers never
// observe a partially loaded or failed dataset.
package catalog

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/donaldgifford/smartsell/internal/config"
	"github.com/donaldgifford/smartsell/internal/metrics"
	"github.com/donaldgifford/smartsell/pkg/table"
	domain "github.com/donaldgifford/smartsell/pkg/types"
)

const tracerName = "github.com/donaldgifford/smartsell/internal/catalog"

// Catalog is the read side of the registry used by the engine and the
// API handlers.
type Catalog interface {
	List() []*domain.Dataset
	Get(id string) (*domain.Dataset, error)
}

// Source describes where a dataset comes from.
type Source struct {
	ID            string
	Path          string
	Delimiter     rune
	Schema        domain.Schema
	DeriveRevenue bool
}

// SourcesFromConfig converts dataset config entries into sources.
func SourcesFromConfig(cfgs []config.DatasetConfig) ([]Source, error) {
	sources := make([]Source, 0, len(cfgs))
	for i := range cfgs {
		c := &cfgs[i]
		delim, err := c.DelimiterRune()
		if err != nil {
			return nil, fmt.Errorf("dataset %s: %w", c.ID, err)
		}
		sources = append(sources, Source{
			ID:            c.ID,
			Path:          c.Path,
			Delimiter:     delim,
			Schema:        c.Columns,
			DeriveRevenue: c.ShouldDeriveRevenue(),
		})
	}
	return sources, nil
}

// Registry loads and serves dataset snapshots.
type Registry struct {
	sources []Source
	log     *slog.Logger
	tracer  trace.Tracer

	mu        sync.RWMutex
	snapshots map[string]*domain.Dataset
}

// Option configures the Registry.
type Option func(*Registry)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		r.log = l
	}
}

// WithTracer sets the tracer used for load spans.
func WithTracer(t trace.Tracer) Option {
	return func(r *Registry) {
		r.tracer = t
	}
}

// New creates a Registry for sources. Nothing is read until LoadAll.
func New(sources []Source, opts ...Option) *Registry {
	r := &Registry{
		sources:   sources,
		log:       slog.Default(),
		tracer:    otel.Tracer(tracerName),
		snapshots: make(map[string]*domain.Dataset, len(sources)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// LoadAll loads every source concurrently. Any failure is fatal: the first
// error is returned and no snapshot from this call is published.
func (r *Registry) LoadAll(ctx context.Context) error {
	loaded := make([]*domain.Dataset, len(r.sources))

	g, gctx := errgroup.WithContext(ctx)
	for i := range r.sources {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ds, err := r.load(gctx, &r.sources[i])
			if err != nil {
				return fmt.Errorf("loading dataset %s: %w", r.sources[i].ID, err)
			}
			loaded[i] = ds
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ds := range loaded {
		r.publish(ds)
	}
	return nil
}

// Refresh reloads every source whose file modification time changed since
// its snapshot was taken. A failed reload keeps the previous snapshot. It
// returns the ids that were replaced.
func (r *Registry) Refresh(ctx context.Context) ([]string, error) {
	var (
		reloaded []string
		errs     []error
	)

	for i := range r.sources {
		if err := ctx.Err(); err != nil {
			return reloaded, err
		}

		src := &r.sources[i]
		if !r.stale(src) {
			continue
		}

		ds, err := r.load(ctx, src)
		if err != nil {
			r.log.Error("dataset reload failed, keeping previous snapshot",
				"dataset", src.ID, "path", src.Path, "error", err)
			errs = append(errs, fmt.Errorf("reloading dataset %s: %w", src.ID, err))
			continue
		}

		r.mu.Lock()
		r.publish(ds)
		r.mu.Unlock()

		r.log.Info("dataset reloaded", "dataset", src.ID, "rows", ds.Len(), "load_id", ds.LoadID)
		reloaded = append(reloaded, src.ID)
	}

	return reloaded, errors.Join(errs...)
}

// List returns the current snapshots ordered by id.
func (r *Registry) List() []*domain.Dataset {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Dataset, 0, len(r.snapshots))
	for _, ds := range r.snapshots {
		out = append(out, ds)
	}
	slices.SortFunc(out, func(a, b *domain.Dataset) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

// Get returns the current snapshot for id.
func (r *Registry) Get(id string) (*domain.Dataset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ds, ok := r.snapshots[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrDatasetNotFound, id)
	}
	return ds, nil
}

// Ready reports whether every configured source has a snapshot.
func (r *Registry) Ready() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sources) > 0 && len(r.snapshots) == len(r.sources)
}

// publish must be called with mu held.
func (r *Registry) publish(ds *domain.Dataset) {
	r.snapshots[ds.ID] = ds
	metrics.DatasetRows.WithLabelValues(ds.ID).Set(float64(ds.Len()))
}

func (r *Registry) stale(src *Source) bool {
	r.mu.RLock()
	current, ok := r.snapshots[src.ID]
	r.mu.RUnlock()
	if !ok {
		return true
	}

	info, err := os.Stat(src.Path)
	if err != nil {
		r.log.Warn("cannot stat dataset source", "dataset", src.ID, "path", src.Path, "error", err)
		return false
	}
	return !info.ModTime().Equal(current.ModTime)
}

func (r *Registry) load(ctx context.Context, src *Source) (*domain.Dataset, error) {
	_, span := r.tracer.Start(ctx, "catalog.Load", trace.WithAttributes(
		attribute.String("dataset.id", src.ID),
		attribute.String("dataset.path", src.Path),
	))
	defer span.End()

	start := time.Now()
	ds, err := table.LoadFile(src.Path, src.ID, src.Schema,
		table.WithDelimiter(src.Delimiter),
		table.WithDeriveRevenue(src.DeriveRevenue),
	)
	if err != nil {
		metrics.DatasetLoadsTotal.WithLabelValues(src.ID, "error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	metrics.DatasetLoadsTotal.WithLabelValues(src.ID, "ok").Inc()
	span.SetAttributes(
		attribute.Int("dataset.rows", ds.Len()),
		attribute.Int("dataset.skipped", ds.Skipped()),
	)

	if n := ds.Skipped(); n > 0 {
		metrics.DatasetSkippedRowsTotal.WithLabelValues(src.ID).Add(float64(n))
		r.log.Warn("skipped malformed rows",
			"dataset", src.ID, "path", src.Path, "skipped", n)
	}
	for _, w := range ds.Warnings {
		r.log.Debug("data quality warning", "dataset", src.ID, "warning", w.String())
	}

	r.log.Info("dataset loaded",
		"dataset", src.ID,
		"rows", ds.Len(),
		"columns", len(ds.Columns),
		"duration", time.Since(start),
	)

	return ds, nil
}
