package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/stat"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// FilterEvaluations returns a timeseries panel showing filter evaluations
// per second split by outcome.
func FilterEvaluations() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Filter Evaluations").
		Description("Filter evaluations per second by result (ok, empty, invalid)").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(`smartsell:filter_evaluations:rate5m`, "{{result}}", "A")).
		Unit("ops").
		FillOpacity(10).
		LineWidth(2).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// FilterDuration returns a timeseries panel showing p95 and p99 filter
// evaluation time.
func FilterDuration() *timeseries.PanelBuilder {
	q := func(p string) string {
		return `histogram_quantile(` + p + `, sum(rate(` +
			Sel("smartsell_filter_duration_seconds_bucket") + `[5m])) by (le))`
	}
	return timeseries.NewPanelBuilder().
		Title("Filter Duration").
		Description("Time to evaluate a filter over a full dataset").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(q("0.95"), "p95", "A")).
		WithTarget(PromQuery(q("0.99"), "p99", "B")).
		Unit("s").
		FillOpacity(10).
		LineWidth(2).
		Legend(TableLegend("mean", "max")).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// ViewCacheHitRatio returns a stat panel showing the share of views served
// from cache.
func ViewCacheHitRatio() *stat.PanelBuilder {
	return stat.NewPanelBuilder().
		Title("View Cache Hit %").
		Description("Share of filtered views served from the view cache over 5m").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(`smartsell:view_cache_hit_ratio:rate5m * 100`, "", "A")).
		Unit("percent").
		Thresholds(ThresholdsRedGreen(50)).
		ColorScheme(ColorSchemeThresholds()).
		ColorMode(common.BigValueColorModeBackground).
		GraphMode(common.BigValueGraphModeArea)
}
