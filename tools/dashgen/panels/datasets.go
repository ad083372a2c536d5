package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// DatasetRows returns a timeseries panel showing valid rows per dataset.
func DatasetRows() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Dataset Rows").
		Description("Valid rows in the current snapshot of each dataset").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(`max(`+Sel("smartsell_dataset_rows")+`) by (dataset)`, "{{dataset}}", "A")).
		FillOpacity(0).
		LineWidth(2).
		Legend(TableLegend("last")).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// SkippedRows returns a timeseries panel showing rows excluded at load
// time for data-quality problems.
func SkippedRows() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Skipped Rows").
		Description("Rows excluded at load time per hour").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(
			`sum(increase(`+Sel("smartsell_dataset_skipped_rows_total")+`[1h])) by (dataset)`,
			"{{dataset}}", "A",
		)).
		FillOpacity(10).
		LineWidth(2).
		Thresholds(ThresholdsGreenYellowRed(1, 100)).
		ColorScheme(ColorSchemeThresholds()).
		DrawStyle(common.GraphDrawStyleBars)
}

// DatasetLoads returns a timeseries panel showing dataset loads by result.
func DatasetLoads() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Dataset Loads").
		Description("Dataset loads and reloads per hour by result").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(
			`sum(increase(`+Sel("smartsell_dataset_loads_total")+`[1h])) by (dataset, result)`,
			"{{dataset}} {{result}}", "A",
		)).
		FillOpacity(10).
		LineWidth(2).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleBars)
}
