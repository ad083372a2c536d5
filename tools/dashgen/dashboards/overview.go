// Package dashboards assembles Grafana dashboard definitions from panel builders.
package dashboards

import (
	"github.com/grafana/grafana-foundation-sdk/go/dashboard"

	"github.com/donaldgifford/smartsell/tools/dashgen/panels"
)

// BuildOverview constructs the smartsell Overview dashboard with all metric rows.
func BuildOverview() *dashboard.DashboardBuilder {
	b := dashboard.NewDashboardBuilder("smartsell Overview").
		Uid("smartsell-overview").
		Tags([]string{"smartsell"}).
		Refresh("30s").
		Time("now-6h", "now").
		Timezone("browser").
		Editable().
		Tooltip(dashboard.DashboardCursorSyncCrosshair).
		WithVariable(datasourceVar())

	// Row 1: Overview.
	b.WithRow(dashboard.NewRowBuilder("Overview").
		WithPanel(panels.HealthzStat()).
		WithPanel(panels.ReadyzStat()).
		WithPanel(panels.ActiveSessionsStat()).
		WithPanel(panels.UptimeStat()))

	// Row 2: HTTP.
	b.WithRow(dashboard.NewRowBuilder("HTTP").
		WithPanel(panels.RequestRate()).
		WithPanel(panels.LatencyPercentiles()).
		WithPanel(panels.ErrorRate()).
		WithPanel(panels.RejectedRate()))

	// Row 3: Filter engine.
	b.WithRow(dashboard.NewRowBuilder("Filter Engine").
		WithPanel(panels.FilterEvaluations()).
		WithPanel(panels.FilterDuration()).
		WithPanel(panels.ViewCacheHitRatio()))

	// Row 4: Datasets.
	b.WithRow(dashboard.NewRowBuilder("Datasets").
		WithPanel(panels.DatasetRows()).
		WithPanel(panels.SkippedRows()).
		WithPanel(panels.DatasetLoads()))

	return b
}

func datasourceVar() *dashboard.DatasourceVariableBuilder {
	return dashboard.NewDatasourceVariableBuilder("datasource").
		Label("Datasource").
		Type("prometheus")
}
