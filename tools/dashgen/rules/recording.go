package rules

// RecordingRules returns a PrometheusRule CR containing pre-computed rate
// expressions used by dashboards and alert rules.
func RecordingRules() PrometheusRule {
	return newPrometheusRule("smartsell-recording-rules", "smartsell-recording",
		Rule{
			Record: "smartsell:http_requests:rate5m",
			Expr:   `sum(rate(smartsell_http_requests_total[5m])) by (path)`,
		},
		Rule{
			Record: "smartsell:http_errors:rate5m",
			Expr:   `sum(rate(smartsell_http_requests_total{status=~"5.."}[5m])) by (path)`,
		},
		Rule{
			Record: "smartsell:rate_limited:rate5m",
			Expr:   `sum(rate(smartsell_rate_limited_total[5m]))`,
		},
		Rule{
			Record: "smartsell:filter_evaluations:rate5m",
			Expr:   `sum(rate(smartsell_filter_evaluations_total[5m])) by (result)`,
		},
		Rule{
			Record: "smartsell:view_cache_hit_ratio:rate5m",
			Expr: `sum(rate(smartsell_view_cache_hits_total[5m])) / ` +
				`(sum(rate(smartsell_view_cache_hits_total[5m])) + sum(rate(smartsell_view_cache_misses_total[5m])))`,
		},
		Rule{
			Record: "smartsell:dataset_load_failures:increase1h",
			Expr:   `sum(increase(smartsell_dataset_loads_total{result="error"}[1h])) by (dataset)`,
		},
	)
}
