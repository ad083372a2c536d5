package rules

// AlertRules returns a PrometheusRule CR containing alert rules for
// smartsell operational monitoring.
func AlertRules() PrometheusRule {
	return newPrometheusRule("smartsell-alerts", "smartsell-alerts",
		Rule{
			Alert: "SmartsellDown",
			Expr:  `absent(up{job="smartsell"})`,
			For:   "2m",
			Labels: map[string]string{
				"severity": "critical",
			},
			Annotations: map[string]string{
				"summary":     "smartsell is down",
				"description": "The smartsell job has been absent for more than 2 minutes.",
			},
		},
		Rule{
			Alert: "SmartsellReadinessDown",
			Expr:  `smartsell_readyz_up == 0`,
			For:   "2m",
			Labels: map[string]string{
				"severity": "critical",
			},
			Annotations: map[string]string{
				"summary":     "smartsell readiness check is failing",
				"description": "The readiness probe has been reporting not-ready for more than 2 minutes.",
			},
		},
		Rule{
			Alert: "SmartsellHighErrorRate",
			Expr:  `sum(smartsell:http_errors:rate5m) / sum(smartsell:http_requests:rate5m) > 0.05`,
			For:   "5m",
			Labels: map[string]string{
				"severity": "warning",
			},
			Annotations: map[string]string{
				"summary":     "High HTTP error rate on smartsell",
				"description": "More than 5% of HTTP requests are returning 5xx errors over the last 5 minutes.",
			},
		},
		Rule{
			Alert: "SmartsellDatasetReloadFailing",
			Expr:  `smartsell:dataset_load_failures:increase1h > 0`,
			For:   "15m",
			Labels: map[string]string{
				"severity": "warning",
			},
			Annotations: map[string]string{
				"summary":     "Dataset reloads are failing",
				"description": "A changed dataset source failed to reload; the previous snapshot is still being served.",
			},
		},
		Rule{
			Alert: "SmartsellRateLimiting",
			Expr:  `smartsell:rate_limited:rate5m > 1`,
			For:   "10m",
			Labels: map[string]string{
				"severity": "info",
			},
			Annotations: map[string]string{
				"summary":     "Clients are being rate limited",
				"description": "More than one request per second has been rejected with 429 for 10 minutes.",
			},
		},
	)
}
