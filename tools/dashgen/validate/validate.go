// Package validate checks generated dashboards and rules: every PromQL
// expression must parse and reference only known metrics.
package validate

import (
	"fmt"
	"strings"

	"github.com/grafana/grafana-foundation-sdk/go/dashboard"
	"github.com/grafana/grafana-foundation-sdk/go/prometheus"
	"github.com/prometheus/prometheus/promql/parser"

	"github.com/donaldgifford/smartsell/tools/dashgen/rules"
)

// histogramSuffixes are stripped before a series name is looked up.
var histogramSuffixes = []string{"_bucket", "_sum", "_count"}

// Result collects validation findings. Errors fail generation; warnings
// are reported only.
type Result struct {
	Errors   []string
	Warnings []string
}

// Ok reports whether no errors were found.
func (r *Result) Ok() bool {
	return len(r.Errors) == 0
}

func (r *Result) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Result) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Dashboard validates every Prometheus target of every panel, including
// panels nested in rows.
func Dashboard(dash dashboard.Dashboard, known map[string]bool) Result {
	var res Result
	for _, p := range dash.Panels {
		switch {
		case p.Panel != nil:
			checkPanel(&res, p.Panel, known)
		case p.RowPanel != nil:
			for i := range p.RowPanel.Panels {
				checkPanel(&res, &p.RowPanel.Panels[i], known)
			}
		}
	}
	return res
}

func checkPanel(res *Result, p *dashboard.Panel, known map[string]bool) {
	title := "(untitled)"
	if p.Title != nil && *p.Title != "" {
		title = *p.Title
	} else {
		res.warnf("panel without a title")
	}

	if len(p.Targets) == 0 {
		res.warnf("panel %q has no targets", title)
		return
	}

	for _, t := range p.Targets {
		switch q := t.(type) {
		case prometheus.Dataquery:
			Expr(res, "panel "+title, q.Expr, known)
		case *prometheus.Dataquery:
			Expr(res, "panel "+title, q.Expr, known)
		default:
			res.warnf("panel %q has a non-Prometheus target", title)
		}
	}
}

// Rules validates every expression of a PrometheusRule. Recording rule
// names become known to the rules that follow them.
func Rules(pr rules.PrometheusRule, known map[string]bool) Result {
	var res Result
	for _, g := range pr.Spec.Groups {
		for _, r := range g.Rules {
			name := r.Record
			if name == "" {
				name = r.Alert
			}
			switch {
			case r.Record == "" && r.Alert == "":
				res.errorf("group %s: rule has neither record nor alert", g.Name)
			case r.Record != "" && !known[r.Record]:
				res.errorf("recording rule %s is not in the known metrics", r.Record)
			}
			Expr(&res, "rule "+name, r.Expr, known)
		}
	}
	return res
}

// Expr parses expr and checks each selector's metric name against known.
func Expr(res *Result, where, expr string, known map[string]bool) {
	if strings.TrimSpace(expr) == "" {
		res.errorf("%s: empty expression", where)
		return
	}

	parsed, err := parser.ParseExpr(expr)
	if err != nil {
		res.errorf("%s: %v", where, err)
		return
	}

	parser.Inspect(parsed, func(node parser.Node, _ []parser.Node) error {
		vs, ok := node.(*parser.VectorSelector)
		if !ok || vs.Name == "" {
			return nil
		}
		if !known[vs.Name] && !known[baseName(vs.Name)] {
			res.errorf("%s: unknown metric %s", where, vs.Name)
		}
		return nil
	})
}

func baseName(name string) string {
	for _, s := range histogramSuffixes {
		if base, ok := strings.CutSuffix(name, s); ok {
			return base
		}
	}
	return name
}
