package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"

	apiclient "github.com/donaldgifford/smartsell/internal/api/client"
	domain "github.com/donaldgifford/smartsell/pkg/types"
)

const timeLayout = "2006-01-02 15:04:05"

// tabWriter wraps tabwriter with error tracking.
type tabWriter struct {
	*tabwriter.Writer
	err error
}

func newTabWriter(w io.Writer) *tabWriter {
	return &tabWriter{Writer: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
}

func (tw *tabWriter) writef(format string, args ...any) {
	if tw.err != nil {
		return
	}
	_, tw.err = fmt.Fprintf(tw.Writer, format, args...)
}

func (tw *tabWriter) finish() error {
	if tw.err != nil {
		return tw.err
	}
	return tw.Flush()
}

func printDatasetsTable(w io.Writer, datasets []apiclient.Dataset) error {
	tw := newTabWriter(w)
	tw.writef("ID\tROWS\tSKIPPED\tCOLUMNS\tLOADED\tSOURCE\n")
	for i := range datasets {
		d := &datasets[i]
		tw.writef("%s\t%d\t%d\t%d\t%s\t%s\n",
			d.ID,
			d.Rows,
			d.Skipped,
			len(d.Columns),
			d.LoadedAt.Format(timeLayout),
			d.Source,
		)
	}
	return tw.finish()
}

func printDatasetDetail(w io.Writer, d *apiclient.DatasetDetail) error {
	tw := newTabWriter(w)
	tw.writef("ID:\t%s\n", d.ID)
	tw.writef("Load ID:\t%s\n", d.LoadID)
	tw.writef("Source:\t%s\n", d.Source)
	tw.writef("Rows:\t%d (%d skipped)\n", d.Rows, d.Skipped)
	tw.writef("Modified:\t%s\n", d.ModTime.Format(timeLayout))
	tw.writef("Loaded:\t%s\n", d.LoadedAt.Format(timeLayout))
	tw.writef("Categories:\t%s\n", strings.Join(d.Options.Categories, ", "))
	tw.writef("Price range:\t%s - %s\n", formatNum(d.Options.PriceMin), formatNum(d.Options.PriceMax))
	tw.writef("Rating range:\t%s - %s\n", formatNum(d.Options.RatingMin), formatNum(d.Options.RatingMax))
	tw.writef("\nCOLUMN\tKIND\tROLE\n")
	for _, c := range d.Columns {
		role := string(c.Role)
		if c.Derived {
			role += " (derived)"
		}
		tw.writef("%s\t%s\t%s\n", c.Name, c.Kind, role)
	}
	if len(d.Warnings) > 0 {
		tw.writef("\nWARNINGS\n")
		for _, warn := range d.Warnings {
			tw.writef("%s\n", warn)
		}
	}
	return tw.finish()
}

// recordColumns returns the text columns, then the numeric columns, each
// sorted by name.
func recordColumns(records []domain.Record) (text, nums []string) {
	textSet := make(map[string]struct{})
	numSet := make(map[string]struct{})
	for i := range records {
		for k := range records[i].Text {
			textSet[k] = struct{}{}
		}
		for k := range records[i].Numbers {
			numSet[k] = struct{}{}
		}
	}
	return slices.Sorted(maps.Keys(textSet)), slices.Sorted(maps.Keys(numSet))
}

func printRecordsTable(w io.Writer, records []domain.Record) error {
	text, nums := recordColumns(records)

	tw := newTabWriter(w)
	header := append([]string{"#"}, text...)
	header = append(header, nums...)
	tw.writef("%s\n", strings.ToUpper(strings.Join(header, "\t")))

	for i := range records {
		r := &records[i]
		row := make([]string, 0, len(header))
		row = append(row, strconv.Itoa(r.Index))
		for _, col := range text {
			row = append(row, truncate(r.Str(col), 40))
		}
		for _, col := range nums {
			v, ok := r.Num(col)
			if !ok {
				row = append(row, "-")
				continue
			}
			row = append(row, formatNum(v))
		}
		tw.writef("%s\n", strings.Join(row, "\t"))
	}
	return tw.finish()
}

func printSeriesTable(w io.Writer, s *domain.AggregateSeries) error {
	tw := newTabWriter(w)
	value := s.Value
	if value == "" {
		value = "rows"
	}
	tw.writef("%s\t%s(%s)\tCOUNT\n", strings.ToUpper(s.GroupBy), strings.ToUpper(string(s.Reducer)), value)
	for _, p := range s.Points {
		cell := "-"
		if p.Value != nil {
			cell = formatNum(*p.Value)
		}
		tw.writef("%s\t%s\t%d\n", p.Key, cell, p.Count)
	}
	return tw.finish()
}

func printInsight(w io.Writer, in *domain.Insight) error {
	tw := newTabWriter(w)
	tw.writef("Signal:\t%s\n", in.Signal)
	tw.writef("View size:\t%d\n", in.ViewSize)
	tw.writef("Mean price:\t%s\n", formatOptional(in.MeanPrice))
	tw.writef("Market median:\t%s\n", formatNum(in.MedianPrice))
	return tw.finish()
}

func printSummary(w io.Writer, s *domain.Summary) error {
	tw := newTabWriter(w)
	tw.writef("Products:\t%d\n", s.Count)
	tw.writef("Total revenue:\t%s\n", formatOptional(s.TotalRevenue))
	tw.writef("Avg price:\t%s\n", formatOptional(s.AvgPrice))
	tw.writef("Avg rating:\t%s\n", formatOptional(s.AvgRating))
	tw.writef("Avg success:\t%s\n", formatOptional(s.AvgSuccess))
	return tw.finish()
}

func printHierarchy(w io.Writer, nodes []domain.HierarchyNode) error {
	tw := newTabWriter(w)
	tw.writef("KEY\tVALUE\tCOUNT\n")
	var walk func(nodes []domain.HierarchyNode, depth int)
	walk = func(nodes []domain.HierarchyNode, depth int) {
		for i := range nodes {
			n := &nodes[i]
			tw.writef("%s%s\t%s\t%d\n", strings.Repeat("  ", depth), n.Key, formatNum(n.Value), n.Count)
			walk(n.Children, depth+1)
		}
	}
	walk(nodes, 0)
	return tw.finish()
}

func printSessionDetail(w io.Writer, s *apiclient.Session) error {
	tw := newTabWriter(w)
	tw.writef("ID:\t%s\n", s.ID)
	tw.writef("Dataset:\t%s\n", s.DatasetID)
	tw.writef("Load ID:\t%s\n", s.LoadID)
	tw.writef("View size:\t%d\n", s.ViewSize)
	tw.writef("Filter:\t%s\n", describeFilter(s.Spec))
	tw.writef("Created:\t%s\n", s.CreatedAt.Format(timeLayout))
	tw.writef("Last seen:\t%s\n", s.LastSeen.Format(timeLayout))
	return tw.finish()
}

// describeFilter renders a FilterSpec in the same key=value form the
// --filter flag accepts.
func describeFilter(spec domain.FilterSpec) string {
	var parts []string
	if len(spec.Categories) > 0 {
		parts = append(parts, "categories="+strings.Join(spec.Categories, ","))
	}
	if spec.PriceMin != nil {
		parts = append(parts, "price_min="+formatNum(*spec.PriceMin))
	}
	if spec.PriceMax != nil {
		parts = append(parts, "price_max="+formatNum(*spec.PriceMax))
	}
	if spec.RatingMin != nil {
		parts = append(parts, "rating_min="+formatNum(*spec.RatingMin))
	}
	if spec.SearchTerm != "" {
		parts = append(parts, "search="+spec.SearchTerm)
	}
	if len(parts) == 0 {
		return "(none)"
	}
	return strings.Join(parts, " ")
}

func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatNum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptional(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
