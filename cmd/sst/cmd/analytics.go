package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	apiclient "github.com/donaldgifford/smartsell/internal/api/client"
	"github.com/donaldgifford/smartsell/internal/api/handlers"
	domain "github.com/donaldgifford/smartsell/pkg/types"
)

const filterHelp = "filter as key=value (category, categories, price_min, price_max, rating_min, search); repeatable"

// filterFlags holds the repeatable --filter flag shared by every
// dataset query command.
type filterFlags struct {
	raw []string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&f.raw, "filter", nil, filterHelp)
}

func (f *filterFlags) spec() (domain.FilterSpec, error) {
	return handlers.ParseFilters(f.raw)
}

func viewCmd() *cobra.Command {
	var (
		filters filterFlags
		limit   int
	)

	cmd := &cobra.Command{
		Use:   "view <dataset>",
		Short: "Show the rows matching a filter",
		Example: `  # First 20 rows of the dataset
  sst view products

  # Electronics between $10 and $250 rated 3.5 or higher
  sst view products --filter category=Electronics \
    --filter price_min=10 --filter price_max=250 --filter rating_min=3.5

  # Name search across two categories
  sst view products --filter categories=Electronics,Home --filter search=widget`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := filters.spec()
			if err != nil {
				return err
			}
			v, err := newClient().View(cmd.Context(), args[0], spec, limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput() {
				return outputJSON(out, v)
			}
			if v.Total == 0 {
				fmt.Fprintln(out, "No matching rows.")
				return nil
			}
			fmt.Fprintf(out, "Showing %d of %d matching rows\n\n", len(v.Records), v.Total)
			return printRecordsTable(out, v.Records)
		},
	}
	filters.register(cmd)
	cmd.Flags().IntVar(&limit, "limit", 20, "rows to print (0 for all)")

	return cmd
}

func aggregateCmd() *cobra.Command {
	var (
		filters filterFlags
		groupBy string
		value   string
		reducer string
		order   string
	)

	cmd := &cobra.Command{
		Use:   "aggregate <dataset>",
		Short: "Group the filtered rows and reduce a value column",
		Example: `  # Revenue per category, largest first
  sst aggregate products --group-by Category --value Revenue --reducer sum --order value_desc

  # Product count per category for cheap items
  sst aggregate products --group-by Category --reducer count --filter price_max=20`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := filters.spec()
			if err != nil {
				return err
			}
			s, err := newClient().Aggregate(cmd.Context(), args[0], apiclient.AggregateRequest{
				Filter:  spec,
				GroupBy: groupBy,
				Value:   value,
				Reducer: domain.Reducer(reducer),
				Order:   domain.Order(order),
			})
			if err != nil {
				return err
			}
			return printSeries(cmd, s)
		},
	}
	filters.register(cmd)
	cmd.Flags().StringVar(&groupBy, "group-by", "", "column to group by (required)")
	cmd.Flags().StringVar(&value, "value", "", "numeric column to reduce")
	cmd.Flags().StringVar(&reducer, "reducer", string(domain.ReduceSum), "reducer (mean, sum, count, min, max)")
	cmd.Flags().StringVar(&order, "order", "", "point order (key, value_asc, value_desc)")
	cobra.CheckErr(cmd.MarkFlagRequired("group-by"))

	return cmd
}

func trendCmd() *cobra.Command {
	var (
		filters filterFlags
		period  string
		value   string
		reducer string
	)

	cmd := &cobra.Command{
		Use:     "trend <dataset>",
		Short:   "Aggregate the filtered rows by period",
		Example: `  sst trend products --period Year --value Revenue --reducer sum`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := filters.spec()
			if err != nil {
				return err
			}
			s, err := newClient().Trend(cmd.Context(), args[0], apiclient.TrendRequest{
				Filter:  spec,
				Period:  period,
				Value:   value,
				Reducer: domain.Reducer(reducer),
			})
			if err != nil {
				return err
			}
			return printSeries(cmd, s)
		},
	}
	filters.register(cmd)
	cmd.Flags().StringVar(&period, "period", "", "period column (required)")
	cmd.Flags().StringVar(&value, "value", "", "numeric column to reduce")
	cmd.Flags().StringVar(&reducer, "reducer", string(domain.ReduceSum), "reducer (mean, sum, count, min, max)")
	cobra.CheckErr(cmd.MarkFlagRequired("period"))

	return cmd
}

func printSeries(cmd *cobra.Command, s *domain.AggregateSeries) error {
	out := cmd.OutOrStdout()
	if jsonOutput() {
		return outputJSON(out, s)
	}
	if len(s.Points) == 0 {
		fmt.Fprintln(out, "No matching rows.")
		return nil
	}
	return printSeriesTable(out, s)
}

func insightCmd() *cobra.Command {
	var filters filterFlags

	cmd := &cobra.Command{
		Use:   "insight <dataset>",
		Short: "Compare the selection's mean price with the market median",
		Example: `  sst insight products --filter category=Electronics
  sst insight products --filter search=widget --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := filters.spec()
			if err != nil {
				return err
			}
			in, err := newClient().Insight(cmd.Context(), args[0], spec)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(cmd.OutOrStdout(), in)
			}
			return printInsight(cmd.OutOrStdout(), in)
		},
	}
	filters.register(cmd)

	return cmd
}

func summaryCmd() *cobra.Command {
	var filters filterFlags

	cmd := &cobra.Command{
		Use:     "summary <dataset>",
		Short:   "Show KPIs for the filtered rows",
		Example: `  sst summary products --filter rating_min=4`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := filters.spec()
			if err != nil {
				return err
			}
			s, err := newClient().Summary(cmd.Context(), args[0], spec)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(cmd.OutOrStdout(), s)
			}
			return printSummary(cmd.OutOrStdout(), s)
		},
	}
	filters.register(cmd)

	return cmd
}

func topCmd() *cobra.Command {
	var (
		filters filterFlags
		sortBy  []string
		limit   int
	)

	cmd := &cobra.Command{
		Use:   "top <dataset>",
		Short: "Rank the filtered rows by one or more columns",
		Example: `  # Ten best rated, cheapest first among ties
  sst top products --sort Rating:desc --sort Price

  # Five best sellers in Home
  sst top products --sort -Sales --limit 5 --filter category=Home`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := filters.spec()
			if err != nil {
				return err
			}
			keys, err := handlers.ParseSortKeys(sortBy)
			if err != nil {
				return err
			}
			if len(keys) == 0 {
				return errors.New("at least one --sort key is required")
			}
			records, err := newClient().Top(cmd.Context(), args[0], apiclient.TopRequest{
				Filter: spec,
				SortBy: keys,
				Limit:  limit,
			})
			if err != nil {
				return err
			}
			return printRecords(cmd, records)
		},
	}
	filters.register(cmd)
	cmd.Flags().StringArrayVar(&sortBy, "sort", nil, "sort key as column[:asc|:desc] or -column; repeatable")
	cmd.Flags().IntVar(&limit, "limit", 0, "rows to return (0 uses the server default)")

	return cmd
}

func picksCmd() *cobra.Command {
	var (
		filters    filterFlags
		minSuccess float64
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "picks <dataset>",
		Short: "List high-success products, cheapest first",
		Example: `  sst picks products
  sst picks products --min-success 75 --limit 3`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := filters.spec()
			if err != nil {
				return err
			}
			req := apiclient.PicksRequest{Filter: spec, Limit: limit}
			if cmd.Flags().Changed("min-success") {
				req.MinSuccess = &minSuccess
			}
			records, err := newClient().Picks(cmd.Context(), args[0], req)
			if err != nil {
				return err
			}
			return printRecords(cmd, records)
		},
	}
	filters.register(cmd)
	cmd.Flags().Float64Var(&minSuccess, "min-success", 0, "minimum success percentage (default from server)")
	cmd.Flags().IntVar(&limit, "limit", 0, "rows to return (0 uses the server default)")

	return cmd
}

func lowPerformersCmd() *cobra.Command {
	var (
		filters    filterFlags
		maxSuccess float64
		limit      int
	)

	cmd := &cobra.Command{
		Use:     "low-performers <dataset>",
		Short:   "List low-success products, priciest first",
		Example: `  sst low-performers products --max-success 40`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := filters.spec()
			if err != nil {
				return err
			}
			req := apiclient.LowPerformersRequest{Filter: spec, Limit: limit}
			if cmd.Flags().Changed("max-success") {
				req.MaxSuccess = &maxSuccess
			}
			records, err := newClient().LowPerformers(cmd.Context(), args[0], req)
			if err != nil {
				return err
			}
			return printRecords(cmd, records)
		},
	}
	filters.register(cmd)
	cmd.Flags().Float64Var(&maxSuccess, "max-success", 0, "maximum success percentage (default from server)")
	cmd.Flags().IntVar(&limit, "limit", 0, "rows to return (0 uses the server default)")

	return cmd
}

func highPotentialCmd() *cobra.Command {
	var (
		filters   filterFlags
		minRating float64
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "high-potential <dataset>",
		Short: "List well-rated products selling below the median success",
		Example: `  sst high-potential products
  sst high-potential products --min-rating 4.5 --filter category=Home`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := filters.spec()
			if err != nil {
				return err
			}
			req := apiclient.HighPotentialRequest{Filter: spec, Limit: limit}
			if cmd.Flags().Changed("min-rating") {
				req.MinRating = &minRating
			}
			records, err := newClient().HighPotential(cmd.Context(), args[0], req)
			if err != nil {
				return err
			}
			return printRecords(cmd, records)
		},
	}
	filters.register(cmd)
	cmd.Flags().Float64Var(&minRating, "min-rating", 0, "minimum rating (default from server)")
	cmd.Flags().IntVar(&limit, "limit", 0, "rows to return (0 uses the server default)")

	return cmd
}

func overpricedCmd() *cobra.Command {
	var (
		filters    filterFlags
		quantile   float64
		maxSuccess float64
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "overpriced <dataset>",
		Short: "List products priced in the upper quantile with low success",
		Example: `  sst overpriced products
  sst overpriced products --quantile 0.9 --max-success 40`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := filters.spec()
			if err != nil {
				return err
			}
			req := apiclient.OverpricedRequest{Filter: spec, Limit: limit}
			if cmd.Flags().Changed("quantile") {
				req.Quantile = &quantile
			}
			if cmd.Flags().Changed("max-success") {
				req.MaxSuccess = &maxSuccess
			}
			records, err := newClient().Overpriced(cmd.Context(), args[0], req)
			if err != nil {
				return err
			}
			return printRecords(cmd, records)
		},
	}
	filters.register(cmd)
	cmd.Flags().Float64Var(&quantile, "quantile", 0, "price quantile between 0 and 1 (default from server)")
	cmd.Flags().Float64Var(&maxSuccess, "max-success", 0, "maximum success percentage (default from server)")
	cmd.Flags().IntVar(&limit, "limit", 0, "rows to return (0 uses the server default)")

	return cmd
}

func highSuccessCmd() *cobra.Command {
	var (
		filters    filterFlags
		minSuccess float64
		limit      int
	)

	cmd := &cobra.Command{
		Use:     "high-success <dataset>",
		Short:   "List products above a success threshold",
		Example: `  sst high-success products --min-success 80`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := filters.spec()
			if err != nil {
				return err
			}
			req := apiclient.HighSuccessRequest{Filter: spec, Limit: limit}
			if cmd.Flags().Changed("min-success") {
				req.MinSuccess = &minSuccess
			}
			records, err := newClient().HighSuccess(cmd.Context(), args[0], req)
			if err != nil {
				return err
			}
			return printRecords(cmd, records)
		},
	}
	filters.register(cmd)
	cmd.Flags().Float64Var(&minSuccess, "min-success", 0, "minimum success percentage (default from server)")
	cmd.Flags().IntVar(&limit, "limit", 0, "rows to return (0 uses the server default)")

	return cmd
}

func hierarchyCmd() *cobra.Command {
	var (
		filters filterFlags
		levels  []string
		value   string
	)

	cmd := &cobra.Command{
		Use:     "hierarchy <dataset>",
		Short:   "Nest the filtered rows by several columns",
		Example: `  sst hierarchy products --level Category --level Sub_Category --value Revenue`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := filters.spec()
			if err != nil {
				return err
			}
			nodes, err := newClient().Hierarchy(cmd.Context(), args[0], apiclient.HierarchyRequest{
				Filter: spec,
				Levels: levels,
				Value:  value,
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if jsonOutput() {
				return outputJSON(out, nodes)
			}
			if len(nodes) == 0 {
				fmt.Fprintln(out, "No matching rows.")
				return nil
			}
			return printHierarchy(out, nodes)
		},
	}
	filters.register(cmd)
	cmd.Flags().StringArrayVar(&levels, "level", nil, "grouping column, outermost first; repeatable (required)")
	cmd.Flags().StringVar(&value, "value", "", "numeric column summed at each node (default: row count)")
	cobra.CheckErr(cmd.MarkFlagRequired("level"))

	return cmd
}

func printRecords(cmd *cobra.Command, records []domain.Record) error {
	out := cmd.OutOrStdout()
	if jsonOutput() {
		return outputJSON(out, records)
	}
	if len(records) == 0 {
		fmt.Fprintln(out, "No matching rows.")
		return nil
	}
	return printRecordsTable(out, records)
}
