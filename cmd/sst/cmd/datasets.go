package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func datasetsCmd() *cobra.Command {
	datasetsRoot := &cobra.Command{
		Use:   "datasets",
		Short: "Inspect loaded datasets",
		Long: "Inspect the product tables the server has loaded, including their\n" +
			"columns, filter ranges and the rows skipped at load time.",
	}

	datasetsRoot.AddCommand(
		datasetsListCmd(),
		datasetsGetCmd(),
	)

	return datasetsRoot
}

func datasetsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List loaded datasets",
		Example: `  sst datasets list
  sst datasets list --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			datasets, err := newClient().ListDatasets(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if jsonOutput() {
				return outputJSON(out, datasets)
			}
			if len(datasets) == 0 {
				fmt.Fprintln(out, "No datasets loaded.")
				return nil
			}
			return printDatasetsTable(out, datasets)
		},
	}
}

func datasetsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show dataset details",
		Example: `  sst datasets get products
  sst datasets get products --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := newClient().GetDataset(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(cmd.OutOrStdout(), d)
			}
			return printDatasetDetail(cmd.OutOrStdout(), d)
		},
	}
}
