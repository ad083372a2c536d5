package cmd

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/donaldgifford/smartsell/internal/config"
)

var maxWarnings int

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the config and load every dataset",
	Long: "Loads the config file and every configured dataset, reporting schema " +
		"errors and the rows that would be skipped at load time.",
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().IntVar(&maxWarnings, "max-warnings", 20, "warnings to print per dataset (0 for all)")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	registry, err := loadCatalog(cmd.Context(), cfg, slog.New(slog.DiscardHandler))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, ds := range registry.List() {
		fmt.Fprintf(out, "%s: %d rows loaded, %d skipped (%s)\n",
			ds.ID, ds.Len(), ds.Skipped(), ds.Source)
		printWarnings(out, ds.Warnings, maxWarnings)
	}
	return nil
}

func printWarnings[T fmt.Stringer](w io.Writer, warnings []T, limit int) {
	for i, warn := range warnings {
		if limit > 0 && i == limit {
			fmt.Fprintf(w, "  ... and %d more\n", len(warnings)-limit)
			return
		}
		fmt.Fprintf(w, "  %s\n", warn)
	}
}
