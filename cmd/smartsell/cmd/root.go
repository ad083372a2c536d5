// Package cmd implements the CLI commands for smartsell.
package cmd

import (
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "smartsell",
	Short: "Product sales analytics API",
	Long: "An API-first service that loads product sales tables, applies dashboard " +
		"filters, and serves aggregates, pricing insights and rankings over HTTP.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")
	rootCmd.AddCommand(versionCommand())
}

// Root returns the root cobra command for documentation generation.
func Root() *cobra.Command {
	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
