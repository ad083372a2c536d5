// Package cmd implements the sst CLI commands.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	apiclient "github.com/donaldgifford/smartsell/internal/api/client"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "sst",
		Short: "CLI client for smartsell",
		Long: "sst is a command-line client for the smartsell API.\n" +
			"It lets you inspect datasets, apply filters, and query aggregates,\n" +
			"pricing insights and rankings from the terminal.",
		SilenceUsage: true,
	}
)

// Root returns the root cobra command for documentation generation.
func Root() *cobra.Command {
	return rootCmd
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().
		StringVar(&cfgFile, "config", "", "config file (default $HOME/.sst.yaml)")
	rootCmd.PersistentFlags().
		String("server", "http://localhost:8080", "API server URL")
	rootCmd.PersistentFlags().
		String("output", "table", "output format (table, json)")

	cobra.CheckErr(viper.BindPFlag("server", rootCmd.PersistentFlags().Lookup("server")))
	cobra.CheckErr(viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output")))

	rootCmd.AddCommand(datasetsCmd())
	rootCmd.AddCommand(viewCmd())
	rootCmd.AddCommand(aggregateCmd())
	rootCmd.AddCommand(trendCmd())
	rootCmd.AddCommand(insightCmd())
	rootCmd.AddCommand(summaryCmd())
	rootCmd.AddCommand(topCmd())
	rootCmd.AddCommand(picksCmd())
	rootCmd.AddCommand(lowPerformersCmd())
	rootCmd.AddCommand(highPotentialCmd())
	rootCmd.AddCommand(overpricedCmd())
	rootCmd.AddCommand(highSuccessCmd())
	rootCmd.AddCommand(hierarchyCmd())
	rootCmd.AddCommand(sessionsCmd())
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".sst")
	}

	viper.SetEnvPrefix("SST")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func newClient() *apiclient.Client {
	return apiclient.New(viper.GetString("server"))
}

func jsonOutput() bool {
	return viper.GetString("output") == "json"
}
