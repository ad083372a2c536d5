package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func sessionsCmd() *cobra.Command {
	sessionsRoot := &cobra.Command{
		Use:   "sessions",
		Short: "Manage filter sessions",
		Long: "Manage server-side filter sessions. A session holds one dataset's\n" +
			"current filter and view; an invalid filter update leaves it unchanged.",
	}

	sessionsRoot.AddCommand(
		sessionsListCmd(),
		sessionsCreateCmd(),
		sessionsGetCmd(),
		sessionsFilterCmd(),
		sessionsDeleteCmd(),
	)

	return sessionsRoot
}

func sessionsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Short:   "List active session ids",
		Example: `  sst sessions list`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ids, err := newClient().ListSessions(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if jsonOutput() {
				return outputJSON(out, ids)
			}
			if len(ids) == 0 {
				fmt.Fprintln(out, "No active sessions.")
				return nil
			}
			for _, id := range ids {
				fmt.Fprintln(out, id)
			}
			return nil
		},
	}
}

func sessionsCreateCmd() *cobra.Command {
	var filters filterFlags

	cmd := &cobra.Command{
		Use:   "create <dataset>",
		Short: "Start a session on a dataset",
		Example: `  sst sessions create products
  sst sessions create products --filter category=Electronics`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := filters.spec()
			if err != nil {
				return err
			}
			s, err := newClient().CreateSession(cmd.Context(), args[0], spec)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(cmd.OutOrStdout(), s)
			}
			return printSessionDetail(cmd.OutOrStdout(), s)
		},
	}
	filters.register(cmd)

	return cmd
}

func sessionsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "get <id>",
		Short:   "Show a session",
		Example: `  sst sessions get 2f6c0b6e-5d0e-4c47-9d7b-0f6f3f9b8a51`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newClient().GetSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(cmd.OutOrStdout(), s)
			}
			return printSessionDetail(cmd.OutOrStdout(), s)
		},
	}
}

func sessionsFilterCmd() *cobra.Command {
	var filters filterFlags

	cmd := &cobra.Command{
		Use:   "filter <id>",
		Short: "Replace a session's filter",
		Long: "Replace a session's filter. The new filter replaces the old one\n" +
			"entirely; pass no --filter flags to clear it.",
		Example: `  sst sessions filter <id> --filter price_max=50 --filter search=pan`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := filters.spec()
			if err != nil {
				return err
			}
			s, err := newClient().UpdateSessionFilter(cmd.Context(), args[0], spec)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(cmd.OutOrStdout(), s)
			}
			return printSessionDetail(cmd.OutOrStdout(), s)
		},
	}
	filters.register(cmd)

	return cmd
}

func sessionsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Short:   "End a session",
		Example: `  sst sessions delete <id>`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := newClient().DeleteSession(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Session %s deleted.\n", args[0])
			return nil
		},
	}
}
