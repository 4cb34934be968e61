package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newCheckConfigCmd creates the 'check-config' subcommand. Loading already
// validates, so reaching RunE means the configuration is usable.
func newCheckConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-config",
		Short: "Validates the configuration and prints the selected backends",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "site host:    %s\n", cfg.SiteHost.Kind)
			fmt.Fprintf(out, "llm provider: %s\n", cfg.LLM.Provider)
			fmt.Fprintf(out, "note store:   %s\n", cfg.Notes.Store)
			fmt.Fprintf(out, "ledger:       %s\n", cfg.Notes.Ledger.Kind)
			fmt.Fprintf(out, "locale:       %s\n", cfg.Locale.Code)
			return nil
		},
	}
}
