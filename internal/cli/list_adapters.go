package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saferun/adaptcore/internal/canon"
	"github.com/saferun/adaptcore/internal/capability"
)

var listAdaptersCmd = &cobra.Command{
	Use:   "list-adapters",
	Short: "Print every adapter class, its formats, and plugin availability",
	Long: `list-adapters prints the AdapterListReport as canonical JSON: every
adapter class, its mode (built_in or mixed), the formats it supports, and --
for the archive and package classes -- whether each backing plugin tool
(tar, 7z) is actually available on this host.`,
	Args: cobra.NoArgs,
	RunE: runListAdapters,
}

func init() {
	rootCmd.AddCommand(listAdaptersCmd)
}

func runListAdapters(cmd *cobra.Command, args []string) error {
	report := capability.ListAdapters(cmd.Context())

	encoded, err := canon.Marshal(report)
	if err != nil {
		return fmt.Errorf("encoding adapter list: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
	return nil
}
