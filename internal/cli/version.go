package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saferun/adaptcore/internal/buildinfo"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version and build information",
	RunE:  runVersion,
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func runVersion(cmd *cobra.Command, args []string) error {
	fmt.Fprintf(cmd.OutOrStdout(), "adaptcore version %s\n", buildinfo.Version)
	fmt.Fprintf(cmd.OutOrStdout(), "  commit:     %s\n", buildinfo.Commit)
	fmt.Fprintf(cmd.OutOrStdout(), "  built:      %s\n", buildinfo.Date)
	fmt.Fprintf(cmd.OutOrStdout(), "  go version: %s\n", buildinfo.GoVersion)
	fmt.Fprintf(cmd.OutOrStdout(), "  os/arch:    %s/%s\n", buildinfo.OS(), buildinfo.Arch())
	return nil
}
