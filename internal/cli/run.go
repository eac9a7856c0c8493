package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saferun/adaptcore/internal/canon"
	"github.com/saferun/adaptcore/internal/dispatch"
	"github.com/saferun/adaptcore/internal/pipeline"
)

var (
	runSelect  string
	runPlugins []string
)

var runCmd = &cobra.Command{
	Use:   "run <path>",
	Short: "Run an adapter against a path and print its canonical output",
	Long: `run dispatches path to an adapter class -- either the one named by
--select, or whichever class --select=auto matches first -- and prints the
resulting AdapterSummary and AdapterFindings as canonical JSON on stdout.

A literal --select (anything but auto or none) runs on the strict route:
the adapter fails closed on any structural mismatch instead of degrading to
a marker. --select=none with --plugin set always fails with
ADAPTER_PLUGIN_UNUSED.`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&runSelect, "select", "auto", "adapter class: auto, none, archive, package, extension, iac, cicd, document, container, image, scm, signature")
	runCmd.Flags().StringSliceVar(&runPlugins, "plugin", nil, "enabled plugin name (repeatable): tar, 7z")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	path := args[0]

	in := dispatch.Input{
		Ctx:            cmd.Context(),
		Path:           path,
		Selection:      pipeline.Selection(runSelect),
		EnabledPlugins: runPlugins,
		Capture:        buildCaptureTree(path),
	}

	result := dispatch.RunAdapter(in)
	if !result.IsOk() {
		return fmt.Errorf("%s: %s", result.FailCode, result.FailMessage)
	}

	out := struct {
		ReasonCodes []string                  `json:"reasonCodes"`
		Adapter     pipeline.AdapterMeta      `json:"adapter"`
		Summary     *pipeline.AdapterSummary  `json:"summary,omitempty"`
		Findings    *pipeline.AdapterFindings `json:"findings,omitempty"`
	}{
		ReasonCodes: result.ReasonCodes,
		Adapter:     result.Adapter,
		Summary:     result.Summary,
		Findings:    result.Findings,
	}

	encoded, err := canon.Marshal(out)
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
	return nil
}
