package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"asngen/internal/driver"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [flags] [path...]",
	Short: "Show the resolved model of annotated types",
	Long: `Run the analysis passes without generating code and print every type's
resolved tags, folded constraints and member layout as JSON. Useful for
checking how a declaration maps onto the wire before trusting the output.`,
	Args: cobra.ArbitraryArgs,
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().Int("jobs", 0, "max parallel workers (0=auto)")
	inspectCmd.Flags().Bool("with-notes", false, "include diagnostic notes in output")
	inspectCmd.Flags().Bool("fullpath", false, "emit absolute file paths in output")
}

func runInspect(cmd *cobra.Command, args []string) error {
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	withNotes, err := cmd.Flags().GetBool("with-notes")
	if err != nil {
		return fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	fullPath, err := cmd.Flags().GetBool("fullpath")
	if err != nil {
		return fmt.Errorf("failed to get fullpath flag: %w", err)
	}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}

	run, err := resolveRunSetup(args, "", "", true)
	if err != nil {
		return err
	}
	inputs, err := driver.ListInputs(run.paths, run.suffix)
	if err != nil {
		return err
	}

	out, res, err := driver.Inspect(cmd.Context(), inputs, driver.Options{
		MaxDiagnostics: maxDiagnostics,
		Jobs:           jobs,
	})
	if err != nil {
		return err
	}

	if err := renderDiagnostics(cmd, res, "pretty", withNotes, fullPath); err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to encode inspect output: %w", err)
	}

	if res.HasErrors() {
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		return fmt.Errorf("") // Silent error - diagnostics already printed
	}
	return nil
}
