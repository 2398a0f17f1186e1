package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <notebook>",
	Short: "Execute a notebook once and print its report",
	Long: `Runs a notebook from NOTEBOOKS_DIR exactly as POST /api/run-notebook would,
records it in the run log and prints the execution report as JSON.
Exits non-zero when the run fails or times out.`,
	Args: cobra.ExactArgs(1),
	RunE: runNotebook,
}

func runNotebook(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	// stdout carries the report
	cfg.LogToStderr = true

	a, err := newApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	outcome, err := a.jobs.RunNotebook(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(outcome.Report); err != nil {
		return err
	}

	if !outcome.Report.Success {
		return fmt.Errorf("notebook %s did not complete: %s", args[0], outcome.Report.Message)
	}
	return nil
}
