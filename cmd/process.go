// =============================================================================
// Invoicing - Process Command
// =============================================================================
//
// This file defines the 'process' command, the main command: one PDF per
// order of the spreadsheet.
//
// COMMAND USAGE:
//   invoicing process --input <spreadsheet id | workbook | csv> [flags]
//
// FLAGS:
//   --input, -i : Spreadsheet to read. Defaults to input.spreadsheet_id.
//   --dry-run   : Read and render in memory, write nothing
//
// PROCESSING PIPELINE:
//   1. Load the configuration and prepare the workspace
//   2. Check the input and output sections
//   3. Read the orders
//   4. Apply transformations and validate
//   5. Save every order
//   6. Write the run summary
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/invoicing/internal/converter"
	"github.com/ginjaninja78/invoicing/internal/input"
	"github.com/ginjaninja78/invoicing/internal/output"
	"github.com/ginjaninja78/invoicing/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// inputName is the spreadsheet to read.
var inputName string

// dryRun renders without writing.
var dryRun bool

// =============================================================================
// PROCESS COMMAND DEFINITION
// =============================================================================

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Generate the invoices of a spreadsheet",
	Long: `The process command reads every order of the spreadsheet and saves one
document per order through each configured output.

Each order is processed independently: an order whose document already
exists or fails to compile is reported, and processing continues with the
next order. The command exits with an error if any document failed.

A summary of the run is written to the logs folder.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runProcess(cmd)
	},
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().StringVarP(
		&inputName,
		"input",
		"i",
		"",
		"Spreadsheet id, or workbook/CSV path for local sources",
	)

	processCmd.Flags().BoolVar(
		&dryRun,
		"dry-run",
		false,
		"Read and render without writing any file",
	)
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

func runProcess(cmd *cobra.Command) error {
	ctx := cmd.Context()

	run, logger, err := startRun(cmd, true)
	if err != nil {
		return err
	}
	defer logger.Close()
	log := run.Log

	// =========================================================================
	// STEP 1: CHECK CONFIGURATION
	// =========================================================================
	// Nothing is requested from the spreadsheet and no document is touched
	// before both sections pass.

	in, err := run.Config.RequireInput()
	if err != nil {
		log.WithError(err).Error("error checking input configuration")
		return err
	}

	writers, err := output.Open(run, dryRun)
	if err != nil {
		log.WithError(err).Error("error checking output configuration")
		return err
	}

	// =========================================================================
	// STEP 2: OPEN INPUT
	// =========================================================================

	reader, err := input.Open(ctx, input.Options{
		Config:   in,
		Source:   inputName,
		InputDir: run.Workspace.Input,
		Log:      run.Log,
	})
	if err != nil {
		log.WithError(err).Error("error opening input")
		return err
	}

	// =========================================================================
	// STEP 3: RUN
	// =========================================================================

	conv, err := converter.New(run, reader, writers)
	if err != nil {
		return err
	}

	result, err := conv.Run(ctx)
	if err != nil {
		log.WithError(err).Error("run aborted")
		return err
	}

	// =========================================================================
	// STEP 4: SUMMARY
	// =========================================================================

	source := inputName
	if source == "" {
		source = in.SpreadsheetID
	}

	out := cmd.OutOrStdout()
	for _, f := range result.Failures {
		fmt.Fprintf(out, "  ✗ %s (%s): %s\n", f.OrderID, f.Output, f.ErrorMessage)
	}
	fmt.Fprintln(out, "\n=== Processing Complete ===")
	fmt.Fprintf(out, "Orders:          %d\n", result.Orders)
	fmt.Fprintf(out, "Validated:       %d\n", result.Validated)
	fmt.Fprintf(out, "Documents saved: %d\n", result.Saved)
	fmt.Fprintf(out, "Failures:        %d\n", len(result.Failures))
	fmt.Fprintf(out, "Warnings:        %d\n", len(result.Warnings))
	fmt.Fprintf(out, "Time elapsed:    %s\n", result.ProcessingTime)
	if logger.Path != "" {
		fmt.Fprintf(out, "Log file:        %s\n", logger.Path)
	}
	if dryRun {
		fmt.Fprintln(out, "Dry run: no file was written.")
	} else {
		path, err := utils.WriteSummaryLog(conv.Summary(source, result), run.Workspace.Logs)
		if err != nil {
			log.WithError(err).Warn("summary not written")
		} else {
			fmt.Fprintf(out, "Summary:         %s\n", path)
		}
	}

	if !result.Success() {
		return fmt.Errorf("%d document(s) failed", len(result.Failures))
	}
	return nil
}
