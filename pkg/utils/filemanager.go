// =============================================================================
// Invoicing - File Manager Utility
// =============================================================================
//
// This module provides the file handling shared by the pipeline:
//   - Workspace folder management
//   - Existence checks
//   - Best-effort removal of intermediate artifacts
//   - Processing summary generation
//
// =============================================================================

package utils

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// =============================================================================
// WORKSPACE
// =============================================================================

// Workspace is the set of folders a run works in.
type Workspace struct {
	Root   string
	Input  string
	Output string
	Model  string
	Logs   string
	Key    string
}

// EnsureDirectories creates every workspace folder that does not exist yet.
//
// RETURNS:
//   - An error if a folder cannot be created or a file sits in its place.
func (ws *Workspace) EnsureDirectories() error {
	dirs := []string{
		ws.Input,
		ws.Output,
		ws.Model,
		ws.Logs,
		ws.Key,
	}

	for _, dir := range dirs {
		if err := EnsureDir(dir); err != nil {
			return err
		}
	}

	return nil
}

// EnsureDir creates dir and its parents. An existing regular file at that
// path is an error.
func EnsureDir(dir string) error {
	info, err := os.Stat(dir)
	switch {
	case err == nil:
		if !info.IsDir() {
			return fmt.Errorf("output folder %s already exists and is not a folder", dir)
		}
		return nil
	case errors.Is(err, fs.ErrNotExist):
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		return nil
	default:
		return fmt.Errorf("failed to stat directory %s: %w", dir, err)
	}
}

// =============================================================================
// FILE HELPERS
// =============================================================================

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist)
}

// RemoveQuietly deletes each path, ignoring failures. It returns the number
// of files actually removed.
func RemoveQuietly(paths ...string) int {
	removed := 0
	for _, p := range paths {
		if err := os.Remove(p); err == nil {
			removed++
		}
	}
	return removed
}

// =============================================================================
// PROCESSING SUMMARY
// =============================================================================

// ProcessingSummary contains summary information about a processing run.
type ProcessingSummary struct {
	RunID     string
	Input     string
	StartTime time.Time
	EndTime   time.Time

	TotalOrders    int
	DocumentsSaved int
	Failures       []FailedOrderInfo
	Warnings       []string
}

// FailedOrderInfo describes one order/output pair that failed.
type FailedOrderInfo struct {
	OrderID      string
	Output       string
	ErrorMessage string
}

// WriteSummaryLog writes a processing summary next to the logs.
//
// PARAMETERS:
//   - summary: The processing summary.
//   - dir: The directory to write the summary file.
//
// RETURNS:
//   - The path to the summary file.
//   - An error if writing fails.
func WriteSummaryLog(summary ProcessingSummary, dir string) (string, error) {
	name := fmt.Sprintf("processing_summary_%s.txt", summary.StartTime.Format("20060102_150405"))
	if summary.RunID != "" {
		name = fmt.Sprintf("processing_summary_%s_%s.txt", summary.StartTime.Format("20060102_150405"), summary.RunID)
	}
	path := filepath.Join(dir, name)

	// Never overwrite the summary of another run.
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)

	fmt.Fprintf(w, "Invoicing - Processing Summary\n"+
		"================================================================================\n\n"+
		"Run Information:\n"+
		"  Run ID:         %s\n"+
		"  Input:          %s\n"+
		"  Start Time:     %s\n"+
		"  End Time:       %s\n"+
		"  Duration:       %s\n\n"+
		"Statistics:\n"+
		"  Orders:             %d\n"+
		"  Documents saved:    %d\n"+
		"  Failures:           %d\n"+
		"  Warnings:           %d\n\n",
		summary.RunID,
		summary.Input,
		summary.StartTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Sub(summary.StartTime).String(),
		summary.TotalOrders,
		summary.DocumentsSaved,
		len(summary.Failures),
		len(summary.Warnings))

	if len(summary.Failures) > 0 {
		w.WriteString("Failed Orders:\n")
		w.WriteString("--------------------------------------------------------------------------------\n")
		for _, f := range summary.Failures {
			fmt.Fprintf(w, "  Order:  %s\n", f.OrderID)
			fmt.Fprintf(w, "  Output: %s\n", f.Output)
			fmt.Fprintf(w, "  Error:  %s\n\n", f.ErrorMessage)
		}
	}

	if len(summary.Warnings) > 0 {
		w.WriteString("Warnings:\n")
		w.WriteString("--------------------------------------------------------------------------------\n")
		for _, warning := range summary.Warnings {
			fmt.Fprintf(w, "  %s\n", warning)
		}
		w.WriteString("\n")
	}

	w.WriteString("================================================================================\n" +
		"End of Summary\n")

	if err := w.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush summary file: %w", err)
	}

	return path, nil
}
