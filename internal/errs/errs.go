// =============================================================================
// Invoicing - Error Taxonomy
// =============================================================================
//
// Every failure the pipeline can report falls into one of five kinds:
//
//   ConfigError        : a required setting is missing or invalid. Fatal for
//                        the whole run, raised before any document is touched.
//   NotFoundError      : a template, credential or input file is missing.
//   AlreadyExistsError : an output artifact already exists. Fatal for that one
//                        document; an invoice is never overwritten.
//   ParseError         : a single cell failed numeric parsing. Recovered
//                        locally by skipping the cell or column.
//   RenderError        : the external compiler failed. Fatal for that one
//                        document.
//
// Callers match kinds with errors.As.
//
// =============================================================================

package errs

import (
	"fmt"
	"strings"
)

// ConfigError reports a missing or invalid setting.
type ConfigError struct {
	// Key is the configuration key at fault, e.g. "input.cells.date".
	Key string

	// Msg describes the problem.
	Msg string
}

func (e *ConfigError) Error() string {
	if e.Key == "" {
		return "configuration error: " + e.Msg
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Key, e.Msg)
}

// MissingKeys builds a ConfigError naming every missing key at once.
func MissingKeys(keys []string) *ConfigError {
	return &ConfigError{
		Key: strings.Join(keys, ", "),
		Msg: "missing required setting",
	}
}

// NotFoundError reports a missing file.
type NotFoundError struct {
	// What names the kind of file: "model", "credentials", "workbook"...
	What string
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s file %s not found", e.What, e.Path)
}

// AlreadyExistsError reports an output collision.
type AlreadyExistsError struct {
	Path string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("output file %s already exists", e.Path)
}

// ParseError reports a cell that could not be parsed as a number.
type ParseError struct {
	// Where locates the cell, e.g. "column F" or "row 12 column D".
	Where string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse %q at %s: %v", e.Value, e.Where, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// RenderError reports a failed compiler invocation.
type RenderError struct {
	// ExitCode is the compiler exit status, -1 when it could not be started.
	ExitCode int
	Command  string
	Err      error
}

func (e *RenderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("error %d executing command: %s: %v", e.ExitCode, e.Command, e.Err)
	}
	return fmt.Sprintf("error %d executing command: %s", e.ExitCode, e.Command)
}

func (e *RenderError) Unwrap() error { return e.Err }
