// =============================================================================
// Invoicing - Main Entry Point
// =============================================================================
//
// USAGE:
//   invoicing process --input <id>  - Generate one PDF invoice per order
//   invoicing validate              - Check the configuration
//   invoicing auth                  - Authorize Google Sheets access
//   invoicing version               - Display the application version
//
// ARCHITECTURE:
//   - cmd/       : CLI command definitions (Cobra)
//   - internal/  : configuration, token language, input and output
//                  collaborators, the conversion pipeline
//   - pkg/       : workspace and summary utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/invoicing/cmd"
)

func main() {
	cmd.Execute()
}
