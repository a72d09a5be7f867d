// =============================================================================
// Shop Payment Reports - Main Entry Point
// =============================================================================
//
// This is the main entry point for the Shop Payment Reports CLI application.
// It delegates command execution to the cmd package.
//
// USAGE:
//   reports report      - Validate the sources and write the reports
//   reports validate    - Validate the sources without writing reports
//   reports version     - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Validation, aggregation and report logic
//   - pkg/           : Shared file utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/shop-payment-reports/cmd"
)

func main() {
	cmd.Execute()
}
