// =============================================================================
// Fleet Trip Import - Main Entry Point
// =============================================================================
//
// USAGE:
//   tripimport preview FILE   - Show how a spreadsheet will be imported
//   tripimport import FILE... - Import trip spreadsheets
//   tripimport serve          - Serve the import flow over HTTP
//   tripimport version        - Display the application version
//
// ARCHITECTURE:
//   - cmd/       : CLI command definitions (Cobra)
//   - internal/  : Parsing, normalisation, sessions, the bulk API client
//   - pkg/       : Shared utilities (logging, file management)
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/fleet-trip-import/cmd"
)

func main() {
	cmd.Execute()
}
