// =============================================================================
// Trip Import - Parse Outcome
// =============================================================================
//
// ParseFile runs the read side of the pipeline for one uploaded file:
//
//   bytes -> parser.Sheet -> normalised rows -> schema report
//
// A file that cannot be read, or that has no data rows, produces an outcome
// with Success=false and an error message. Anything else is a successful
// outcome, even when every row is invalid; row problems are carried on the
// rows themselves.
//
// =============================================================================

package importer

import (
	"github.com/ginjaninja78/fleet-trip-import/internal/parser"
)

// ParseOutcome is the result of reading and normalising one file.
type ParseOutcome struct {
	Success   bool   `json:"success" yaml:"success"`
	Error     string `json:"error,omitempty" yaml:"error,omitempty"`
	FileName  string `json:"fileName" yaml:"file_name"`
	SheetName string `json:"sheetName,omitempty" yaml:"sheet_name,omitempty"`

	Headers []string    `json:"headers" yaml:"headers"`
	Rows    []ImportRow `json:"rows" yaml:"rows"`

	// PopulatedFields is the union of the per-row populated sets as read
	// from the file. Edits do not change it.
	PopulatedFields FieldSet `json:"populatedFields" yaml:"populated_fields"`

	SchemaReport `yaml:",inline"`

	err error
}

// Err returns the underlying parse error of a failed outcome.
func (o *ParseOutcome) Err() error {
	return o.err
}

// ParseFile parses, normalises and validates an uploaded file.
func ParseFile(fileName string, data []byte) *ParseOutcome {
	outcome := &ParseOutcome{
		FileName:        fileName,
		Headers:         []string{},
		Rows:            []ImportRow{},
		PopulatedFields: make(FieldSet),
	}

	sheet, err := parser.Parse(fileName, data)
	if err != nil {
		outcome.err = err
		outcome.Error = err.Error()
		return outcome
	}

	rows, populated := NormalizeRecords(sheet.Headers, sheet.Records)

	outcome.Success = true
	outcome.SheetName = sheet.SheetName
	outcome.Headers = sheet.Headers
	outcome.Rows = rows
	outcome.PopulatedFields = populated
	outcome.SchemaReport = Reconcile(sheet.Headers, populated)
	outcome.DuplicateTripNumbers = DuplicateTripNumbers(rows)

	return outcome
}
