// Package report renders import previews and results for the command line.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/fleet-trip-import/internal/importer"
	"github.com/ginjaninja78/fleet-trip-import/internal/mapping"
	"github.com/ginjaninja78/fleet-trip-import/internal/session"
)

// Format selects the output encoding.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat validates a format name.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (expected table, json or yaml)", name)
	}
}

// Encode writes v as indented JSON or YAML.
func Encode(w io.Writer, v interface{}, format Format) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
}

// =============================================================================
// PREVIEW
// =============================================================================

// Preview writes a session snapshot with its page of rows.
func Preview(w io.Writer, state session.State, format Format) error {
	if format != FormatTable {
		return Encode(w, state, format)
	}

	fmt.Fprintf(w, "File:    %s", state.FileName)
	if state.SheetName != "" {
		fmt.Fprintf(w, " (sheet %s)", state.SheetName)
	}
	fmt.Fprintf(w, "\nRows:    %d total, %d valid, %d invalid\n", state.TotalRows, state.ValidRows, state.InvalidRows)

	if state.Schema != nil {
		writeSchema(w, *state.Schema)
	}

	if len(state.Rows) == 0 {
		fmt.Fprintln(w, "\nNo rows on this page.")
		return nil
	}

	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ROW\tTRIP NO\tVEHICLE\tDATE\tROUTE\tFREIGHT\tEXPENSES\tNET\tSTATUS")
	for _, row := range state.Rows {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			row.RowNumber,
			orDash(row.TripNo),
			orDash(row.VehicleNo),
			orDash(row.TripDate),
			route(row),
			money(row.Freight),
			money(row.TotalExpense),
			money(row.NetAmount),
			status(row))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if state.PageCount > 1 {
		fmt.Fprintf(w, "\n%d pages of %d rows\n", state.PageCount, state.PageSize)
	}
	return nil
}

func writeSchema(w io.Writer, schema importer.SchemaReport) {
	if len(schema.MissingFields) > 0 {
		names := make([]string, 0, len(schema.MissingFields))
		for _, f := range schema.MissingFields {
			names = append(names, fmt.Sprintf("%s (%s)", f.DisplayName, headerHint(f.Field)))
		}
		fmt.Fprintf(w, "Missing: %s\n", strings.Join(names, ", "))
	}
	if len(schema.ExtraFields) > 0 {
		fmt.Fprintf(w, "Ignored: %s\n", strings.Join(schema.ExtraFields, ", "))
	}
	if len(schema.FieldsUsingDefaults) > 0 {
		defaults := make([]string, 0, len(schema.FieldsUsingDefaults))
		for _, f := range schema.FieldsUsingDefaults {
			defaults = append(defaults, fmt.Sprintf("%s=%v", f.DisplayName, displayDefault(f.DefaultValue)))
		}
		fmt.Fprintf(w, "Defaults: %s\n", strings.Join(defaults, ", "))
	}
	if len(schema.DuplicateTripNumbers) > 0 {
		fmt.Fprintf(w, "Duplicate trip numbers: %s\n", strings.Join(schema.DuplicateTripNumbers, ", "))
	}
}

// headerHint names a few headers that would populate the field.
func headerHint(field mapping.Field) string {
	aliases := mapping.AliasesFor(field)
	if len(aliases) > 3 {
		aliases = aliases[:3]
	}
	return strings.Join(aliases, " / ")
}

func displayDefault(v interface{}) interface{} {
	if s, ok := v.(string); ok && s == "" {
		return `""`
	}
	return v
}

func route(row importer.ImportRow) string {
	if row.Origin == "" && row.Destination == "" {
		return "-"
	}
	return orDash(row.Origin) + " > " + orDash(row.Destination)
}

func status(row importer.ImportRow) string {
	if row.IsValid {
		return "ok"
	}
	return "invalid: " + strings.Join(row.Errors, "; ")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// =============================================================================
// RESULT
// =============================================================================

// FileResult is the outcome of importing one file from the command line.
type FileResult struct {
	FileName string          `json:"fileName" yaml:"file_name"`
	Result   *session.Result `json:"result,omitempty" yaml:"result,omitempty"`
	Error    string          `json:"error,omitempty" yaml:"error,omitempty"`
}

// Results writes the outcome of an import run.
func Results(w io.Writer, results []FileResult, format Format) error {
	if format != FormatTable {
		return Encode(w, results, format)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tTRIPS OK\tTRIPS FAILED\tEXPENSES OK\tEXPENSES FAILED\tCATEGORIES")
	for _, fr := range results {
		if fr.Result == nil {
			fmt.Fprintf(tw, "%s\t-\t-\t-\t-\t-\n", fr.FileName)
			continue
		}
		r := fr.Result
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\n",
			fr.FileName, r.Success, r.Failed, r.ExpensesCreated, r.ExpensesFailed, r.CategoriesCreated)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, fr := range results {
		var messages []string
		if fr.Error != "" {
			messages = append(messages, fr.Error)
		}
		if fr.Result != nil {
			messages = append(messages, fr.Result.Errors...)
		}
		if len(messages) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n%s:\n", fr.FileName)
		for _, m := range messages {
			fmt.Fprintf(w, "  - %s\n", m)
		}
	}
	return nil
}
