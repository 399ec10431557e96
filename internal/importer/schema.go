package importer

import (
	"github.com/ginjaninja78/fleet-trip-import/internal/mapping"
)

// SchemaReport compares the columns of an uploaded file with the canonical
// field set. It is advisory and never blocks a preview or an import.
type SchemaReport struct {
	// ExtraFields are headers that match no mapping and are not a known
	// cosmetic column, in file order.
	ExtraFields []string `json:"extraFields" yaml:"extra_fields"`

	// MissingFields are required fields that no column populated.
	MissingFields []mapping.FieldInfo `json:"missingFields" yaml:"missing_fields"`

	// FieldsUsingDefaults are optional fields that no column populated,
	// with the value trips will carry instead.
	FieldsUsingDefaults []mapping.OptionalField `json:"fieldsUsingDefaults" yaml:"fields_using_defaults"`

	// DuplicateTripNumbers lists trip numbers found on more than one row.
	DuplicateTripNumbers []string `json:"duplicateTripNumbers" yaml:"duplicate_trip_numbers"`
}

// Reconcile builds the schema report from the file headers and the
// file-level populated set.
func Reconcile(headers []string, populated FieldSet) SchemaReport {
	report := SchemaReport{
		ExtraFields:         []string{},
		MissingFields:       []mapping.FieldInfo{},
		FieldsUsingDefaults: []mapping.OptionalField{},
	}

	for _, header := range headers {
		if mapping.KnownHeader(header) || mapping.IsIgnored(header) {
			continue
		}
		report.ExtraFields = append(report.ExtraFields, header)
	}

	for _, info := range mapping.RequiredFields() {
		if !populated.Has(info.Field) {
			report.MissingFields = append(report.MissingFields, info)
		}
	}

	for _, opt := range mapping.OptionalFields() {
		if !populated.Has(opt.Field) {
			report.FieldsUsingDefaults = append(report.FieldsUsingDefaults, opt)
		}
	}

	return report
}

// DuplicateTripNumbers returns every trip number used by more than one row,
// in order of first appearance. Rows without a trip number are ignored.
func DuplicateTripNumbers(rows []ImportRow) []string {
	counts := make(map[string]int, len(rows))
	var order []string

	for _, row := range rows {
		if row.TripNo == "" {
			continue
		}
		if counts[row.TripNo] == 0 {
			order = append(order, row.TripNo)
		}
		counts[row.TripNo]++
	}

	dups := []string{}
	for _, tripNo := range order {
		if counts[tripNo] > 1 {
			dups = append(dups, tripNo)
		}
	}
	return dups
}
