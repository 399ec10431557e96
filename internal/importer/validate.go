package importer

import (
	"regexp"
	"strconv"

	"github.com/ginjaninja78/fleet-trip-import/internal/mapping"
)

// Validation messages attached to invalid rows.
const (
	MsgMissingTripNo    = "Missing trip number (tripNo)"
	MsgMissingVehicleNo = "Missing vehicle number (vehicleNo)"
)

// Validate sets IsValid and Errors on the row.
//
// Only the trip number and the vehicle number decide validity. The other
// required fields are reported by the schema reconciliation but do not
// block a row from import.
func Validate(row *ImportRow) {
	row.Errors = []string{}

	if !row.Populated.Has(mapping.FieldTripNo) {
		row.Errors = append(row.Errors, MsgMissingTripNo)
	}
	if !row.Populated.Has(mapping.FieldVehicleNo) {
		row.Errors = append(row.Errors, MsgMissingVehicleNo)
	}

	row.IsValid = len(row.Errors) == 0
}

var trailingNumber = regexp.MustCompile(`(\d+)$`)

// TripSequence extracts the trailing numeric group of a trip number, so
// "PB-2025/26-001" has sequence 1. It reports false when the trip number
// does not end in digits.
func TripSequence(tripNo string) (int, bool) {
	m := trailingNumber.FindStringSubmatch(tripNo)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}
