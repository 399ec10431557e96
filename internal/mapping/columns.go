// =============================================================================
// Trip Import - Column Mapping Table
// =============================================================================
//
// The column mapping table translates the header text found in an uploaded
// file into a canonical trip field. The same export has been seen with three
// header conventions, so each field carries a spaced label, a camelCase and a
// snake_case alias (plus a few historical spellings).
//
// MATCHING:
//   Header text is matched exactly. There is no case folding and no
//   whitespace normalisation beyond the trim applied by the parser, so a
//   header can never be mapped to the wrong field by accident. Headers that
//   do not match are reported as extra fields, never silently dropped.
//
// The tables are append-only: new aliases are added to the alias list of an
// existing Field constant.
//
// =============================================================================

package mapping

import "fmt"

// Mapping is the result of looking up a source header.
type Mapping struct {
	Field Field
	Type  ValueType
}

// =============================================================================
// TRIP FIELD ALIASES
// =============================================================================

var fieldAliases = map[Field][]string{
	FieldTripNo:      {"Trip Number", "Trip No", "Trip No.", "tripNo", "tripNumber", "trip_no", "trip_number"},
	FieldVehicleNo:   {"Vehicle", "Vehicle Number", "Vehicle No", "vehicleNo", "vehicleNumber", "vehicle_no", "vehicle_number"},
	FieldOrigin:      {"From", "Origin", "Loading Point", "origin", "loadingPoint", "loading_point"},
	FieldDestination: {"To", "Destination", "Unloading Point", "destination", "unloadingPoint", "unloading_point"},
	FieldFreight:     {"Freight", "Base Fare", "Fare", "freight", "baseFare", "base_fare"},
	FieldTripDate:    {"Date", "Trip Date", "tripDate", "trip_date"},
	FieldPlantName:   {"Plant", "Plant Name", "Location", "plantName", "plant_name", "location"},
	FieldPartyName:   {"Party", "Party Name", "Customer", "partyName", "party_name", "customer"},
	FieldDistanceKm:  {"KM", "Distance", "Distance (KM)", "distanceKm", "distance_km"},
	FieldQuantity:    {"Weight", "Quantity", "Quantity (MT)", "quantity", "weight"},
	FieldAdvance:     {"Advance", "Advance Amount", "advance", "advanceAmount", "advance_amount"},
	FieldBillNo:      {"Bill No", "Bill Number", "billNo", "bill_no"},
	FieldBilled:      {"Billed", "Is Billed", "isBilled", "is_billed"},
	FieldRemarks:     {"Remarks", "Notes", "remarks", "notes"},
}

// =============================================================================
// EXPENSE COLUMNS
// =============================================================================

// expenseColumns maps a source header to an expense category name. It is
// disjoint from the trip field aliases.
var expenseColumns = map[string]string{
	"Diesel":            "Diesel",
	"Diesel Amount":     "Diesel",
	"diesel":            "Diesel",
	"dieselAmount":      "Diesel",
	"diesel_amount":     "Diesel",
	"AdBlue":            "AdBlue",
	"adBlue":            "AdBlue",
	"ad_blue":           "AdBlue",
	"Toll":              "Toll",
	"Toll Tax":          "Toll",
	"toll":              "Toll",
	"tollTax":           "Toll",
	"toll_tax":          "Toll",
	"Loading Charges":   "Loading",
	"loadingCharges":    "Loading",
	"loading_charges":   "Loading",
	"Unloading Charges": "Unloading",
	"unloadingCharges":  "Unloading",
	"unloading_charges": "Unloading",
	"Driver Expense":    "Driver Expense",
	"driverExpense":     "Driver Expense",
	"driver_expense":    "Driver Expense",
	"Maintenance":       "Maintenance",
	"Repair":            "Maintenance",
	"maintenance":       "Maintenance",
	"RTO":               "RTO/Police",
	"Police":            "RTO/Police",
	"rto_police":        "RTO/Police",
	"Parking":           "Parking",
	"parking":           "Parking",
	"Misc":              "Miscellaneous",
	"Other Expenses":    "Miscellaneous",
	"otherExpenses":     "Miscellaneous",
	"other_expenses":    "Miscellaneous",
	"UPI":               "UPI",
	"upiAmount":         "UPI",
	"upi_amount":        "UPI",
}

// =============================================================================
// IGNORED COLUMNS
// =============================================================================

// ignoredColumns are derived or cosmetic columns that exports carry but the
// import never reads. They are not reported as extra fields.
var ignoredColumns = map[string]struct{}{
	"S.No":          {},
	"S No":          {},
	"Sr No":         {},
	"Sr. No.":       {},
	"SNo":           {},
	"serial_no":     {},
	"#":             {},
	"Per KM":        {},
	"Rate/KM":       {},
	"Freight/KM":    {},
	"per_km":        {},
	"Total Expense": {},
	"totalExpense":  {},
	"Net Amount":    {},
	"netAmount":     {},
	"Balance":       {},
}

// headerIndex is the flattened alias table built once at init.
var headerIndex map[string]Mapping

func init() {
	headerIndex = make(map[string]Mapping)
	for field, aliases := range fieldAliases {
		if !field.IsValid() {
			panic(fmt.Sprintf("mapping: alias list for unknown field %q", field))
		}
		for _, alias := range aliases {
			if existing, dup := headerIndex[alias]; dup {
				panic(fmt.Sprintf("mapping: header %q mapped to both %s and %s", alias, existing.Field, field))
			}
			headerIndex[alias] = Mapping{Field: field, Type: field.Type()}
		}
	}
	for header := range expenseColumns {
		if _, clash := headerIndex[header]; clash {
			panic(fmt.Sprintf("mapping: expense header %q collides with a trip field alias", header))
		}
	}
}

// =============================================================================
// LOOKUPS
// =============================================================================

// Lookup returns the canonical field and coercion type for a header.
func Lookup(header string) (Mapping, bool) {
	m, ok := headerIndex[header]
	return m, ok
}

// ExpenseCategory returns the expense category a header feeds, if any.
func ExpenseCategory(header string) (string, bool) {
	category, ok := expenseColumns[header]
	return category, ok
}

// IsIgnored reports whether a header is a known derived/cosmetic column.
func IsIgnored(header string) bool {
	_, ok := ignoredColumns[header]
	return ok
}

// KnownHeader reports whether the header appears in either mapping table.
func KnownHeader(header string) bool {
	if _, ok := headerIndex[header]; ok {
		return true
	}
	_, ok := expenseColumns[header]
	return ok
}

// AliasesFor returns the source headers that populate a field.
func AliasesFor(field Field) []string {
	aliases := fieldAliases[field]
	out := make([]string, len(aliases))
	copy(out, aliases)
	return out
}
