// =============================================================================
// Trip Import - Row Model
// =============================================================================
//
// ImportRow is one spreadsheet row after normalisation: the canonical trip
// fields, the harvested expense amounts, the set of fields this row actually
// filled, and the validation verdict.
//
// Rows are treated as values. Edits copy the row, change the copy and replace
// the slice element, so a row handed out earlier is never mutated behind the
// caller's back.
//
// =============================================================================

package importer

import (
	"encoding/json"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/fleet-trip-import/internal/mapping"
)

// =============================================================================
// FIELD SET
// =============================================================================

// FieldSet is a set of canonical fields.
type FieldSet map[mapping.Field]struct{}

// NewFieldSet returns a set holding the given fields.
func NewFieldSet(fields ...mapping.Field) FieldSet {
	s := make(FieldSet, len(fields))
	for _, f := range fields {
		s.Add(f)
	}
	return s
}

// Has reports whether f is in the set.
func (s FieldSet) Has(f mapping.Field) bool {
	_, ok := s[f]
	return ok
}

// Add inserts f.
func (s FieldSet) Add(f mapping.Field) {
	s[f] = struct{}{}
}

// Remove deletes f.
func (s FieldSet) Remove(f mapping.Field) {
	delete(s, f)
}

// Union adds every field of other to s.
func (s FieldSet) Union(other FieldSet) {
	for f := range other {
		s.Add(f)
	}
}

// Clone returns an independent copy of the set.
func (s FieldSet) Clone() FieldSet {
	out := make(FieldSet, len(s))
	out.Union(s)
	return out
}

// List returns the members in canonical report order.
func (s FieldSet) List() []mapping.Field {
	out := make([]mapping.Field, 0, len(s))
	for _, f := range mapping.Fields() {
		if s.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

// MarshalJSON encodes the set as an ordered list of field names.
func (s FieldSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.List())
}

// UnmarshalJSON decodes a list of field names. Unknown names are dropped.
func (s *FieldSet) UnmarshalJSON(data []byte) error {
	var names []mapping.Field
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	*s = make(FieldSet, len(names))
	for _, f := range names {
		if f.IsValid() {
			s.Add(f)
		}
	}
	return nil
}

// MarshalYAML encodes the set as an ordered list of field names.
func (s FieldSet) MarshalYAML() (interface{}, error) {
	return s.List(), nil
}

// =============================================================================
// IMPORT ROW
// =============================================================================

// ImportRow is a normalised and validated spreadsheet row.
type ImportRow struct {
	// RowNumber is the 1-based row in the source sheet.
	RowNumber int `json:"rowNumber" yaml:"row_number"`

	// Index is the 0-based position of the row in the parse outcome.
	Index int `json:"index" yaml:"index"`

	TripNo      string  `json:"tripNo" yaml:"trip_no"`
	VehicleNo   string  `json:"vehicleNo" yaml:"vehicle_no"`
	Origin      string  `json:"origin" yaml:"origin"`
	Destination string  `json:"destination" yaml:"destination"`
	Freight     float64 `json:"freight" yaml:"freight"`
	TripDate    string  `json:"tripDate" yaml:"trip_date"`
	PlantName   string  `json:"plantName" yaml:"plant_name"`
	PartyName   string  `json:"partyName" yaml:"party_name"`
	DistanceKm  float64 `json:"distanceKm" yaml:"distance_km"`
	Quantity    float64 `json:"quantity" yaml:"quantity"`
	Advance     float64 `json:"advance" yaml:"advance"`
	BillNo      string  `json:"billNo" yaml:"bill_no"`
	Billed      bool    `json:"billed" yaml:"billed"`
	Remarks     string  `json:"remarks" yaml:"remarks"`

	// Expenses maps category name to a strictly positive amount.
	Expenses map[string]float64 `json:"expenses" yaml:"expenses"`

	TotalExpense float64 `json:"totalExpense" yaml:"total_expense"`
	NetAmount    float64 `json:"netAmount" yaml:"net_amount"`
	Balance      float64 `json:"balance" yaml:"balance"`

	// Populated holds the canonical fields this row filled from the file or
	// through an edit.
	Populated FieldSet `json:"populated" yaml:"populated"`

	IsValid bool     `json:"isValid" yaml:"is_valid"`
	Errors  []string `json:"errors" yaml:"errors"`
}

// newRow returns an empty row at the given position.
func newRow(rowNumber, index int) ImportRow {
	return ImportRow{
		RowNumber: rowNumber,
		Index:     index,
		Expenses:  make(map[string]float64),
		Populated: make(FieldSet),
		Errors:    []string{},
	}
}

// Clone returns a deep copy of the row.
func (r ImportRow) Clone() ImportRow {
	out := r
	out.Expenses = make(map[string]float64, len(r.Expenses))
	for k, v := range r.Expenses {
		out.Expenses[k] = v
	}
	out.Populated = r.Populated.Clone()
	out.Errors = append([]string{}, r.Errors...)
	return out
}

// ExpenseCategories returns the categories with an amount, sorted by name.
func (r ImportRow) ExpenseCategories() []string {
	categories := make([]string, 0, len(r.Expenses))
	for category := range r.Expenses {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	return categories
}

// Value returns the typed value of a canonical field.
func (r ImportRow) Value(f mapping.Field) interface{} {
	switch f {
	case mapping.FieldTripNo:
		return r.TripNo
	case mapping.FieldVehicleNo:
		return r.VehicleNo
	case mapping.FieldOrigin:
		return r.Origin
	case mapping.FieldDestination:
		return r.Destination
	case mapping.FieldFreight:
		return r.Freight
	case mapping.FieldTripDate:
		return r.TripDate
	case mapping.FieldPlantName:
		return r.PlantName
	case mapping.FieldPartyName:
		return r.PartyName
	case mapping.FieldDistanceKm:
		return r.DistanceKm
	case mapping.FieldQuantity:
		return r.Quantity
	case mapping.FieldAdvance:
		return r.Advance
	case mapping.FieldBillNo:
		return r.BillNo
	case mapping.FieldBilled:
		return r.Billed
	case mapping.FieldRemarks:
		return r.Remarks
	}
	return nil
}

// assign coerces raw according to the field type and stores it.
func (r *ImportRow) assign(f mapping.Field, raw string) {
	switch f {
	case mapping.FieldTripNo:
		r.TripNo = CoerceString(raw)
	case mapping.FieldVehicleNo:
		r.VehicleNo = CoerceString(raw)
	case mapping.FieldOrigin:
		r.Origin = CoerceString(raw)
	case mapping.FieldDestination:
		r.Destination = CoerceString(raw)
	case mapping.FieldFreight:
		r.Freight = CoerceNumber(raw)
	case mapping.FieldTripDate:
		r.TripDate = CoerceDate(raw)
	case mapping.FieldPlantName:
		r.PlantName = CoerceString(raw)
	case mapping.FieldPartyName:
		r.PartyName = CoerceString(raw)
	case mapping.FieldDistanceKm:
		r.DistanceKm = CoerceNumber(raw)
	case mapping.FieldQuantity:
		r.Quantity = CoerceNumber(raw)
	case mapping.FieldAdvance:
		r.Advance = CoerceNumber(raw)
	case mapping.FieldBillNo:
		r.BillNo = CoerceString(raw)
	case mapping.FieldBilled:
		r.Billed = CoerceBoolean(raw)
	case mapping.FieldRemarks:
		r.Remarks = CoerceString(raw)
	}
}

// clear resets a field to its zero value.
func (r *ImportRow) clear(f mapping.Field) {
	switch f.Type() {
	case mapping.TypeNumber:
		r.assign(f, "0")
	case mapping.TypeBoolean:
		r.Billed = false
	default:
		r.assign(f, "")
	}
}

// recompute refreshes the derived financial fields.
func (r *ImportRow) recompute() {
	total := decimal.Zero
	for _, amount := range r.Expenses {
		total = total.Add(decimal.NewFromFloat(amount))
	}
	freight := decimal.NewFromFloat(r.Freight)

	r.TotalExpense = total.Round(2).InexactFloat64()
	r.NetAmount = freight.Sub(total).Round(2).InexactFloat64()
	r.Balance = freight.Sub(decimal.NewFromFloat(r.Advance)).Round(2).InexactFloat64()
}
