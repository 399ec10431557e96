// =============================================================================
// Trip Import - Canonical Field Registry
// =============================================================================
//
// This file declares the canonical trip fields that an import file can
// populate, the value type each one is coerced to, and whether the field is
// required for the schema report or falls back to a default.
//
// The set of fields is closed: adding a field means adding a constant here,
// a fieldSpec entry below, and at least one alias in columns.go.
//
// =============================================================================

package mapping

// Field is a canonical trip field name. The string value is the JSON key used
// on the wire to the bulk import endpoint.
type Field string

const (
	FieldTripNo      Field = "tripNo"
	FieldVehicleNo   Field = "vehicleNo"
	FieldOrigin      Field = "origin"
	FieldDestination Field = "destination"
	FieldFreight     Field = "freight"
	FieldTripDate    Field = "tripDate"
	FieldPlantName   Field = "plantName"
	FieldPartyName   Field = "partyName"
	FieldDistanceKm  Field = "distanceKm"
	FieldQuantity    Field = "quantity"
	FieldAdvance     Field = "advance"
	FieldBillNo      Field = "billNo"
	FieldBilled      Field = "billed"
	FieldRemarks     Field = "remarks"
)

// ValueType is the coercion applied to a raw cell before it is stored on the
// canonical field.
type ValueType string

const (
	TypeString  ValueType = "string"
	TypeNumber  ValueType = "number"
	TypeDate    ValueType = "date"
	TypeBoolean ValueType = "boolean"
)

// fieldSpec holds the static metadata for one canonical field.
type fieldSpec struct {
	valueType   ValueType
	displayName string
	required    bool

	// defaultValue is reported to the user when an optional field has no
	// populating column. Required fields have no default.
	defaultValue interface{}
}

// canonicalOrder is the order fields are reported in.
var canonicalOrder = []Field{
	FieldTripNo,
	FieldVehicleNo,
	FieldOrigin,
	FieldDestination,
	FieldFreight,
	FieldTripDate,
	FieldPlantName,
	FieldPartyName,
	FieldDistanceKm,
	FieldQuantity,
	FieldAdvance,
	FieldBillNo,
	FieldBilled,
	FieldRemarks,
}

var fieldSpecs = map[Field]fieldSpec{
	FieldTripNo:      {valueType: TypeString, displayName: "Trip Number", required: true},
	FieldVehicleNo:   {valueType: TypeString, displayName: "Vehicle Number", required: true},
	FieldOrigin:      {valueType: TypeString, displayName: "Origin", required: true},
	FieldDestination: {valueType: TypeString, displayName: "Destination", required: true},
	FieldFreight:     {valueType: TypeNumber, displayName: "Freight", required: true},
	FieldTripDate:    {valueType: TypeDate, displayName: "Trip Date", defaultValue: ""},
	FieldPlantName:   {valueType: TypeString, displayName: "Plant / Location", defaultValue: ""},
	FieldPartyName:   {valueType: TypeString, displayName: "Party Name", defaultValue: ""},
	FieldDistanceKm:  {valueType: TypeNumber, displayName: "Distance (KM)", defaultValue: 0},
	FieldQuantity:    {valueType: TypeNumber, displayName: "Quantity (MT)", defaultValue: 0},
	FieldAdvance:     {valueType: TypeNumber, displayName: "Advance", defaultValue: 0},
	FieldBillNo:      {valueType: TypeString, displayName: "Bill Number", defaultValue: ""},
	FieldBilled:      {valueType: TypeBoolean, displayName: "Billed", defaultValue: false},
	FieldRemarks:     {valueType: TypeString, displayName: "Remarks", defaultValue: ""},
}

// FieldInfo describes a canonical field for reporting.
type FieldInfo struct {
	Field       Field     `json:"field" yaml:"field"`
	DisplayName string    `json:"displayName" yaml:"display_name"`
	Type        ValueType `json:"type" yaml:"type"`
}

// OptionalField is an optional canonical field together with the value that
// is substituted when no column populates it.
type OptionalField struct {
	FieldInfo    `yaml:",inline"`
	DefaultValue interface{} `json:"defaultValue" yaml:"default_value"`
}

// String returns the wire name of the field.
func (f Field) String() string {
	return string(f)
}

// IsValid reports whether f is one of the canonical fields.
func (f Field) IsValid() bool {
	_, ok := fieldSpecs[f]
	return ok
}

// Type returns the coercion type for the field. Unknown fields are strings.
func (f Field) Type() ValueType {
	if spec, ok := fieldSpecs[f]; ok {
		return spec.valueType
	}
	return TypeString
}

// DisplayName returns the human-readable label of the field.
func (f Field) DisplayName() string {
	if spec, ok := fieldSpecs[f]; ok {
		return spec.displayName
	}
	return string(f)
}

// IsRequired reports whether the field belongs to the required field set.
func (f Field) IsRequired() bool {
	return fieldSpecs[f].required
}

// Info returns the reporting description of the field.
func (f Field) Info() FieldInfo {
	return FieldInfo{Field: f, DisplayName: f.DisplayName(), Type: f.Type()}
}

// Fields returns every canonical field in report order.
func Fields() []Field {
	out := make([]Field, len(canonicalOrder))
	copy(out, canonicalOrder)
	return out
}

// RequiredFields returns the required field set in report order.
func RequiredFields() []FieldInfo {
	var out []FieldInfo
	for _, f := range canonicalOrder {
		if fieldSpecs[f].required {
			out = append(out, f.Info())
		}
	}
	return out
}

// OptionalFields returns the optional field set in report order, each with
// its default value.
func OptionalFields() []OptionalField {
	var out []OptionalField
	for _, f := range canonicalOrder {
		spec := fieldSpecs[f]
		if spec.required {
			continue
		}
		out = append(out, OptionalField{FieldInfo: f.Info(), DefaultValue: spec.defaultValue})
	}
	return out
}

// ParseField converts a wire name into a canonical field.
func ParseField(name string) (Field, bool) {
	f := Field(name)
	return f, f.IsValid()
}
