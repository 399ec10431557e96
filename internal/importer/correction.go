package importer

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/fleet-trip-import/internal/mapping"
)

var (
	// ErrRowOutOfRange is returned when an edit addresses a row index that
	// does not exist.
	ErrRowOutOfRange = errors.New("row index out of range")

	// ErrUnknownField is returned when an edit names a field outside the
	// canonical set.
	ErrUnknownField = errors.New("unknown field")
)

// DefaultPageSize is used by Page and PageCount when size is not positive.
const DefaultPageSize = 50

// UpdateField sets one canonical field on a row and re-validates it.
//
// The value is coerced by the field type. An empty value clears the field
// and its populated flag. Only the row itself is re-validated; the
// file-level populated set and the schema report stay as parsed.
func (o *ParseOutcome) UpdateField(index int, field mapping.Field, value string) (ImportRow, error) {
	if err := o.checkIndex(index); err != nil {
		return ImportRow{}, err
	}
	if !field.IsValid() {
		return ImportRow{}, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}

	row := o.Rows[index].Clone()
	value = CoerceString(value)
	if value == "" {
		row.clear(field)
		row.Populated.Remove(field)
	} else {
		row.assign(field, value)
		row.Populated.Add(field)
	}

	row.recompute()
	Validate(&row)
	o.Rows[index] = row
	return row.Clone(), nil
}

// SetExpense sets the amount of one expense category on a row. A zero or
// negative amount removes the category.
func (o *ParseOutcome) SetExpense(index int, category string, amount float64) (ImportRow, error) {
	if err := o.checkIndex(index); err != nil {
		return ImportRow{}, err
	}
	category = CoerceString(category)
	if category == "" {
		return ImportRow{}, errors.New("expense category is required")
	}

	row := o.Rows[index].Clone()
	if amount > 0 {
		row.Expenses[category] = decimal.NewFromFloat(amount).Round(2).InexactFloat64()
	} else {
		delete(row.Expenses, category)
	}

	row.recompute()
	Validate(&row)
	o.Rows[index] = row
	return row.Clone(), nil
}

func (o *ParseOutcome) checkIndex(index int) error {
	if index < 0 || index >= len(o.Rows) {
		return fmt.Errorf("%w: %d (have %d rows)", ErrRowOutOfRange, index, len(o.Rows))
	}
	return nil
}

// Page returns the rows of a 1-based page. Pages past the end are empty.
func (o *ParseOutcome) Page(page, size int) []ImportRow {
	if size <= 0 {
		size = DefaultPageSize
	}
	if page < 1 {
		page = 1
	}

	start := (page - 1) * size
	if start >= len(o.Rows) {
		return []ImportRow{}
	}
	end := start + size
	if end > len(o.Rows) {
		end = len(o.Rows)
	}
	return o.Rows[start:end]
}

// PageCount returns how many pages of the given size the rows fill.
func (o *ParseOutcome) PageCount(size int) int {
	if size <= 0 {
		size = DefaultPageSize
	}
	return (len(o.Rows) + size - 1) / size
}

// ValidRows returns the rows that passed validation, in file order.
func (o *ParseOutcome) ValidRows() []ImportRow {
	valid := make([]ImportRow, 0, len(o.Rows))
	for _, row := range o.Rows {
		if row.IsValid {
			valid = append(valid, row)
		}
	}
	return valid
}

// InvalidRows returns the rows that failed validation, in file order.
func (o *ParseOutcome) InvalidRows() []ImportRow {
	invalid := make([]ImportRow, 0)
	for _, row := range o.Rows {
		if !row.IsValid {
			invalid = append(invalid, row)
		}
	}
	return invalid
}

// ValidCount returns the number of valid rows.
func (o *ParseOutcome) ValidCount() int {
	n := 0
	for _, row := range o.Rows {
		if row.IsValid {
			n++
		}
	}
	return n
}

// InvalidCount returns the number of invalid rows.
func (o *ParseOutcome) InvalidCount() int {
	return len(o.Rows) - o.ValidCount()
}
