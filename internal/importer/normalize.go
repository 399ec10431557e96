package importer

import (
	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/fleet-trip-import/internal/mapping"
	"github.com/ginjaninja78/fleet-trip-import/internal/parser"
)

// NormalizeRecords converts parsed records into validated import rows.
//
// It also returns the file-level populated set: every canonical field that
// at least one row filled. That set is fixed at parse time.
func NormalizeRecords(headers []string, records []parser.Record) ([]ImportRow, FieldSet) {
	rows := make([]ImportRow, 0, len(records))
	populated := make(FieldSet)

	for i, record := range records {
		row := NormalizeRecord(headers, record, i)
		populated.Union(row.Populated)
		rows = append(rows, row)
	}

	return rows, populated
}

// NormalizeRecord maps one record onto the canonical fields.
//
// Headers are walked in file order. The first header that maps to a field
// and carries a non-empty value fills it; later aliases of the same field
// are skipped. Expense columns feeding the same category are summed, and
// only positive amounts are kept.
func NormalizeRecord(headers []string, record parser.Record, index int) ImportRow {
	row := newRow(record.RowNumber, index)
	expenses := make(map[string]decimal.Decimal)

	for _, header := range headers {
		raw := CoerceString(record.Values[header])
		if raw == "" {
			continue
		}

		if m, ok := mapping.Lookup(header); ok {
			if row.Populated.Has(m.Field) {
				continue
			}
			row.assign(m.Field, raw)
			row.Populated.Add(m.Field)
			continue
		}

		if category, ok := mapping.ExpenseCategory(header); ok {
			amount, ok := parseDecimal(raw)
			if !ok || !amount.IsPositive() {
				continue
			}
			expenses[category] = expenses[category].Add(amount)
		}
	}

	for category, amount := range expenses {
		row.Expenses[category] = amount.InexactFloat64()
	}

	row.recompute()
	Validate(&row)
	return row
}
