// =============================================================================
// Trip Import - Row Corrections
// =============================================================================
//
// Corrections are the command-line equivalent of editing a preview row before
// importing. They are given either inline:
//
//   --set 3:vehicleNo=MH12AB1234      (field on spreadsheet row 3)
//   --set 7:expense.Toll=250          (expense category on row 7)
//
// or as a YAML file:
//
//   corrections:
//     - row: 3
//       field: vehicleNo
//       value: MH12AB1234
//     - row: 7
//       expense: Toll
//       amount: 250
//
// Rows are addressed by their spreadsheet row number, the number a user sees
// in the source file and in the preview table.
//
// =============================================================================

package batch

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/fleet-trip-import/internal/mapping"
	"github.com/ginjaninja78/fleet-trip-import/internal/session"
)

// expensePrefix marks an inline correction of an expense category.
const expensePrefix = "expense."

// ErrRowNotFound is returned when a correction names a row the file does not
// have.
var ErrRowNotFound = errors.New("row not found in file")

// Correction changes one field or expense of one row.
type Correction struct {
	Row     int      `yaml:"row"`
	Field   string   `yaml:"field,omitempty"`
	Value   string   `yaml:"value,omitempty"`
	Expense string   `yaml:"expense,omitempty"`
	Amount  *float64 `yaml:"amount,omitempty"`
}

// correctionFile is the layout of a corrections YAML file.
type correctionFile struct {
	Corrections []Correction `yaml:"corrections"`
}

// String formats the correction the way it is written inline.
func (c Correction) String() string {
	if c.Expense != "" {
		amount := 0.0
		if c.Amount != nil {
			amount = *c.Amount
		}
		return fmt.Sprintf("%d:%s%s=%s", c.Row, expensePrefix, c.Expense, strconv.FormatFloat(amount, 'f', -1, 64))
	}
	return fmt.Sprintf("%d:%s=%s", c.Row, c.Field, c.Value)
}

// Validate checks that the correction names a row and exactly one target.
func (c Correction) Validate() error {
	if c.Row < 1 {
		return fmt.Errorf("row must be a positive spreadsheet row number, got %d", c.Row)
	}
	switch {
	case c.Field != "" && c.Expense != "":
		return errors.New("a correction sets either a field or an expense, not both")
	case c.Field != "":
		if _, ok := mapping.ParseField(c.Field); !ok {
			return fmt.Errorf("unknown field %q", c.Field)
		}
	case c.Expense != "":
		if c.Amount == nil {
			return fmt.Errorf("expense %q needs an amount", c.Expense)
		}
	default:
		return errors.New("a correction needs a field or an expense")
	}
	return nil
}

// =============================================================================
// PARSING
// =============================================================================

// ParseCorrection parses an inline correction of the form ROW:FIELD=VALUE or
// ROW:expense.CATEGORY=AMOUNT.
func ParseCorrection(s string) (Correction, error) {
	rowPart, rest, ok := strings.Cut(s, ":")
	if !ok {
		return Correction{}, fmt.Errorf("correction %q: expected ROW:FIELD=VALUE", s)
	}
	target, value, ok := strings.Cut(rest, "=")
	if !ok {
		return Correction{}, fmt.Errorf("correction %q: expected ROW:FIELD=VALUE", s)
	}

	row, err := strconv.Atoi(strings.TrimSpace(rowPart))
	if err != nil {
		return Correction{}, fmt.Errorf("correction %q: row is not a number", s)
	}

	c := Correction{Row: row}
	target = strings.TrimSpace(target)
	if category, isExpense := strings.CutPrefix(target, expensePrefix); isExpense {
		amount, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return Correction{}, fmt.Errorf("correction %q: amount is not a number", s)
		}
		c.Expense = strings.TrimSpace(category)
		c.Amount = &amount
	} else {
		c.Field = target
		c.Value = value
	}

	if err := c.Validate(); err != nil {
		return Correction{}, fmt.Errorf("correction %q: %w", s, err)
	}
	return c, nil
}

// ParseCorrections parses a list of inline corrections.
func ParseCorrections(values []string) ([]Correction, error) {
	out := make([]Correction, 0, len(values))
	for _, v := range values {
		c, err := ParseCorrection(v)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// LoadCorrections reads corrections from a YAML file.
func LoadCorrections(path string) ([]Correction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read corrections file: %w", err)
	}

	var file correctionFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse corrections file %s: %w", path, err)
	}

	for i, c := range file.Corrections {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("corrections file %s, entry %d: %w", path, i+1, err)
		}
	}
	return file.Corrections, nil
}

// =============================================================================
// APPLYING
// =============================================================================

// Apply applies corrections to a session in PREVIEW, in order. A later
// correction of the same field wins.
func Apply(s *session.Session, corrections []Correction) error {
	if len(corrections) == 0 {
		return nil
	}

	state := s.Snapshot()
	all := s.SnapshotPage(1, max(state.TotalRows, 1), false)
	indexByRow := make(map[int]int, len(all.Rows))
	for _, row := range all.Rows {
		indexByRow[row.RowNumber] = row.Index
	}

	for _, c := range corrections {
		index, ok := indexByRow[c.Row]
		if !ok {
			return fmt.Errorf("correction %s: %w: row %d", c, ErrRowNotFound, c.Row)
		}

		var err error
		if c.Expense != "" {
			_, err = s.SetExpense(index, c.Expense, *c.Amount)
		} else {
			field, _ := mapping.ParseField(c.Field)
			_, err = s.UpdateField(index, field, c.Value)
		}
		if err != nil {
			return fmt.Errorf("correction %s: %w", c, err)
		}
	}
	return nil
}
