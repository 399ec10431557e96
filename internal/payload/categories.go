package payload

// Mode is the ledger an expense category is booked against.
type Mode string

const (
	ModeFuel     Mode = "Fuel"
	ModeExpenses Mode = "Expenses"
	ModeGeneral  Mode = "General"
)

var categoryModes = map[string]Mode{
	"Diesel":         ModeFuel,
	"AdBlue":         ModeFuel,
	"Toll":           ModeExpenses,
	"Loading":        ModeExpenses,
	"Unloading":      ModeExpenses,
	"Driver Expense": ModeExpenses,
	"Maintenance":    ModeExpenses,
	"RTO/Police":     ModeExpenses,
	"Parking":        ModeExpenses,
	"UPI":            ModeExpenses,
	"Miscellaneous":  ModeGeneral,
}

// CategoryMode returns the mode of a category. Unknown names are booked as
// Expenses.
func CategoryMode(name string) Mode {
	if mode, ok := categoryModes[name]; ok {
		return mode
	}
	return ModeExpenses
}
