package bulkapi

// Item types reported in Response.Errors.
const (
	ItemTrip     = "trip"
	ItemExpense  = "expense"
	ItemCategory = "category"
)

// ItemError is one per-item failure reported by the backend. Index is the
// 0-based position of the item in its payload section.
type ItemError struct {
	Type    string `json:"type"`
	Index   int    `json:"index"`
	TripNo  string `json:"tripNo,omitempty"`
	Message string `json:"message"`
}

// Response is the body of a successful bulk import call.
type Response struct {
	TripsCreated      int         `json:"tripsCreated"`
	TripsFailed       int         `json:"tripsFailed"`
	ExpensesCreated   int         `json:"expensesCreated"`
	ExpensesFailed    int         `json:"expensesFailed"`
	CategoriesCreated int         `json:"categoriesCreated"`
	Errors            []ItemError `json:"errors"`
}
