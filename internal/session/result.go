package session

import (
	"fmt"

	"github.com/ginjaninja78/fleet-trip-import/internal/bulkapi"
	"github.com/ginjaninja78/fleet-trip-import/internal/payload"
)

// Progress counts submitted trips. The bulk call is a single request, so
// Processed jumps from 0 to Total when it returns.
type Progress struct {
	Total     int `json:"total" yaml:"total"`
	Processed int `json:"processed" yaml:"processed"`
}

// Result is the outcome of one bulk import.
type Result struct {
	Success           int      `json:"success" yaml:"success"`
	Failed            int      `json:"failed" yaml:"failed"`
	ExpensesCreated   int      `json:"expensesCreated" yaml:"expenses_created"`
	ExpensesFailed    int      `json:"expensesFailed" yaml:"expenses_failed"`
	CategoriesCreated int      `json:"categoriesCreated" yaml:"categories_created"`
	Errors            []string `json:"errors" yaml:"errors"`
}

func (r *Result) clone() *Result {
	if r == nil {
		return nil
	}
	out := *r
	out.Errors = append([]string{}, r.Errors...)
	return &out
}

// failedResult reports every submitted trip as failed.
func failedResult(p *payload.BulkImportPayload, cause error) *Result {
	return &Result{
		Failed: len(p.Trips),
		Errors: []string{fmt.Sprintf("Import failed: %v", cause)},
	}
}

// resultFromResponse maps the backend report to a result. Item indexes are
// turned into 1-based positions, and missing trip numbers are filled from
// the payload that was sent.
func resultFromResponse(p *payload.BulkImportPayload, resp *bulkapi.Response) *Result {
	result := &Result{
		Success:           resp.TripsCreated,
		Failed:            resp.TripsFailed,
		ExpensesCreated:   resp.ExpensesCreated,
		ExpensesFailed:    resp.ExpensesFailed,
		CategoriesCreated: resp.CategoriesCreated,
		Errors:            make([]string, 0, len(resp.Errors)),
	}

	for _, item := range resp.Errors {
		result.Errors = append(result.Errors, formatItemError(p, item))
	}
	return result
}

func formatItemError(p *payload.BulkImportPayload, item bulkapi.ItemError) string {
	n := item.Index + 1

	switch item.Type {
	case bulkapi.ItemTrip:
		tripNo := item.TripNo
		if tripNo == "" && item.Index >= 0 && item.Index < len(p.Trips) {
			tripNo = p.Trips[item.Index].TripNo
		}
		return fmt.Sprintf("Trip row %d (%s): %s", n, tripNo, item.Message)
	case bulkapi.ItemExpense:
		tripNo := item.TripNo
		if tripNo == "" && item.Index >= 0 && item.Index < len(p.Expenses) {
			tripNo = p.Expenses[item.Index].TripNo
		}
		return fmt.Sprintf("Expense row %d (%s): %s", n, tripNo, item.Message)
	case bulkapi.ItemCategory:
		return fmt.Sprintf("Category row %d: %s", n, item.Message)
	default:
		return fmt.Sprintf("%s row %d: %s", item.Type, n, item.Message)
	}
}
