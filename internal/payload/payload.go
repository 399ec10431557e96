// =============================================================================
// Trip Import - Bulk Payload Builder
// =============================================================================
//
// Build turns the valid rows of a parse outcome into the single request body
// sent to the bulk import endpoint. The payload is assembled fresh on every
// call and is not mutated afterwards.
//
// PAYLOAD SECTIONS:
//   - trips              one per valid row, in row order
//   - expenses           one per positive expense, categories sorted per row
//   - expenseCategories  unique category names with their mode
//   - vehicles           unique vehicle numbers, first-seen order
//
// =============================================================================

package payload

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/ginjaninja78/fleet-trip-import/internal/importer"
)

// DefaultSourceRemark is attached to every expense created by an import.
const DefaultSourceRemark = "Imported via bulk trip import"

// Options tunes payload construction.
type Options struct {
	// SourceRemark is written to the remark of each expense record.
	SourceRemark string
}

// =============================================================================
// DATA STRUCTURES
// =============================================================================

// Trip is one trip record of the bulk payload.
type Trip struct {
	TripNo       string  `json:"tripNo"`
	SequenceNo   *int    `json:"sequenceNo"`
	VehicleNo    string  `json:"vehicleNo"`
	TripDate     string  `json:"tripDate"`
	Origin       string  `json:"origin"`
	Destination  string  `json:"destination"`
	PlantName    string  `json:"plantName"`
	PartyName    string  `json:"partyName"`
	IsMarketTrip bool    `json:"isMarketTrip"`
	DistanceKm   float64 `json:"distanceKm"`
	Quantity     float64 `json:"quantity"`
	Freight      float64 `json:"freight"`
	Advance      float64 `json:"advance"`
	TotalExpense float64 `json:"totalExpense"`
	NetAmount    float64 `json:"netAmount"`
	Balance      float64 `json:"balance"`
	BillNo       string  `json:"billNo"`
	Billed       bool    `json:"billed"`
	Remarks      string  `json:"remarks"`

	// Not collected by the spreadsheet import.
	DriverName    string  `json:"driverName"`
	DriverID      string  `json:"driverId"`
	FuelLitres    float64 `json:"fuelLitres"`
	FuelRate      float64 `json:"fuelRate"`
	OdometerStart float64 `json:"odometerStart"`
	OdometerEnd   float64 `json:"odometerEnd"`
	RatePerTon    float64 `json:"ratePerTon"`
	RatePerKm     float64 `json:"ratePerKm"`
}

// Expense is one expense record attached to a trip by trip number.
type Expense struct {
	TripNo    string  `json:"tripNo"`
	Category  string  `json:"category"`
	Amount    float64 `json:"amount"`
	Date      string  `json:"date"`
	VehicleNo string  `json:"vehicleNo"`
	Remark    string  `json:"remark"`
}

// Category is an expense category the backend should ensure exists.
type Category struct {
	Name string `json:"name"`
	Mode Mode   `json:"mode"`
}

// BulkImportPayload is the request body of the bulk import endpoint.
type BulkImportPayload struct {
	Trips             []Trip     `json:"trips"`
	Expenses          []Expense  `json:"expenses"`
	ExpenseCategories []Category `json:"expenseCategories"`
	Vehicles          []string   `json:"vehicles"`
}

// =============================================================================
// BUILDER
// =============================================================================

// Build assembles the payload from rows. Invalid rows are skipped.
func Build(rows []importer.ImportRow, opts Options) *BulkImportPayload {
	remark := opts.SourceRemark
	if remark == "" {
		remark = DefaultSourceRemark
	}

	p := &BulkImportPayload{
		Trips:             []Trip{},
		Expenses:          []Expense{},
		ExpenseCategories: []Category{},
		Vehicles:          []string{},
	}
	seenCategories := make(map[string]struct{})
	seenVehicles := make(map[string]struct{})

	for _, row := range rows {
		if !row.IsValid {
			continue
		}

		p.Trips = append(p.Trips, newTrip(row))

		if _, seen := seenVehicles[row.VehicleNo]; !seen {
			seenVehicles[row.VehicleNo] = struct{}{}
			p.Vehicles = append(p.Vehicles, row.VehicleNo)
		}

		for _, category := range row.ExpenseCategories() {
			amount := row.Expenses[category]
			if amount <= 0 {
				continue
			}

			p.Expenses = append(p.Expenses, Expense{
				TripNo:    row.TripNo,
				Category:  category,
				Amount:    amount,
				Date:      row.TripDate,
				VehicleNo: row.VehicleNo,
				Remark:    remark,
			})

			if _, seen := seenCategories[category]; !seen {
				seenCategories[category] = struct{}{}
				p.ExpenseCategories = append(p.ExpenseCategories, Category{Name: category, Mode: CategoryMode(category)})
			}
		}
	}

	return p
}

func newTrip(row importer.ImportRow) Trip {
	trip := Trip{
		TripNo:       row.TripNo,
		VehicleNo:    row.VehicleNo,
		TripDate:     row.TripDate,
		Origin:       row.Origin,
		Destination:  row.Destination,
		PlantName:    row.PlantName,
		PartyName:    row.PartyName,
		IsMarketTrip: IsMarketTrip(row.PlantName),
		DistanceKm:   row.DistanceKm,
		Quantity:     row.Quantity,
		Freight:      row.Freight,
		Advance:      row.Advance,
		TotalExpense: row.TotalExpense,
		NetAmount:    row.NetAmount,
		Balance:      row.Balance,
		BillNo:       row.BillNo,
		Billed:       row.Billed,
		Remarks:      row.Remarks,
	}

	if seq, ok := importer.TripSequence(row.TripNo); ok {
		trip.SequenceNo = &seq
	}
	return trip
}

// IsMarketTrip reports whether a plant name marks a market (hired vehicle)
// trip.
func IsMarketTrip(plantName string) bool {
	return strings.Contains(strings.ToUpper(plantName), "MARKET")
}

// TripCount returns the number of trips in the payload.
func (p *BulkImportPayload) TripCount() int {
	return len(p.Trips)
}

// WriteJSON writes the payload as indented JSON, the exact body the bulk
// endpoint receives.
func (p *BulkImportPayload) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(p)
}
