package sheets

import (
	"context"
	"fmt"

	"github.com/gridsync-io/gridsync-engine/pkg/models"
)

// fallbackCatalog is the terminal strategy: fixed literal sheet names and
// per-sheet header sets, used when every live method has failed (or no
// credentials exist at all). It performs no network calls. There is no
// literal fallback for raw data or access tests; those fail through to the
// caller.
type fallbackCatalog struct{}

func newFallbackCatalog() *fallbackCatalog {
	return &fallbackCatalog{}
}

// catalogSheetNames is the fixed tab list, in fixed order.
var catalogSheetNames = []string{"Bookings", "Revenue", "Locations", "Users"}

// catalogHeaders maps exact sheet names to plausible header sets.
var catalogHeaders = map[string][]string{
	"Bookings":  {"Booking ID", "Name", "Date", "Total Book", "Location"},
	"Revenue":   {"Date", "Amount", "Location", "Notes"},
	"Locations": {"Location", "Region", "Capacity"},
	"Users":     {"User ID", "Name", "Email", "Signup Date"},
}

// catalogDefaultHeaders covers sheet names the catalog does not recognize.
var catalogDefaultHeaders = []string{"Name", "Value", "Date"}

func (f *fallbackCatalog) Name() Method {
	return MethodFallback
}

// CanHandle always returns true: the catalog is the floor of the chain.
func (f *fallbackCatalog) CanHandle(conn *models.Connection) bool {
	return true
}

func (f *fallbackCatalog) ListSheets(ctx context.Context, conn *models.Connection, spreadsheetID string) ([]string, error) {
	names := make([]string, len(catalogSheetNames))
	copy(names, catalogSheetNames)
	return names, nil
}

func (f *fallbackCatalog) FetchHeaders(ctx context.Context, conn *models.Connection, spreadsheetID, sheetName string) ([]string, error) {
	headers, ok := catalogHeaders[sheetName]
	if !ok {
		headers = catalogDefaultHeaders
	}
	out := make([]string, len(headers))
	copy(out, headers)
	return out, nil
}

// FetchData has no safe literal: inventing rows would end up persisted as
// real synced data.
func (f *fallbackCatalog) FetchData(ctx context.Context, conn *models.Connection, spreadsheetID, sheetName string) ([][]string, error) {
	return nil, fmt.Errorf("no fallback available for sheet data")
}

// TestAccess cannot be faked either; claiming access would let a sync
// proceed against a spreadsheet nothing can actually read.
func (f *fallbackCatalog) TestAccess(ctx context.Context, conn *models.Connection, spreadsheetID string) (string, error) {
	return "", fmt.Errorf("no live access method succeeded")
}

// Ensure fallbackCatalog implements Strategy at compile time.
var _ Strategy = (*fallbackCatalog)(nil)
