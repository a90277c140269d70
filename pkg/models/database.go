package models

import (
	"time"

	"github.com/google/uuid"
)

// SheetDatabase is a registered spreadsheet under a Connection.
// SheetNames is the tab list discovered at the last successful probe; it is
// refreshed opportunistically (see config SheetListMaxAgeHours) rather than
// on every read.
type SheetDatabase struct {
	ID                  uuid.UUID `json:"id"`
	ConnectionID        uuid.UUID `json:"connection_id"`
	Name                string    `json:"name"`
	SpreadsheetID       string    `json:"spreadsheet_id"`
	Status              string    `json:"status"`
	SheetNames          []string  `json:"sheet_names,omitempty"`
	SheetNamesFetchedAt time.Time `json:"sheet_names_fetched_at,omitzero"`
	LastTested          time.Time `json:"last_tested,omitzero"`
	ErrorMessage        string    `json:"error_message,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// HasSheet reports whether name is in the cached tab list (case-sensitive,
// tab names must match exactly).
func (d *SheetDatabase) HasSheet(name string) bool {
	for _, s := range d.SheetNames {
		if s == name {
			return true
		}
	}
	return false
}
