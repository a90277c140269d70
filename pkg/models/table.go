package models

import (
	"time"

	"github.com/google/uuid"
)

// SheetTable maps one sheet/tab of a SheetDatabase for use.
type SheetTable struct {
	ID           uuid.UUID `json:"id"`
	DatabaseID   uuid.UUID `json:"database_id"`
	Name         string    `json:"name"`
	SheetName    string    `json:"sheet_name"`
	Status       string    `json:"status"`
	HeaderCount  int       `json:"header_count"`
	RowCount     int       `json:"row_count"`
	LastSynced   time.Time `json:"last_synced,omitzero"`
	ErrorMessage string    `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
