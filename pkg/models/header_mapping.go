package models

import (
	"time"

	"github.com/google/uuid"
)

// Header data types.
const (
	DataTypeText    = "text"
	DataTypeNumber  = "number"
	DataTypeDate    = "date"
	DataTypeBoolean = "boolean"
)

// ValidDataType reports whether t is one of the supported header data types.
func ValidDataType(t string) bool {
	switch t {
	case DataTypeText, DataTypeNumber, DataTypeDate, DataTypeBoolean:
		return true
	}
	return false
}

// HeaderMapping maps one spreadsheet column of a SheetTable to a typed
// variable. At most one mapping per table may have IsKey=true; the mapper
// enforces this, not the store. The key header's cell value becomes the
// external identifier for synced rows.
type HeaderMapping struct {
	ID             uuid.UUID `json:"id"`
	TableID        uuid.UUID `json:"table_id"`
	ColumnIndex    int       `json:"column_index"`
	OriginalHeader string    `json:"original_header"`
	VariableName   string    `json:"variable_name"`
	DataType       string    `json:"data_type"`
	IsEnabled      bool      `json:"is_enabled"`
	IsKey          bool      `json:"is_key"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
