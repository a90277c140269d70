package models

import "time"

// SyncedRow is one spreadsheet data row after mapping. DocID is the
// sanitized value of the key column's cell; Fields maps enabled headers'
// variable names to that row's cell values.
type SyncedRow struct {
	DocID    string            `json:"doc_id"`
	Fields   map[string]string `json:"fields"`
	SyncedAt time.Time         `json:"synced_at"`
}
