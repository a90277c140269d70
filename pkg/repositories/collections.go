// Package repositories provides typed access to the document store's
// hierarchical collections: connection → database → table → header, plus a
// flat synced-rows collection per table.
package repositories

import (
	"fmt"

	"github.com/google/uuid"
)

const connectionsCollection = "connections"

func databasesCollection(connectionID uuid.UUID) string {
	return fmt.Sprintf("connections/%s/databases", connectionID)
}

func tablesCollection(connectionID, databaseID uuid.UUID) string {
	return fmt.Sprintf("connections/%s/databases/%s/tables", connectionID, databaseID)
}

func headersCollection(connectionID, databaseID, tableID uuid.UUID) string {
	return fmt.Sprintf("connections/%s/databases/%s/tables/%s/headers", connectionID, databaseID, tableID)
}

// syncedRowsCollection is flat, keyed by the owning triple, so a table's
// rows can be cleared in one call without touching the hierarchy.
func syncedRowsCollection(connectionID, databaseID, tableID uuid.UUID) string {
	return fmt.Sprintf("synced_rows/%s_%s_%s", connectionID, databaseID, tableID)
}
