// Package mapper derives variable identifiers from spreadsheet metadata and
// maintains the header-mapping records for a table.
package mapper

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gridsync-io/gridsync-engine/pkg/models"
)

// Clean lowercases s, replaces every character outside [a-z0-9] with an
// underscore, and collapses consecutive underscores. It is idempotent:
// Clean(Clean(s)) == Clean(s).
func Clean(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	lastUnderscore := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastUnderscore = false
			continue
		}
		if !lastUnderscore {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	return b.String()
}

// DeriveVariableName builds the deterministic identifier for a column:
// clean(connection)_clean(database)_clean(table)_clean(header).
func DeriveVariableName(connectionName, databaseName, tableName, header string) string {
	segments := []string{
		Clean(connectionName),
		Clean(databaseName),
		Clean(tableName),
		Clean(header),
	}
	return strings.Join(segments, "_")
}

// Generate emits one HeaderMapping per header, in order. Column index is the
// position, data type defaults to text, mappings start enabled and non-key.
func Generate(tableID uuid.UUID, connectionName, databaseName, tableName string, headers []string) []*models.HeaderMapping {
	now := time.Now()
	mappings := make([]*models.HeaderMapping, 0, len(headers))
	for i, h := range headers {
		mappings = append(mappings, &models.HeaderMapping{
			ID:             uuid.New(),
			TableID:        tableID,
			ColumnIndex:    i,
			OriginalHeader: h,
			VariableName:   DeriveVariableName(connectionName, databaseName, tableName, h),
			DataType:       models.DataTypeText,
			IsEnabled:      true,
			IsKey:          false,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
	}
	return mappings
}

// Merge reconciles freshly probed headers with existing mappings.
// A fresh header matches an existing mapping by column index or by exact
// original-header text. Matched mappings keep every field except
// OriginalHeader, which is overwritten with the fresh value. Unmatched fresh
// headers are appended as new mappings. Existing mappings whose column
// disappeared are left in place: a transient fetch glitch must not destroy
// user customization.
func Merge(existing []*models.HeaderMapping, fresh []*models.HeaderMapping) []*models.HeaderMapping {
	byIndex := make(map[int]*models.HeaderMapping, len(existing))
	byHeader := make(map[string]*models.HeaderMapping, len(existing))
	for _, m := range existing {
		byIndex[m.ColumnIndex] = m
		byHeader[m.OriginalHeader] = m
	}

	merged := make([]*models.HeaderMapping, len(existing))
	copy(merged, existing)

	for _, f := range fresh {
		match, ok := byIndex[f.ColumnIndex]
		if !ok {
			match, ok = byHeader[f.OriginalHeader]
		}
		if ok {
			if match.OriginalHeader != f.OriginalHeader {
				match.OriginalHeader = f.OriginalHeader
				match.UpdatedAt = time.Now()
			}
			continue
		}
		merged = append(merged, f)
	}
	return merged
}

// SetKey marks the mapping with the given id as the table's key column.
// Every sibling's IsKey is cleared and the chosen mapping is force-enabled;
// a disabled key column is an invalid state.
func SetKey(mappings []*models.HeaderMapping, id uuid.UUID) bool {
	var target *models.HeaderMapping
	for _, m := range mappings {
		if m.ID == id {
			target = m
			break
		}
	}
	if target == nil {
		return false
	}

	now := time.Now()
	for _, m := range mappings {
		if m.IsKey && m.ID != id {
			m.IsKey = false
			m.UpdatedAt = now
		}
	}
	target.IsKey = true
	target.IsEnabled = true
	target.UpdatedAt = now
	return true
}

// KeyMapping returns the single key mapping, or nil when none is set.
func KeyMapping(mappings []*models.HeaderMapping) *models.HeaderMapping {
	for _, m := range mappings {
		if m.IsKey {
			return m
		}
	}
	return nil
}

// EnabledMappings returns the mappings with IsEnabled=true, in input order.
func EnabledMappings(mappings []*models.HeaderMapping) []*models.HeaderMapping {
	var enabled []*models.HeaderMapping
	for _, m := range mappings {
		if m.IsEnabled {
			enabled = append(enabled, m)
		}
	}
	return enabled
}
