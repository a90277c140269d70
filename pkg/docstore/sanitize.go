package docstore

import (
	"reflect"
	"strings"
)

// SanitizeRecord returns a copy of rec with nil-valued fields stripped,
// recursively. The store rejects explicit nulls; absent is the correct
// representation. The input is never mutated.
func SanitizeRecord(rec Record) Record {
	if rec == nil {
		return Record{}
	}
	out := make(Record, len(rec))
	for k, v := range rec {
		if v == nil {
			continue
		}
		if nested, ok := v.(map[string]any); ok {
			out[k] = map[string]any(SanitizeRecord(nested))
			continue
		}
		out[k] = v
	}
	return out
}

// isTimestampField reports whether a field carries boundary-normalized
// timestamps. These are excluded from change detection: a refresh that only
// bumps updated_at must not count as a change.
func isTimestampField(key string) bool {
	return strings.HasSuffix(key, "_at") || strings.HasPrefix(key, "last_")
}

// EqualIgnoringTimestamps reports whether two records are deeply equal once
// timestamp fields are excluded from both.
func EqualIgnoringTimestamps(a, b Record) bool {
	return reflect.DeepEqual(stripTimestamps(a), stripTimestamps(b))
}

func stripTimestamps(rec Record) Record {
	out := make(Record, len(rec))
	for k, v := range rec {
		if isTimestampField(k) {
			continue
		}
		out[k] = v
	}
	return out
}
