package sqlutil

import (
	"encoding/json"
	"time"

	"github.com/sqlc-dev/pqtype"
)

// Helper functions for converting between Go types and column types

// ToMillis stores a timestamp as unix milliseconds, the same in every dialect.
func ToMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

// FromMillis is the inverse of ToMillis.
func FromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// ToNullRawMessage marshals v into a JSON column value. A nil v is stored as
// NULL.
func ToNullRawMessage(v any) (pqtype.NullRawMessage, error) {
	if v == nil {
		return pqtype.NullRawMessage{}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return pqtype.NullRawMessage{}, err
	}
	return pqtype.NullRawMessage{RawMessage: data, Valid: true}, nil
}

// FromNullRawMessage decodes a JSON column into v. NULL leaves v untouched.
func FromNullRawMessage(m pqtype.NullRawMessage, v any) error {
	if !m.Valid || len(m.RawMessage) == 0 {
		return nil
	}
	return json.Unmarshal(m.RawMessage, v)
}
