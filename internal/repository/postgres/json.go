package postgres

import "encoding/json"

// jsonOrNull normalizes an empty document to JSON null for NOT NULL jsonb columns.
func jsonOrNull(raw json.RawMessage) []byte {
	if len(raw) == 0 {
		return []byte("null")
	}
	return raw
}

