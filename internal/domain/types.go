package domain

import (
	"database/sql/driver"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// UUIDList maps a Postgres uuid[] column.
type UUIDList []uuid.UUID

// Scan implements sql.Scanner. A pgtype.Map is not safe for concurrent use, so each call gets its own.
func (l *UUIDList) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("UUIDList.Scan: unsupported type %T", src)
	}

	var arr pgtype.FlatArray[pgtype.UUID]
	if err := pgtype.NewMap().Scan(pgtype.UUIDArrayOID, pgtype.TextFormatCode, raw, &arr); err != nil {
		return fmt.Errorf("UUIDList.Scan: %w", err)
	}
	out := make(UUIDList, 0, len(arr))
	for i, e := range arr {
		if !e.Valid {
			return fmt.Errorf("UUIDList.Scan: NULL element at index %d", i)
		}
		out = append(out, uuid.UUID(e.Bytes))
	}
	*l = out
	return nil
}

// Value implements driver.Valuer.
func (l UUIDList) Value() (driver.Value, error) {
	arr := make(pgtype.FlatArray[pgtype.UUID], len(l))
	for i, id := range l {
		arr[i] = pgtype.UUID{Bytes: id, Valid: true}
	}
	buf, err := pgtype.NewMap().Encode(pgtype.UUIDArrayOID, pgtype.TextFormatCode, arr, nil)
	if err != nil {
		return nil, fmt.Errorf("UUIDList.Value: %w", err)
	}
	return string(buf), nil
}
