package postgres

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// jsonb adapts any JSON-serializable value to a PostgreSQL JSONB column
type jsonb[T any] struct {
	V T
}

// Value implements driver.Valuer
func (j jsonb[T]) Value() (driver.Value, error) {
	b, err := json.Marshal(j.V)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (j *jsonb[T]) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, &j.V)
	case string:
		return json.Unmarshal([]byte(v), &j.V)
	default:
		return fmt.Errorf("unsupported jsonb source %T", src)
	}
}
