package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Fields stores free-form submitted form fields as a JSON column.
type Fields map[string]any

// Value serializes the fields to JSON.
func (f Fields) Value() (driver.Value, error) {
	if f == nil {
		return "{}", nil
	}
	raw, err := json.Marshal(f)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Scan decodes a JSON column into the map.
func (f *Fields) Scan(value interface{}) error {
	if value == nil {
		*f = nil
		return nil
	}
	raw, err := asJSON(value)
	if err != nil {
		return err
	}
	var decoded Fields
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return err
	}
	*f = decoded
	return nil
}

func asJSON(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported JSON source %T", value)
	}
}
