package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

// Metadata is an open key/value bag stored as jsonb. Values are restricted
// to what JSON can represent: strings, numbers, booleans, nil, and nested
// arrays or objects of the same.
type Metadata map[string]interface{}

// Value implements the driver.Valuer interface
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

// Scan implements the sql.Scanner interface
func (m *Metadata) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*m = nil
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported metadata source %T", value)
	}
	out := Metadata{}
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	*m = out
	return nil
}

// Set stores v under key after checking it is a JSON value.
func (m Metadata) Set(key string, v interface{}) error {
	if m == nil {
		return errors.New("nil metadata")
	}
	if err := checkMetaValue(v); err != nil {
		return fmt.Errorf("metadata %q: %w", key, err)
	}
	m[key] = v
	return nil
}

// String returns the string stored under key.
func (m Metadata) String(key string) (string, bool) {
	s, ok := m[key].(string)
	return s, ok
}

// Validate checks every value in the bag.
func (m Metadata) Validate() error {
	for k, v := range m {
		if err := checkMetaValue(v); err != nil {
			return fmt.Errorf("metadata %q: %w", k, err)
		}
	}
	return nil
}

// Clone returns a shallow copy; nil stays nil.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func checkMetaValue(v interface{}) error {
	switch val := v.(type) {
	case nil, string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, json.Number:
		return nil
	case []interface{}:
		for _, item := range val {
			if err := checkMetaValue(item); err != nil {
				return err
			}
		}
		return nil
	case map[string]interface{}:
		for _, item := range val {
			if err := checkMetaValue(item); err != nil {
				return err
			}
		}
		return nil
	case Metadata:
		return val.Validate()
	default:
		return fmt.Errorf("unsupported value type %T", v)
	}
}
