package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// StringList is a []string stored as a JSON array
type StringList []string

// Value implements driver.Valuer
func (s StringList) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(s))
	return string(b), err
}

// Scan implements sql.Scanner
func (s *StringList) Scan(value any) error {
	*s = StringList{}
	return scanJSON(value, (*[]string)(s))
}

// JSONMap is a map stored as a JSON object
type JSONMap map[string]any

// Value implements driver.Valuer
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(map[string]any(m))
	return string(b), err
}

// Scan implements sql.Scanner
func (m *JSONMap) Scan(value any) error {
	*m = JSONMap{}
	return scanJSON(value, (*map[string]any)(m))
}

// JSON wraps any value stored as a JSON column. A nil pointer is stored as NULL.
type JSON[T any] struct {
	Data *T
}

// Value implements driver.Valuer
func (j JSON[T]) Value() (driver.Value, error) {
	if j.Data == nil {
		return nil, nil
	}
	b, err := json.Marshal(j.Data)
	return string(b), err
}

// Scan implements sql.Scanner
func (j *JSON[T]) Scan(value any) error {
	j.Data = nil
	if value == nil {
		return nil
	}
	var v T
	if err := scanJSON(value, &v); err != nil {
		return err
	}
	j.Data = &v
	return nil
}

func scanJSON(value any, dst any) error {
	var b []byte
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return errors.New("unsupported JSON column type")
	}
	if len(b) == 0 {
		return nil
	}
	return json.Unmarshal(b, dst)
}
