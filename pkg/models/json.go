package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONStringSlice persists a []string through a JSONB column. sqlx scans
// Postgres rows by reflecting on driver values directly, so any column that
// isn't a plain scalar needs an explicit Scanner/Valuer — there is no ORM
// layer translating JSONB to Go slices automatically.
type JSONStringSlice []string

func (s JSONStringSlice) Value() (driver.Value, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(s))
}

func (s *JSONStringSlice) Scan(src any) error {
	b, err := scanBytes(src)
	if err != nil {
		return err
	}
	if b == nil {
		*s = nil
		return nil
	}
	return json.Unmarshal(b, (*[]string)(s))
}

// JSONMap persists a map[string]any through a JSONB column.
type JSONMap map[string]any

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]any(m))
}

func (m *JSONMap) Scan(src any) error {
	b, err := scanBytes(src)
	if err != nil {
		return err
	}
	if b == nil {
		*m = nil
		return nil
	}
	return json.Unmarshal(b, (*map[string]any)(m))
}

// JSONCriteria persists a []CriterionScore through a JSONB column.
type JSONCriteria []CriterionScore

func (c JSONCriteria) Value() (driver.Value, error) {
	if c == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]CriterionScore(c))
}

func (c *JSONCriteria) Scan(src any) error {
	b, err := scanBytes(src)
	if err != nil {
		return err
	}
	if b == nil {
		*c = nil
		return nil
	}
	return json.Unmarshal(b, (*[]CriterionScore)(c))
}

// JSONFloatSlice persists a []float64 through a JSONB column — used for
// an EloRating's rating_history.
type JSONFloatSlice []float64

func (s JSONFloatSlice) Value() (driver.Value, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]float64(s))
}

func (s *JSONFloatSlice) Scan(src any) error {
	b, err := scanBytes(src)
	if err != nil {
		return err
	}
	if b == nil {
		*s = nil
		return nil
	}
	return json.Unmarshal(b, (*[]float64)(s))
}

func scanBytes(src any) ([]byte, error) {
	switch v := src.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("models: cannot scan %T as JSON column", src)
	}
}
