// Package valueobject holds small value types shared by entities and repositories.
package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"maps"
)

// ErrScanValueNotBytes indicates the database value is not JSON text.
var ErrScanValueNotBytes = errors.New("valueobject: jsonmap scan value is not []byte")

// JSONMap is a free form JSON object, stored in a jsonb column.
type JSONMap map[string]any

// Value implements driver.Valuer. A nil map is stored as {}.
func (j JSONMap) Value() (driver.Value, error) {
	if j == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]any(j))
}

// Scan implements sql.Scanner.
func (j *JSONMap) Scan(value any) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*j = JSONMap{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	case map[string]any:
		*j = JSONMap(v)
		return nil
	default:
		return ErrScanValueNotBytes
	}

	out := JSONMap{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return err
	}
	*j = out
	return nil
}

// Clone returns a shallow copy that is never nil.
func (j JSONMap) Clone() JSONMap {
	if j == nil {
		return JSONMap{}
	}
	return maps.Clone(j)
}

// Merge returns a copy of j with every key of patch applied; a nil value deletes the key.
func (j JSONMap) Merge(patch JSONMap) JSONMap {
	out := j.Clone()
	for k, v := range patch {
		if v == nil {
			delete(out, k)
			continue
		}
		out[k] = v
	}
	return out
}

// GetString returns the string under key, or "".
func (j JSONMap) GetString(key string) string {
	s, _ := j[key].(string)
	return s
}
