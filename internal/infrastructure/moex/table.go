package moex

import (
	"encoding/json"
	"fmt"
	"time"
)

// table is an ISS block in compact form: column names plus positional rows.
type table struct {
	Columns []string            `json:"columns"`
	Data    [][]json.RawMessage `json:"data"`
}

type row map[string]json.RawMessage

func (t table) rows() []row {
	result := make([]row, 0, len(t.Data))
	for _, values := range t.Data {
		r := make(row, len(t.Columns))
		for i, name := range t.Columns {
			if i < len(values) {
				r[name] = values[i]
			}
		}
		result = append(result, r)
	}
	return result
}

func (r row) str(key string) string {
	var v *string
	if err := json.Unmarshal(r[key], &v); err != nil || v == nil {
		return ""
	}
	return *v
}

func (r row) float(key string) (float64, bool) {
	var v *float64
	if err := json.Unmarshal(r[key], &v); err != nil || v == nil {
		return 0, false
	}
	return *v, true
}

func (r row) optionalFloat(key string) *float64 {
	v, ok := r.float(key)
	if !ok {
		return nil
	}
	return &v
}

func (r row) floatOrZero(key string) float64 {
	v, _ := r.float(key)
	return v
}

func (r row) int(key string) int64 {
	v, _ := r.float(key)
	return int64(v)
}

// date parses an ISO date column. Empty values and 0000-00-00 yield nil.
func (r row) date(key string) (*time.Time, error) {
	s := r.str(key)
	if s == "" || s == noDate {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, fmt.Errorf("parse %s %q: %w", key, s, err)
	}
	return &t, nil
}
