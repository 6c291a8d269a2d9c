package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// WeeklyAvailability maps a day name ("lunes".."domingo", diacritics
// tolerated) to declared "HH:MM-HH:MM" range strings. Ranges are half-open:
// the start minute is bookable, the end minute is not.
type WeeklyAvailability map[string][]string

// Value marshals the availability map to JSONB.
func (w WeeklyAvailability) Value() (driver.Value, error) {
	if w == nil {
		return nil, nil
	}
	return json.Marshal(w)
}

// Scan reads the stored JSONB value. Legacy rows may hold free-form text;
// anything that does not parse as a day map scans to nil, which the matcher
// treats as "no availability configured".
func (w *WeeklyAvailability) Scan(src interface{}) error {
	if src == nil {
		*w = nil
		return nil
	}

	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported availability source type %T", src)
	}

	var parsed map[string][]string
	if err := json.Unmarshal(raw, &parsed); err != nil {
		*w = nil
		return nil
	}
	*w = parsed
	return nil
}
