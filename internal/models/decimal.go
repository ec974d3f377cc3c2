package models

import (
	"bytes"
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
)

// FlexFloat is a float64 that tolerates locale-formatted decimal strings on
// the way in. Reference data imported from the legacy store occasionally
// carries values like "1.234,56" or "12,5"; scanning and JSON decoding accept
// those alongside plain numerics.
type FlexFloat float64

// ParseFlexible converts a decimal string into a float64, accepting both the
// dot and the comma as decimal separator. When both appear, the rightmost one
// is taken as the decimal separator and the other is stripped as a thousands
// separator.
func ParseFlexible(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, fmt.Errorf("parse decimal: empty string")
	}

	dot := strings.LastIndex(s, ".")
	comma := strings.LastIndex(s, ",")
	switch {
	case comma >= 0 && dot >= 0:
		if comma > dot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case comma >= 0:
		s = strings.Replace(s, ",", ".", 1)
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse decimal %q: %w", raw, err)
	}
	return v, nil
}

// Scan implements sql.Scanner.
func (f *FlexFloat) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*f = 0
		return nil
	case float64:
		*f = FlexFloat(v)
		return nil
	case int64:
		*f = FlexFloat(v)
		return nil
	case []byte:
		parsed, err := ParseFlexible(string(v))
		if err != nil {
			return err
		}
		*f = FlexFloat(parsed)
		return nil
	case string:
		parsed, err := ParseFlexible(v)
		if err != nil {
			return err
		}
		*f = FlexFloat(parsed)
		return nil
	default:
		return fmt.Errorf("cannot scan %T into FlexFloat", src)
	}
}

// Value implements driver.Valuer.
func (f FlexFloat) Value() (driver.Value, error) {
	return float64(f), nil
}

// UnmarshalJSON accepts numbers and locale-formatted numeric strings.
func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = 0
		return nil
	}
	if data[0] == '"' {
		unquoted, err := strconv.Unquote(string(data))
		if err != nil {
			return err
		}
		parsed, err := ParseFlexible(unquoted)
		if err != nil {
			return err
		}
		*f = FlexFloat(parsed)
		return nil
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return err
	}
	*f = FlexFloat(v)
	return nil
}

// MarshalJSON renders the plain numeric value.
func (f FlexFloat) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(float64(f), 'f', -1, 64)), nil
}

// Float64 returns the underlying value.
func (f FlexFloat) Float64() float64 {
	return float64(f)
}
