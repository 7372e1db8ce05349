package cbormap

import (
	"fmt"
	"strings"
	"time"
)

// Primitive field validators. Each returns the normalized value on
// success; the schema engine qualifies failures with the field path.

// Text requires a text string.
func Text() FieldFunc {
	return func(path string, value interface{}) (interface{}, error) {
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("expected text string, got %T", value)
		}
		return s, nil
	}
}

// TextOneOf requires a text string drawn from a fixed set.
func TextOneOf(allowed ...string) FieldFunc {
	return func(path string, value interface{}) (interface{}, error) {
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("expected text string, got %T", value)
		}
		for _, a := range allowed {
			if s == a {
				return s, nil
			}
		}
		return nil, fmt.Errorf("value %q not in %v", s, allowed)
	}
}

// Bytes requires a byte string.
func Bytes() FieldFunc {
	return func(path string, value interface{}) (interface{}, error) {
		b, ok := value.([]byte)
		if !ok {
			return nil, fmt.Errorf("expected byte string, got %T", value)
		}
		return b, nil
	}
}

// Uint requires a non-negative integer and normalizes it to uint64.
func Uint() FieldFunc {
	return func(path string, value interface{}) (interface{}, error) {
		switch v := value.(type) {
		case uint64:
			return v, nil
		case int64:
			if v < 0 {
				return nil, fmt.Errorf("expected non-negative integer, got %d", v)
			}
			return uint64(v), nil
		case int:
			if v < 0 {
				return nil, fmt.Errorf("expected non-negative integer, got %d", v)
			}
			return uint64(v), nil
		default:
			return nil, fmt.Errorf("expected non-negative integer, got %T", value)
		}
	}
}

// Version requires a text string of dot-separated decimal numbers,
// e.g. "1.0".
func Version() FieldFunc {
	return func(path string, value interface{}) (interface{}, error) {
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("expected text string, got %T", value)
		}
		for _, part := range strings.Split(s, ".") {
			if part == "" {
				return nil, fmt.Errorf("invalid version %q", s)
			}
			for _, r := range part {
				if r < '0' || r > '9' {
					return nil, fmt.Errorf("invalid version %q", s)
				}
			}
		}
		return s, nil
	}
}

// Optional wraps a validator so an explicit null passes through. Absent
// keys are already handled by Entry.Required; this is for keys that are
// present but carry no value.
func Optional(fn FieldFunc) FieldFunc {
	return func(path string, value interface{}) (interface{}, error) {
		if value == nil {
			return nil, nil
		}
		return fn(path, value)
	}
}

// Map requires any map value.
func Map() FieldFunc {
	return func(path string, value interface{}) (interface{}, error) {
		switch value.(type) {
		case map[string]interface{}, map[interface{}]interface{}, *OrderedMap:
			return value, nil
		default:
			return nil, fmt.Errorf("expected map, got %T", value)
		}
	}
}

// Any accepts every value unchanged.
func Any() FieldFunc {
	return func(path string, value interface{}) (interface{}, error) {
		return value, nil
	}
}

// DateTime requires a tdate value and normalizes it to a UTC time.Time
// with whole-second precision. Decoded CBOR gives tag 0 as time.Time; a
// bare RFC3339 string is accepted as well.
func DateTime() FieldFunc {
	return func(path string, value interface{}) (interface{}, error) {
		switch v := value.(type) {
		case time.Time:
			return v.UTC().Truncate(time.Second), nil
		case string:
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				return nil, fmt.Errorf("invalid date-time %q: %v", v, err)
			}
			return t.UTC().Truncate(time.Second), nil
		default:
			return nil, fmt.Errorf("expected date-time, got %T", value)
		}
	}
}
