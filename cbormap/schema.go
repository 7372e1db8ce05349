package cbormap

import (
	"sort"
)

// Schema is an ordered list of entries plus an unknown-key policy.
// Validate checks an input map against it and builds the canonical
// output: declared keys in declaration order, then (for passthrough)
// unknown keys in their original relative order.
type Schema struct {
	context string
	policy  UnknownKeyPolicy
	entries []Entry
}

// NewSchema builds a schema. context prefixes every error path, e.g.
// the name of the structure being validated.
func NewSchema(context string, policy UnknownKeyPolicy, entries ...Entry) *Schema {
	return &Schema{
		context: context,
		policy:  policy,
		entries: entries,
	}
}

// Validate checks input against the schema. On failure the returned
// error is an Errors value holding every path-qualified failure.
//
// Input may be an *OrderedMap (use DecodeOrderedMap to build one from
// wire bytes when the original key order matters), or a plain Go map,
// whose keys are visited in sorted order.
func (s *Schema) Validate(input interface{}) (*OrderedMap, error) {
	return s.validate(s.context, input)
}

// Field adapts the schema into a FieldFunc so it can validate a nested
// map inside an enclosing schema. The enclosing field path becomes the
// nested context.
func (s *Schema) Field() FieldFunc {
	return func(path string, value interface{}) (interface{}, error) {
		return s.validate(path, value)
	}
}

func (s *Schema) validate(path string, input interface{}) (*OrderedMap, error) {
	in, err := toOrderedMap(input)
	if err != nil {
		return nil, Errors{TypeError{Path: path, Got: input}}
	}

	declared := make(map[string]bool, len(s.entries))
	for _, e := range s.entries {
		declared[e.Key] = true
	}

	var errs Errors

	var missing []string
	for _, e := range s.entries {
		if e.Required && !in.Has(e.Key) {
			missing = append(missing, e.Key)
		}
	}
	if len(missing) > 0 {
		errs = append(errs, MissingKeysError{Path: path, Keys: missing})
	}

	var unknown []string
	for _, k := range in.Keys() {
		if !declared[k] {
			unknown = append(unknown, k)
		}
	}
	if s.policy == UnknownKeyReject && len(unknown) > 0 {
		errs = append(errs, UnknownKeysError{Path: path, Keys: unknown})
	}

	out := NewOrderedMap()
	for _, e := range s.entries {
		value, ok := in.Get(e.Key)
		if !ok {
			continue
		}
		fieldPath := path + "." + e.Key
		normalized, err := e.Validate(fieldPath, value)
		if err != nil {
			// Nested schema failures are already path-qualified.
			if nested, ok := err.(Errors); ok {
				errs = append(errs, nested...)
			} else {
				errs = append(errs, FieldError{Path: fieldPath, Err: err})
			}
			continue
		}
		out.Set(e.Key, normalized)
	}

	if s.policy == UnknownKeyPassthrough {
		for _, k := range in.Keys() {
			if !declared[k] {
				v, _ := in.Get(k)
				out.Set(k, v)
			}
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return out, nil
}

func toOrderedMap(input interface{}) (*OrderedMap, error) {
	switch v := input.(type) {
	case *OrderedMap:
		return v, nil
	case map[string]interface{}:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := NewOrderedMap()
		for _, k := range keys {
			m.Set(k, v[k])
		}
		return m, nil
	case map[interface{}]interface{}:
		keys := make([]string, 0, len(v))
		for k := range v {
			s, ok := k.(string)
			if !ok {
				return nil, TypeError{Got: k}
			}
			keys = append(keys, s)
		}
		sort.Strings(keys)
		m := NewOrderedMap()
		for _, k := range keys {
			m.Set(k, v[k])
		}
		return m, nil
	default:
		return nil, TypeError{Got: input}
	}
}
