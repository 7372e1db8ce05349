// Package cbormap validates decoded CBOR maps against an ordered entry
// specification and produces canonically ordered output maps.
//
// A Schema lists its entries in the order the validated map must
// serialize in, independent of the key order of the input. Validation
// aggregates every failure (missing keys, unknown keys under the reject
// policy, per-field errors) into one error value instead of stopping at
// the first, so a malformed structure reports all of its defects at
// once.
package cbormap

// UnknownKeyPolicy controls what happens to input keys that have no
// matching schema entry.
type UnknownKeyPolicy int

const (
	// UnknownKeyStrip drops unknown keys from the output.
	UnknownKeyStrip UnknownKeyPolicy = iota
	// UnknownKeyPassthrough keeps unknown keys, appended after the
	// declared ones in their original relative order.
	UnknownKeyPassthrough
	// UnknownKeyReject fails validation when unknown keys are present.
	UnknownKeyReject
)

// FieldFunc checks one field value and returns its normalized form.
// path identifies the field for error messages.
type FieldFunc func(path string, value interface{}) (interface{}, error)

// Entry declares one schema field: its key, whether it must be present,
// and the validator run against its value. Validate runs only when the
// key is present in the input; an absent optional key is skipped
// entirely, so a validator cannot supply a default for it.
type Entry struct {
	Key      string
	Required bool
	Validate FieldFunc
}
