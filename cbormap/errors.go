package cbormap

import (
	"fmt"
	"strings"
)

// TypeError is returned when the input is not a map at all.
type TypeError struct {
	Path string
	Got  interface{}
}

func (e TypeError) Error() string {
	return fmt.Sprintf("%s: expected a CBOR map, got %T", e.Path, e.Got)
}

// MissingKeysError reports every required key absent from the input as
// one aggregated error.
type MissingKeysError struct {
	Path string
	Keys []string
}

func (e MissingKeysError) Error() string {
	return fmt.Sprintf("%s: missing required keys: %s", e.Path, strings.Join(e.Keys, ", "))
}

// UnknownKeysError reports every undeclared key found under the reject
// policy as one aggregated error.
type UnknownKeysError struct {
	Path string
	Keys []string
}

func (e UnknownKeysError) Error() string {
	return fmt.Sprintf("%s: unknown keys: %s", e.Path, strings.Join(e.Keys, ", "))
}

// FieldError qualifies a validator failure with the path of the field
// that failed.
type FieldError struct {
	Path string
	Err  error
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e FieldError) Unwrap() error {
	return e.Err
}

// Errors is the aggregated validation result: every distinct failure
// cause, never just the first.
type Errors []error

func (e Errors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

func (e Errors) Unwrap() []error {
	return e
}
